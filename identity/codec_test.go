package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestCanonicalBytesCoversEveryField mutates each field in turn and checks
// CanonicalBytes changes — spec §8 property: the signature must cover the
// whole record, not a subset of it.
func TestCanonicalBytesCoversEveryField(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	base, _ := newSignedRecord(t, now)

	baseline, err := base.CanonicalBytes()
	require.NoError(t, err)

	mutate := []func(*Record){
		func(r *Record) { r.HasRegisteredName = true },
		func(r *Record) { r.RegisteredName = "someone" },
		func(r *Record) { r.NameRegisteredAt = 123 },
		func(r *Record) { r.NameExpiresAt = 456 },
		func(r *Record) { r.RegistrationTxHash = "deadbeef" },
		func(r *Record) { r.RegistrationNetwork = "ethereum" },
		func(r *Record) { r.NameVersion = 7 },
		func(r *Record) { r.Wallets.Ethereum = "0xabc" },
		func(r *Record) { r.Socials.Github = "nocdem" },
		func(r *Record) { r.Bio = "hi" },
		func(r *Record) { r.ProfilePictureIPFS = "Qm..." },
		func(r *Record) { r.AvatarBase64 = "aGVsbG8=" },
		func(r *Record) { r.Timestamp++ },
		func(r *Record) { r.Version++ },
	}

	for i, m := range mutate {
		clone := *base
		m(&clone)
		got, err := clone.CanonicalBytes()
		require.NoError(t, err)
		require.NotEqual(t, baseline, got, "mutation %d did not change CanonicalBytes", i)
	}
}

func TestCanonicalBytesExcludesSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	before, err := r.CanonicalBytes()
	require.NoError(t, err)

	r.Signature[0] ^= 0xFF
	after, err := r.CanonicalBytes()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestCanonicalBytesRejectsOversizedField(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	oversized := make([]byte, bioFieldSize)
	for i := range oversized {
		oversized[i] = 'x'
	}
	r.Bio = string(oversized)

	_, err := r.CanonicalBytes()
	require.Error(t, err)
}

func TestToJSONUnsignedOmitsSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	data, err := r.ToJSONUnsigned()
	require.NoError(t, err)
	require.NotContains(t, string(data), `"signature"`)
}

func TestFromJSONRejectsMalformedFingerprint(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	data, err := r.ToJSON()
	require.NoError(t, err)

	bad := []byte(`{"fingerprint":"not-a-fingerprint"}`)
	_, err = FromJSON(bad)
	require.Error(t, err)

	_, err = FromJSON(data)
	require.NoError(t, err)
}
