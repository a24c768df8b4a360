package identity

import (
	"testing"
	"time"

	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto/refimpl"
	"github.com/stretchr/testify/require"
)

func newSignedRecord(t *testing.T, now time.Time) (*Record, pqcrypto.Suite) {
	t.Helper()
	suite := refimpl.New()
	priv, err := suite.GenerateDilithium()
	require.NoError(t, err)

	fp := ComputeFingerprint(suite, priv.Public())
	kyberPub, _, err := suite.GenerateKyber()
	require.NoError(t, err)

	r, err := NewUnsigned(fp, priv.Public(), kyberPub, now)
	require.NoError(t, err)
	require.NoError(t, r.Sign(suite, priv))
	return r, suite
}

func TestSelfCertifyingRoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, suite := newSignedRecord(t, now)
	require.NoError(t, r.Verify(suite))

	data, err := r.ToJSON()
	require.NoError(t, err)

	parsed, err := FromJSON(data)
	require.NoError(t, err)
	require.NoError(t, parsed.Verify(suite))
	require.Equal(t, r.Fingerprint, parsed.Fingerprint)
}

func TestVerifyRejectsFingerprintMismatch(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, suite := newSignedRecord(t, now)

	other := refimpl.New()
	otherPriv, err := other.GenerateDilithium()
	require.NoError(t, err)
	r.Fingerprint = ComputeFingerprint(suite, otherPriv.Public())

	err = r.Verify(suite)
	require.ErrorIs(t, err, idnerrors.ErrInvariantViolationI1)
}

func TestVerifyRejectsMutatedField(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, suite := newSignedRecord(t, now)

	r.Bio = "mutated after signing"
	err := r.Verify(suite)
	require.ErrorIs(t, err, idnerrors.ErrInvariantViolationI2)
}

func TestVerifyRejectsMutatedSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, suite := newSignedRecord(t, now)

	r.Signature[0] ^= 0xFF
	err := r.Verify(suite)
	require.ErrorIs(t, err, idnerrors.ErrInvariantViolationI2)
}

func TestNameNormalizationAndOwnership(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	r.HasRegisteredName = true
	r.RegisteredName = NormalizeName(" Alice ")
	r.NameExpiresAt = uint64(now.Add(NameExpiry).Unix())
	require.Equal(t, "alice", r.RegisteredName)
	require.True(t, r.OwnsName(now))
	require.Equal(t, "alice", r.DisplayName(now))
}

func TestOwnsNameRejectsMixedCase(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	r.HasRegisteredName = true
	r.RegisteredName = "Alice"
	r.NameExpiresAt = uint64(now.Add(NameExpiry).Unix())
	require.False(t, r.OwnsName(now))
	require.Equal(t, r.Fingerprint.Short(), r.DisplayName(now))
}

func TestOwnsNameRejectsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	r.HasRegisteredName = true
	r.RegisteredName = "alice"
	r.NameExpiresAt = uint64(now.Add(-time.Hour).Unix())
	require.False(t, r.OwnsName(now))
	require.True(t, r.IsExpired(now))
}

func TestBumpAndStampIncrementsVersion(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	later := now.Add(time.Hour)
	r.BumpAndStamp(later)
	require.Equal(t, uint32(2), r.Version)
	require.Equal(t, uint64(later.Unix()), r.Timestamp)
}

func TestParseFingerprintHexRejectsUppercase(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r, _ := newSignedRecord(t, now)

	_, err := ParseFingerprintHex(r.Fingerprint.Hex()[:127] + "A")
	require.ErrorIs(t, err, idnerrors.ErrInvalidInput)
}
