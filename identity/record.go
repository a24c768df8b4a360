// Package identity implements the identity record model: its fixed-layout
// canonical signing bytes, JSON wire form, and the invariants every reader
// must check (spec §3, §4.1).
package identity

import (
	"fmt"
	"regexp"
	"time"

	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
)

// NameExpiry is the ownership period of a registered name (spec §4.3).
const NameExpiry = 365 * 24 * time.Hour

// IdentityTTL is the identity record's own DHT expiry, refreshed on
// activity (spec §3.1). It stays this short after name registration:
// Register and Renew republish the record under ttlclass.Type7Day as well.
const IdentityTTL = 7 * 24 * time.Hour

var nameGrammar = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// ValidateNameGrammar checks the name grammar of spec §4.3: lowercase ascii
// alphanumerics plus underscore, 3-20 chars.
func ValidateNameGrammar(name string) error {
	if !nameGrammar.MatchString(name) {
		return fmt.Errorf("%w: name must match [a-z0-9_]{3,20}", idnerrors.ErrInvalidInput)
	}
	return nil
}

// NormalizeName lowercases and trims a name for use as a lookup/storage key
// (spec §4.3: "storage key always uses lowercase"; spec §8 property 3
// requires " Alice " and "ALICE" to resolve like "alice").
func NormalizeName(name string) string {
	return toLowerASCII(trimSpaceASCII(name))
}

func trimSpaceASCII(s string) string {
	start, end := 0, len(s)
	for start < end && isASCIISpace(s[start]) {
		start++
	}
	for end > start && isASCIISpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isASCIISpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Record is the identity record of spec §3.1: the fields below are listed
// in the exact order the canonical signing message concatenates them
// (spec §4.1). CanonicalBytes appends each field explicitly, so the struct
// order itself does not affect the signed bytes.
type Record struct {
	Fingerprint Fingerprint

	DilithiumPubkey []byte // pqcrypto.DilithiumPubkeySize bytes
	KyberPubkey     []byte // pqcrypto.KyberPubkeySize bytes

	HasRegisteredName bool
	RegisteredName    string
	NameRegisteredAt  uint64
	NameExpiresAt     uint64

	RegistrationTxHash   string
	RegistrationNetwork  string
	NameVersion          uint32

	Wallets WalletSet
	Socials SocialSet

	Bio                string
	ProfilePictureIPFS string
	AvatarBase64       string

	Timestamp uint64
	Version   uint32

	// Signature is excluded from CanonicalBytes but carried in the JSON
	// wire form (spec §4.1).
	Signature []byte
}

// NewUnsigned builds the "freshly published" record of spec §4.2 step 2:
// no registered name, version 1, stamped at now.
func NewUnsigned(fp Fingerprint, dilithiumPubkey, kyberPubkey []byte, now time.Time) (*Record, error) {
	if len(dilithiumPubkey) != pqcrypto.DilithiumPubkeySize {
		return nil, fmt.Errorf("%w: dilithium pubkey must be %d bytes", idnerrors.ErrInvalidInput, pqcrypto.DilithiumPubkeySize)
	}
	if len(kyberPubkey) != pqcrypto.KyberPubkeySize {
		return nil, fmt.Errorf("%w: kyber pubkey must be %d bytes", idnerrors.ErrInvalidInput, pqcrypto.KyberPubkeySize)
	}
	return &Record{
		Fingerprint:     fp,
		DilithiumPubkey: append([]byte(nil), dilithiumPubkey...),
		KyberPubkey:     append([]byte(nil), kyberPubkey...),
		Timestamp:       uint64(now.Unix()),
		Version:         1,
	}, nil
}

// ApplyProfile overwrites the profile subset, per spec §4.4 update semantics
// (identity-binding fields — fingerprint, keys, name — are untouched).
func (r *Record) ApplyProfile(p ProfileData) {
	r.Wallets = p.Wallets
	r.Socials = p.Socials
	r.Bio = p.Bio
	r.AvatarBase64 = p.AvatarBase64
	r.ProfilePictureIPFS = p.ProfilePictureIPFS
}

// BumpAndStamp increments Version and sets Timestamp — required on every
// owner mutation (spec §3.1 lifecycle, §4.4 update semantics).
func (r *Record) BumpAndStamp(now time.Time) {
	r.Version++
	r.Timestamp = uint64(now.Unix())
}

// IsExpired reports is_expired(identity) of spec §4.3:
// has_registered_name && now >= name_expires_at.
func (r *Record) IsExpired(now time.Time) bool {
	if !r.HasRegisteredName {
		return false
	}
	return uint64(now.Unix()) >= r.NameExpiresAt
}

// OwnsName reports whether the record currently owns its registered name —
// invariant I3: registered, well-formed, and not expired.
func (r *Record) OwnsName(now time.Time) bool {
	if !r.HasRegisteredName {
		return false
	}
	if ValidateNameGrammar(r.RegisteredName) != nil {
		return false
	}
	if r.RegisteredName != NormalizeName(r.RegisteredName) {
		// spec §9 Open Question resolution: a mixed-case registered_name
		// anywhere makes the record invalid for name-ownership purposes.
		return false
	}
	return uint64(now.Unix()) < r.NameExpiresAt
}

// DisplayName returns the reverse_lookup display string of spec §4.2: the
// registered name if owned and non-expired, otherwise the short fingerprint.
func (r *Record) DisplayName(now time.Time) string {
	if r.OwnsName(now) {
		return r.RegisteredName
	}
	return r.Fingerprint.Short()
}
