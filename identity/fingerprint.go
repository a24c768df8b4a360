package identity

import (
	"encoding/hex"
	"fmt"

	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
)

// Fingerprint is the 64-byte SHA3-512 digest of a signing public key
// (spec §3.1). Externally it is represented as 128 lowercase hex chars.
type Fingerprint [pqcrypto.FingerprintSize]byte

// FingerprintHexLen is the length of a fingerprint's external hex form.
const FingerprintHexLen = pqcrypto.FingerprintSize * 2

// Hex returns the 128-lowercase-hex-char external representation.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

// String satisfies fmt.Stringer.
func (f Fingerprint) String() string { return f.Hex() }

// Short returns the first 16 hex chars followed by "...", the display form
// used by reverse_lookup when no name is bound or the name has expired
// (spec §4.2).
func (f Fingerprint) Short() string {
	h := f.Hex()
	return h[:16] + "..."
}

// IsZero reports whether f is the zero fingerprint.
func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

// ParseFingerprintHex parses a 128-lowercase-hex-char fingerprint. It
// rejects uppercase hex and wrong lengths — spec §4.2 step 1 requires
// "128 hex chars" exactly, and §3.1's fixed-layout invariant depends on a
// single canonical casing.
func ParseFingerprintHex(s string) (Fingerprint, error) {
	var fp Fingerprint
	if len(s) != FingerprintHexLen {
		return fp, fmt.Errorf("%w: fingerprint must be %d hex chars, got %d", idnerrors.ErrInvalidInput, FingerprintHexLen, len(s))
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return fp, fmt.Errorf("%w: fingerprint must be lowercase hex", idnerrors.ErrInvalidInput)
		}
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fp, fmt.Errorf("%w: %v", idnerrors.ErrInvalidInput, err)
	}
	copy(fp[:], raw)
	return fp, nil
}

// ComputeFingerprint derives the fingerprint of a Dilithium public key
// using suite's SHA3-512, per spec §3.1: fingerprint == SHA3-512(pubkey).
func ComputeFingerprint(suite pqcrypto.Suite, dilithiumPubkey []byte) Fingerprint {
	return Fingerprint(suite.SHA3_512(dilithiumPubkey))
}

// LooksLikeFingerprint reports whether s has the shape of a fingerprint
// (128 hex chars), used by the keyserver to decide whether a lookup input
// is a fingerprint or a name (spec §4.2 step 1).
func LooksLikeFingerprint(s string) bool {
	if len(s) != FingerprintHexLen {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
