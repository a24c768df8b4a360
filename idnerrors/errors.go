// Package idnerrors defines the error taxonomy shared by every component of
// the identity/keyserver core (spec §7). Errors are sentinel values wrapped
// with fmt.Errorf("...: %w", ...) at each call site, matching the teacher's
// accountsigner/kvstore convention of one var block of sentinels per package
// plus errors.Is-based classification at the boundary.
package idnerrors

import "errors"

// Sentinel errors. Callers compare with errors.Is, never string matching.
var (
	// ErrNotFound covers both "absent value" and "unresolved name" (spec §7).
	ErrNotFound = errors.New("idnerrors: not found")

	// ErrInvalidInput covers malformed fingerprints, invalid name grammar,
	// and other caller-supplied argument errors.
	ErrInvalidInput = errors.New("idnerrors: invalid input")

	// ErrInvariantViolationI1 is raised when SHA3-512(dilithium_pubkey) != fingerprint.
	ErrInvariantViolationI1 = errors.New("idnerrors: invariant I1 violated: fingerprint mismatch")

	// ErrInvariantViolationI2 is raised when the ML-DSA-87 signature does not verify.
	ErrInvariantViolationI2 = errors.New("idnerrors: invariant I2 violated: signature mismatch")

	// ErrInvariantViolationI5 is raised when an alias resolves to an identity
	// whose registered_name does not match the queried name.
	ErrInvariantViolationI5 = errors.New("idnerrors: invariant I5 violated: alias/identity name mismatch")

	// ErrVerificationFailed covers on-chain registration-check failures.
	ErrVerificationFailed = errors.New("idnerrors: on-chain verification failed")

	// ErrDHT is a transient overlay failure; callers may retry.
	ErrDHT = errors.New("idnerrors: dht error")

	// ErrIncompleteChunks means a chunked read could not reassemble a value;
	// callers may retry.
	ErrIncompleteChunks = errors.New("idnerrors: incomplete chunks")

	// ErrSignFailed is a local signing fault.
	ErrSignFailed = errors.New("idnerrors: sign failed")

	// ErrParseFailed is a local decode fault (malformed JSON, byte-length mismatch).
	ErrParseFailed = errors.New("idnerrors: parse failed")

	// ErrCancelled means the caller cancelled an in-flight async operation.
	ErrCancelled = errors.New("idnerrors: cancelled")

	// ErrNameTaken means a name is already owned by a different fingerprint.
	ErrNameTaken = errors.New("idnerrors: name already taken")
)

// IsInvariantViolation reports whether err is one of the I1/I2/I5 invariant
// failures. These must never be treated as transient or retried (spec §7).
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolationI1) ||
		errors.Is(err, ErrInvariantViolationI2) ||
		errors.Is(err, ErrInvariantViolationI5)
}

// IsRetriable reports whether err is a transient condition a caller may retry.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrDHT) || errors.Is(err, ErrIncompleteChunks)
}
