// Package pqcrypto declares the post-quantum primitive surface consumed by
// this subsystem (spec §6.2). The primitives themselves — ML-DSA-87,
// ML-KEM-1024, SHA3-512, SHAKE256, BIP-39/BIP-32 derivation — are an
// external collaborator per spec §1: this package only fixes the contract
// the rest of the module programs against, the way the teacher wraps an
// external curve implementation behind a small internal package (e.g. its
// crypto/secp256k1 wrapper around libsecp256k1).
package pqcrypto

import "errors"

// Fixed sizes mandated by spec §3.1 / §6.2. These are part of the wire
// contract: changing them changes the canonical record layout.
const (
	FingerprintSize     = 64   // SHA3-512 digest
	DilithiumPubkeySize = 2592 // ML-DSA-87 public key
	DilithiumPrivSize   = 4896 // ML-DSA-87 private key
	DilithiumSigSize    = 4627 // ML-DSA-87 signature
	KyberPubkeySize     = 1568 // ML-KEM-1024 public key
)

var (
	// ErrSignFailed is returned by Suite.Sign on a local signing fault.
	ErrSignFailed = errors.New("pqcrypto: sign failed")
	// ErrVerifyFailed is returned by Suite.Verify when a signature does not validate.
	ErrVerifyFailed = errors.New("pqcrypto: verify failed")
)

// DilithiumPrivateKey is an opaque ML-DSA-87 signing key. Implementations
// decide their own internal representation; the core never inspects it.
type DilithiumPrivateKey interface {
	// Public returns the fixed-size public key bytes (DilithiumPubkeySize).
	Public() []byte

	// Raw returns an opaque byte encoding a matching call to
	// Suite.LoadDilithium can reconstruct. Used by nodeid to persist a
	// node's signing key across process restarts.
	Raw() []byte
}

// Suite is the post-quantum primitive surface required by this subsystem.
// A production build wires this to the project's native ML-DSA-87/ML-KEM-1024
// implementation; pqcrypto/refimpl provides a SHA3-backed stand-in used by
// this repository's own tests and CLI so the rest of the module is runnable
// without the external collaborator present.
type Suite interface {
	// SHA3_512 returns the 64-byte SHA3-512 digest of data.
	SHA3_512(data []byte) [FingerprintSize]byte

	// SHAKE256 returns an outputLen-byte SHAKE256 digest of data.
	SHAKE256(data []byte, outputLen int) []byte

	// GenerateDilithium creates a fresh ML-DSA-87 keypair.
	GenerateDilithium() (DilithiumPrivateKey, error)

	// LoadDilithium reconstructs a DilithiumPrivateKey from the opaque
	// bytes a prior key's Raw() produced. Used to reload a signing key
	// persisted to disk (spec §4.8).
	LoadDilithium(raw []byte) (DilithiumPrivateKey, error)

	// Sign produces an ML-DSA-87 signature (DilithiumSigSize bytes) over msg.
	Sign(priv DilithiumPrivateKey, msg []byte) ([]byte, error)

	// Verify checks an ML-DSA-87 signature of msg against a raw public key.
	// It never panics on malformed input; malformed sig/pubkey sizes simply
	// fail verification.
	Verify(pubkey []byte, msg []byte, sig []byte) error

	// GenerateKyber creates a fresh ML-KEM-1024 keypair and returns the
	// fixed-size public key bytes (KyberPubkeySize) plus an opaque private
	// handle. The KEM is carried but never exercised by this subsystem
	// (spec §6.2): the keyserver only transports the public key.
	GenerateKyber() (pub []byte, priv interface{}, err error)
}
