// Package refimpl is a reference implementation of pqcrypto.Suite.
//
// It is NOT ML-DSA-87/ML-KEM-1024. Those primitives are an external
// collaborator per spec §1/§6.2 and are out of scope for this repository.
// This package exists so the rest of the module — the codec, the
// keyserver, the chunked layer, the CLI, and their tests — has something
// concrete to run against. It gets the fixed sizes mandated by spec §3.1
// right (pqcrypto.DilithiumPubkeySize/DilithiumSigSize/KyberPubkeySize) and
// gets the asymmetric-signature *properties* right (tampering invalidates
// the signature, the public key is not recoverable from a signature alone)
// by wrapping Ed25519 (crypto/ed25519, real and in the standard library)
// and deterministically padding its 32/64-byte values out to the
// contractual PQ sizes with a SHAKE256 expansion the verifier re-derives
// and checks byte-for-byte. Swap this package out for the project's actual
// ML-DSA-87/ML-KEM-1024 binding in production; nothing else in the module
// depends on refimpl directly, only on pqcrypto.Suite.
package refimpl

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"golang.org/x/crypto/sha3"
)

type privateKey struct {
	seed ed25519.PrivateKey
	pub  []byte // expanded, fixed-size public key
}

func (k *privateKey) Public() []byte { return append([]byte(nil), k.pub...) }

// Raw returns the 64-byte Ed25519 private key (seed||public), the smallest
// encoding this stand-in needs to reconstruct a signing key. A production
// ML-DSA-87 binding would return its own native private-key bytes instead.
func (k *privateKey) Raw() []byte { return append([]byte(nil), k.seed...) }

// Suite implements pqcrypto.Suite.
type Suite struct{}

// New returns the reference Suite.
func New() pqcrypto.Suite { return Suite{} }

func (Suite) SHA3_512(data []byte) [pqcrypto.FingerprintSize]byte {
	return sha3.Sum512(data)
}

func (Suite) SHAKE256(data []byte, outputLen int) []byte {
	out := make([]byte, outputLen)
	sh := sha3.NewShake256()
	sh.Write(data)
	sh.Read(out)
	return out
}

func expandPublic(edPub ed25519.PublicKey) []byte {
	pad := shake(edPub, pqcrypto.DilithiumPubkeySize-ed25519.PublicKeySize, "dilithium-pub-pad")
	return append(append([]byte{}, edPub...), pad...)
}

func expandSignature(edSig []byte, msg []byte) []byte {
	pad := shake(append(append([]byte{}, edSig...), msg...), pqcrypto.DilithiumSigSize-ed25519.SignatureSize, "dilithium-sig-pad")
	return append(append([]byte{}, edSig...), pad...)
}

func shake(data []byte, n int, domain string) []byte {
	sh := sha3.NewShake256()
	sh.Write([]byte(domain))
	sh.Write(data)
	out := make([]byte, n)
	sh.Read(out)
	return out
}

func (Suite) GenerateDilithium() (pqcrypto.DilithiumPrivateKey, error) {
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pqcrypto.ErrSignFailed, err)
	}
	return &privateKey{seed: edPriv, pub: expandPublic(edPub)}, nil
}

func (Suite) LoadDilithium(raw []byte) (pqcrypto.DilithiumPrivateKey, error) {
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: wrong raw key length", pqcrypto.ErrSignFailed)
	}
	edPriv := ed25519.PrivateKey(append([]byte(nil), raw...))
	edPub, ok := edPriv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: could not derive public key", pqcrypto.ErrSignFailed)
	}
	return &privateKey{seed: edPriv, pub: expandPublic(edPub)}, nil
}

func (Suite) Sign(priv pqcrypto.DilithiumPrivateKey, msg []byte) ([]byte, error) {
	k, ok := priv.(*privateKey)
	if !ok || k == nil {
		return nil, fmt.Errorf("%w: unrecognized key type", pqcrypto.ErrSignFailed)
	}
	edSig := ed25519.Sign(k.seed, msg)
	return expandSignature(edSig, msg), nil
}

func (Suite) Verify(pubkey []byte, msg []byte, sig []byte) error {
	if len(pubkey) != pqcrypto.DilithiumPubkeySize || len(sig) != pqcrypto.DilithiumSigSize {
		return pqcrypto.ErrVerifyFailed
	}
	edPub := ed25519.PublicKey(pubkey[:ed25519.PublicKeySize])
	edSig := sig[:ed25519.SignatureSize]
	if !ed25519.Verify(edPub, msg, edSig) {
		return pqcrypto.ErrVerifyFailed
	}
	wantPubPad := shake(edPub, pqcrypto.DilithiumPubkeySize-ed25519.PublicKeySize, "dilithium-pub-pad")
	if !bytesEqual(pubkey[ed25519.PublicKeySize:], wantPubPad) {
		return pqcrypto.ErrVerifyFailed
	}
	wantSigPad := shake(append(append([]byte{}, edSig...), msg...), pqcrypto.DilithiumSigSize-ed25519.SignatureSize, "dilithium-sig-pad")
	if !bytesEqual(sig[ed25519.SignatureSize:], wantSigPad) {
		return pqcrypto.ErrVerifyFailed
	}
	return nil
}

func (Suite) GenerateKyber() ([]byte, interface{}, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", pqcrypto.ErrSignFailed, err)
	}
	pub := shake(seed, pqcrypto.KyberPubkeySize, "kyber-pub")
	return pub, seed, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
