package identity

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
)

// Signing discipline (spec §4.1 / §9 Open Question): this implementation
// signs the fixed-layout BINARY concatenation of every field except
// Signature, never the JSON-without-signature bytes. The two disciplines
// are not interchangeable; CanonicalBytes is the only one ever fed to
// Suite.Sign/Suite.Verify.

// CanonicalBytes produces the exact byte sequence that is signed and
// verified for r, in the field order of spec §3.1/§4.1. It returns an
// idnerrors.ErrInvalidInput error if a variable-length field doesn't fit its
// fixed slot, or an idnerrors.ErrParseFailed error if a public key has the
// wrong length.
func (r *Record) CanonicalBytes() ([]byte, error) {
	if len(r.DilithiumPubkey) != pqcrypto.DilithiumPubkeySize {
		return nil, fmt.Errorf("%w: dilithium pubkey must be %d bytes", idnerrors.ErrParseFailed, pqcrypto.DilithiumPubkeySize)
	}
	if len(r.KyberPubkey) != pqcrypto.KyberPubkeySize {
		return nil, fmt.Errorf("%w: kyber pubkey must be %d bytes", idnerrors.ErrParseFailed, pqcrypto.KyberPubkeySize)
	}

	fpField, err := putFixed(r.Fingerprint.Hex(), registrationFingerprintFieldSize)
	if err != nil {
		return nil, err
	}
	nameField, err := putFixed(r.RegisteredName, registeredNameFieldSize)
	if err != nil {
		return nil, err
	}
	txHashField, err := putFixed(r.RegistrationTxHash, registrationTxHashFieldSize)
	if err != nil {
		return nil, err
	}
	networkField, err := putFixed(r.RegistrationNetwork, registrationNetworkFieldSize)
	if err != nil {
		return nil, err
	}
	bioField, err := putFixed(r.Bio, bioFieldSize)
	if err != nil {
		return nil, err
	}
	ipfsField, err := putFixed(r.ProfilePictureIPFS, profilePictureIPFSFieldSize)
	if err != nil {
		return nil, err
	}
	avatarField, err := putFixed(r.AvatarBase64, avatarBase64FieldSize)
	if err != nil {
		return nil, err
	}
	walletsField, err := r.Wallets.marshalFixed()
	if err != nil {
		return nil, err
	}
	socialsField, err := r.Socials.marshalFixed()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0,
		registrationFingerprintFieldSize+pqcrypto.DilithiumPubkeySize+pqcrypto.KyberPubkeySize+
			1+registeredNameFieldSize+8+8+
			registrationTxHashFieldSize+registrationNetworkFieldSize+4+
			len(walletsField)+len(socialsField)+
			bioFieldSize+profilePictureIPFSFieldSize+avatarBase64FieldSize+
			8+4)

	buf = append(buf, fpField...)
	buf = append(buf, r.DilithiumPubkey...)
	buf = append(buf, r.KyberPubkey...)
	buf = append(buf, boolByte(r.HasRegisteredName))
	buf = append(buf, nameField...)
	buf = appendU64(buf, r.NameRegisteredAt)
	buf = appendU64(buf, r.NameExpiresAt)
	buf = append(buf, txHashField...)
	buf = append(buf, networkField...)
	buf = appendU32(buf, r.NameVersion)
	buf = append(buf, walletsField...)
	buf = append(buf, socialsField...)
	buf = append(buf, bioField...)
	buf = append(buf, ipfsField...)
	buf = append(buf, avatarField...)
	buf = appendU64(buf, r.Timestamp)
	buf = appendU32(buf, r.Version)
	return buf, nil
}

const registrationFingerprintFieldSize = FingerprintHexLen + 1 // 128 hex chars plus a NUL: 129 bytes (spec §3.1)

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// Sign computes CanonicalBytes and signs them with priv, storing the result
// in r.Signature (spec §4.1/§4.2 step 3).
func (r *Record) Sign(suite pqcrypto.Suite, priv pqcrypto.DilithiumPrivateKey) error {
	msg, err := r.CanonicalBytes()
	if err != nil {
		return err
	}
	sig, err := suite.Sign(priv, msg)
	if err != nil {
		return fmt.Errorf("%w: %v", idnerrors.ErrSignFailed, err)
	}
	r.Signature = sig
	return nil
}

// Verify checks invariants I1 and I2 against r (spec §3.2): the embedded
// fingerprint must equal SHA3-512(DilithiumPubkey), and Signature must
// verify over CanonicalBytes() under DilithiumPubkey.
func (r *Record) Verify(suite pqcrypto.Suite) error {
	gotFP := ComputeFingerprint(suite, r.DilithiumPubkey)
	if gotFP != r.Fingerprint {
		return idnerrors.ErrInvariantViolationI1
	}
	msg, err := r.CanonicalBytes()
	if err != nil {
		return fmt.Errorf("%w: %v", idnerrors.ErrParseFailed, err)
	}
	if err := suite.Verify(r.DilithiumPubkey, msg, r.Signature); err != nil {
		return idnerrors.ErrInvariantViolationI2
	}
	return nil
}

// recordJSON is the external wire form (spec §4.1/§6.5): binary fields hex
// encoded, everything else plain.
type recordJSON struct {
	Fingerprint string `json:"fingerprint"`

	DilithiumPubkey string `json:"dilithium_pubkey"`
	KyberPubkey     string `json:"kyber_pubkey"`

	HasRegisteredName bool   `json:"has_registered_name"`
	RegisteredName    string `json:"registered_name"`
	NameRegisteredAt  uint64 `json:"name_registered_at"`
	NameExpiresAt     uint64 `json:"name_expires_at"`

	RegistrationTxHash  string `json:"registration_tx_hash"`
	RegistrationNetwork string `json:"registration_network"`
	NameVersion         uint32 `json:"name_version"`

	Wallets WalletSet `json:"wallets"`
	Socials SocialSet `json:"socials"`

	Bio                string `json:"bio"`
	ProfilePictureIPFS string `json:"profile_picture_ipfs"`
	AvatarBase64       string `json:"avatar_base64"`

	Timestamp uint64 `json:"timestamp"`
	Version   uint32 `json:"version"`

	Signature string `json:"signature,omitempty"`
}

func (r *Record) toJSONStruct() recordJSON {
	return recordJSON{
		Fingerprint:         r.Fingerprint.Hex(),
		DilithiumPubkey:     hex.EncodeToString(r.DilithiumPubkey),
		KyberPubkey:         hex.EncodeToString(r.KyberPubkey),
		HasRegisteredName:   r.HasRegisteredName,
		RegisteredName:      r.RegisteredName,
		NameRegisteredAt:    r.NameRegisteredAt,
		NameExpiresAt:       r.NameExpiresAt,
		RegistrationTxHash:  r.RegistrationTxHash,
		RegistrationNetwork: r.RegistrationNetwork,
		NameVersion:         r.NameVersion,
		Wallets:             r.Wallets,
		Socials:             r.Socials,
		Bio:                 r.Bio,
		ProfilePictureIPFS:  r.ProfilePictureIPFS,
		AvatarBase64:        r.AvatarBase64,
		Timestamp:           r.Timestamp,
		Version:             r.Version,
		Signature:           hex.EncodeToString(r.Signature),
	}
}

// ToJSON serializes r including its signature (spec §4.1 "to_json, full").
func (r *Record) ToJSON() ([]byte, error) {
	return json.Marshal(r.toJSONStruct())
}

// ToJSONUnsigned serializes r without the signature field (spec §4.1
// "to_json_unsigned"). It exists for forward-compatible transports; this
// implementation's signing discipline never signs these bytes — see the
// signing-discipline comment above CanonicalBytes.
func (r *Record) ToJSONUnsigned() ([]byte, error) {
	j := r.toJSONStruct()
	j.Signature = ""
	out, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FromJSON parses the wire form of spec §6.5. It does not verify
// invariants; call Verify separately (spec §4.4 "load_identity" verify flag).
func FromJSON(data []byte) (*Record, error) {
	var j recordJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrParseFailed, err)
	}
	fp, err := ParseFingerprintHex(j.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrParseFailed, err)
	}
	dilithiumPub, err := hex.DecodeString(j.DilithiumPubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad dilithium_pubkey hex: %v", idnerrors.ErrParseFailed, err)
	}
	kyberPub, err := hex.DecodeString(j.KyberPubkey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad kyber_pubkey hex: %v", idnerrors.ErrParseFailed, err)
	}
	sig, err := hex.DecodeString(j.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: bad signature hex: %v", idnerrors.ErrParseFailed, err)
	}
	return &Record{
		Fingerprint:         fp,
		DilithiumPubkey:     dilithiumPub,
		KyberPubkey:         kyberPub,
		HasRegisteredName:   j.HasRegisteredName,
		RegisteredName:      j.RegisteredName,
		NameRegisteredAt:    j.NameRegisteredAt,
		NameExpiresAt:       j.NameExpiresAt,
		RegistrationTxHash:  j.RegistrationTxHash,
		RegistrationNetwork: j.RegistrationNetwork,
		NameVersion:         j.NameVersion,
		Wallets:             j.Wallets,
		Socials:             j.Socials,
		Bio:                 j.Bio,
		ProfilePictureIPFS:  j.ProfilePictureIPFS,
		AvatarBase64:        j.AvatarBase64,
		Timestamp:           j.Timestamp,
		Version:             j.Version,
		Signature:           sig,
	}, nil
}
