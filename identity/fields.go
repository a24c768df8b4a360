package identity

import (
	"fmt"

	"github.com/nocdem/dna-messenger-sub018/idnerrors"
)

// Fixed field sizes for the canonical signing layout (spec §3.1/§4.1). These
// are part of the wire contract: the canonical serializer's output length is
// a compile-time constant, matching the design note in spec §9 ("manual
// buffer sizing ... represent each fixed field as a typed byte array with a
// validating constructor").
const (
	registeredNameFieldSize      = 32
	registrationTxHashFieldSize  = 128
	registrationNetworkFieldSize = 32
	bioFieldSize                 = 256
	profilePictureIPFSFieldSize  = 128
	avatarBase64FieldSize        = 200 * 1024
	walletAddressFieldSize       = 64
	socialHandleFieldSize        = 64
)

// Name grammar, spec §4.3: lowercase ascii alphanumerics plus underscore, 3-20 chars.
const (
	NameMinLen = 3
	NameMaxLen = 20
)

// putFixed copies s into a freshly allocated NUL-padded byte slice of size n.
// It errors rather than silently truncating oversized input — truncation
// would make two different names hash/sign identically, which would be a
// security bug in a fixed-layout signing scheme.
func putFixed(s string, n int) ([]byte, error) {
	b := []byte(s)
	if len(b) >= n {
		return nil, fmt.Errorf("%w: value of length %d exceeds fixed field size %d", idnerrors.ErrInvalidInput, len(b), n-1)
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// WalletSet is the fixed-size per-chain wallet address block carried in the
// profile (spec §3.1 "wallets"). Addresses are opaque strings; this
// subsystem never validates chain-specific address formats.
type WalletSet struct {
	Backbone string `json:"backbone"`
	Ethereum string `json:"ethereum"`
	Bitcoin  string `json:"bitcoin"`
	Solana   string `json:"solana"`
}

func (w WalletSet) fields() []string {
	return []string{w.Backbone, w.Ethereum, w.Bitcoin, w.Solana}
}

func (w WalletSet) marshalFixed() ([]byte, error) {
	out := make([]byte, 0, walletAddressFieldSize*4)
	for _, f := range w.fields() {
		b, err := putFixed(f, walletAddressFieldSize)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// SocialSet is the fixed-size per-platform social handle block (spec §3.1
// "socials").
type SocialSet struct {
	Twitter  string `json:"twitter"`
	Telegram string `json:"telegram"`
	Github   string `json:"github"`
	Discord  string `json:"discord"`
}

func (s SocialSet) fields() []string {
	return []string{s.Twitter, s.Telegram, s.Github, s.Discord}
}

func (s SocialSet) marshalFixed() ([]byte, error) {
	out := make([]byte, 0, socialHandleFieldSize*4)
	for _, f := range s.fields() {
		b, err := putFixed(f, socialHandleFieldSize)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// ProfileData is the subset of a Record a profile update replaces (spec §3.1
// "Profile data (update payload)" / §4.4).
type ProfileData struct {
	Wallets            WalletSet
	Socials            SocialSet
	Bio                string
	AvatarBase64       string
	ProfilePictureIPFS string
}
