// Package nodeid implements spec §4.8: the DHT node's own post-quantum
// signing keypair and self-signed certificate, persisted next to the
// process state directory and regenerated if missing or corrupt. The
// persist-to-named-files, regenerate-on-load-failure shape is grounded on
// tos-network-gtos's accounts/keystore package (Key persisted as JSON next
// to the keystore directory); this package carries no password encryption
// because spec §6.4 specifies plain files, and the node's signing key
// secures overlay participation, not user funds.
package nodeid

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/log"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
)

// Identity is a loaded or freshly generated node identity: a post-quantum
// signing keypair plus a self-signed certificate over the public key. The
// node's key has no relationship to any user identity's signing key (spec
// §4.8).
type Identity struct {
	Priv pqcrypto.DilithiumPrivateKey
	Pub  []byte // pqcrypto.DilithiumPubkeySize bytes
	Cert []byte // self-signed, suite.Sign(priv, pub)
}

func paths(dataDir, node string) (dsa, pub, cert string) {
	base := filepath.Join(dataDir, node)
	return base + ".dsa", base + ".pub", base + ".cert"
}

// Load loads the node identity at {dataDir}/{node}.{dsa,pub,cert}. If any
// file is missing or fails to validate, it logs a warning and regenerates
// all three (spec §4.8: "if any file is missing or corrupt, regenerate").
func Load(suite pqcrypto.Suite, dataDir, node string, logger log.Logger) (*Identity, error) {
	if logger == nil {
		logger = log.Discard()
	}
	dsaPath, pubPath, certPath := paths(dataDir, node)

	id, err := loadExisting(suite, dsaPath, pubPath, certPath)
	if err == nil {
		return id, nil
	}
	logger.Warn("nodeid: regenerating node identity", "node", node, "reason", err)

	id, err = generate(suite)
	if err != nil {
		return nil, err
	}
	if err := persist(dataDir, node, id); err != nil {
		return nil, err
	}
	return id, nil
}

// Rotate unconditionally generates a fresh keypair and certificate for
// node, overwriting whatever was persisted before. Unlike Load, it never
// reuses an existing on-disk key.
func Rotate(suite pqcrypto.Suite, dataDir, node string, logger log.Logger) (*Identity, error) {
	if logger == nil {
		logger = log.Discard()
	}
	id, err := generate(suite)
	if err != nil {
		return nil, err
	}
	if err := persist(dataDir, node, id); err != nil {
		return nil, err
	}
	logger.Info("nodeid: rotated identity", "node", node)
	return id, nil
}

func loadExisting(suite pqcrypto.Suite, dsaPath, pubPath, certPath string) (*Identity, error) {
	privBytes, err := os.ReadFile(dsaPath)
	if err != nil {
		return nil, err
	}
	pub, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}
	cert, err := os.ReadFile(certPath)
	if err != nil {
		return nil, err
	}
	if len(pub) != pqcrypto.DilithiumPubkeySize {
		return nil, fmt.Errorf("%w: %s has wrong length", idnerrors.ErrParseFailed, pubPath)
	}
	priv, err := suite.LoadDilithium(privBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", idnerrors.ErrParseFailed, dsaPath, err)
	}
	if !bytesEqual(priv.Public(), pub) {
		return nil, fmt.Errorf("%w: %s does not match %s", idnerrors.ErrParseFailed, dsaPath, pubPath)
	}
	if err := suite.Verify(pub, pub, cert); err != nil {
		return nil, fmt.Errorf("%w: self-signed cert does not verify", idnerrors.ErrInvariantViolationI2)
	}
	return &Identity{Priv: priv, Pub: pub, Cert: cert}, nil
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

func generate(suite pqcrypto.Suite) (*Identity, error) {
	priv, err := suite.GenerateDilithium()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrSignFailed, err)
	}
	pub := priv.Public()
	cert, err := suite.Sign(priv, pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrSignFailed, err)
	}
	return &Identity{Priv: priv, Pub: pub, Cert: cert}, nil
}

func persist(dataDir, node string, id *Identity) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	dsaPath, pubPath, certPath := paths(dataDir, node)

	if err := os.WriteFile(dsaPath, id.Priv.Raw(), 0o600); err != nil {
		return err
	}
	if err := os.WriteFile(pubPath, id.Pub, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(certPath, id.Cert, 0o644); err != nil {
		return err
	}
	return nil
}

