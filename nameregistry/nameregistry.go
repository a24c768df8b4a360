// Package nameregistry implements spec §4.3: name grammar validation, the
// on-chain registration check that gates name binding, renewal, and expiry.
// Its guard-clause, load-mutate-republish action style is grounded on
// tos-network-gtos's staking package (Stake/Unstake/Delegate), adapted from
// mutating an EVM account's state DB to re-signing and republishing a DHT
// identity record.
package nameregistry

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/nocdem/dna-messenger-sub018/chainrpc"
	"github.com/nocdem/dna-messenger-sub018/chunkstore"
	"github.com/nocdem/dna-messenger-sub018/dht"
	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/keyserver"
	"github.com/nocdem/dna-messenger-sub018/log"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/nocdem/dna-messenger-sub018/ttlclass"
)

// Registry is the name registry of spec §4.3, layered on top of a
// keyserver.Server and an on-chain transaction verifier.
type Registry struct {
	keyserver *keyserver.Server
	overlay   dht.Overlay
	suite     pqcrypto.Suite
	chain     chainrpc.Verifier
	log       log.Logger
}

// NewRegistry wires a Registry to its collaborators.
func NewRegistry(ks *keyserver.Server, overlay dht.Overlay, suite pqcrypto.Suite, chain chainrpc.Verifier, logger log.Logger) *Registry {
	if logger == nil {
		logger = log.Discard()
	}
	return &Registry{keyserver: ks, overlay: overlay, suite: suite, chain: chain, log: logger}
}

func aliasBaseKey(name string) string {
	return identity.NormalizeName(name) + ":lookup"
}

// Register implements spec §4.3's register algorithm.
func (r *Registry) Register(ctx context.Context, fp identity.Fingerprint, name, txHash, network string, priv pqcrypto.DilithiumPrivateKey, now time.Time) error {
	name = identity.NormalizeName(name)
	if err := identity.ValidateNameGrammar(name); err != nil {
		return err
	}

	status, err := r.chain.VerifyRegistrationTx(ctx, txHash, network, name)
	if err != nil {
		return err
	}
	switch status {
	case chainrpc.ValidationFailed:
		return idnerrors.ErrVerificationFailed
	case chainrpc.RpcError:
		return idnerrors.ErrDHT
	}

	if existing, err := r.keyserver.Lookup(ctx, name, now); err == nil {
		if existing.Fingerprint != fp {
			r.log.Debug("nameregistry: collision, name already owned", "name", name)
			return idnerrors.ErrNameTaken
		}
		// Same fingerprint: this is a renewal-by-registration, permitted.
	} else if err != idnerrors.ErrNotFound {
		return err
	}

	// The identity record must already exist (created by a prior
	// keyserver.Publish) — name registration only binds a name onto an
	// existing identity, it does not mint one (spec §4.3 step 4 assumes
	// "load or create"; this subsystem never creates one here because it
	// would need the caller's keys, which Register does not take).
	rec, err := r.keyserver.Lookup(ctx, fp.Hex(), now)
	if err != nil {
		return err
	}
	rec.HasRegisteredName = true
	rec.RegisteredName = name
	rec.NameRegisteredAt = uint64(now.Unix())
	rec.NameExpiresAt = uint64(now.Add(identity.NameExpiry).Unix())
	rec.RegistrationTxHash = txHash
	rec.RegistrationNetwork = network
	rec.NameVersion = 1
	rec.BumpAndStamp(now)

	if err := r.signAndPublishIdentity(ctx, rec, priv, ttlclass.Type7Day); err != nil {
		return err
	}
	return r.publishAlias(ctx, fp, name)
}

// Renew implements spec §4.3's renewal algorithm.
func (r *Registry) Renew(ctx context.Context, fp identity.Fingerprint, txHash string, priv pqcrypto.DilithiumPrivateKey, now time.Time) error {
	rec, err := r.keyserver.Lookup(ctx, fp.Hex(), now)
	if err != nil {
		return err
	}
	if !rec.HasRegisteredName {
		return idnerrors.ErrNotFound
	}

	status, err := r.chain.VerifyRegistrationTx(ctx, txHash, rec.RegistrationNetwork, rec.RegisteredName)
	if err != nil {
		return err
	}
	switch status {
	case chainrpc.ValidationFailed:
		return idnerrors.ErrVerificationFailed
	case chainrpc.RpcError:
		return idnerrors.ErrDHT
	}

	rec.NameExpiresAt += uint64(identity.NameExpiry / time.Second)
	rec.RegistrationTxHash = txHash
	rec.NameVersion++
	rec.BumpAndStamp(now)

	if err := r.signAndPublishIdentity(ctx, rec, priv, ttlclass.Type7Day); err != nil {
		return err
	}
	return r.publishAlias(ctx, fp, rec.RegisteredName)
}

// IsExpired implements spec §4.3's expiry check.
func (r *Registry) IsExpired(rec *identity.Record, now time.Time) bool {
	return rec.IsExpired(now)
}

func (r *Registry) signAndPublishIdentity(ctx context.Context, rec *identity.Record, priv pqcrypto.DilithiumPrivateKey, class dht.ValueType) error {
	if err := rec.Sign(r.suite, priv); err != nil {
		return err
	}
	data, err := rec.ToJSON()
	if err != nil {
		return idnerrors.ErrParseFailed
	}
	valueID := valueIDFor(rec.Fingerprint)
	return chunkstore.PublishSigned(ctx, r.overlay, rec.Fingerprint.Hex()+":identity", data, valueID, class)
}

func (r *Registry) publishAlias(ctx context.Context, fp identity.Fingerprint, name string) error {
	valueID := valueIDFor(fp)
	return chunkstore.PublishSigned(ctx, r.overlay, aliasBaseKey(name), []byte(fp.Hex()), valueID, ttlclass.Type365Day)
}

// valueIDFor derives the same overlay-signed value_id keyserver.Publish
// uses for this fingerprint's identity key, so Register/Renew replace that
// exact write rather than opening a second writer slot at the same key.
func valueIDFor(fp identity.Fingerprint) uint64 {
	return binary.BigEndian.Uint64(fp[:8])
}
