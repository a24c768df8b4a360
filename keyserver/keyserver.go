// Package keyserver implements the publish/lookup/update/reverse-lookup
// surface of spec §4.2: the namespace logic over identity records, their
// verification, and newest-valid selection among DHT value-set candidates.
// Its registry-style read path (RWMutex-protected map, expiry-aware Query)
// is grounded on tos-network-gtos's agent.Registry; here the "registry" is
// the DHT itself, reached through chunkstore, rather than an in-process map.
package keyserver

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/nocdem/dna-messenger-sub018/chunkstore"
	"github.com/nocdem/dna-messenger-sub018/dht"
	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/log"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/nocdem/dna-messenger-sub018/ttlclass"
)

// Server is the keyserver of spec §4.2: publish, lookup, update, and
// reverse lookup over identity records stored in the DHT.
type Server struct {
	overlay dht.Overlay
	suite   pqcrypto.Suite
	log     log.Logger
}

// NewServer wires a Server to overlay and suite (spec §9's explicit-handle
// design: no global singleton, every dependency is constructor-injected).
func NewServer(overlay dht.Overlay, suite pqcrypto.Suite, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	return &Server{overlay: overlay, suite: suite, log: logger}
}

func identityKey(fp identity.Fingerprint) string {
	return fp.Hex() + ":identity"
}

func aliasKey(name string) string {
	return identity.NormalizeName(name) + ":lookup"
}

func valueIDFor(fp identity.Fingerprint) uint64 {
	return binary.BigEndian.Uint64(fp[:8])
}

// Publish implements spec §4.2's publish algorithm: build a fresh,
// unsigned-name identity record, sign it, and write it under
// "{fingerprint}:identity" with the 7-day TTL class.
func (s *Server) Publish(ctx context.Context, fp identity.Fingerprint, dilithiumPk, kyberPk []byte, priv pqcrypto.DilithiumPrivateKey, now time.Time) error {
	if identity.ComputeFingerprint(s.suite, dilithiumPk) != fp {
		return fmt.Errorf("%w: fingerprint does not match dilithium_pubkey", idnerrors.ErrInvariantViolationI1)
	}
	rec, err := identity.NewUnsigned(fp, dilithiumPk, kyberPk, now)
	if err != nil {
		return err
	}
	return s.signAndPublish(ctx, rec, priv, ttlclass.Type7Day)
}

// Update implements spec §4.2's update operation: rotate to a new signing
// and KEM keypair. Because the fingerprint is self-certifying (I1:
// fingerprint == SHA3-512(dilithium_pubkey)), rotating the signing key
// necessarily rotates the fingerprint — the rotated record is published
// under the new fingerprint's own "{new_fingerprint}:identity" key,
// carrying forward the name/profile fields of the record at oldFp when one
// exists. newPriv must be the private half of newDilithiumPk.
func (s *Server) Update(ctx context.Context, oldFp identity.Fingerprint, newDilithiumPk, newKyberPk []byte, newPriv pqcrypto.DilithiumPrivateKey, now time.Time) error {
	newFp := identity.ComputeFingerprint(s.suite, newDilithiumPk)

	rec, err := s.loadRaw(ctx, oldFp, false)
	if err != nil {
		if err != idnerrors.ErrNotFound {
			return err
		}
		rec, err = identity.NewUnsigned(newFp, newDilithiumPk, newKyberPk, now)
		if err != nil {
			return err
		}
		return s.signAndPublish(ctx, rec, newPriv, ttlclass.Type7Day)
	}
	rec.Fingerprint = newFp
	rec.DilithiumPubkey = append([]byte(nil), newDilithiumPk...)
	rec.KyberPubkey = append([]byte(nil), newKyberPk...)
	rec.BumpAndStamp(now)
	return s.signAndPublish(ctx, rec, newPriv, ttlclass.Type7Day)
}

func (s *Server) signAndPublish(ctx context.Context, rec *identity.Record, priv pqcrypto.DilithiumPrivateKey, class dht.ValueType) error {
	if err := rec.Sign(s.suite, priv); err != nil {
		return err
	}
	data, err := rec.ToJSON()
	if err != nil {
		return fmt.Errorf("%w: %v", idnerrors.ErrParseFailed, err)
	}
	return s.PublishRaw(ctx, rec.Fingerprint, data, class)
}

// PublishRaw writes an already-encoded, already-signed identity JSON blob
// under fp's identity key. It exists so collaborating packages (profile's
// Manager republishes after mutating a record it loaded through Load) don't
// need their own copy of the key derivation and signed-write plumbing.
func (s *Server) PublishRaw(ctx context.Context, fp identity.Fingerprint, data []byte, class dht.ValueType) error {
	if err := chunkstore.PublishSigned(ctx, s.overlay, identityKey(fp), data, valueIDFor(fp), class); err != nil {
		return fmt.Errorf("%w: %v", idnerrors.ErrDHT, err)
	}
	return nil
}

// Load is the exported form of loadRaw, for collaborating packages that
// need §4.4's load_identity verify-flag semantics without going through
// Lookup's name/fingerprint dispatch.
func (s *Server) Load(ctx context.Context, fp identity.Fingerprint, verify bool) (*identity.Record, error) {
	return s.loadRaw(ctx, fp, verify)
}

// Lookup implements spec §4.2's lookup algorithm for a name or fingerprint
// input, including the newest-valid selection of I4 and the name-ownership
// cross-check of step 6.
func (s *Server) Lookup(ctx context.Context, nameOrFingerprint string, now time.Time) (*identity.Record, error) {
	var fp identity.Fingerprint
	isName := false
	queriedName := ""

	if identity.LooksLikeFingerprint(nameOrFingerprint) {
		var err error
		fp, err = identity.ParseFingerprintHex(nameOrFingerprint)
		if err != nil {
			return nil, err
		}
	} else {
		isName = true
		queriedName = identity.NormalizeName(nameOrFingerprint)
		fpBytes, err := chunkstore.FetchExact(ctx, s.overlay, aliasKey(queriedName), identity.FingerprintHexLen)
		if err != nil {
			return nil, idnerrors.ErrNotFound
		}
		fp, err = identity.ParseFingerprintHex(string(fpBytes))
		if err != nil {
			return nil, idnerrors.ErrNotFound
		}
	}

	rec, err := s.loadRaw(ctx, fp, true)
	if err != nil {
		return nil, err
	}

	if isName {
		if !rec.OwnsName(now) || rec.RegisteredName != queriedName {
			return nil, idnerrors.ErrInvariantViolationI5
		}
	}
	return rec, nil
}

// loadRaw fetches every live candidate at fp's identity key and applies
// newest-valid selection (spec §3.2 I4): parse and verify each candidate,
// discard any failing I1/I2, keep the one with the largest timestamp.
// When verify is false, the single freshest-by-timestamp candidate is
// returned unverified (spec §4.4's "local cache / display-only" path).
func (s *Server) loadRaw(ctx context.Context, fp identity.Fingerprint, verify bool) (*identity.Record, error) {
	candidates, err := chunkstore.FetchAllCandidates(ctx, s.overlay, identityKey(fp))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", idnerrors.ErrDHT, err)
	}
	if len(candidates) == 0 {
		return nil, idnerrors.ErrNotFound
	}

	var best *identity.Record
	for _, raw := range candidates {
		rec, err := identity.FromJSON(raw)
		if err != nil {
			s.log.Debug("keyserver: dropping malformed candidate", "fingerprint", fp.Short(), "err", err)
			continue
		}
		if verify {
			if verr := rec.Verify(s.suite); verr != nil {
				s.log.Debug("keyserver: dropping unverifiable candidate", "fingerprint", fp.Short(), "err", verr)
				continue
			}
		}
		if best == nil || rec.Timestamp > best.Timestamp {
			best = rec
		}
	}
	if best == nil {
		if verify {
			return nil, idnerrors.ErrInvariantViolationI2
		}
		return nil, idnerrors.ErrParseFailed
	}
	return best, nil
}

// ReverseLookup implements spec §4.2's reverse_lookup: never fails, returns
// the short fingerprint when no name is owned.
func (s *Server) ReverseLookup(ctx context.Context, fp identity.Fingerprint, now time.Time) string {
	rec, err := s.loadRaw(ctx, fp, false)
	if err != nil {
		return fp.Short()
	}
	return rec.DisplayName(now)
}

// ReverseLookupAsync implements spec §4.6's async reverse lookup contract:
// a detached worker runs ReverseLookup and invokes cb exactly once, never
// synchronously on the caller's goroutine.
func (s *Server) ReverseLookupAsync(ctx context.Context, fp identity.Fingerprint, now time.Time, cb func(string)) {
	go func() {
		cb(s.ReverseLookup(ctx, fp, now))
	}()
}
