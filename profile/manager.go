package profile

import (
	"context"
	"time"

	"github.com/nocdem/dna-messenger-sub018/dht"
	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/keyserver"
	"github.com/nocdem/dna-messenger-sub018/log"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/nocdem/dna-messenger-sub018/ttlclass"
)

// Manager implements spec §4.4's public operations over a keyserver.Server:
// update_profile, load_identity, get_display_name.
type Manager struct {
	keyserver *keyserver.Server
	suite     pqcrypto.Suite
	log       log.Logger
}

// NewManager wires a Manager to ks.
func NewManager(ks *keyserver.Server, suite pqcrypto.Suite, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{keyserver: ks, suite: suite, log: logger}
}

// UpdateProfile implements spec §4.4's update_profile: load current
// identity (creating an empty shell if absent), overwrite profile fields,
// bump version, re-sign, republish at the 7-day TTL class.
func (m *Manager) UpdateProfile(ctx context.Context, fp identity.Fingerprint, dilithiumPk, kyberPk []byte, data identity.ProfileData, priv pqcrypto.DilithiumPrivateKey, now time.Time) error {
	rec, err := m.LoadIdentity(ctx, fp, true)
	if err != nil {
		if err != idnerrors.ErrNotFound {
			return err
		}
		rec, err = identity.NewUnsigned(fp, dilithiumPk, kyberPk, now)
		if err != nil {
			return err
		}
	}
	rec.ApplyProfile(data)
	rec.BumpAndStamp(now)
	if err := rec.Sign(m.suite, priv); err != nil {
		return err
	}
	return m.republish(ctx, rec, ttlclass.Type7Day)
}

func (m *Manager) republish(ctx context.Context, rec *identity.Record, class dht.ValueType) error {
	data, err := rec.ToJSON()
	if err != nil {
		return idnerrors.ErrParseFailed
	}
	return m.keyserver.PublishRaw(ctx, rec.Fingerprint, data, class)
}

// LoadIdentity implements spec §4.4's load_identity: when verify is false
// (local cache / display-only paths), parse but skip I1/I2. When true
// (trust-sensitive paths), enforce both: candidates failing either check
// are dropped, and idnerrors.ErrInvariantViolationI2 is returned when none
// is left.
func (m *Manager) LoadIdentity(ctx context.Context, fp identity.Fingerprint, verify bool) (*identity.Record, error) {
	return m.keyserver.Load(ctx, fp, verify)
}

// GetDisplayName implements spec §4.4's get_display_name: never fails.
func (m *Manager) GetDisplayName(ctx context.Context, fp identity.Fingerprint, now time.Time) string {
	return m.keyserver.ReverseLookup(ctx, fp, now)
}
