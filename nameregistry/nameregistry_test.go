package nameregistry

import (
	"context"
	"testing"
	"time"

	"github.com/nocdem/dna-messenger-sub018/chainrpc"
	"github.com/nocdem/dna-messenger-sub018/dht"
	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/idnerrors"
	"github.com/nocdem/dna-messenger-sub018/keyserver"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto/refimpl"
	"github.com/nocdem/dna-messenger-sub018/ttlclass"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ks    *keyserver.Server
	reg   *Registry
	chain *chainrpc.FakeVerifier
	suite pqcrypto.Suite
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	overlay := dht.NewMemOverlay(dht.NewManualClock(time.Unix(1_700_000_000, 0)))
	require.NoError(t, ttlclass.RegisterAll(overlay))
	suite := refimpl.New()
	ks := keyserver.NewServer(overlay, suite, nil)
	chain := chainrpc.NewFakeVerifier()
	reg := NewRegistry(ks, overlay, suite, chain, nil)
	return &fixture{ks: ks, reg: reg, chain: chain, suite: suite}
}

func (f *fixture) publishIdentity(t *testing.T, now time.Time) (identity.Fingerprint, pqcrypto.DilithiumPrivateKey) {
	t.Helper()
	priv, err := f.suite.GenerateDilithium()
	require.NoError(t, err)
	kyberPub, _, err := f.suite.GenerateKyber()
	require.NoError(t, err)
	fp := identity.ComputeFingerprint(f.suite, priv.Public())
	require.NoError(t, f.ks.Publish(context.Background(), fp, priv.Public(), kyberPub, priv, now))
	return fp, priv
}

func TestRegisterBindsNameAndAlias(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1_700_000_000, 0)
	fp, priv := f.publishIdentity(t, now)

	f.chain.MarkPaid(chainrpc.PaidTx{TxHash: "tx1", Network: "eth", Name: "alice"})
	require.NoError(t, f.reg.Register(context.Background(), fp, "Alice", "tx1", "eth", priv, now))

	rec, err := f.ks.Lookup(context.Background(), "alice", now)
	require.NoError(t, err)
	require.Equal(t, fp, rec.Fingerprint)
	require.True(t, rec.OwnsName(now))
}

func TestRegisterRejectsUnpaidTx(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1_700_000_000, 0)
	fp, priv := f.publishIdentity(t, now)

	err := f.reg.Register(context.Background(), fp, "alice", "unpaid", "eth", priv, now)
	require.ErrorIs(t, err, idnerrors.ErrVerificationFailed)
}

func TestRegisterRejectsCollisionFromDifferentFingerprint(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1_700_000_000, 0)
	fp1, priv1 := f.publishIdentity(t, now)
	fp2, priv2 := f.publishIdentity(t, now)

	f.chain.MarkPaid(chainrpc.PaidTx{TxHash: "tx1", Network: "eth", Name: "alice"})
	require.NoError(t, f.reg.Register(context.Background(), fp1, "alice", "tx1", "eth", priv1, now))

	f.chain.MarkPaid(chainrpc.PaidTx{TxHash: "tx2", Network: "eth", Name: "alice"})
	err := f.reg.Register(context.Background(), fp2, "alice", "tx2", "eth", priv2, now)
	require.ErrorIs(t, err, idnerrors.ErrNameTaken)
}

func TestRegisterAllowsRenewalBySameFingerprint(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1_700_000_000, 0)
	fp, priv := f.publishIdentity(t, now)

	f.chain.MarkPaid(chainrpc.PaidTx{TxHash: "tx1", Network: "eth", Name: "alice"})
	require.NoError(t, f.reg.Register(context.Background(), fp, "alice", "tx1", "eth", priv, now))

	f.chain.MarkPaid(chainrpc.PaidTx{TxHash: "tx2", Network: "eth", Name: "alice"})
	require.NoError(t, f.reg.Register(context.Background(), fp, "alice", "tx2", "eth", priv, now))
}

func TestRenewExtendsExpiryAndRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1_700_000_000, 0)
	fp, priv := f.publishIdentity(t, now)

	f.chain.MarkPaid(chainrpc.PaidTx{TxHash: "tx1", Network: "eth", Name: "alice"})
	require.NoError(t, f.reg.Register(context.Background(), fp, "alice", "tx1", "eth", priv, now))

	recBefore, err := f.ks.Lookup(context.Background(), fp.Hex(), now)
	require.NoError(t, err)

	f.chain.MarkPaid(chainrpc.PaidTx{TxHash: "tx-renew", Network: "eth", Name: "alice"})
	require.NoError(t, f.reg.Renew(context.Background(), fp, "tx-renew", priv, now))

	recAfter, err := f.ks.Lookup(context.Background(), fp.Hex(), now)
	require.NoError(t, err)
	require.Greater(t, recAfter.NameExpiresAt, recBefore.NameExpiresAt)
	require.Equal(t, uint32(2), recAfter.NameVersion)
}

func TestRenewRejectsUnregisteredIdentity(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1_700_000_000, 0)
	fp, priv := f.publishIdentity(t, now)

	err := f.reg.Renew(context.Background(), fp, "tx-renew", priv, now)
	require.ErrorIs(t, err, idnerrors.ErrNotFound)
}

func TestIsExpiredReflectsNameExpiry(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1_700_000_000, 0)
	fp, priv := f.publishIdentity(t, now)

	f.chain.MarkPaid(chainrpc.PaidTx{TxHash: "tx1", Network: "eth", Name: "alice"})
	require.NoError(t, f.reg.Register(context.Background(), fp, "alice", "tx1", "eth", priv, now))

	rec, err := f.ks.Lookup(context.Background(), fp.Hex(), now)
	require.NoError(t, err)
	require.False(t, f.reg.IsExpired(rec, now))
	require.True(t, f.reg.IsExpired(rec, now.Add(identity.NameExpiry+time.Hour)))
}

func TestRegisterRejectsBadNameGrammar(t *testing.T) {
	f := newFixture(t)
	now := time.Unix(1_700_000_000, 0)
	fp, priv := f.publishIdentity(t, now)

	err := f.reg.Register(context.Background(), fp, "x", "tx1", "eth", priv, now)
	require.ErrorIs(t, err, idnerrors.ErrInvalidInput)
}
