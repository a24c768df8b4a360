package profile

import (
	"context"
	"testing"
	"time"

	"github.com/nocdem/dna-messenger-sub018/dht"
	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/keyserver"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto/refimpl"
	"github.com/nocdem/dna-messenger-sub018/ttlclass"
	"github.com/stretchr/testify/require"
)

func newManagerFixture(t *testing.T) (*Manager, pqcrypto.Suite) {
	t.Helper()
	overlay := dht.NewMemOverlay(dht.NewManualClock(time.Unix(1_700_000_000, 0)))
	require.NoError(t, ttlclass.RegisterAll(overlay))
	suite := refimpl.New()
	ks := keyserver.NewServer(overlay, suite, nil)
	return NewManager(ks, suite, nil), suite
}

func TestUpdateProfileCreatesShellWhenAbsent(t *testing.T) {
	mgr, suite := newManagerFixture(t)
	now := time.Unix(1_700_000_000, 0)

	priv, err := suite.GenerateDilithium()
	require.NoError(t, err)
	kyberPub, _, err := suite.GenerateKyber()
	require.NoError(t, err)
	fp := identity.ComputeFingerprint(suite, priv.Public())

	data := identity.ProfileData{Bio: "hello world"}
	require.NoError(t, mgr.UpdateProfile(context.Background(), fp, priv.Public(), kyberPub, data, priv, now))

	rec, err := mgr.LoadIdentity(context.Background(), fp, true)
	require.NoError(t, err)
	require.Equal(t, "hello world", rec.Bio)
	require.Equal(t, uint32(2), rec.Version) // NewUnsigned starts at 1, BumpAndStamp -> 2
}

func TestUpdateProfilePreservesIdentityBindingFields(t *testing.T) {
	mgr, suite := newManagerFixture(t)
	now := time.Unix(1_700_000_000, 0)

	priv, err := suite.GenerateDilithium()
	require.NoError(t, err)
	kyberPub, _, err := suite.GenerateKyber()
	require.NoError(t, err)
	fp := identity.ComputeFingerprint(suite, priv.Public())

	require.NoError(t, mgr.UpdateProfile(context.Background(), fp, priv.Public(), kyberPub, identity.ProfileData{Bio: "v1"}, priv, now))
	later := now.Add(time.Hour)
	require.NoError(t, mgr.UpdateProfile(context.Background(), fp, priv.Public(), kyberPub, identity.ProfileData{Bio: "v2"}, priv, later))

	rec, err := mgr.LoadIdentity(context.Background(), fp, true)
	require.NoError(t, err)
	require.Equal(t, "v2", rec.Bio)
	require.Equal(t, fp, rec.Fingerprint)
	require.Equal(t, uint32(3), rec.Version)
}

func TestGetDisplayNameNeverFails(t *testing.T) {
	mgr, _ := newManagerFixture(t)
	var fp identity.Fingerprint
	fp[0] = 7
	name := mgr.GetDisplayName(context.Background(), fp, time.Now())
	require.Equal(t, fp.Short(), name)
}

func TestDeriveWalletsDeterministic(t *testing.T) {
	suite := refimpl.New()
	mnemonic, err := GenerateMnemonic()
	require.NoError(t, err)

	w1, err := DeriveWallets(suite, mnemonic, "")
	require.NoError(t, err)
	w2, err := DeriveWallets(suite, mnemonic, "")
	require.NoError(t, err)
	require.Equal(t, w1, w2)

	require.NotEmpty(t, w1.Ethereum)
	require.Contains(t, w1.Ethereum, "0x")
	require.NotEqual(t, w1.Ethereum, w1.Bitcoin)
}

func TestDeriveWalletsRejectsInvalidMnemonic(t *testing.T) {
	suite := refimpl.New()
	_, err := DeriveWallets(suite, "not a valid mnemonic at all", "")
	require.Error(t, err)
}
