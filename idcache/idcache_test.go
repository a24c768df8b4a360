package idcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto/refimpl"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, suite pqcrypto.Suite, now time.Time) (*identity.Record, identity.Fingerprint) {
	t.Helper()
	priv, err := suite.GenerateDilithium()
	require.NoError(t, err)
	kyberPub, _, err := suite.GenerateKyber()
	require.NoError(t, err)
	fp := identity.ComputeFingerprint(suite, priv.Public())
	rec, err := identity.NewUnsigned(fp, priv.Public(), kyberPub, now)
	require.NoError(t, err)
	require.NoError(t, rec.Sign(suite, priv))
	return rec, fp
}

func TestGetMissFetchesAndCaches(t *testing.T) {
	suite := refimpl.New()
	now := time.Unix(1_700_000_000, 0)
	rec, fp := newRecord(t, suite, now)

	var calls int32
	refresh := func(ctx context.Context, f identity.Fingerprint) (*identity.Record, error) {
		atomic.AddInt32(&calls, 1)
		return rec, nil
	}
	c, err := New(0, 0, refresh, nil, nil)
	require.NoError(t, err)

	got, err := c.Get(context.Background(), fp, now)
	require.NoError(t, err)
	require.Equal(t, rec.Fingerprint, got.Fingerprint)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// Second call within the freshness window must not call refresh again.
	_, err = c.Get(context.Background(), fp, now.Add(time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetStaleTriggersBackgroundRefresh(t *testing.T) {
	suite := refimpl.New()
	now := time.Unix(1_700_000_000, 0)
	rec, fp := newRecord(t, suite, now)

	var calls int32
	done := make(chan struct{})
	refresh := func(ctx context.Context, f identity.Fingerprint) (*identity.Record, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 2 {
			close(done)
		}
		return rec, nil
	}
	c, err := New(0, time.Minute, refresh, nil, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), fp, now)
	require.NoError(t, err)

	stale := now.Add(2 * time.Minute)
	got, err := c.Get(context.Background(), fp, stale)
	require.NoError(t, err)
	require.NotNil(t, got) // stale entry still returned immediately

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background refresh never ran")
	}
}

func TestSubscribeFiresOnUpdate(t *testing.T) {
	suite := refimpl.New()
	now := time.Unix(1_700_000_000, 0)
	rec, fp := newRecord(t, suite, now)

	refresh := func(ctx context.Context, f identity.Fingerprint) (*identity.Record, error) {
		return rec, nil
	}
	c, err := New(0, 0, refresh, nil, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen identity.Fingerprint
	done := make(chan struct{})
	c.Subscribe(func(fp identity.Fingerprint, rec *identity.Record) {
		mu.Lock()
		seen = fp
		mu.Unlock()
		close(done)
	})

	_, err = c.Get(context.Background(), fp, now)
	require.NoError(t, err)

	<-done
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, fp, seen)
}

func TestInsertOrReplaceKeepsNewerTimestamp(t *testing.T) {
	suite := refimpl.New()
	now := time.Unix(1_700_000_000, 0)
	rec, fp := newRecord(t, suite, now)

	c, err := New(0, 0, func(ctx context.Context, f identity.Fingerprint) (*identity.Record, error) {
		return rec, nil
	}, nil, nil)
	require.NoError(t, err)

	c.insertOrReplace(fp, rec, now)
	older := *rec
	older.Timestamp = rec.Timestamp - 1000
	c.insertOrReplace(fp, &older, now)

	entry, ok := c.Peek(fp)
	require.True(t, ok)
	require.Equal(t, rec.Timestamp, entry.Record.Timestamp)
}
