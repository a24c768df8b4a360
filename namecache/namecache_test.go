package namecache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/stretchr/testify/require"
)

func TestResolveMissFetchesAndCaches(t *testing.T) {
	var fp identity.Fingerprint
	fp[0] = 9
	var calls int32
	resolve := func(ctx context.Context, name string) (identity.Fingerprint, error) {
		atomic.AddInt32(&calls, 1)
		return fp, nil
	}
	c, err := New(0, 0, resolve, nil)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	got, err := c.Resolve(context.Background(), "Alice", now)
	require.NoError(t, err)
	require.Equal(t, fp, got)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, err = c.Resolve(context.Background(), "alice", now.Add(time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls)) // case-normalized, same key, still fresh
}

func TestResolveStaleTriggersRefresh(t *testing.T) {
	var fp identity.Fingerprint
	fp[0] = 9
	var calls int32
	done := make(chan struct{})
	resolve := func(ctx context.Context, name string) (identity.Fingerprint, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 2 {
			close(done)
		}
		return fp, nil
	}
	c, err := New(0, time.Minute, resolve, nil)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	_, err = c.Resolve(context.Background(), "bob", now)
	require.NoError(t, err)
	_, err = c.Resolve(context.Background(), "bob", now.Add(2*time.Minute))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background refresh never ran")
	}
}

func TestInvalidateForcesResolve(t *testing.T) {
	var fp identity.Fingerprint
	fp[0] = 1
	var calls int32
	resolve := func(ctx context.Context, name string) (identity.Fingerprint, error) {
		atomic.AddInt32(&calls, 1)
		return fp, nil
	}
	c, err := New(0, time.Hour, resolve, nil)
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	_, err = c.Resolve(context.Background(), "carol", now)
	require.NoError(t, err)
	c.Invalidate("carol")
	_, err = c.Resolve(context.Background(), "carol", now)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
