package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nocdem/dna-messenger-sub018/dht"
	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/keyserver"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto/refimpl"
	"github.com/nocdem/dna-messenger-sub018/ttlclass"
	"github.com/stretchr/testify/require"
)

func newPoolFixture(t *testing.T) *Pool {
	t.Helper()
	overlay := dht.NewMemOverlay(dht.NewManualClock(time.Unix(1_700_000_000, 0)))
	require.NoError(t, ttlclass.RegisterAll(overlay))
	suite := refimpl.New()
	ks := keyserver.NewServer(overlay, suite, nil)
	return NewPool(ks, 2, nil)
}

func TestReverseLookupAsyncFiresOnce(t *testing.T) {
	pool := newPoolFixture(t)
	var fp identity.Fingerprint
	fp[0] = 3

	var calls int
	var mu sync.Mutex
	done := make(chan struct{})
	pool.ReverseLookupAsync(context.Background(), fp, time.Now(), func(name string, ok bool) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, calls)
}

func TestReverseLookupAsyncNotSynchronous(t *testing.T) {
	pool := newPoolFixture(t)
	var fp identity.Fingerprint

	fired := false
	done := make(chan struct{})
	pool.ReverseLookupAsync(context.Background(), fp, time.Now(), func(string, bool) {
		fired = true
		close(done)
	})
	// The callback must not have fired synchronously on this goroutine.
	require.False(t, fired)
	<-done
}

func TestCancelBeforeRunDeliversNegativeResult(t *testing.T) {
	pool := newPoolFixture(t)
	var fp identity.Fingerprint

	called := make(chan bool, 1)
	h := pool.ReverseLookupAsync(context.Background(), fp, time.Now(), func(name string, ok bool) {
		called <- ok
	})
	h.Cancel()
	h.Cancel() // double-cancel is a no-op

	select {
	case ok := <-called:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestListenAllContactsDeliversEveryResult(t *testing.T) {
	pool := newPoolFixture(t)
	fps := make([]identity.Fingerprint, 5)
	for i := range fps {
		fps[i][0] = byte(i + 1)
	}

	var mu sync.Mutex
	seen := make(map[identity.Fingerprint]bool)
	wg := pool.ListenAllContacts(context.Background(), fps, time.Now(), func(fp identity.Fingerprint, name string, ok bool) {
		mu.Lock()
		seen[fp] = true
		mu.Unlock()
	})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, len(fps))
}
