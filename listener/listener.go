// Package listener implements spec §4.6: the background lookup/dispatch
// model layered over the blocking, single-writer DHT client. Every
// operation runs on its own goroutine (grounded on the per-transaction
// goroutine-plus-WaitGroup shape of tos-network-gtos's core/parallel
// executor, adapted from a bounded fan-out-then-join to a long-lived,
// individually cancellable worker), callbacks fire exactly once and never
// synchronously on the caller's goroutine, and a semaphore bounds how many
// lookups run concurrently for bulk "listen-all-contacts" callers.
package listener

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/keyserver"
	"github.com/nocdem/dna-messenger-sub018/log"
)

// DefaultPoolSize is the recommended bound on concurrent lookups for bulk
// operations (spec §4.6: "a bounded thread pool (recommended ≤ 8 concurrent
// lookups on mobile)").
const DefaultPoolSize = 8

// Handle is a cancellable async operation (spec §4.6's cancellation model):
// a per-operation flag checked at DHT-call boundaries. Cancelling after the
// in-flight DHT call has already started does not abort it — the looked-up
// name is discarded and the callback fires once with ok=false instead.
// Double-cancel and cancel-after-completion are no-ops.
type Handle struct {
	id        uuid.UUID
	cancelled int32
	done      int32
}

// ID identifies this operation uniquely across the process's lifetime, for
// correlating a Cancel call with the log line a worker emits for it.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Cancel requests that the operation end with a negative result: if the
// callback has not fired yet, it fires once with ok=false. It is safe to
// call more than once and safe to call after the operation has completed.
func (h *Handle) Cancel() {
	atomic.StoreInt32(&h.cancelled, 1)
}

func (h *Handle) isCancelled() bool {
	return atomic.LoadInt32(&h.cancelled) == 1
}

// markDone reports whether this call is the one that transitions the
// handle to done, so the callback fires exactly once.
func (h *Handle) markDone() bool {
	return atomic.SwapInt32(&h.done, 1) == 0
}

// Pool runs listener operations on a bounded number of concurrent
// goroutines (spec §4.6).
type Pool struct {
	sem chan struct{}
	ks  *keyserver.Server
	log log.Logger
}

// NewPool creates a Pool bounded to size concurrent operations. size <= 0
// uses DefaultPoolSize.
func NewPool(ks *keyserver.Server, size int, logger log.Logger) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Pool{sem: make(chan struct{}, size), ks: ks, log: logger}
}

// ReverseLookupAsync implements spec §4.6's async reverse lookup contract
// on top of the bounded pool: it spawns a detached worker that performs the
// reverse-lookup algorithm and invokes cb exactly once with (name, ok),
// where ok=false means the operation was cancelled before its result was
// delivered.
func (p *Pool) ReverseLookupAsync(ctx context.Context, fp identity.Fingerprint, now time.Time, cb func(name string, ok bool)) *Handle {
	h := &Handle{id: uuid.New()}
	go func() {
		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		if h.isCancelled() {
			if h.markDone() {
				cb("", false)
			}
			return
		}
		p.log.Debug("listener: reverse lookup start", "op", h.id, "fingerprint", fp.Short())
		name := p.ks.ReverseLookup(ctx, fp, now)
		if h.isCancelled() {
			if h.markDone() {
				cb("", false)
			}
			return
		}
		if h.markDone() {
			cb(name, true)
		}
	}()
	return h
}

// ListenAllContacts runs ReverseLookupAsync for every fingerprint in fps,
// respecting the pool's concurrency bound, and delivers each result to cb
// as it completes — callers see no cross-fingerprint ordering guarantee
// (spec §4.6: "none across distinct listeners").
func (p *Pool) ListenAllContacts(ctx context.Context, fps []identity.Fingerprint, now time.Time, cb func(fp identity.Fingerprint, name string, ok bool)) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, fp := range fps {
		wg.Add(1)
		fp := fp
		p.ReverseLookupAsync(ctx, fp, now, func(name string, ok bool) {
			defer wg.Done()
			cb(fp, name, ok)
		})
	}
	return &wg
}
