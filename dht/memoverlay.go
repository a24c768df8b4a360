package dht

import (
	"context"
	"sync"
	"time"
)

// DefaultUnregisteredExpiry is the overlay's default expiry for any
// ValueType that was never registered via RegisterValueType (spec §4.7:
// "the overlay's default expiry for unknown classes is small, ~10 minutes").
const DefaultUnregisteredExpiry = 10 * time.Minute

// Clock abstracts wall-clock time so tests can exercise TTL expiry without
// sleeping (spec §8 property 8: "The test may use virtual time").
type Clock interface {
	Now() time.Time
}

// RealClock is the default Clock, backed by time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock a test advances explicitly.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type entry struct {
	value     []byte
	expiresAt time.Time
	valueID   *uint64
}

// MemOverlay is an in-process Overlay simulator: every registered node in a
// test shares one instance, standing in for the real Kademlia network.
type MemOverlay struct {
	mu      sync.Mutex
	clock   Clock
	classes map[ValueType]time.Duration
	data    map[string][]entry
	ready   bool
}

// NewMemOverlay creates an overlay using clock for expiry decisions.
func NewMemOverlay(clock Clock) *MemOverlay {
	if clock == nil {
		clock = RealClock{}
	}
	return &MemOverlay{
		clock:   clock,
		classes: make(map[ValueType]time.Duration),
		data:    make(map[string][]entry),
		ready:   true,
	}
}

func (o *MemOverlay) RegisterValueType(class ValueType, _ string, expiry time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.classes[class] = expiry
	return nil
}

func (o *MemOverlay) expiryFor(class ValueType) time.Duration {
	if d, ok := o.classes[class]; ok {
		return d
	}
	return DefaultUnregisteredExpiry
}

func (o *MemOverlay) Put(_ context.Context, key, value []byte, class ValueType) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	o.data[k] = append(o.prune(k), entry{
		value:     append([]byte(nil), value...),
		expiresAt: o.clock.Now().Add(o.expiryFor(class)),
	})
	return nil
}

func (o *MemOverlay) PutSigned(_ context.Context, key, value []byte, valueID uint64, class ValueType) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	entries := o.prune(k)
	replaced := false
	for i := range entries {
		if entries[i].valueID != nil && *entries[i].valueID == valueID {
			entries[i] = entry{
				value:     append([]byte(nil), value...),
				expiresAt: o.clock.Now().Add(o.expiryFor(class)),
				valueID:   &valueID,
			}
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry{
			value:     append([]byte(nil), value...),
			expiresAt: o.clock.Now().Add(o.expiryFor(class)),
			valueID:   &valueID,
		})
	}
	o.data[k] = entries
	return nil
}

func (o *MemOverlay) PutSignedPermanent(ctx context.Context, key, value []byte, valueID uint64) error {
	const permanentClass ValueType = 0xFFFF
	o.mu.Lock()
	o.classes[permanentClass] = 100 * 365 * 24 * time.Hour
	o.mu.Unlock()
	return o.PutSigned(ctx, key, value, valueID, permanentClass)
}

// prune must be called with o.mu held; it drops expired entries for k and
// returns the live slice (also stored back into o.data by the caller).
func (o *MemOverlay) prune(k string) []entry {
	now := o.clock.Now()
	live := o.data[k][:0:0]
	for _, e := range o.data[k] {
		if e.expiresAt.After(now) {
			live = append(live, e)
		}
	}
	return live
}

func (o *MemOverlay) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	live := o.prune(k)
	o.data[k] = live
	if len(live) == 0 {
		return nil, false, nil
	}
	return append([]byte(nil), live[0].value...), true, nil
}

func (o *MemOverlay) GetAll(_ context.Context, key []byte) ([][]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	live := o.prune(k)
	o.data[k] = live
	out := make([][]byte, len(live))
	for i, e := range live {
		out[i] = append([]byte(nil), e.value...)
	}
	return out, nil
}

func (o *MemOverlay) GetAsync(ctx context.Context, key []byte, cb func([]byte, bool, error)) {
	go func() {
		v, found, err := o.Get(ctx, key)
		cb(v, found, err)
	}()
}

func (o *MemOverlay) IsReady() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ready
}

// SetReady lets tests simulate a routing table with/without good nodes.
func (o *MemOverlay) SetReady(ready bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = ready
}
