// Package namecache is idcache's sibling for the name→fingerprint alias
// resolution path (spec §5's identity cache, applied to the lookup-by-name
// side of keyserver.Lookup rather than the lookup-by-fingerprint side).
// Names change owner far less often than profiles change content, so this
// cache carries no on-disk persistence of its own, and no per-key write
// locks either — it shares the rest of idcache's design (bounded LRU,
// stale-while-revalidate, deduplicated background refresh) grounded on
// the same tos-network-gtos sources: agent.Registry's bounded map-plus-mutex
// shape and consensus/dpos's hashicorp/golang-lru eviction policy.
package namecache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/log"
)

// DefaultFreshness mirrors idcache.DefaultFreshness: spec §5 names the same
// "e.g., 5 minutes" window for every SWR cache in this subsystem.
const DefaultFreshness = 5 * time.Minute

// DefaultSize bounds the cache independent of how many names exist.
const DefaultSize = 4096

// ResolveFunc resolves the current fingerprint owning name, typically
// keyserver.Server.Lookup(ctx, name, now).Fingerprint.
type ResolveFunc func(ctx context.Context, name string) (identity.Fingerprint, error)

type entry struct {
	fp       identity.Fingerprint
	cachedAt time.Time
}

// Cache is the name-resolution SWR cache. Like idcache.Cache, it has no
// global state — callers construct and own one explicitly.
type Cache struct {
	freshness time.Duration
	resolve   ResolveFunc
	log       log.Logger

	lru *lru.Cache

	keyMu    sync.Mutex
	inflight map[string]bool
}

// New creates a Cache. size<=0 uses DefaultSize, freshness<=0 uses
// DefaultFreshness.
func New(size int, freshness time.Duration, resolve ResolveFunc, logger log.Logger) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if logger == nil {
		logger = log.Discard()
	}
	backing, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		freshness: freshness,
		resolve:   resolve,
		log:       logger,
		lru:       backing,
		inflight:  make(map[string]bool),
	}, nil
}

// Resolve implements the SWR read: a cached fingerprint is returned
// immediately; once stale, a background refresh is scheduled (deduplicated
// per name) before returning. A miss blocks for one synchronous resolve.
func (c *Cache) Resolve(ctx context.Context, name string, now time.Time) (identity.Fingerprint, error) {
	key := identity.NormalizeName(name)
	if v, ok := c.lru.Get(key); ok {
		e := v.(entry)
		if now.Sub(e.cachedAt) > c.freshness {
			c.triggerRefresh(key)
		}
		return e.fp, nil
	}
	fp, err := c.resolve(ctx, key)
	if err != nil {
		return identity.Fingerprint{}, err
	}
	c.lru.Add(key, entry{fp: fp, cachedAt: now})
	return fp, nil
}

func (c *Cache) triggerRefresh(key string) {
	c.keyMu.Lock()
	if c.inflight[key] {
		c.keyMu.Unlock()
		return
	}
	c.inflight[key] = true
	c.keyMu.Unlock()

	go func() {
		defer func() {
			c.keyMu.Lock()
			delete(c.inflight, key)
			c.keyMu.Unlock()
		}()
		fp, err := c.resolve(context.Background(), key)
		if err != nil {
			c.log.Debug("namecache: background refresh failed", "name", key, "err", err)
			return
		}
		c.lru.Add(key, entry{fp: fp, cachedAt: time.Now()})
	}()
}

// Invalidate drops any cached resolution for name, used after a Register or
// Renew that changes ownership (spec §8 S4's "invalidates" behavior,
// applied to the name side).
func (c *Cache) Invalidate(name string) {
	c.lru.Remove(identity.NormalizeName(name))
}

// Len reports the number of cached names.
func (c *Cache) Len() int { return c.lru.Len() }
