// Package idcache implements spec §5's "Identity cache (optional but
// recommended)": a process-global bounded cache keyed by fingerprint, with
// stale-while-revalidate semantics — reads return any cached entry
// immediately and, when the entry is older than a short freshness window,
// enqueue a background refresh that updates the cache and notifies
// subscribers. The bounded-map-plus-RWMutex shape is grounded on
// tos-network-gtos's agent.Registry; the LRU eviction itself is grounded on
// the teacher's own use of hashicorp/golang-lru in consensus/dpos (an ARC
// cache of recent signer recoveries). Optional on-disk persistence to
// {data_dir}/cache/identity_cache.db uses goleveldb, replacing the
// teacher's tosdb-backed state store with a much smaller single-table KV.
package idcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/log"
)

// DefaultFreshness is the SWR freshness window named in spec §5 ("e.g.,
// 5 minutes").
const DefaultFreshness = 5 * time.Minute

// DefaultSize bounds the in-memory LRU independent of any backing store.
const DefaultSize = 4096

// RefreshFunc resolves the current identity record for fp, typically
// keyserver.Server.Load(ctx, fp, true).
type RefreshFunc func(ctx context.Context, fp identity.Fingerprint) (*identity.Record, error)

// Entry is one cache slot: the record and when it was last refreshed.
type Entry struct {
	Record   *identity.Record
	CachedAt time.Time
}

type persistedEntry struct {
	JSON     []byte `json:"json"`
	CachedAt int64  `json:"cached_at"`
}

// Cache is the SWR identity cache of spec §5. It holds no global state of
// its own — callers construct and own a *Cache explicitly (spec §9's
// explicit-Context rule) and pass it wherever lookups should be cached.
type Cache struct {
	freshness time.Duration
	refresh   RefreshFunc
	log       log.Logger

	lru *lru.Cache

	// keyLocks serializes concurrent insert_or_replace calls for the same
	// fingerprint (spec §5: "per-key write locks held only for the
	// duration of an insert_or_replace"), and also dedupes concurrent
	// background refreshes so a hot key triggers at most one in flight.
	keyMu    sync.Mutex
	keyLocks map[identity.Fingerprint]*sync.Mutex
	inflight map[identity.Fingerprint]bool

	subMu sync.Mutex
	subs  []func(fp identity.Fingerprint, rec *identity.Record)

	db *leveldb.DB // optional; nil disables persistence
}

// New creates a Cache. size<=0 uses DefaultSize, freshness<=0 uses
// DefaultFreshness. db may be nil to run memory-only.
func New(size int, freshness time.Duration, refresh RefreshFunc, db *leveldb.DB, logger log.Logger) (*Cache, error) {
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
		refresh:   refresh,
		log:       logger,
		lru:       backing,
		keyLocks:  make(map[identity.Fingerprint]*sync.Mutex),
		inflight:  make(map[identity.Fingerprint]bool),
		db:        db,
	}, nil
}

// OpenLevelDB opens (creating if absent) the on-disk SWR cache at path
// (spec §6.4: "{data_dir}/cache/identity_cache.db").
func OpenLevelDB(path string) (*leveldb.DB, error) {
	return leveldb.OpenFile(path, nil)
}

func (c *Cache) lockFor(fp identity.Fingerprint) *sync.Mutex {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	m, ok := c.keyLocks[fp]
	if !ok {
		m = &sync.Mutex{}
		c.keyLocks[fp] = m
	}
	return m
}

// Subscribe registers cb to be invoked every time insertOrReplace updates an
// entry (spec §5: "fires a 'cache updated' event to subscribers"). It
// returns an unsubscribe function.
func (c *Cache) Subscribe(cb func(fp identity.Fingerprint, rec *identity.Record)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	idx := len(c.subs)
	c.subs = append(c.subs, cb)
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		c.subs[idx] = nil
	}
}

func (c *Cache) notify(fp identity.Fingerprint, rec *identity.Record) {
	c.subMu.Lock()
	subs := append([]func(identity.Fingerprint, *identity.Record){}, c.subs...)
	c.subMu.Unlock()
	for _, s := range subs {
		if s != nil {
			s(fp, rec)
		}
	}
}

// Get implements spec §5's SWR read: a cached entry is returned
// immediately; if it is older than the freshness window, a background
// refresh is enqueued (deduplicated per fingerprint) before returning. A
// cache miss blocks for one synchronous refresh.
func (c *Cache) Get(ctx context.Context, fp identity.Fingerprint, now time.Time) (*identity.Record, error) {
	if v, ok := c.lru.Get(fp); ok {
		e := v.(Entry)
		if now.Sub(e.CachedAt) > c.freshness {
			c.triggerRefresh(fp)
		}
		return e.Record, nil
	}
	rec, err := c.refresh(ctx, fp)
	if err != nil {
		return nil, err
	}
	c.insertOrReplace(fp, rec, now)
	return rec, nil
}

// Peek returns the cached entry for fp without triggering a refresh or
// falling back to RefreshFunc, for display-only callers.
func (c *Cache) Peek(fp identity.Fingerprint) (Entry, bool) {
	v, ok := c.lru.Get(fp)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

func (c *Cache) triggerRefresh(fp identity.Fingerprint) {
	c.keyMu.Lock()
	if c.inflight[fp] {
		c.keyMu.Unlock()
		return
	}
	c.inflight[fp] = true
	c.keyMu.Unlock()

	go func() {
		defer func() {
			c.keyMu.Lock()
			delete(c.inflight, fp)
			c.keyMu.Unlock()
		}()
		rec, err := c.refresh(context.Background(), fp)
		if err != nil {
			c.log.Debug("idcache: background refresh failed", "fingerprint", fp.Short(), "err", err)
			return
		}
		c.insertOrReplace(fp, rec, time.Now())
	}()
}

// insertOrReplace implements spec §5's per-key locked write and persists to
// the optional on-disk store, then fires subscribers.
func (c *Cache) insertOrReplace(fp identity.Fingerprint, rec *identity.Record, cachedAt time.Time) {
	lock := c.lockFor(fp)
	lock.Lock()
	defer lock.Unlock()

	if existing, ok := c.lru.Get(fp); ok {
		if existing.(Entry).Record.Timestamp >= rec.Timestamp {
			return
		}
	}
	c.lru.Add(fp, Entry{Record: rec, CachedAt: cachedAt})
	if c.db != nil {
		c.persist(fp, rec, cachedAt)
	}
	c.notify(fp, rec)
}

func (c *Cache) persist(fp identity.Fingerprint, rec *identity.Record, cachedAt time.Time) {
	raw, err := rec.ToJSON()
	if err != nil {
		c.log.Debug("idcache: skip persist, encode failed", "err", err)
		return
	}
	pe := persistedEntry{JSON: raw, CachedAt: cachedAt.Unix()}
	blob, err := json.Marshal(pe)
	if err != nil {
		c.log.Debug("idcache: skip persist, marshal failed", "err", err)
		return
	}
	if err := c.db.Put([]byte(fp.Hex()), blob, nil); err != nil {
		c.log.Warn("idcache: persist failed", "fingerprint", fp.Short(), "err", err)
	}
}

// WarmFromDisk loads every entry from the on-disk store into the in-memory
// LRU. It is a no-op when the Cache has no backing leveldb.DB.
func (c *Cache) WarmFromDisk() error {
	if c.db == nil {
		return nil
	}
	iter := c.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		fp, err := identity.ParseFingerprintHex(string(iter.Key()))
		if err != nil {
			continue
		}
		var pe persistedEntry
		if err := json.Unmarshal(iter.Value(), &pe); err != nil {
			continue
		}
		rec, err := identity.FromJSON(pe.JSON)
		if err != nil {
			continue
		}
		c.lru.Add(fp, Entry{Record: rec, CachedAt: time.Unix(pe.CachedAt, 0)})
	}
	return iter.Error()
}

// Len reports the number of entries currently held in memory.
func (c *Cache) Len() int { return c.lru.Len() }
