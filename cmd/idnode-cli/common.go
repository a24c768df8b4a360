package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/urfave/cli/v2"

	"github.com/nocdem/dna-messenger-sub018/chainrpc"
	"github.com/nocdem/dna-messenger-sub018/config"
	"github.com/nocdem/dna-messenger-sub018/dht"
	"github.com/nocdem/dna-messenger-sub018/idcache"
	"github.com/nocdem/dna-messenger-sub018/identity"
	"github.com/nocdem/dna-messenger-sub018/keyserver"
	"github.com/nocdem/dna-messenger-sub018/log"
	"github.com/nocdem/dna-messenger-sub018/nameregistry"
	"github.com/nocdem/dna-messenger-sub018/namecache"
	"github.com/nocdem/dna-messenger-sub018/nodeid"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto"
	"github.com/nocdem/dna-messenger-sub018/pqcrypto/refimpl"
	"github.com/nocdem/dna-messenger-sub018/profile"
	"github.com/nocdem/dna-messenger-sub018/ratelimit"
	"github.com/nocdem/dna-messenger-sub018/ttlclass"
)

// env is the composition root this CLI builds once per invocation, wiring
// every collaborator explicitly (spec §9: no global singleton, an explicit
// handle passed into every call).
type env struct {
	cfg     config.Config
	suite   pqcrypto.Suite
	overlay dht.Overlay
	ks      *keyserver.Server
	reg     *nameregistry.Registry
	mgr     *profile.Manager
	node    *nodeid.Identity
	idc     *idcache.Cache
	namec   *namecache.Cache
	log     log.Logger
}

// buildEnv loads config and wires the subsystem. The DHT binding is a
// MemOverlay: real peer routing/transport is an external collaborator per
// spec §1, so this CLI — meant for local development and the "listen"
// command's single resident process — runs against the in-process
// simulator rather than a network-backed overlay.
func buildEnv(c *cli.Context) (*env, error) {
	logger := log.Discard()

	cfgPath := c.String(configFlag.Name)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		cfg = config.Defaults
	}
	if dd := c.String(dataDirFlag.Name); dd != "" {
		cfg.DataDir = dd
	}
	if n := c.String(nodeNameFlag.Name); n != "" {
		cfg.NodeName = n
	}

	suite := refimpl.New()

	overlay := dht.NewMemOverlay(dht.RealClock{})
	if err := ttlclass.RegisterAll(overlay); err != nil {
		return nil, fmt.Errorf("register ttl classes: %w", err)
	}

	node, err := nodeid.Load(suite, filepath.Join(cfg.DataDir, "dht"), cfg.NodeName, logger)
	if err != nil {
		return nil, fmt.Errorf("load node identity: %w", err)
	}

	ks := keyserver.NewServer(overlay, suite, logger)

	gate := ratelimit.New(cfg.Chain.MinInterval)
	chain := ratelimit.NewGatedVerifier(defaultVerifier(), gate)
	reg := nameregistry.NewRegistry(ks, overlay, suite, chain, logger)

	mgr := profile.NewManager(ks, suite, logger)

	idc, err := buildIDCache(cfg, ks, logger)
	if err != nil {
		return nil, fmt.Errorf("build identity cache: %w", err)
	}
	namec, err := namecache.New(cfg.Cache.Size, cfg.Cache.Freshness, func(ctx context.Context, name string) (identity.Fingerprint, error) {
		rec, err := ks.Lookup(ctx, name, time.Now())
		if err != nil {
			return identity.Fingerprint{}, err
		}
		return rec.Fingerprint, nil
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build name cache: %w", err)
	}

	return &env{cfg: cfg, suite: suite, overlay: overlay, ks: ks, reg: reg, mgr: mgr, node: node, idc: idc, namec: namec, log: logger}, nil
}

// buildIDCache wires an idcache.Cache whose RefreshFunc re-verifies against
// the keyserver (spec §5's cache sits in front of lookup-by-fingerprint, not
// in place of its I1/I2 checks). Persistence to disk is opt-in per
// cfg.Cache.Persist, mirroring spec §6.4's "{data_dir}/cache/identity_cache.db".
func buildIDCache(cfg config.Config, ks *keyserver.Server, logger log.Logger) (*idcache.Cache, error) {
	var db *leveldb.DB
	if cfg.Cache.Persist {
		dir := cfg.Cache.PersistDir
		if dir == "" {
			dir = filepath.Join(cfg.DataDir, "cache")
		}
		opened, err := idcache.OpenLevelDB(filepath.Join(dir, "identity_cache.db"))
		if err != nil {
			return nil, err
		}
		db = opened
	}
	cache, err := idcache.New(cfg.Cache.Size, cfg.Cache.Freshness, func(ctx context.Context, fp identity.Fingerprint) (*identity.Record, error) {
		return ks.Load(ctx, fp, true)
	}, db, logger)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := cache.WarmFromDisk(); err != nil {
			logger.Warn("idcache: warm from disk failed", "err", err)
		}
	}
	return cache, nil
}

// defaultVerifier stands in for a production chainrpc.Verifier: the real
// RPC client is an external collaborator (spec §6.3). A FakeVerifier lets
// every other command run end to end without a live chain node.
func defaultVerifier() chainrpc.Verifier {
	return chainrpc.NewFakeVerifier()
}
