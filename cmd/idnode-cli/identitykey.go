package main

import (
	"path/filepath"

	"github.com/nocdem/dna-messenger-sub018/nodeid"
)

// loadSelfKey loads (or, on first run, generates) the operator's own
// identity signing keypair — distinct from the node's DHT participation
// key (spec §4.8 scopes that one to overlay participation only). It reuses
// nodeid's persist/regenerate machinery since both are "a post-quantum
// keypair plus self-signed cert living under datadir" in shape.
func (e *env) loadSelfKey() (*nodeid.Identity, error) {
	return nodeid.Load(e.suite, filepath.Join(e.cfg.DataDir, "identity"), "self", e.log)
}

// rotateSelfKey unconditionally replaces the operator's identity signing
// keypair, used by the "update" subcommand.
func (e *env) rotateSelfKey() (*nodeid.Identity, error) {
	return nodeid.Rotate(e.suite, filepath.Join(e.cfg.DataDir, "identity"), "self", e.log)
}
