// Package dht declares the Kademlia-style overlay consumed by this
// subsystem (spec §6.1). Routing, UDP transport, and peer discovery are an
// external collaborator and out of scope here (spec §1); this package
// fixes the contract plus, in memoverlay.go, an in-process simulator used
// by this repository's own tests — including the virtual-time TTL test in
// spec §8 property 8.
package dht

import (
	"context"
	"time"
)

// ValueType is a registered expiry class (spec §4.7, the "ValueType regime").
type ValueType uint16

// Overlay is the DHT surface this subsystem requires.
type Overlay interface {
	// Put writes value under key with the given class's expiry.
	Put(ctx context.Context, key, value []byte, class ValueType) error

	// PutSigned is an overlay-signed write: valueID ties this write to a
	// signer so repeated publishes by the same signer replace rather than
	// accumulate at key.
	PutSigned(ctx context.Context, key, value []byte, valueID uint64, class ValueType) error

	// PutSignedPermanent is PutSigned with no expiry.
	PutSignedPermanent(ctx context.Context, key, value []byte, valueID uint64) error

	// Get returns the (at most one) value stored at key, or found=false if
	// key is absent or all replicas have expired.
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)

	// GetAll returns every live value-set entry stored at key. The overlay
	// is append-only at the value-set level, so a key may legitimately
	// carry several values until the reader's newest-valid selection
	// (spec §4.2) prunes them.
	GetAll(ctx context.Context, key []byte) ([][]byte, error)

	// GetAsync invokes cb exactly once with the result of a logical Get,
	// from a goroutine, never synchronously on the caller's stack.
	GetAsync(ctx context.Context, key []byte, cb func(value []byte, found bool, err error))

	// RegisterValueType registers a custom expiry class. Both publishing
	// clients and every receiving node must call this with identical
	// parameters at startup (spec §4.7) — a missing registration makes
	// data written under that class evaporate at the overlay's small
	// default expiry instead of the intended one.
	RegisterValueType(class ValueType, name string, expiry time.Duration) error

	// IsReady reports whether the routing table holds at least one good node.
	IsReady() bool
}
