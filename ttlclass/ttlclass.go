// Package ttlclass implements the TTL / ValueType regime of spec §4.7: a
// fixed set of named expiry classes that publishers and every receiving
// node must register identically at startup. Missing registration is, per
// spec, "the single most dangerous failure mode" — data silently evaporates
// at the overlay's small default expiry instead of its intended lifetime.
package ttlclass

import (
	"time"

	"github.com/nocdem/dna-messenger-sub018/dht"
)

// Class ids, fixed by spec §4.7.
const (
	Type7Day   dht.ValueType = 0x1001
	Type365Day dht.ValueType = 0x1002
	Type30Day  dht.ValueType = 0x1003
)

// Spec durations.
const (
	Expiry7Day   = 7 * 24 * time.Hour
	Expiry30Day  = 30 * 24 * time.Hour
	Expiry365Day = 365 * 24 * time.Hour
)

// definition is one entry of the fixed table in spec §4.7.
type definition struct {
	class  dht.ValueType
	name   string
	expiry time.Duration
}

var defined = []definition{
	{Type7Day, "TYPE_7DAY", Expiry7Day},
	{Type30Day, "TYPE_30DAY", Expiry30Day},
	{Type365Day, "TYPE_365DAY", Expiry365Day},
}

// RegisterAll registers the fixed class table against overlay. Call this
// once for every publishing client and once on every receiving node at
// startup, with the exact same table — that symmetry is the whole point.
func RegisterAll(overlay dht.Overlay) error {
	for _, d := range defined {
		if err := overlay.RegisterValueType(d.class, d.name, d.expiry); err != nil {
			return err
		}
	}
	return nil
}

// ClassForTTL maps a requested TTL to the smallest registered class whose
// expiry covers it, defaulting to Type7Day per spec §4.7's publisher rule.
// If requested exceeds every defined class, the longest-lived class is used.
func ClassForTTL(requested time.Duration) dht.ValueType {
	if requested <= 0 {
		return Type7Day
	}
	sorted := append([]definition(nil), defined...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].expiry < sorted[j-1].expiry; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	for _, d := range sorted {
		if d.expiry >= requested {
			return d.class
		}
	}
	return sorted[len(sorted)-1].class
}
