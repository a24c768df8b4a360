package ratelimit

import (
	"context"

	"github.com/nocdem/dna-messenger-sub018/chainrpc"
)

// GatedVerifier wraps a chainrpc.Verifier so every call is spaced by a
// Gate keyed on the target network (spec §5: "the same endpoint").
type GatedVerifier struct {
	inner chainrpc.Verifier
	gate  *Gate
}

// NewGatedVerifier wraps inner with gate.
func NewGatedVerifier(inner chainrpc.Verifier, gate *Gate) *GatedVerifier {
	return &GatedVerifier{inner: inner, gate: gate}
}

func (v *GatedVerifier) VerifyRegistrationTx(ctx context.Context, txHash, network, name string) (chainrpc.Status, error) {
	if err := v.gate.Wait(ctx, network); err != nil {
		return chainrpc.RpcError, err
	}
	return v.inner.VerifyRegistrationTx(ctx, txHash, network, name)
}
