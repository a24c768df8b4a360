package chainrpc

import (
	"context"
	"sync"
)

// PaidTx describes a transaction the FakeVerifier should treat as a valid
// registration payment.
type PaidTx struct {
	TxHash  string
	Network string
	Name    string
}

// FakeVerifier is an in-memory Verifier for tests and local development. It
// never talks to a real chain; a test preloads the transactions it wants to
// count as paid via MarkPaid.
type FakeVerifier struct {
	mu   sync.RWMutex
	paid map[string]struct{}
	// ForceRpcError, if set, makes every call return RpcError regardless of
	// the preloaded transaction set — used to exercise retry paths.
	ForceRpcError bool
}

// NewFakeVerifier returns an empty FakeVerifier.
func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{paid: make(map[string]struct{})}
}

func key(txHash, network, name string) string {
	return txHash + "\x00" + network + "\x00" + name
}

// MarkPaid records txHash/network/name as a valid registration payment.
func (f *FakeVerifier) MarkPaid(tx PaidTx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid[key(tx.TxHash, tx.Network, tx.Name)] = struct{}{}
}

func (f *FakeVerifier) VerifyRegistrationTx(_ context.Context, txHash, network, name string) (Status, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.ForceRpcError {
		return RpcError, nil
	}
	if _, ok := f.paid[key(txHash, network, name)]; ok {
		return OK, nil
	}
	return ValidationFailed, nil
}
