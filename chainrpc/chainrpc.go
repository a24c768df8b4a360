// Package chainrpc declares the on-chain registration verifier consumed by
// the name registry (spec §6.3). The blockchain RPC client itself is an
// external collaborator; this package fixes the contract and, for tests
// and local development, a small in-memory fake that records the
// transactions a test wants to treat as paid.
package chainrpc

import "context"

// Status is the outcome of a registration-transaction check.
type Status int

const (
	// OK means the transaction pays for exactly this name registration/renewal.
	OK Status = iota
	// ValidationFailed means the transaction exists but amount, memo, or
	// recipient don't match what the name registry expects — a user error.
	ValidationFailed
	// RpcError means the chain node could not be reached or returned an
	// indeterminate result — a transient failure the caller may retry.
	RpcError
)

// Verifier checks on-chain registration transactions (spec §6.3).
type Verifier interface {
	// VerifyRegistrationTx checks that txHash on network pays for registering
	// (or renewing) name. The caller treats ValidationFailed as a user error
	// and RpcError as retriable.
	VerifyRegistrationTx(ctx context.Context, txHash, network, name string) (Status, error)
}
