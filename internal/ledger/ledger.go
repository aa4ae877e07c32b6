package ledger

import "context"

// Ledger is the two-operation contract every credit-store adapter
// implements (§4.2). Both operations are safe to call concurrently for the
// same account; AtomicDebit's atomicity invariant (balance never goes
// negative, transaction ids never repeat) is the adapter's responsibility.
type Ledger interface {
	// GetBalance returns the account's balance, or (nil, nil) if the
	// account has no ledger record ("absent", §4.2).
	GetBalance(ctx context.Context, account string) (*CreditBalance, error)

	// AtomicDebit performs an atomic debit. On a structured failure
	// (insufficient balance, unknown account, adapter error) it returns a
	// *gatewayerr.Error with Kind InsufficientCredits, NotFound, or
	// UpstreamError respectively; callers should not distinguish by error
	// string.
	AtomicDebit(ctx context.Context, req DebitRequest) (*DebitResult, error)
}
