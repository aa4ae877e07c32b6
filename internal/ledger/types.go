// Package ledger implements the two-operation credit store contract (§4.2):
// GetBalance and AtomicDebit, against either a direct relational store or an
// HTTP fallback service.
package ledger

import "github.com/shopspring/decimal"

// CreditBalance is the derived, never-cached balance snapshot (§3).
type CreditBalance struct {
	Balance            decimal.Decimal `json:"balance"`
	ExpiringCredits     decimal.Decimal `json:"expiring_credits"`
	NonExpiringCredits  decimal.Decimal `json:"non_expiring_credits"`
	DailyBalance        decimal.Decimal `json:"daily_balance"`
}

// DebitResult is returned by a successful AtomicDebit.
type DebitResult struct {
	AmountDeducted decimal.Decimal `json:"amount_deducted"`
	NewBalance     decimal.Decimal `json:"new_balance"`
	TransactionID  string          `json:"transaction_id"`
}

// DebitRequest carries everything needed to perform an atomic debit.
// SessionID is optional and threaded through to the stored procedure /
// HTTP service for the ledger's own bookkeeping.
type DebitRequest struct {
	Account     string
	Amount      decimal.Decimal
	Description string
	SessionID   *string
}
