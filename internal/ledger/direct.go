package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kortix/gateway/gatewayerr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// atomicUseCreditsRow is the row shape returned by the
// atomic_use_credits(account, amount, description, thread, message)
// stored procedure (§6.5).
type atomicUseCreditsRow struct {
	Success       bool
	AmountDeducted decimal.Decimal
	NewTotal       decimal.Decimal
	TransactionID  string
	Error          sql.NullString
}

type balanceRow struct {
	Balance            decimal.Decimal
	ExpiringCredits    decimal.Decimal
	NonExpiringCredits decimal.Decimal
	DailyBalance       decimal.Decimal
}

// DirectLedger is the primary ledger adapter: a relational store (Supabase
// Postgres in production, sqlite in local/dev and tests) reached through
// gorm, mirroring the connection style of the teacher's database pool.
type DirectLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDirectLedger wraps an already-opened gorm connection. The caller owns
// the connection's lifecycle (pool sizing, Close).
func NewDirectLedger(db *gorm.DB, logger *zap.Logger) *DirectLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectLedger{db: db, logger: logger.With(zap.String("component", "direct_ledger"))}
}

// GetBalance reads the account's current balance row. A missing row is not
// an error: it is "absent" per §4.2, and the gateway should treat it as
// zero credits, not as a ledger outage.
func (l *DirectLedger) GetBalance(ctx context.Context, account string) (*CreditBalance, error) {
	var row balanceRow
	err := l.db.WithContext(ctx).
		Table("credit_balances").
		Select("balance, expiring_credits, non_expiring_credits, daily_balance").
		Where("account_id = ?", account).
		Take(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		l.logger.Error("get balance failed", zap.String("account", account), zap.Error(err))
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "ledger balance lookup failed").WithCause(err)
	}

	return &CreditBalance{
		Balance:            row.Balance,
		ExpiringCredits:    row.ExpiringCredits,
		NonExpiringCredits: row.NonExpiringCredits,
		DailyBalance:       row.DailyBalance,
	}, nil
}

// AtomicDebit invokes the atomic_use_credits stored procedure, which
// serializes concurrent debits for the same account at the database level
// (§4.2's required invariant — this adapter adds no application-level
// locking of its own).
func (l *DirectLedger) AtomicDebit(ctx context.Context, req DebitRequest) (*DebitResult, error) {
	var sessionID any
	if req.SessionID != nil {
		sessionID = *req.SessionID
	}

	var row atomicUseCreditsRow
	err := l.db.WithContext(ctx).Raw(
		"SELECT * FROM atomic_use_credits(?, ?, ?, ?, ?)",
		req.Account, req.Amount, req.Description, sessionID, nil,
	).Scan(&row).Error

	if err != nil {
		l.logger.Error("atomic debit query failed", zap.String("account", req.Account), zap.Error(err))
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "ledger debit failed").WithCause(err)
	}

	if !row.Success {
		reason := row.Error.String
		if reason == "insufficient_credits" || reason == "insufficient" {
			return nil, gatewayerr.Newf(gatewayerr.InsufficientCredits, "insufficient credits: %s", reason)
		}
		if reason == "not_found" {
			return nil, gatewayerr.Newf(gatewayerr.NotFound, "account not found: %s", req.Account)
		}
		return nil, gatewayerr.Newf(gatewayerr.UpstreamError, "ledger debit rejected: %s", reason)
	}

	return &DebitResult{
		AmountDeducted: row.AmountDeducted,
		NewBalance:     row.NewTotal,
		TransactionID:  row.TransactionID,
	}, nil
}
