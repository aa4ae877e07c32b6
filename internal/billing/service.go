// Package billing composes the credential, crypto, and ledger layers into
// the two high-level operations the rest of the gateway calls against:
// CheckCredits and DeductCredits (C4, §4.4).
package billing

import (
	"context"
	"fmt"

	"github.com/kortix/gateway/config"
	"github.com/kortix/gateway/gatewayerr"
	"github.com/kortix/gateway/internal/ledger"
	"github.com/kortix/gateway/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TestAccountID is the fixed sentinel account (and bearer token, at the
// auth boundary) that bypasses billing entirely (§4.4, §9 glossary).
const TestAccountID = "00000"

// defaultMinCredits is CheckCredits' default minimum when the caller
// doesn't supply one (§4.4).
var defaultMinCredits = decimal.NewFromFloat(0.01)

// bypassReason documents why a debit was skipped, for logging and for the
// DebitOutcome surfaced to callers.
type bypassReason string

const (
	reasonNone             bypassReason = ""
	reasonTestToken        bypassReason = "test_token"
	reasonDevelopmentMode  bypassReason = "development_mode"
	reasonZeroAmount       bypassReason = "zero_amount"
)

// CreditCheckResult is CheckCredits' return shape (§4.4).
type CreditCheckResult struct {
	HasCredits bool
	Balance    *decimal.Decimal
	Message    string
}

// DebitOutcome is DeductCredits' return shape. Success is false whenever
// the ledger debit failed — by design this never becomes an error the
// caller must propagate; the user-facing response proceeds regardless
// (§4.4, §7 "fail-open on billing").
type DebitOutcome struct {
	Success       bool
	Amount        decimal.Decimal
	TransactionID string
	Reason        string
}

// Service composes the ledger adapter with the gateway's billing policy:
// test-account and dev-mode bypasses ahead of the real ledger path.
type Service struct {
	ledger  ledger.Ledger
	env     config.Env
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewService builds a Service around the resolved ledger adapter (direct
// or HTTP fallback — internal/ledger callers decide which to construct).
func NewService(l ledger.Ledger, env config.Env, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: l, env: env, logger: logger.With(zap.String("component", "billing"))}
}

// SetMetrics attaches a metrics.Collector so successful debits are recorded
// (§ ambient metrics). Optional: a Service with no collector attached simply
// skips recording.
func (s *Service) SetMetrics(c *metrics.Collector) {
	s.metrics = c
}

// CheckCredits implements §4.4's three short-circuit paths ahead of the
// real ledger read. min defaults to 0.01 when the zero value is passed.
func (s *Service) CheckCredits(ctx context.Context, account string, min decimal.Decimal) (*CreditCheckResult, error) {
	if min.IsZero() {
		min = defaultMinCredits
	}

	if account == TestAccountID {
		return &CreditCheckResult{HasCredits: true, Message: "test account"}, nil
	}
	if s.env.IsDevMode() {
		return &CreditCheckResult{HasCredits: true, Message: "development mode"}, nil
	}

	balance, err := s.ledger.GetBalance(ctx, account)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return &CreditCheckResult{HasCredits: false, Message: "no credit balance on file"}, nil
	}
	if balance.Balance.LessThan(min) {
		return &CreditCheckResult{
			HasCredits: false,
			Balance:    &balance.Balance,
			Message:    fmt.Sprintf("Insufficient credits: balance %s is below the required minimum %s", balance.Balance.String(), min.String()),
		}, nil
	}

	return &CreditCheckResult{HasCredits: true, Balance: &balance.Balance}, nil
}

// DeductToolCredits computes amount from the ToolPricing table and debits
// it — the "tool debit" flavor of DeductCredits (§4.4).
func (s *Service) DeductToolCredits(ctx context.Context, account, tool string, resultCount int, sessionID *string) *DebitOutcome {
	amount, err := ToolCost(tool, resultCount)
	if err != nil {
		s.logger.Error("tool cost computation failed", zap.String("tool", tool), zap.Error(err))
		return &DebitOutcome{Success: false, Reason: "cost_error"}
	}
	return s.deduct(ctx, account, amount, HumanizeToolName(tool), sessionID, "tool")
}

// DeductLLMCredits debits a precomputed LLM cost — the "LLM debit" flavor
// of DeductCredits (§4.4). amount is computed by the caller via
// internal/llmproxy's calculateLLMCost.
func (s *Service) DeductLLMCredits(ctx context.Context, account string, amount decimal.Decimal, model string, inputTokens, outputTokens int, sessionID *string) *DebitOutcome {
	description := fmt.Sprintf("LLM: %s (%d/%d tokens)", model, inputTokens, outputTokens)
	return s.deduct(ctx, account, amount, description, sessionID, "llm")
}

// deduct is the shared path behind both debit flavors: test/dev bypasses,
// the zero-or-negative no-op, then the real ledger call. A ledger failure
// here is logged and reported as {success: false}; it never becomes an
// error that fails the caller's already-successful operation (§4.4, §7).
// kind labels the debit for metrics ("llm" or "tool").
func (s *Service) deduct(ctx context.Context, account string, amount decimal.Decimal, description string, sessionID *string, kind string) *DebitOutcome {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &DebitOutcome{Success: true, Amount: decimal.Zero, Reason: string(reasonZeroAmount)}
	}
	if account == TestAccountID {
		return &DebitOutcome{Success: true, Amount: decimal.Zero, Reason: string(reasonTestToken)}
	}
	if s.env.IsDevMode() {
		return &DebitOutcome{Success: true, Amount: decimal.Zero, Reason: string(reasonDevelopmentMode)}
	}

	result, err := s.ledger.AtomicDebit(ctx, ledger.DebitRequest{
		Account:     account,
		Amount:      amount,
		Description: description,
		SessionID:   sessionID,
	})
	if err != nil {
		errKind := gatewayerr.KindOf(err)
		s.logger.Error("debit failed",
			zap.String("account", account),
			zap.String("kind", string(errKind)),
			zap.Error(err),
		)
		return &DebitOutcome{Success: false, Reason: string(errKind)}
	}

	if s.metrics != nil {
		s.metrics.RecordCreditsDeducted(kind, result.AmountDeducted.InexactFloat64())
	}

	return &DebitOutcome{Success: true, Amount: result.AmountDeducted, TransactionID: result.TransactionID}
}
