package ledger

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/kortix/gateway/gatewayerr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HTTPLedger is the fallback ledger adapter (§4.2, §6.5): it is used iff
// the direct adapter is not configured, and trades a stricter consistency
// guarantee for availability — a balance-check network error fails open
// rather than blocking every request on a ledger outage.
type HTTPLedger struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPLedger builds an HTTPLedger against baseURL, authenticating with
// apiKey as a bearer token.
func NewHTTPLedger(baseURL, apiKey string, logger *zap.Logger) *HTTPLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &HTTPLedger{client: client, logger: logger.With(zap.String("component", "http_ledger"))}
}

type balanceResponse struct {
	Balance *decimal.Decimal `json:"balance"`
}

// GetBalance fails open on network error: it returns a CreditBalance with
// a nil Balance rather than an error, so the caller treats it as "has
// credits" instead of gating every request on ledger availability (§4.2).
func (l *HTTPLedger) GetBalance(ctx context.Context, account string) (*CreditBalance, error) {
	var body balanceResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetQueryParam("account", account).
		SetResult(&body).
		Get("/balance")

	if err != nil {
		l.logger.Warn("ledger balance check failed open", zap.String("account", account), zap.Error(err))
		return &CreditBalance{}, nil
	}
	if resp.IsError() {
		if resp.StatusCode() == 404 {
			return nil, nil
		}
		l.logger.Warn("ledger balance check failed open", zap.String("account", account), zap.Int("status", resp.StatusCode()))
		return &CreditBalance{}, nil
	}
	if body.Balance == nil {
		return &CreditBalance{}, nil
	}

	return &CreditBalance{Balance: *body.Balance}, nil
}

type debitRequestBody struct {
	Account     string          `json:"account"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Session     *string         `json:"session,omitempty"`
}

type debitResponseBody struct {
	Success       bool            `json:"success"`
	Cost          decimal.Decimal `json:"cost"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	TransactionID string          `json:"transaction_id"`
	Error         string          `json:"error,omitempty"`
}

// AtomicDebit posts the debit to the remote ledger service. Unlike
// GetBalance, debit failures are not failed open — an unreachable or
// erroring ledger on debit surfaces as UpstreamError, so the billing layer
// can log the loss rather than silently dropping it (§4.4, §7).
func (l *HTTPLedger) AtomicDebit(ctx context.Context, req DebitRequest) (*DebitResult, error) {
	var body debitResponseBody
	resp, err := l.client.R().
		SetContext(ctx).
		SetBody(debitRequestBody{
			Account:     req.Account,
			Amount:      req.Amount,
			Description: req.Description,
			Session:     req.SessionID,
		}).
		SetResult(&body).
		Post("/debit")

	if err != nil {
		l.logger.Error("ledger debit request failed", zap.String("account", req.Account), zap.Error(err))
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "ledger debit request failed").WithCause(err)
	}
	if resp.IsError() {
		return nil, gatewayerr.Newf(gatewayerr.UpstreamError, "ledger debit rejected: status %d", resp.StatusCode())
	}
	if !body.Success {
		if body.Error == "insufficient_credits" || body.Error == "insufficient" {
			return nil, gatewayerr.Newf(gatewayerr.InsufficientCredits, "insufficient credits: %s", body.Error)
		}
		return nil, gatewayerr.Newf(gatewayerr.UpstreamError, "ledger debit rejected: %s", body.Error)
	}

	return &DebitResult{
		AmountDeducted: body.Cost,
		NewBalance:     body.NewBalance,
		TransactionID:  body.TransactionID,
	}, nil
}
