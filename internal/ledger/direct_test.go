package ledger

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kortix/gateway/gatewayerr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	dialector := postgres.New(postgres.Config{Conn: mockDB})
	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return mock, gormDB
}

func TestDirectLedger_GetBalance_Found(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	l := NewDirectLedger(gormDB, zap.NewNop())

	rows := sqlmock.NewRows([]string{"balance", "expiring_credits", "non_expiring_credits", "daily_balance"}).
		AddRow("10.50", "2.00", "8.50", "1.00")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT balance, expiring_credits, non_expiring_credits, daily_balance FROM "credit_balances" WHERE account_id = $1`)).
		WithArgs("acct_1").
		WillReturnRows(rows)

	balance, err := l.GetBalance(context.Background(), "acct_1")
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.True(t, decimal.RequireFromString("10.50").Equal(balance.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectLedger_GetBalance_Absent(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	l := NewDirectLedger(gormDB, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT balance, expiring_credits, non_expiring_credits, daily_balance FROM "credit_balances" WHERE account_id = $1`)).
		WithArgs("acct_missing").
		WillReturnError(gorm.ErrRecordNotFound)

	balance, err := l.GetBalance(context.Background(), "acct_missing")
	require.NoError(t, err)
	assert.Nil(t, balance)
}

func TestDirectLedger_GetBalance_QueryError(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	l := NewDirectLedger(gormDB, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT balance, expiring_credits, non_expiring_credits, daily_balance FROM "credit_balances" WHERE account_id = $1`)).
		WithArgs("acct_1").
		WillReturnError(sql.ErrConnDone)

	_, err := l.GetBalance(context.Background(), "acct_1")
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.UpstreamError, gwErr.Kind)
}

func TestDirectLedger_AtomicDebit_Success(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	l := NewDirectLedger(gormDB, zap.NewNop())

	rows := sqlmock.NewRows([]string{"success", "amountdeducted", "newtotal", "transactionid", "error"}).
		AddRow(true, "0.05", "9.95", "txn_123", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM atomic_use_credits($1, $2, $3, $4, $5)")).
		WillReturnRows(rows)

	result, err := l.AtomicDebit(context.Background(), DebitRequest{
		Account:     "acct_1",
		Amount:      decimal.RequireFromString("0.05"),
		Description: "tool: web_search_basic",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "txn_123", result.TransactionID)
	assert.True(t, decimal.RequireFromString("9.95").Equal(result.NewBalance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectLedger_AtomicDebit_Insufficient(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	l := NewDirectLedger(gormDB, zap.NewNop())

	rows := sqlmock.NewRows([]string{"success", "amountdeducted", "newtotal", "transactionid", "error"}).
		AddRow(false, "0", "0", "", "insufficient_credits")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM atomic_use_credits($1, $2, $3, $4, $5)")).
		WillReturnRows(rows)

	_, err := l.AtomicDebit(context.Background(), DebitRequest{
		Account: "acct_broke",
		Amount:  decimal.RequireFromString("5.00"),
	})
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.InsufficientCredits, gwErr.Kind)
}

func TestDirectLedger_AtomicDebit_NotFound(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	l := NewDirectLedger(gormDB, zap.NewNop())

	rows := sqlmock.NewRows([]string{"success", "amountdeducted", "newtotal", "transactionid", "error"}).
		AddRow(false, "0", "0", "", "not_found")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM atomic_use_credits($1, $2, $3, $4, $5)")).
		WillReturnRows(rows)

	_, err := l.AtomicDebit(context.Background(), DebitRequest{Account: "acct_unknown", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.NotFound, gwErr.Kind)
}

func TestDirectLedger_AtomicDebit_QueryError(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	l := NewDirectLedger(gormDB, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM atomic_use_credits($1, $2, $3, $4, $5)")).
		WillReturnError(sql.ErrConnDone)

	_, err := l.AtomicDebit(context.Background(), DebitRequest{Account: "acct_1", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.UpstreamError, gwErr.Kind)
}
