package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/kortix/gateway/gatewayerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// credentialRow is the gorm model backing the credential_keys table
// (§6.5: primary index on secret_key_hash).
type credentialRow struct {
	KeyID        string `gorm:"column:key_id;primaryKey"`
	PublicPrefix string `gorm:"column:public_prefix"`
	SecretHash   string `gorm:"column:secret_key_hash;index"`
	AccountID    string `gorm:"column:account_id"`
	Status       string `gorm:"column:status"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	LastUsedAt   *time.Time `gorm:"column:last_used_at"`
}

func (credentialRow) TableName() string { return "credential_keys" }

// GormStore is the relational Store implementation, backed by Postgres in
// production and sqlite for local/dev and tests — the same dual-driver
// split as internal/ledger's direct adapter.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore wraps an already-opened gorm connection.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore{db: db, logger: logger.With(zap.String("component", "credential_store"))}
}

func (s *GormStore) FindBySecretHash(ctx context.Context, hash string) (*Credential, error) {
	var row credentialRow
	err := s.db.WithContext(ctx).
		Where("secret_key_hash = ?", hash).
		Take(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "credential lookup failed").WithCause(err)
	}

	return &Credential{
		KeyID:        row.KeyID,
		PublicPrefix: row.PublicPrefix,
		SecretHash:   row.SecretHash,
		AccountID:    row.AccountID,
		Status:       Status(row.Status),
		ExpiresAt:    row.ExpiresAt,
		LastUsedAt:   row.LastUsedAt,
	}, nil
}

func (s *GormStore) UpdateLastUsedAt(ctx context.Context, keyID string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&credentialRow{}).
		Where("key_id = ?", keyID).
		Update("last_used_at", at).Error

	if err != nil {
		return gatewayerr.New(gatewayerr.UpstreamError, "failed to update last_used_at").WithCause(err)
	}
	return nil
}
