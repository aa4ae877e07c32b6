// Package migration applies the gateway's Postgres schema — the
// credential_keys, credit_balances, and credit_transactions tables plus the
// atomic_use_credits stored procedure (§4.2, §6.5) — via golang-migrate. The
// gateway's own runtime code never creates or alters schema; this package is
// only invoked from the `gateway migrate` CLI subcommand.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/postgres/*.sql
var postgresFS embed.FS

// Config holds the settings needed to reach the schema_migrations-tracked
// database and run migration files against it.
type Config struct {
	DatabaseURL string
	TableName   string
	LockTimeout time.Duration
}

// Migrator applies or rolls back the embedded Postgres migrations.
type Migrator struct {
	db      *sql.DB
	migrate *migrate.Migrate
}

// New opens its own database/sql connection (independent of the gorm pool
// the running server uses) and prepares the migrate.Migrate instance.
func New(cfg Config) (*Migrator, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("migration: database URL is required")
	}
	if cfg.TableName == "" {
		cfg.TableName = "schema_migrations"
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = 15 * time.Second
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("migration: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: ping database: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: cfg.TableName,
		LockTimeout:     cfg.LockTimeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(postgresFS, "migrations/postgres")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: create migrate instance: %w", err)
	}

	return &Migrator{db: db, migrate: m}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.migrate.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down: %w", err)
	}
	return nil
}

// Version reports the current schema_migrations version, or (0, false, nil)
// if no migration has ever been applied.
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration: read version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the migrator's own database connection.
func (m *Migrator) Close() error {
	_, dbErr := m.migrate.Close()
	return dbErr
}
