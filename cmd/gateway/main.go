// =============================================================================
// Kortix Gateway entry point
// =============================================================================
// Usage:
//
//	gateway serve                 # start the HTTP + metrics servers
//	gateway migrate up|down|status|version
//	gateway version
//	gateway health [--addr url]
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kortix/gateway/config"
	"github.com/kortix/gateway/internal/migration"
	"github.com/kortix/gateway/internal/telemetry"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "migrate":
		runMigrate(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// runServe loads configuration, wires every C1-C9 component, and starts
// the HTTP surface plus the metrics listener.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.App.Env)
	defer logger.Sync()

	logger.Info("starting kortix gateway",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("env", string(cfg.App.Env)),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
		otelProviders = nil
	}

	db, err := openDatabase(cfg, logger)
	if err != nil {
		logger.Warn("relational store not available, direct ledger and credential validation disabled", zap.Error(err))
	}

	srv := NewServer(cfg, logger, otelProviders, db)
	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	srv.WaitForShutdown()
	logger.Info("kortix gateway stopped")
}

// runMigrate drives internal/migration's schema CLI independently of the
// running server's own gorm pool.
func runMigrate(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: gateway migrate <up|down|status|version>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Ledger.SupabaseURL == "" {
		fmt.Fprintln(os.Stderr, "SUPABASE_URL is required for migrations")
		os.Exit(1)
	}

	m, err := migration.New(migration.Config{DatabaseURL: cfg.Ledger.SupabaseURL})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize migrator: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	ctx := context.Background()

	switch args[0] {
	case "up":
		err = m.Up(ctx)
	case "down":
		err = m.Down(ctx)
	case "status", "version":
		version, dirty, verr := m.Version(ctx)
		if verr != nil {
			err = verr
			break
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate subcommand: %s\n", args[0])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func printVersion() {
	fmt.Printf("kortix-gateway %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`Kortix Gateway - metered API gateway for LLM and search providers

Usage:
  gateway <command> [options]

Commands:
  serve     Start the HTTP and metrics servers
  migrate   Apply or inspect the ledger/credential schema
  version   Show version information
  health    Check a running server's health endpoint
  help      Show this help message

Migration subcommands:
  migrate up        Apply all pending migrations
  migrate down      Rollback the last migration
  migrate status    Show the current schema version

Examples:
  gateway serve
  gateway migrate up
  gateway health --addr http://localhost:8080
  gateway version`)
}

// initLogger builds the zap logger: console encoding for local/staging,
// JSON for production.
func initLogger(env config.Env) *zap.Logger {
	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if env != config.EnvProduction {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Development:      env != config.EnvProduction,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// openDatabase opens the gorm connection backing the direct ledger and
// credential store (§6.5): Postgres when Supabase is configured, a local
// sqlite file otherwise — matching the dual-driver split the rest of the
// package's tests exercise against a mocked postgres dialector.
func openDatabase(cfg config.Config, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.Ledger.IsDirectConfigured() {
		db, err := gorm.Open(postgres.Open(cfg.Ledger.SupabaseURL), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("relational store connected", zap.String("driver", "postgres"))
		return db, nil
	}

	if !cfg.App.Env.IsDevMode() {
		return nil, fmt.Errorf("no direct ledger configured in production")
	}

	db, err := gorm.Open(sqlite.Open("gateway-dev.db"), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open local sqlite store: %w", err)
	}
	logger.Info("relational store connected", zap.String("driver", "sqlite"), zap.String("file", "gateway-dev.db"))
	return db, nil
}
