// Package config loads the gateway's process-wide configuration from the
// environment once at startup. The resulting Config is an immutable value
// passed down by constructor injection; there is no global accessor.
package config

import "time"

// Env is the deployment mode (§6.7). Local and staging both enable the
// billing dev-mode bypass; only production runs the real ledger path with
// no bypass.
type Env string

const (
	EnvLocal      Env = "local"
	EnvStaging    Env = "staging"
	EnvProduction Env = "production"
)

// IsDevMode reports whether this Env bypasses billing (§4.4, §6.7).
func (e Env) IsDevMode() bool {
	return e == EnvLocal || e == EnvStaging
}

// AppConfig is the top-level HTTP service configuration.
type AppConfig struct {
	Env  Env    `envconfig:"ENV_MODE" default:"local"`
	Port string `envconfig:"PORT" default:"8080"`
}

// AuthConfig carries the HMAC secret used by internal/crypto to hash and
// verify presented credentials (§4.1).
type AuthConfig struct {
	APIKeySecret string `envconfig:"API_KEY_SECRET"`
}

// LedgerConfig is the Supabase/Postgres direct ledger connection, and the
// HTTP fallback ledger's base URL/key (§4.2, §6.5).
type LedgerConfig struct {
	SupabaseURL            string `envconfig:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	BackendAPIURL          string `envconfig:"BACKEND_API_URL"`
	BackendAPIKey          string `envconfig:"BACKEND_API_KEY"`
}

// IsDirectConfigured reports whether the direct (Supabase/Postgres) ledger
// has enough configuration to be used in preference to the HTTP fallback.
func (l LedgerConfig) IsDirectConfigured() bool {
	return l.SupabaseURL != "" && l.SupabaseServiceRoleKey != ""
}

// ProviderConfig is one upstream binding's runtime-supplied half of its
// ProviderBinding (§3): base URL and API key. A provider with an empty
// APIKey is "unconfigured" (§4.5's isConfigured check).
type ProviderConfig struct {
	BaseURL string `envconfig:"API_URL"`
	APIKey  string `envconfig:"API_KEY"`
}

// ProvidersConfig holds every upstream provider's runtime configuration,
// keyed by the provider names used throughout internal/providers.
type ProvidersConfig struct {
	OpenAI     ProviderConfig
	Anthropic  ProviderConfig
	XAI        ProviderConfig
	Groq       ProviderConfig
	Gemini     ProviderConfig
	Bedrock    ProviderConfig
	OpenRouter ProviderConfig // the aggregator
}

// SearchConfig is the web/image search upstream's runtime configuration,
// following the same `<PROVIDER>_API_URL` / `<PROVIDER>_API_KEY`
// convention as ProvidersConfig (§6.7). Both search adapters share one
// upstream.
type SearchConfig struct {
	BaseURL string `envconfig:"API_URL"`
	APIKey  string `envconfig:"API_KEY"`
}

// TelemetryConfig configures OTel tracing (internal/telemetry).
type TelemetryConfig struct {
	Enabled      bool    `envconfig:"TELEMETRY_ENABLED" default:"false"`
	OTLPEndpoint string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceName  string  `envconfig:"OTEL_SERVICE_NAME" default:"kortix-gateway"`
	SampleRate   float64 `envconfig:"OTEL_SAMPLE_RATE" default:"1.0"`
}

// ServerConfig is the HTTP listener lifecycle configuration consumed by
// internal/server.Manager.
type ServerConfig struct {
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	MaxHeaderBytes  int           `envconfig:"SERVER_MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	MetricsPort     string        `envconfig:"METRICS_PORT" default:"9090"`
	// AllowedOrigins is the CORS allow-list (§9: "allow-list of known
	// origins plus localhost in dev"). Comma-separated; "*" (the default)
	// allows any origin and should be overridden in production.
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Config is the full, immutable process configuration.
type Config struct {
	App       AppConfig
	Auth      AuthConfig
	Ledger    LedgerConfig
	Providers ProvidersConfig
	Search    SearchConfig
	Telemetry TelemetryConfig
	Server    ServerConfig
}
