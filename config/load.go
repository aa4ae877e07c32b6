package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// providerPrefixes maps each provider's env-var prefix to the
// ProviderConfig field that receives it (§6.7's "<PROVIDER>_API_URL /
// <PROVIDER>_API_KEY" convention).
func (p *ProvidersConfig) bindings() map[string]*ProviderConfig {
	return map[string]*ProviderConfig{
		"OPENAI":     &p.OpenAI,
		"ANTHROPIC":  &p.Anthropic,
		"XAI":        &p.XAI,
		"GROQ":       &p.Groq,
		"GEMINI":     &p.Gemini,
		"BEDROCK":    &p.Bedrock,
		"OPENROUTER": &p.OpenRouter,
	}
}

// Load populates a Config from the environment, loading a local .env file
// first when present (godotenv.Load is a no-op if the file is absent).
// Unlike the teacher's hot-reloadable loader, this Config is read exactly
// once at process start and never watched or mutated afterward.
func Load() (Config, error) {
	var cfg Config

	root, err := os.Getwd()
	if err != nil {
		return cfg, fmt.Errorf("load config: getwd: %w", err)
	}
	_ = godotenv.Load(filepath.Join(root, ".env"))

	if err := envconfig.Process("", &cfg.App); err != nil {
		return cfg, fmt.Errorf("load config: app: %w", err)
	}
	if err := envconfig.Process("", &cfg.Auth); err != nil {
		return cfg, fmt.Errorf("load config: auth: %w", err)
	}
	if err := envconfig.Process("", &cfg.Ledger); err != nil {
		return cfg, fmt.Errorf("load config: ledger: %w", err)
	}
	if err := envconfig.Process("TAVILY", &cfg.Search); err != nil {
		return cfg, fmt.Errorf("load config: search: %w", err)
	}
	if err := envconfig.Process("", &cfg.Telemetry); err != nil {
		return cfg, fmt.Errorf("load config: telemetry: %w", err)
	}
	if err := envconfig.Process("", &cfg.Server); err != nil {
		return cfg, fmt.Errorf("load config: server: %w", err)
	}

	for prefix, dst := range cfg.Providers.bindings() {
		if err := envconfig.Process(prefix, dst); err != nil {
			return cfg, fmt.Errorf("load config: provider %s: %w", prefix, err)
		}
	}

	return cfg, nil
}
