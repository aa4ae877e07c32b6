package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kortix/gateway/api/handlers"
	"github.com/kortix/gateway/config"
	"github.com/kortix/gateway/internal/auth"
	"github.com/kortix/gateway/internal/billing"
	"github.com/kortix/gateway/internal/credentials"
	"github.com/kortix/gateway/internal/crypto"
	"github.com/kortix/gateway/internal/ledger"
	"github.com/kortix/gateway/internal/llmproxy"
	"github.com/kortix/gateway/internal/metrics"
	"github.com/kortix/gateway/internal/providers"
	"github.com/kortix/gateway/internal/search"
	"github.com/kortix/gateway/internal/server"
	"github.com/kortix/gateway/internal/telemetry"
)

// Server owns both HTTP listeners (API and metrics) and every wired
// component; Start/Shutdown manage their lifecycle together.
type Server struct {
	cfg       config.Config
	logger    *zap.Logger
	telemetry *telemetry.Providers
	collector *metrics.Collector

	api     *server.Manager
	metrics *server.Manager
}

// NewServer wires every C1-C9 component: the credential registry and
// throttle (C3), the direct or HTTP-fallback ledger (C2), billing (C4),
// provider resolution (C5) and LLM proxy (C7), the search adapters (C6),
// and the authenticated HTTP surface (C8/C9) in front of all of it. db may
// be nil, in which case the direct ledger/credential validation paths are
// unavailable and the HTTP fallback ledger is used instead.
func NewServer(cfg config.Config, logger *zap.Logger, otelProviders *telemetry.Providers, db *gorm.DB) *Server {
	collector := metrics.NewCollector("kortix_gateway", logger)

	// --- C2/C3: ledger + credential registry ---------------------------
	var ld ledger.Ledger
	var credRegistry *credentials.Registry

	if db != nil {
		ld = ledger.NewDirectLedger(db, logger)
		hasher := crypto.NewHasher(cfg.Auth.APIKeySecret)
		store := credentials.NewGormStore(db, logger)
		throttle := credentials.NewThrottle()
		credRegistry = credentials.NewRegistry(store, hasher, throttle, logger)
		credRegistry.SetMetrics(collector)
	} else {
		ld = ledger.NewHTTPLedger(cfg.Ledger.BackendAPIURL, cfg.Ledger.BackendAPIKey, logger)
	}

	// --- C4: billing ------------------------------------------------------
	billingSvc := billing.NewService(ld, cfg.App.Env, logger)
	billingSvc.SetMetrics(collector)

	// --- C5/C7: provider resolution + LLM proxy ---------------------------
	bindings := providers.BuildBindings(cfg.Providers)
	registry := providers.NewRegistry(bindings)
	proxy := llmproxy.NewProxy(registry, billingSvc, logger)
	proxy.SetMetrics(collector)

	// --- C6: search adapters -----------------------------------------------
	webAdapter := search.NewWebAdapter(cfg.Search.BaseURL, cfg.Search.APIKey, logger)
	imageAdapter := search.NewImageAdapter(cfg.Search.BaseURL, cfg.Search.APIKey, logger)

	// --- handlers ------------------------------------------------------------
	chatHandler := handlers.NewChatHandler(proxy, billingSvc, logger)
	webSearchHandler := handlers.NewWebSearchHandler(webAdapter, billingSvc, logger)
	webSearchHandler.SetMetrics(collector)
	imageSearchHandler := handlers.NewImageSearchHandler(imageAdapter, billingSvc, logger)
	imageSearchHandler.SetMetrics(collector)
	healthHandler := handlers.NewHealthHandler("kortix-gateway", cfg.App.Env)
	modelsHandler := handlers.NewModelsHandler(providers.ModelCatalog)

	router := chi.NewRouter()
	router.Use(
		Recovery(logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(logger),
		cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins(cfg),
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Kortix-Provider", "X-Request-ID"},
			MaxAge:           300,
			AllowCredentials: false,
		}),
		OTelTracing(),
		MetricsMiddleware(collector),
	)

	router.Get("/health", healthHandler.HandleHealth)

	router.Group(func(r chi.Router) {
		r.Use(auth.Bearer(credRegistry, logger))
		r.Post("/v1/chat/completions", chatHandler.Handle)
		r.Get("/v1/models", modelsHandler.HandleList)
		r.Get("/v1/models/{id}", func(w http.ResponseWriter, r *http.Request) {
			modelsHandler.HandleGet(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/web-search", webSearchHandler.HandleSearch)
		r.Post("/image-search", imageSearchHandler.HandleSearch)
	})

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	apiManager := server.NewManager(router, server.Config{
		Addr:            ":" + cfg.App.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		MaxHeaderBytes:  cfg.Server.MaxHeaderBytes,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	metricsManager := server.NewManager(metricsRouter, server.Config{
		Addr:            ":" + cfg.Server.MetricsPort,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	return &Server{
		cfg:       cfg,
		logger:    logger,
		telemetry: otelProviders,
		collector: collector,
		api:       apiManager,
		metrics:   metricsManager,
	}
}

// Start brings up both the API and metrics listeners.
func (s *Server) Start() error {
	if err := s.api.Start(); err != nil {
		return err
	}
	if err := s.metrics.Start(); err != nil {
		return err
	}
	s.logger.Info("gateway listening",
		zap.String("api_addr", s.api.Addr()),
		zap.String("metrics_addr", s.metrics.Addr()),
	)
	return nil
}

// WaitForShutdown blocks until a termination signal or server error, then
// drains both listeners and flushes telemetry.
func (s *Server) WaitForShutdown() {
	s.api.WaitForShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.metrics.Shutdown(ctx); err != nil {
		s.logger.Error("metrics server shutdown error", zap.Error(err))
	}
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Error("telemetry shutdown error", zap.Error(err))
	}
}

// allowedOrigins builds the CORS allow-list (§9): the configured origins
// plus localhost, in any port, whenever running outside production.
func allowedOrigins(cfg config.Config) []string {
	origins := append([]string{}, cfg.Server.AllowedOrigins...)
	if cfg.App.Env.IsDevMode() {
		origins = append(origins, "http://localhost:*", "http://127.0.0.1:*")
	}
	return origins
}
