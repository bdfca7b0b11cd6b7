package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/config-composer/internal/api"
	"github.com/eugenenazirov/config-composer/internal/compose"
	"github.com/eugenenazirov/config-composer/internal/config"
	"github.com/eugenenazirov/config-composer/internal/preset"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	router http.Handler
	logger *zap.Logger
	server *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	presets, err := NewRegistry(cfg)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(compose.New(), presets)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	logger.Info("presets loaded",
		zap.Strings("presets", presets.Names()),
		zap.String("presets_file", cfg.PresetsFile),
	)

	return &App{
		router: apiRouter,
		logger: logger,
		server: NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// NewRegistry builds the preset registry from the built-in presets and, when
// configured, the presets file.
func NewRegistry(cfg config.Config) (*preset.MemoryRegistry, error) {
	presets, err := preset.NewMemoryRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise presets: %w", err)
	}
	if cfg.PresetsFile != "" {
		if err := presets.LoadFile(cfg.PresetsFile); err != nil {
			return nil, fmt.Errorf("failed to load presets file: %w", err)
		}
	}
	return presets, nil
}

// BuildRootHandler constructs the root HTTP handler that routes API requests
// and answers everything else with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
