package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/config-composer/internal/application"
	"github.com/eugenenazirov/config-composer/internal/config"
	"github.com/eugenenazirov/config-composer/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("composer", "Configuration Composer - merges a base test-runner configuration with local overrides")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	presetsFile := kingpinApp.Flag("presets-file", "YAML, JSON or TOML file with additional named base configurations").String()

	mergeCmd := kingpinApp.Command("merge", "Compose a configuration and write it out").Default()
	basePath := mergeCmd.Flag("base", "Base configuration file (YAML, JSON or TOML)").ExistingFile()
	presetName := mergeCmd.Flag("preset", "Named base configuration to start from").String()
	overridePaths := mergeCmd.Flag("overrides", "Override file, repeatable; later files win").ExistingFiles()
	assignments := mergeCmd.Flag("set", "Override as key=value, dotted keys address nested values; repeatable").Short('s').Strings()
	format := mergeCmd.Flag("format", "Output format (yaml, json, toml)").String()
	outputPath := mergeCmd.Flag("output", "Write the composed configuration to this file instead of stdout").Short('o').String()
	check := mergeCmd.Flag("check", "Validate coverageThreshold.global values").Bool()

	serveCmd := kingpinApp.Command("serve", "Run the composer HTTP API")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *presetsFile != "" {
		overrides.PresetsFile = presetsFile
	}

	if *format != "" {
		overrides.OutputFormat = format
	}

	if *port != "" {
		overrides.Port = port
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		kingpinApp.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case mergeCmd.FullCommand():
		opts := mergeOptions{
			BasePath:      *basePath,
			Preset:        *presetName,
			OverridePaths: *overridePaths,
			Assignments:   *assignments,
			Format:        cfg.OutputFormat,
			OutputPath:    *outputPath,
			Check:         *check,
		}
		registry, err := application.NewRegistry(cfg)
		if err != nil {
			logger.Fatal("failed to load presets", zap.Error(err))
		}
		if err := runMerge(opts, registry, os.Stdout, logger); err != nil {
			logger.Fatal("merge failed", zap.Error(err))
		}

	case serveCmd.FullCommand():
		app, err := application.New(cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize application", zap.Error(err))
		}

		if err := app.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}

		shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	}
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
