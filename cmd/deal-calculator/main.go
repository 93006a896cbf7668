package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iwvelando/deal-calculator/internal/cache"
	"github.com/iwvelando/deal-calculator/internal/config"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/internal/server"
	"github.com/iwvelando/deal-calculator/internal/service"
	"github.com/iwvelando/deal-calculator/internal/store"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/output"
	"github.com/iwvelando/deal-calculator/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// mergeLogging applies the non-empty fields of override on top of base.
func mergeLogging(base, override config.LoggingConfig) config.LoggingConfig {
	if override.Level != "" {
		base.Level = override.Level
	}
	if override.Format != "" {
		base.Format = override.Format
	}
	if override.OutputFile != "" {
		base.OutputFile = override.OutputFile
	}
	return base
}

// computeDeals runs every configured deal under each of its variants. With
// save set the results are also stored.
func computeDeals(ctx context.Context, svc *service.DealService, deals []config.Deal, save bool, logger *zap.Logger) ([]output.Report, error) {
	var reports []output.Report
	for _, d := range deals {
		variants, err := d.Variants()
		if err != nil {
			return nil, err
		}
		for _, variant := range variants {
			var result deal.Result
			if save {
				record, err := svc.Save(ctx, d.Name, variant, d.Input)
				if err != nil {
					return nil, err
				}
				result = record.Result
			} else {
				result, err = svc.Calculate(ctx, variant, d.Input)
				if err != nil {
					return nil, fmt.Errorf("deal %q: %w", d.Name, err)
				}
			}
			for _, advisory := range result.Advisories {
				logger.Info(advisory.Message,
					zap.String("op", "main.computeDeals"),
					zap.String("deal", d.Name),
					zap.String("variant", string(variant)),
					zap.String("stage", string(advisory.Stage)),
				)
			}
			reports = append(reports, output.Report{Name: d.Name, Result: result})
		}
	}
	return reports, nil
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, svc *service.DealService, cfg *server.Config, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(svc, cfg, logger, version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting deal API",
			zap.String("op", "main.serve"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down deal API", zap.String("op", "main.serve"))
		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, yaml")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	saveDeals := flag.Bool("save", false, "store computed deals in the configured storage")
	serveAPI := flag.Bool("serve", false, "serve the HTTP API instead of printing results")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	var serverConfig *server.Config
	loggingConfig := conf.Logging
	if *serveAPI {
		serverConfig, err = server.LoadConfig(*serverConfigLocation)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
			os.Exit(1)
		}
		loggingConfig = mergeLogging(loggingConfig, serverConfig.Logging)
	}

	logger, err := initializeLogger(loggingConfig, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.Open(ctx, conf.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open deal storage",
			zap.String("op", "main"),
			zap.String("driver", conf.Storage.Driver),
			zap.Error(err),
		)
	}
	resultCache, err := cache.Open(ctx, conf.Cache, logger)
	if err != nil {
		_ = repo.Close()
		logger.Fatal("failed to open result cache",
			zap.String("op", "main"),
			zap.String("backend", conf.Cache.Backend),
			zap.Error(err),
		)
	}

	svc := service.NewDealService(deal.NewEngine(logger, deal.NewLogAdvisor(logger)), repo, resultCache, logger)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("failed to close deal service", zap.String("op", "main"), zap.Error(err))
		}
	}()

	if *serveAPI {
		if err := serve(ctx, svc, serverConfig, logger); err != nil {
			logger.Error("deal API failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	reports, err := computeDeals(ctx, svc, conf.Deals, *saveDeals, logger)
	if err != nil {
		logger.Error("failed to compute deals",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	}

	if err := output.Write(os.Stdout, outputFormat, reports); err != nil {
		logger.Error("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
