package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/config"
	"github.com/MortalityWatch/mortality.watch-sub005/internal/server"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/validation"
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

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	// Logs go to stderr unless a file is configured; stdout carries results.
	cfg.OutputPaths = []string{"stderr"}
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

		cfg.OutputPaths = []string{loggingConfig.OutputFile}
		cfg.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return cfg.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envLocation := flag.String("env", constants.DefaultEnvFile, "optional dotenv file loaded before the configuration")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file (serve mode)")
	inputLocation := flag.String("input", "", "YAML or JSON input document, - for stdin")
	modeFlag := flag.String("mode", modeTransform, "one of: transform, errorbar, ranking, validate-explorer, validate-ranking, baseline-dates, serve")
	keyFlag := flag.String("key", "", "series key override for transform and errorbar modes")
	chartTypeFlag := flag.String("chart-type", "", "chart type for baseline-dates mode")
	methodFlag := flag.String("method", "", "baseline method for baseline-dates mode")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := config.LoadEnvFile(*envLocation); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file at %s\", \"error\": \"%v\"}\n", *envLocation, err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

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

	if *modeFlag == modeServe {
		if err := serve(logger, *serverConfigLocation, conf.Defaults.RankingWorkers); err != nil {
			logger.Fatal("server stopped",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	opts := runOptions{
		Mode:         *modeFlag,
		Key:          *keyFlag,
		ChartType:    *chartTypeFlag,
		Method:       *methodFlag,
		OutputFormat: outputFormat,
		Defaults:     conf.Defaults,
	}

	var in io.Reader = os.Stdin
	if *inputLocation == "" && opts.Mode == modeBaselineDates {
		in = nil
	} else if *inputLocation != "" && *inputLocation != "-" {
		file, err := os.Open(*inputLocation)
		if err != nil {
			logger.Fatal("failed to open input",
				zap.String("op", "main"),
				zap.String("path", *inputLocation),
				zap.Error(err),
			)
		}
		defer func() {
			_ = file.Close()
		}()
		in = file
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts, in, os.Stdout); err != nil {
		var violationsErr *violationsError
		if errors.As(err, &violationsErr) {
			logger.Warn("state is invalid",
				zap.String("op", "main"),
				zap.Int("violations", violationsErr.count),
			)
			_ = logger.Sync()
			os.Exit(2)
		}
		logger.Fatal("run failed",
			zap.String("op", "main"),
			zap.String("mode", opts.Mode),
			zap.Error(err),
		)
	}
}

// serve runs the HTTP API until SIGINT or SIGTERM.
func serve(logger *zap.Logger, serverConfigPath string, rankingWorkers int) error {
	cfg, err := server.LoadConfig(serverConfigPath)
	if err != nil {
		return err
	}
	if cfg.Logging.Level != "" || cfg.Logging.Format != "" || cfg.Logging.OutputFile != "" {
		serverLogger, err := initializeLogger(cfg.Logging, "")
		if err != nil {
			return err
		}
		defer func() {
			_ = serverLogger.Sync()
		}()
		logger = serverLogger
	}
	if rankingWorkers > 0 && cfg.RankingWorkers == constants.DefaultRankingWorkers {
		cfg.RankingWorkers = rankingWorkers
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg.UploadSizeBytes(), version, cfg.RankingWorkers),
		ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main.serve"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
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
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server shutting down", zap.String("op", "main.serve"))
	return srv.Shutdown(shutdownCtx)
}
