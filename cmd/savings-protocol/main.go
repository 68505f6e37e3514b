package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/iwvelando/savings-protocol/internal/config"
	"github.com/iwvelando/savings-protocol/internal/progression"
	"github.com/iwvelando/savings-protocol/internal/protocol"
	"github.com/iwvelando/savings-protocol/internal/server"
	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/output"
	"github.com/iwvelando/savings-protocol/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

// Protocol modes selectable with -mode.
const (
	modeProgressive = "progressive"
	modeOptimized   = "optimized"
	modeCompare     = "compare"
	modeSimulate    = "simulate"
	modeAssess      = "assess"
)

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

	// Keep stdout clean for CLI output.
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// mergeLogging lets the server config override individual logging settings.
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

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the configuration")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	mode := flag.String("mode", modeProgressive, "protocol to compute: progressive, optimized, compare, simulate, assess")
	target := flag.Float64("target", 0, "target amount to accumulate")
	periods := flag.Int("periods", 0, "number of deposit periods")
	start := flag.Float64("start", 0, "first deposit (configured default when 0)")
	increment := flag.Float64("increment", 0, "per-period increment (configured default when 0)")
	capValue := flag.Float64("cap", 0, "per-period ceiling (configured default when 0)")
	startMax := flag.Float64("start-max", 0, "simulate: upper bound of the start sweep (start when 0)")
	incrementMax := flag.Float64("increment-max", 0, "simulate: upper bound of the increment sweep (increment when 0)")
	samples := flag.Int("samples", 5, "simulate: number of scenarios to sample")
	depositsFlag := flag.String("deposits", "", "assess: comma-separated deposits made so far, 0 for a missed period")
	serve := flag.Bool("serve", false, "run the HTTP API instead of a single computation")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file at %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	configPath := *configLocation
	if configPath == constants.DefaultConfigFile {
		// The default file is optional; defaults and environment apply without it.
		if _, statErr := os.Stat(configPath); errors.Is(statErr, fs.ErrNotExist) {
			configPath = ""
		}
	}

	conf, err := config.LoadConfiguration(configPath)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	var serverConf *server.Config
	loggingConf := conf.Logging
	if *serve {
		serverConf, err = server.LoadConfig(*serverConfigLocation)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
			os.Exit(1)
		}
		loggingConf = mergeLogging(loggingConf, serverConf.Logging)
	}

	logger, err := initializeLogger(loggingConf, *logLevel)
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

	defStart, defIncrement, defCap := conf.DefaultParameters()
	svc := protocol.NewService(logger, conf.Limits, protocol.WithDefaults(protocol.Parameters{
		StartValue: defStart,
		Increment:  defIncrement,
		Cap:        defCap,
	}))

	if *serve {
		if err := runServer(logger, svc, serverConf); err != nil {
			logger.Fatal("server terminated",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
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

	goal := protocol.Goal{TargetAmount: *target, Periods: *periods}
	params := svc.Defaults()
	if *start != 0 {
		params.StartValue = *start
	}
	if *increment != 0 {
		params.Increment = *increment
	}
	if *capValue != 0 {
		params.Cap = *capValue
	}

	sweep := protocol.Sweep{
		StartRange:     progression.Range{Min: params.StartValue, Max: params.StartValue},
		IncrementRange: progression.Range{Min: params.Increment, Max: params.Increment},
		Cap:            params.Cap,
		Samples:        *samples,
	}
	if *startMax != 0 {
		sweep.StartRange.Max = *startMax
	}
	if *incrementMax != 0 {
		sweep.IncrementRange.Max = *incrementMax
	}

	deposits, err := parseDeposits(*depositsFlag)
	if err != nil {
		logger.Fatal("invalid -deposits",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if err := runOnce(svc, *mode, outputFormat, goal, params, sweep, deposits); err != nil {
		var rejection *validation.RejectionError
		if errors.As(err, &rejection) {
			fmt.Fprintf(os.Stderr, "rejected: %s\n", rejection.Error())
			if rejection.Suggestion != "" {
				fmt.Fprintf(os.Stderr, "suggestion: %s\n", rejection.Suggestion)
			}
			os.Exit(2)
		}
		logger.Fatal("failed to compute protocol",
			zap.String("op", "main"),
			zap.String("mode", *mode),
			zap.Error(err),
		)
	}
}

// parseDeposits reads a comma-separated list of amounts. An empty string is an
// empty history.
func parseDeposits(value string) ([]float64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	fields := strings.Split(value, ",")
	deposits := make([]float64, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("deposit %d: %w", i+1, err)
		}
		deposits = append(deposits, v)
	}
	return deposits, nil
}

func runOnce(svc *protocol.Service, mode, outputFormat string, goal protocol.Goal, params protocol.Parameters, sweep protocol.Sweep, deposits []float64) error {
	switch mode {
	case modeProgressive:
		resp, err := svc.Progressive(goal, params)
		if err != nil {
			return err
		}
		return output.Render(os.Stdout, outputFormat, resp)
	case modeOptimized:
		resp, err := svc.Optimized(goal)
		if err != nil {
			return err
		}
		return output.Render(os.Stdout, outputFormat, resp)
	case modeCompare:
		cmp, err := svc.Compare(goal, params)
		if err != nil {
			return err
		}
		return output.RenderComparison(os.Stdout, outputFormat, cmp)
	case modeSimulate:
		sim, err := svc.Simulate(goal, sweep)
		if err != nil {
			return err
		}
		return output.RenderSimulation(os.Stdout, outputFormat, sim)
	case modeAssess:
		assessment, err := svc.Assess(goal, deposits)
		if err != nil {
			return err
		}
		return output.RenderAssessment(os.Stdout, outputFormat, assessment)
	default:
		return fmt.Errorf("unknown mode %q: expected one of %s, %s, %s, %s, %s",
			mode, modeProgressive, modeOptimized, modeCompare, modeSimulate, modeAssess)
	}
}

func runServer(logger *zap.Logger, svc *protocol.Service, cfg *server.Config) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, svc, cfg, version),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("op", "main.runServer"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server", zap.String("op", "main.runServer"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
