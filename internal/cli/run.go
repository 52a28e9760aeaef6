package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/sparkify-dwh/internal/config"
	"github.com/vvka-141/sparkify-dwh/internal/db"
	"github.com/vvka-141/sparkify-dwh/internal/logging"
	"github.com/vvka-141/sparkify-dwh/internal/metrics"
	"github.com/vvka-141/sparkify-dwh/internal/services"
	"github.com/vvka-141/sparkify-dwh/internal/sources"
	"github.com/vvka-141/sparkify-dwh/internal/staging"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

const metricsFlushTimeout = 10 * time.Second

// runEnv holds everything one command invocation needs.
type runEnv struct {
	cfg      *dwh.Config
	runID    uuid.UUID
	logger   dwh.Logger
	recorder dwh.MetricsRecorder
	pipeline *services.Pipeline
}

// loadConfig reads .env and then the configuration file named by --config.
func loadConfig() (*dwh.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	return config.Load(rootFlags.configPath)
}

// newRunEnv wires the pipeline for cfg. Progress and results go to out,
// errors to errOut. Nothing connects until a sequence runs.
func newRunEnv(cfg *dwh.Config, out, errOut io.Writer) *runEnv {
	runID := uuid.New()
	logger := logging.NewConsoleLoggerStreams(out, errOut, rootFlags.verbose)

	var recorder dwh.MetricsRecorder = metrics.NewNullRecorder()
	if cfg.Metrics.PushgatewayURL != "" {
		recorder = metrics.NewPrometheusRecorder(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL, runID.String())
	}

	connConfig := cfg.ConnectionConfig()
	connConfig.AppName = fmt.Sprintf("%s/%s", dwh.DefaultAppName, runID.String()[:8])

	sessions := services.NewSessionManager(db.NewConnector, connConfig, runID, logger)
	copier := staging.NewLoader(sources.ForLocation, logger)

	if rootFlags.verbose {
		logger.Verbose("Run %s, configuration loaded from %s", runID, cfg.Source)
		logger.Verbose("  Host: %s:%d", connConfig.Host, connConfig.Port)
		logger.Verbose("  Database: %s", connConfig.Database)
		logger.Verbose("  User: %s", connConfig.Username)
		logger.Verbose("  Dialect: %s", cfg.Warehouse.Dialect)
		logger.Verbose("  Auth Method: %s", connConfig.AuthMethod)
	}

	return &runEnv{
		cfg:      cfg,
		runID:    runID,
		logger:   logger,
		recorder: recorder,
		pipeline: services.NewPipeline(cfg, sessions, copier, recorder, logger, out),
	}
}

// runContext is cancelled on SIGINT/SIGTERM and, when --timeout is set,
// after the timeout.
func runContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if rootFlags.timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, rootFlags.timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// flushMetrics pushes collected metrics. A failed push is reported but
// never changes the command's outcome.
func (e *runEnv) flushMetrics() {
	ctx, cancel := context.WithTimeout(context.Background(), metricsFlushTimeout)
	defer cancel()
	if err := e.recorder.Flush(ctx); err != nil {
		e.logger.Error("Failed to push metrics: %v", err)
	}
}

// runSequence prints the plan under --dry-run, otherwise runs fn.
func runSequence(env *runEnv, out io.Writer, sequence string, fn func(ctx context.Context) error) error {
	if rootFlags.dryRun {
		seq, err := env.pipeline.Plan(sequence)
		if err != nil {
			return err
		}
		services.WritePlan(out, seq)
		return nil
	}

	ctx, cancel := runContext()
	defer cancel()
	defer env.flushMetrics()

	start := time.Now()
	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s failed: %w", sequence, err)
	}
	env.logger.Info("\n%s completed in %s", sequence, time.Since(start).Round(time.Millisecond))
	return nil
}
