// Package main implements the OrderFlow demo runner: a bounded order
// pipeline fed with synthetic orders against a seeded inventory guard,
// stopped gracefully on completion or signal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/orderflow/config"
	"github.com/c360/orderflow/health"
	"github.com/c360/orderflow/metric"
	"github.com/c360/orderflow/pipeline"
	"github.com/c360/orderflow/pkg/guard"
	"github.com/c360/orderflow/pkg/retry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "orderflow"
)

// order is the synthetic payload the demo pushes through the pipeline.
type order struct {
	ID  string
	SKU string
	Qty int64
}

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Run application with proper error handling
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	// Parse and validate CLI flags
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting OrderFlow (bounded order pipeline)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	// Load and validate configuration
	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	return runPipeline(cliCfg, cfg, logger)
}

// loadConfig loads configuration from path, or built-in defaults when no
// path was given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.NewLoader().LoadFile(path)
}

// runPipeline wires guard, metrics, and health together, feeds the
// pipeline synthetic orders, and drives the graceful shutdown.
func runPipeline(cliCfg *CLIConfig, cfg *config.Config, logger *slog.Logger) error {
	metricsRegistry := metric.NewMetricsRegistry()
	healthMonitor := health.NewMonitor()

	// Optional metrics endpoint
	if cfg.Metrics.Enabled {
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() { _ = server.Stop() }()
		slog.Info("Metrics server listening", "address", server.Address())
	}

	// Seed the inventory guard
	resources := cfg.Resources
	if len(resources) == 0 {
		resources = demoResources(cliCfg.Orders)
		slog.Info("No resources configured, seeding demo inventory", "keys", len(resources))
	}

	inventory, err := guard.NewGuard(guard.WithMetrics(metricsRegistry, "inventory"))
	if err != nil {
		return fmt.Errorf("create guard: %w", err)
	}
	if err := inventory.Seed(resources); err != nil {
		return fmt.Errorf("seed guard: %w", err)
	}

	pl, err := buildPipeline(cfg, inventory, metricsRegistry, healthMonitor, logger)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	// Signal handling: SIGINT/SIGTERM initiate the drain early
	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := pl.Start(context.Background()); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	skus := make([]string, 0, len(resources))
	for sku := range resources {
		skus = append(skus, sku)
	}

	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		submitOrders(signalCtx, pl, cliCfg.Orders, skus, cfg.Pipeline.Admission == config.AdmissionPriority)
	}()

	select {
	case <-producerDone:
		slog.Info("All orders submitted, draining")
	case <-signalCtx.Done():
		slog.Info("Received shutdown signal")
	}

	drain := time.Duration(cfg.Pipeline.DrainTimeout)
	grace := time.Duration(cfg.Pipeline.ForceGrace)
	if total := cliCfg.ShutdownTimeout; total > 0 && drain+grace > total {
		// The CLI budget caps the configured phases, split the same way
		// Stop splits a single timeout.
		drain = total * 4 / 5
		grace = total - drain
	}

	report, err := pl.Shutdown(drain, grace)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("Shutdown report",
		"completed", report.Completed,
		"failed", report.Failed,
		"cancelled", report.Cancelled,
		"still_pending", report.StillPending,
		"forced", report.Forced,
		"elapsed", report.Elapsed)
	slog.Info("Remaining inventory", "snapshot", inventory.Snapshot())
	slog.Info("OrderFlow shutdown complete")

	return nil
}

// buildPipeline maps the config document onto a pipeline instance with a
// jittered demo dependent stage standing in for payment capture.
func buildPipeline(
	cfg *config.Config,
	inventory *guard.Guard,
	metricsRegistry *metric.MetricsRegistry,
	healthMonitor *health.Monitor,
	logger *slog.Logger,
) (*pipeline.Pipeline[order], error) {
	pc := cfg.Pipeline

	var reserveRetry *retry.Config
	if pc.ReserveRetry.Enabled {
		rc := pc.ReserveRetry.ToRetryConfig()
		reserveRetry = &rc
	}

	return pipeline.New[order](pipeline.Config{
		Name:              pc.Name,
		QueueCapacity:     pc.QueueCapacity,
		ReserveWorkers:    pc.ReserveWorkers,
		DispatchWorkers:   pc.DispatchWorkers,
		DispatchQueueSize: pc.DispatchQueueSize,
		AwaitTimeout:      time.Duration(pc.AwaitTimeout),
		DrainTimeout:      time.Duration(pc.DrainTimeout),
		ForceGrace:        time.Duration(pc.ForceGrace),
		PriorityAdmission: pc.Admission == config.AdmissionPriority,
		ReserveRetry:      reserveRetry,
	},
		inventory,
		pipeline.DependentWorkFunc[order](capturePayment),
		pipeline.WithLogger[order](logger),
		pipeline.WithMetrics[order](metricsRegistry),
		pipeline.WithHealth[order](healthMonitor),
	)
}

// capturePayment simulates the dependent payment call: a jittered delay
// that honors cancellation, with an occasional decline.
func capturePayment(ctx context.Context, o order) error {
	delay := time.Duration(1+rand.Intn(20)) * time.Millisecond

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	// ~2% of captures decline
	if rand.Intn(50) == 0 {
		return fmt.Errorf("payment declined for order %s", o.ID)
	}
	return nil
}

// submitOrders feeds count synthetic orders into the pipeline, blocking on
// backpressure. Stops early if ctx ends (shutdown signal).
func submitOrders(ctx context.Context, pl *pipeline.Pipeline[order], count int, skus []string, priority bool) {
	for i := 0; i < count; i++ {
		sku := skus[rand.Intn(len(skus))]
		o := order{
			ID:  fmt.Sprintf("order-%06d", i),
			SKU: sku,
			Qty: 1,
		}

		opts := []pipeline.SubmitOption{
			pipeline.WithID(o.ID),
			pipeline.WithDemand(o.SKU, o.Qty),
		}
		if priority {
			opts = append(opts, pipeline.WithPriority(rand.Intn(10)))
		}

		if _, err := pl.Submit(ctx, o, opts...); err != nil {
			slog.Debug("Submission stopped", "submitted", i, "error", err)
			return
		}
	}
}

// demoResources seeds slightly fewer units than orders so the reservation
// failure path is exercised too.
func demoResources(orders int) map[string]int64 {
	if orders <= 0 {
		orders = 1000
	}
	perSKU := int64(orders) * 9 / (10 * 3)
	return map[string]int64{
		"sku-standard": perSKU,
		"sku-express":  perSKU,
		"sku-bulk":     perSKU,
	}
}
