package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sourcegraph/conc"

	"salesdash/internal/analytics"
	"salesdash/internal/config"
	"salesdash/internal/dashboard"
	"salesdash/internal/fetcher"
	"salesdash/internal/ratelimit"
	"salesdash/internal/render"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"SALESDASH_CONFIG" description:"config file (yaml)"`
	Once   bool   `long:"once" description:"refresh every feed once, print and exit"`
	Format string `short:"f" long:"format" description:"output format: text, json or yaml"`
	Period string `short:"p" long:"period" description:"sales trends period: 7d, 30d or 90d"`

	SimulateProduct  string `long:"simulate-product" description:"product id of an order to simulate"`
	SimulateQuantity string `long:"simulate-quantity" description:"quantity of the simulated order"`
	Export           string `long:"export" description:"write top products as CSV to this file"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
}

const (
	onceTimeout    = 30 * time.Second
	renderInterval = time.Second
)

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	if err := run(opts); err != nil {
		slog.Error("salesdash failed", "error", err)
		os.Exit(1)
	}
}

func run(opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	period := cfg.Period()
	if opts.Period != "" {
		if period, err = analytics.ParsePeriod(opts.Period); err != nil {
			return err
		}
	}

	formatName := cfg.Format
	if opts.Format != "" {
		formatName = opts.Format
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		slog.Info("termination signal received, shutting down")
		cancel()
	}()

	client := fetcher.NewClient(fetcher.ClientConfig{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.RequestTimeout,
		RetryCount: cfg.RetryCount,
		Limiter:    ratelimit.New(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	})
	defer client.Close()

	updates := make(chan struct{}, 1)
	d := dashboard.New(client, dashboard.Options{
		Interval:         cfg.RefreshInterval,
		Period:           period,
		TopProductsLimit: cfg.TopProductsLimit,
		OnChange: func() {
			select {
			case updates <- struct{}{}:
			default:
			}
		},
	})

	slog.Info("starting salesdash", "version", revision, "backend", cfg.BaseURL)

	if opts.Once {
		return runOnce(ctx, opts, d, format)
	}

	d.Start(ctx)

	var lifecycle conc.WaitGroup
	lifecycle.Go(func() {
		renderLoop(ctx, d, format, updates)
	})

	if wantsSimulation(opts) {
		simulate(ctx, opts, d)
	}

	<-ctx.Done()
	d.Stop()
	d.Wait()
	lifecycle.Wait()

	if opts.Export != "" {
		return exportTopProducts(d, opts.Export)
	}
	return nil
}

// runOnce refreshes every feed, optionally simulates an order, prints the result and exits
func runOnce(ctx context.Context, opts Opts, d *dashboard.Dashboard, format render.Format) error {
	ctx, cancel := context.WithTimeout(ctx, onceTimeout)
	defer cancel()

	if err := d.RefreshAll(ctx); err != nil {
		slog.Warn("some feeds failed to refresh", "error", err)
	}

	if wantsSimulation(opts) {
		simulate(ctx, opts, d)
	}

	if err := render.Write(os.Stdout, format, d.Snapshot()); err != nil {
		return err
	}

	if opts.Export != "" {
		return exportTopProducts(d, opts.Export)
	}
	return nil
}

// renderLoop prints the dashboard at most once per renderInterval, only when something changed
func renderLoop(ctx context.Context, d *dashboard.Dashboard, format render.Format, updates <-chan struct{}) {
	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			dirty = true
		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			if err := render.Write(os.Stdout, format, d.Snapshot()); err != nil {
				slog.Error("render failed", "error", err)
			}
		}
	}
}

func wantsSimulation(opts Opts) bool {
	return opts.SimulateProduct != "" || opts.SimulateQuantity != ""
}

func simulate(ctx context.Context, opts Opts, d *dashboard.Dashboard) {
	if _, err := d.SubmitSimulationInput(ctx, opts.SimulateProduct, opts.SimulateQuantity); err != nil {
		slog.Warn("order simulation rejected", "error", fetcher.Message(err))
	}
}

func exportTopProducts(d *dashboard.Dashboard, path string) error {
	var buf bytes.Buffer
	if err := d.ExportTopProducts(&buf); err != nil {
		return fmt.Errorf("export top products: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // path comes from CLI flag
		return fmt.Errorf("write export file: %w", err)
	}
	slog.Info("top products exported", "path", path)
	return nil
}

func setupLog(dbg bool) {
	level := slog.LevelInfo
	var out io.Writer = os.Stderr
	if dbg {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: dbg,
	}))
	slog.SetDefault(logger)
}
