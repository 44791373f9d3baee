package dashboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"salesdash/internal/analytics"
	"salesdash/internal/export"
	"salesdash/internal/feed"
	"salesdash/internal/fetcher"
)

// simulateKey names the rate limit bucket of the simulation action
const simulateKey = "simulate"

// Options configures a Dashboard
type Options struct {
	// Interval is the refresh cadence of every read feed
	Interval time.Duration

	// Period is the initial sales trends window
	Period analytics.Period

	// TopProductsLimit is the number of products requested
	TopProductsLimit int

	// OnChange is called after any feed or simulation state changes.
	// It must not block and must not call Start, Stop or SetSalesPeriod.
	OnChange func()
}

// poller is the part of feed.Runner the dashboard drives without knowing the record type
type poller interface {
	Name() string
	Start(ctx context.Context)
	Refresh(ctx context.Context) error
	Stop()
	Wait()
}

// Dashboard composes the read feeds and the order simulation action
type Dashboard struct {
	doer fetcher.Doer
	opts Options

	overview   *feed.Runner[analytics.Overview]
	trends     *feed.Runner[[]analytics.DailySales]
	products   *feed.Runner[[]analytics.TopProduct]
	categories *feed.Runner[[]analytics.CategoryPerformance]

	mu         sync.Mutex
	period     analytics.Period
	simMessage string
	simError   string
}

// Snapshot is a consistent-per-feed copy of everything the UI shows
type Snapshot struct {
	Overview            feed.State[analytics.Overview]              `json:"overview" yaml:"overview"`
	SalesTrends         feed.State[[]analytics.DailySales]          `json:"sales_trends" yaml:"sales_trends"`
	Period              analytics.Period                            `json:"period" yaml:"period"`
	TopProducts         feed.State[[]analytics.TopProduct]          `json:"top_products" yaml:"top_products"`
	CategoryPerformance feed.State[[]analytics.CategoryPerformance] `json:"category_performance" yaml:"category_performance"`
	SimulateMessage     string                                      `json:"simulate_message,omitempty" yaml:"simulate_message,omitempty"`
	SimulateError       string                                      `json:"simulate_error,omitempty" yaml:"simulate_error,omitempty"`
}

// New creates a Dashboard. Nothing is fetched until Start or RefreshAll.
func New(doer fetcher.Doer, opts Options) *Dashboard {
	if opts.Interval <= 0 {
		opts.Interval = feed.DefaultInterval
	}
	if opts.Period == "" {
		opts.Period = analytics.DefaultPeriod
	}
	if opts.TopProductsLimit <= 0 {
		opts.TopProductsLimit = analytics.DefaultTopProductsLimit
	}

	d := &Dashboard{
		doer:   doer,
		opts:   opts,
		period: opts.Period,
	}

	d.overview = feed.NewRunner(doer, analytics.NewOverviewFeed(opts.Interval),
		feed.WithOnChange[analytics.Overview](d.changed))
	d.trends = feed.NewRunner(doer, analytics.NewSalesTrendsFeed(opts.Period, opts.Interval),
		feed.WithOnChange[[]analytics.DailySales](d.changed))
	d.products = feed.NewRunner(doer, analytics.NewTopProductsFeed(opts.TopProductsLimit, opts.Interval),
		feed.WithOnChange[[]analytics.TopProduct](d.changed))
	d.categories = feed.NewRunner(doer, analytics.NewCategoryPerformanceFeed(opts.Interval),
		feed.WithOnChange[[]analytics.CategoryPerformance](d.changed))

	return d
}

func (d *Dashboard) pollers() []poller {
	return []poller{d.overview, d.trends, d.products, d.categories}
}

// Start begins polling every read feed, each with its own timer
func (d *Dashboard) Start(ctx context.Context) {
	for _, p := range d.pollers() {
		p.Start(ctx)
	}
	slog.Info("dashboard started", "interval", d.opts.Interval, "period", d.Period())
}

// Stop cancels every poller. Fetches still in flight are ignored when they complete.
func (d *Dashboard) Stop() {
	for _, p := range d.pollers() {
		p.Stop()
	}
	slog.Info("dashboard stopped")
}

// Wait blocks until every poller loop has exited
func (d *Dashboard) Wait() {
	for _, p := range d.pollers() {
		p.Wait()
	}
}

// RefreshAll fetches every read feed once, concurrently, bypassing their timers.
// Failures are recorded in each feed state; the joined error is returned for logging.
func (d *Dashboard) RefreshAll(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx)
	for _, f := range d.pollers() {
		p.Go(func(ctx context.Context) error {
			if err := f.Refresh(ctx); err != nil {
				return fmt.Errorf("refresh %s: %w", f.Name(), err)
			}
			return nil
		})
	}
	return p.Wait()
}

// SubmitSimulation validates req, posts it and, on success, refreshes every read feed once
func (d *Dashboard) SubmitSimulation(ctx context.Context, req analytics.SimulationRequest) (string, error) {
	d.setSimulation("", "")

	if err := req.Validate(); err != nil {
		d.setSimulation("", fetcher.Message(err))
		return "", err
	}

	body, err := d.doer.Do(ctx, fetcher.Request{
		Method: http.MethodPost,
		Path:   analytics.SimulatePath,
		Query:  req.Query(),
		Key:    simulateKey,
	})
	if err != nil {
		d.setSimulation("", "Simulation error: "+fetcher.Message(err))
		slog.Warn("order simulation failed", "product_id", req.ProductID, "quantity", req.Quantity, "error", err)
		return "", err
	}

	result, err := feed.JSON[analytics.SimulationResult](body)
	if err != nil {
		perr := fetcher.NewParseError(err)
		d.setSimulation("", "Simulation error: "+perr.Message)
		return "", perr
	}

	d.setSimulation(result.Message, "")
	slog.Info("order simulated", "product_id", req.ProductID, "quantity", req.Quantity, "order_id", result.OrderID)

	if err := d.RefreshAll(ctx); err != nil {
		slog.Warn("refresh after simulation incomplete", "error", err)
	}
	return result.Message, nil
}

// SubmitSimulationInput parses raw product id and quantity input and submits it.
// Input that is not a pair of positive integers is rejected without a network call.
func (d *Dashboard) SubmitSimulationInput(ctx context.Context, productID, quantity string) (string, error) {
	req, err := analytics.ParseSimulationRequest(productID, quantity)
	if err != nil {
		d.setSimulation("", fetcher.Message(err))
		return "", err
	}
	return d.SubmitSimulation(ctx, req)
}

// SetSalesPeriod switches the sales trends window and fetches it right away
func (d *Dashboard) SetSalesPeriod(ctx context.Context, period analytics.Period) error {
	if _, err := analytics.ParsePeriod(string(period)); err != nil {
		return err
	}

	if err := d.trends.Swap(analytics.NewSalesTrendsFeed(period, d.opts.Interval)); err != nil {
		return err
	}

	d.mu.Lock()
	d.period = period
	d.mu.Unlock()
	d.changed()

	if d.trends.Running() {
		return nil
	}
	return d.trends.Refresh(ctx)
}

// Period returns the selected sales trends window
func (d *Dashboard) Period() analytics.Period {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.period
}

// Snapshot returns the current state of every feed and of the simulation action
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	period, msg, simErr := d.period, d.simMessage, d.simError
	d.mu.Unlock()

	return Snapshot{
		Overview:            d.overview.State(),
		SalesTrends:         d.trends.State(),
		Period:              period,
		TopProducts:         d.products.State(),
		CategoryPerformance: d.categories.State(),
		SimulateMessage:     msg,
		SimulateError:       simErr,
	}
}

// ExportTopProducts writes the current top products as CSV
func (d *Dashboard) ExportTopProducts(w io.Writer) error {
	state := d.products.State()
	if !state.HasData() {
		return export.ErrNoData
	}
	return export.WriteTopProducts(w, *state.Data)
}

func (d *Dashboard) setSimulation(msg, errMsg string) {
	d.mu.Lock()
	d.simMessage = msg
	d.simError = errMsg
	d.mu.Unlock()
	d.changed()
}

func (d *Dashboard) changed() {
	if d.opts.OnChange != nil {
		d.opts.OnChange()
	}
}
