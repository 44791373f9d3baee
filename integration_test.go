package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/analytics"
	"salesdash/internal/dashboard"
	"salesdash/internal/export"
	"salesdash/internal/fetcher"
	"salesdash/internal/ratelimit"
	"salesdash/internal/render"
	"salesdash/internal/testutil"
)

func newIntegrationBackend(t *testing.T) *testutil.Backend {
	t.Helper()
	b := testutil.NewBackend()
	t.Cleanup(b.Close)

	b.Set(http.MethodGet, analytics.OverviewPath, 200, `{"total_revenue": 4200.5, "total_orders": 12, "average_order_value": 350.04}`)
	b.Set(http.MethodGet, analytics.SalesTrendsPath, 200, `[{"date": "2026-02-01", "revenue": 4200.5, "orders": 12}]`)
	b.Set(http.MethodGet, analytics.TopProductsPath, 200, `[{"name": "Desk, standing", "total_revenue": 3000, "units_sold": 4}, {"name": "Lamp", "total_revenue": 1200.5, "units_sold": 8}]`)
	b.Set(http.MethodGet, analytics.CategoryPerformancePath, 200, `[{"category_name": "Office", "total_revenue": 4200.5, "total_orders": 12, "average_price": 262.53}]`)
	b.Set(http.MethodPost, analytics.SimulatePath, 200, `{"message": "Order simulated successfully", "order_id": 7}`)
	return b
}

// TestIntegration_OnceWithSimulationAndExport tests the full once flow against a fake backend
func TestIntegration_OnceWithSimulationAndExport(t *testing.T) {
	b := newIntegrationBackend(t)

	client := fetcher.NewClient(fetcher.ClientConfig{
		BaseURL: b.URL,
		Timeout: 5 * time.Second,
		Limiter: ratelimit.New(0, 1),
	})
	defer client.Close()

	d := dashboard.New(client, dashboard.Options{Period: analytics.Period7d})
	exportPath := filepath.Join(t.TempDir(), export.TopProductsFilename)

	opts := Opts{
		SimulateProduct:  "5",
		SimulateQuantity: "2",
		Export:           exportPath,
	}
	require.NoError(t, runOnce(context.Background(), opts, d, render.FormatJSON))

	// initial refresh plus the refresh that follows a successful simulation
	assert.Equal(t, 2, b.Hits(http.MethodGet, analytics.OverviewPath))
	assert.Equal(t, 2, b.Hits(http.MethodGet, analytics.TopProductsPath))
	assert.Equal(t, 1, b.Hits(http.MethodPost, analytics.SimulatePath))
	assert.Equal(t, []string{"period=7d", "period=7d"}, b.Queries(http.MethodGet, analytics.SalesTrendsPath))

	snap := d.Snapshot()
	assert.Equal(t, "Order simulated successfully", snap.SimulateMessage)
	require.True(t, snap.Overview.HasData())
	assert.Equal(t, 12, snap.Overview.Data.TotalOrders)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Equal(t, "Product Name,Total Revenue,Units Sold\n\"Desk, standing\",3000.00,4\nLamp,1200.50,8\n", string(data))
}

// TestIntegration_OnceInvalidSimulation tests that bad input is reported without calling the backend
func TestIntegration_OnceInvalidSimulation(t *testing.T) {
	b := newIntegrationBackend(t)

	client := fetcher.NewClient(fetcher.ClientConfig{BaseURL: b.URL})
	defer client.Close()
	d := dashboard.New(client, dashboard.Options{})

	opts := Opts{SimulateProduct: "0", SimulateQuantity: "-1"}
	require.NoError(t, runOnce(context.Background(), opts, d, render.FormatText))

	assert.Zero(t, b.Hits(http.MethodPost, analytics.SimulatePath))
	assert.Equal(t, 1, b.Hits(http.MethodGet, analytics.OverviewPath))
	assert.Equal(t, analytics.InvalidSimulationMessage, d.Snapshot().SimulateError)
}

// TestIntegration_BackendDown tests that feed failures are rendered, not fatal
func TestIntegration_BackendDown(t *testing.T) {
	b := newIntegrationBackend(t)
	b.Set(http.MethodGet, analytics.OverviewPath, 500, `{"detail": "DB down"}`)
	b.Set(http.MethodGet, analytics.CategoryPerformancePath, 503, `Service Unavailable`)

	client := fetcher.NewClient(fetcher.ClientConfig{BaseURL: b.URL})
	defer client.Close()
	d := dashboard.New(client, dashboard.Options{})

	require.NoError(t, runOnce(context.Background(), Opts{}, d, render.FormatText))

	snap := d.Snapshot()
	assert.Equal(t, "Failed to fetch overview: DB down", snap.Overview.Error)
	assert.Equal(t, "Failed to fetch category performance: HTTP error 503", snap.CategoryPerformance.Error)
	assert.True(t, snap.TopProducts.HasData())
}

// TestIntegration_Run tests configuration loading and the once mode through run
func TestIntegration_Run(t *testing.T) {
	b := newIntegrationBackend(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("API_BASE_URL", b.URL)
	t.Setenv("TOP_PRODUCTS_LIMIT", "2")

	exportPath := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, run(Opts{Once: true, Format: "yaml", Period: "90d", Export: exportPath}))

	assert.Equal(t, []string{"period=90d"}, b.Queries(http.MethodGet, analytics.SalesTrendsPath))
	assert.Equal(t, []string{"limit=2"}, b.Queries(http.MethodGet, analytics.TopProductsPath))
	_, err := os.Stat(exportPath)
	assert.NoError(t, err)
}

// TestIntegration_RunInvalidOptions tests that bad flags fail before any request
func TestIntegration_RunInvalidOptions(t *testing.T) {
	b := newIntegrationBackend(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("API_BASE_URL", b.URL)

	assert.Error(t, run(Opts{Once: true, Period: "1y"}))
	assert.Error(t, run(Opts{Once: true, Format: "xml"}))
	assert.Zero(t, b.Hits(http.MethodGet, analytics.OverviewPath))
}

// TestIntegration_ExportWithoutData tests that a failed export leaves no file behind
func TestIntegration_ExportWithoutData(t *testing.T) {
	b := newIntegrationBackend(t)
	b.Set(http.MethodGet, analytics.TopProductsPath, 500, `{"detail": "DB down"}`)

	client := fetcher.NewClient(fetcher.ClientConfig{BaseURL: b.URL})
	defer client.Close()
	d := dashboard.New(client, dashboard.Options{})

	exportPath := filepath.Join(t.TempDir(), export.TopProductsFilename)
	err := runOnce(context.Background(), Opts{Export: exportPath}, d, render.FormatText)
	require.ErrorIs(t, err, export.ErrNoData)

	_, statErr := os.Stat(exportPath)
	assert.True(t, os.IsNotExist(statErr), "no empty export file is created")
}
