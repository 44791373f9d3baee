package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"salesdash/internal/dashboard"
	"salesdash/internal/feed"
)

// Format selects how a snapshot is printed
type Format string

// Supported formats
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Write prints snap in the given format
func Write(w io.Writer, format Format, snap dashboard.Snapshot) error {
	switch format {
	case FormatJSON:
		return JSON(w, snap)
	case FormatYAML:
		return YAML(w, snap)
	default:
		return Text(w, snap)
	}
}

// JSON prints snap as indented JSON
func JSON(w io.Writer, snap dashboard.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// YAML prints snap as a YAML document
func YAML(w io.Writer, snap dashboard.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

var (
	titleColor = color.New(color.Bold)
	errorColor = color.New(color.FgHiRed)
	dimColor   = color.New(color.Faint)
	okColor    = color.New(color.FgGreen)
)

// Text prints snap as a human-readable report
func Text(w io.Writer, snap dashboard.Snapshot) error {
	tw := &textWriter{w: w}

	tw.title("Overview (Last 30 Days)")
	tw.status(snap.Overview.Loading, snap.Overview.Error, "Loading overview insights...")
	if snap.Overview.HasData() {
		o := snap.Overview.Data
		tw.line("  Total Revenue:       $%s", money(o.TotalRevenue))
		tw.line("  Total Orders:        %d", o.TotalOrders)
		tw.line("  Average Order Value: $%s", money(o.AverageOrderValue))
	}
	updatedLine(tw, snap.Overview)

	tw.title(fmt.Sprintf("Sales Trends (%s)", strings.ToUpper(string(snap.Period))))
	tw.status(snap.SalesTrends.Loading, snap.SalesTrends.Error, "Loading sales trends...")
	if snap.SalesTrends.HasData() {
		days := *snap.SalesTrends.Data
		if len(days) == 0 {
			tw.line("  No sales data for this period.")
		}
		for _, d := range days {
			tw.line("  %s  $%12s  %5d orders", d.Date, money(d.Revenue), d.Orders)
		}
	}

	tw.title("Top Products")
	tw.status(snap.TopProducts.Loading, snap.TopProducts.Error, "Loading top products...")
	if snap.TopProducts.HasData() {
		for i, p := range *snap.TopProducts.Data {
			tw.line("  %2d. %-30s $%12s  %5d units", i+1, p.Name, money(p.TotalRevenue), p.UnitsSold)
		}
	}

	tw.title("Category Performance")
	tw.status(snap.CategoryPerformance.Loading, snap.CategoryPerformance.Error, "Loading category performance...")
	if snap.CategoryPerformance.HasData() {
		for _, c := range *snap.CategoryPerformance.Data {
			tw.line("  %-20s $%12s  %5d orders  avg $%s", c.CategoryName, money(c.TotalRevenue), c.TotalOrders, money(c.AveragePrice))
		}
	}

	if snap.SimulateMessage != "" {
		tw.line("")
		tw.line("%s", okColor.Sprint(snap.SimulateMessage))
	}
	if snap.SimulateError != "" {
		tw.line("")
		tw.line("%s", errorColor.Sprint(snap.SimulateError))
	}

	return tw.err
}

var moneyPrinter = message.NewPrinter(language.English)

// money formats v with two decimals and thousands separators
func money(v float64) string {
	return moneyPrinter.Sprintf("%.2f", decimal.NewFromFloat(v).Round(2).InexactFloat64())
}

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) line(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *textWriter) title(s string) {
	t.line("")
	t.line("%s", titleColor.Sprint(s))
}

// status prints the loading and error lines. Data from an earlier fetch
// stays visible next to a newer error.
func (t *textWriter) status(loading bool, errMsg, loadingMsg string) {
	if loading {
		t.line("  %s", dimColor.Sprint(loadingMsg))
	}
	if errMsg != "" {
		t.line("  %s", errorColor.Sprint("Error: "+errMsg))
	}
}

func updatedLine[T any](t *textWriter, s feed.State[T]) {
	if s.LastUpdated == nil {
		return
	}
	t.line("  %s", dimColor.Sprint("Last updated: "+s.LastUpdated.Format(time.TimeOnly)))
}

