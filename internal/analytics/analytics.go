package analytics

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/feed"
)

// Backend endpoints
const (
	OverviewPath            = "/api/analytics/overview"
	SalesTrendsPath         = "/api/analytics/sales-trends"
	TopProductsPath         = "/api/analytics/top-products"
	CategoryPerformancePath = "/api/analytics/category-performance"
	SimulatePath            = "/api/orders/simulate"
)

// Feed names
const (
	OverviewFeed            = "overview"
	SalesTrendsFeed         = "sales-trends"
	TopProductsFeed         = "top-products"
	CategoryPerformanceFeed = "category-performance"
)

// Limits accepted by the top-products endpoint
const (
	DefaultTopProductsLimit = 10
	MaxTopProductsLimit     = 50
)

// Overview is the 30-day summary of completed orders
type Overview struct {
	TotalRevenue      float64 `json:"total_revenue" yaml:"total_revenue"`
	TotalOrders       int     `json:"total_orders" yaml:"total_orders"`
	AverageOrderValue float64 `json:"average_order_value" yaml:"average_order_value"`
}

// DailySales is one point of the sales trend, Date formatted as YYYY-MM-DD
type DailySales struct {
	Date    string  `json:"date" yaml:"date"`
	Revenue float64 `json:"revenue" yaml:"revenue"`
	Orders  int     `json:"orders" yaml:"orders"`
}

// Day parses Date
func (d DailySales) Day() (time.Time, error) {
	return time.Parse(time.DateOnly, d.Date)
}

// TopProduct is one row of the top products by revenue
type TopProduct struct {
	Name         string  `json:"name" yaml:"name"`
	TotalRevenue float64 `json:"total_revenue" yaml:"total_revenue"`
	UnitsSold    int     `json:"units_sold" yaml:"units_sold"`
}

// CategoryPerformance aggregates completed orders per product category
type CategoryPerformance struct {
	CategoryName string  `json:"category_name" yaml:"category_name"`
	TotalRevenue float64 `json:"total_revenue" yaml:"total_revenue"`
	TotalOrders  int     `json:"total_orders" yaml:"total_orders"`
	AveragePrice float64 `json:"average_price" yaml:"average_price"`
}

// Period selects the sales trend window
type Period string

// Supported periods
const (
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period90d Period = "90d"
)

// DefaultPeriod is the window shown before the user picks one
const DefaultPeriod = Period30d

// Periods lists the supported windows in display order
var Periods = []Period{Period7d, Period30d, Period90d}

// ParsePeriod validates a period string such as "7d"
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Periods, p) {
		return "", fmt.Errorf("invalid period %q: must be 7d, 30d or 90d", s)
	}
	return p, nil
}

// NewOverviewFeed describes the overview feed
func NewOverviewFeed(interval time.Duration) feed.Feed[Overview] {
	return feed.Feed[Overview]{
		Name:     OverviewFeed,
		Label:    "overview",
		Endpoint: OverviewPath,
		Interval: interval,
		Parse:    feed.JSON[Overview],
	}
}

// NewSalesTrendsFeed describes the sales trends feed for one period
func NewSalesTrendsFeed(period Period, interval time.Duration) feed.Feed[[]DailySales] {
	return feed.Feed[[]DailySales]{
		Name:     SalesTrendsFeed,
		Label:    "sales trends",
		Endpoint: SalesTrendsPath,
		Interval: interval,
		Query:    map[string]string{"period": string(period)},
		Parse:    feed.JSON[[]DailySales],
	}
}

// NewTopProductsFeed describes the top products feed
func NewTopProductsFeed(limit int, interval time.Duration) feed.Feed[[]TopProduct] {
	return feed.Feed[[]TopProduct]{
		Name:     TopProductsFeed,
		Label:    "top products",
		Endpoint: TopProductsPath,
		Interval: interval,
		Query:    map[string]string{"limit": strconv.Itoa(limit)},
		Parse:    feed.JSON[[]TopProduct],
	}
}

// NewCategoryPerformanceFeed describes the category performance feed
func NewCategoryPerformanceFeed(interval time.Duration) feed.Feed[[]CategoryPerformance] {
	return feed.Feed[[]CategoryPerformance]{
		Name:     CategoryPerformanceFeed,
		Label:    "category performance",
		Endpoint: CategoryPerformancePath,
		Interval: interval,
		Parse:    feed.JSON[[]CategoryPerformance],
	}
}
