package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"salesdash/internal/analytics"
)

// ErrNoData is returned when there is nothing to export
var ErrNoData = errors.New("no data to export")

// TopProductsHeader is the first line of a top products export
var TopProductsHeader = []string{"Product Name", "Total Revenue", "Units Sold"}

// TopProductsFilename is the suggested file name for an export
const TopProductsFilename = "top_products_export.csv"

// WriteTopProducts writes rows as CSV. Revenue is written with two decimals.
func WriteTopProducts(w io.Writer, rows []analytics.TopProduct) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(TopProductsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Name,
			decimal.NewFromFloat(row.TotalRevenue).StringFixed(2),
			strconv.Itoa(row.UnitsSold),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %q: %w", row.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTopProducts parses a CSV produced by WriteTopProducts
func ReadTopProducts(r io.Reader) ([]analytics.TopProduct, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(TopProductsHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	rows := make([]analytics.TopProduct, 0, len(records)-1)
	for i, rec := range records[1:] {
		revenue, err := decimal.NewFromString(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid revenue %q: %w", i+2, rec[1], err)
		}
		units, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid units %q: %w", i+2, rec[2], err)
		}
		rows = append(rows, analytics.TopProduct{
			Name:         rec[0],
			TotalRevenue: revenue.InexactFloat64(),
			UnitsSold:    units,
		})
	}
	return rows, nil
}
