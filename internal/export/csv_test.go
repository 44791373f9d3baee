package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/analytics"
)

func TestWriteTopProducts(t *testing.T) {
	rows := []analytics.TopProduct{
		{Name: "Standing Desk", TotalRevenue: 1299.5, UnitsSold: 3},
		{Name: `Chair, "Ergo" edition`, TotalRevenue: 450, UnitsSold: 10},
		{Name: "Lamp", TotalRevenue: 19.999, UnitsSold: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTopProducts(&buf, rows))

	want := strings.Join([]string{
		"Product Name,Total Revenue,Units Sold",
		"Standing Desk,1299.50,3",
		`"Chair, ""Ergo"" edition",450.00,10`,
		"Lamp,20.00,1",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteTopProducts_RoundTrip(t *testing.T) {
	rows := []analytics.TopProduct{
		{Name: "Monitor 27\"", TotalRevenue: 2400.1, UnitsSold: 8},
		{Name: "Cable, USB-C", TotalRevenue: 35, UnitsSold: 7},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTopProducts(&buf, rows))

	got, err := ReadTopProducts(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteTopProducts_NoData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteTopProducts(&buf, nil), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestReadTopProducts_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"bad revenue", "Product Name,Total Revenue,Units Sold\nDesk,abc,1\n"},
		{"bad units", "Product Name,Total Revenue,Units Sold\nDesk,1.00,x\n"},
		{"wrong field count", "Product Name,Total Revenue,Units Sold\nDesk,1.00\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTopProducts(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}
