package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/entity"
)

func ptr[T any](v T) *T { return &v }

func TestDate(t *testing.T) {
	jan5 := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		in    any
		want  time.Time
		found bool
	}{
		{name: "iso", in: "2024-01-05", want: jan5, found: true},
		{name: "day month abbrev", in: "5 Jan 2024", want: jan5, found: true},
		{name: "day month full", in: "5 January 2024", want: jan5, found: true},
		{name: "us slashes", in: "01/05/2024", want: jan5, found: true},
		{name: "unix number", in: float64(1704412800), want: jan5, found: true},
		{name: "unix string", in: "1704412800", want: jan5, found: true},
		{name: "timestamp passthrough", in: jan5.Add(3 * time.Hour), want: jan5.Add(3 * time.Hour), found: true},
		{name: "nil", in: nil, found: false},
		{name: "empty", in: "  ", found: false},
		{name: "literal null", in: "null", found: false},
		{name: "prose", in: "sometime last week", found: false},
		{name: "bool", in: true, found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.in)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{name: "float", in: 1200.0, want: ptr(1200.0)},
		{name: "int", in: 3, want: ptr(3.0)},
		{name: "json number", in: json.Number("19.99"), want: ptr(19.99)},
		{name: "plain string", in: "42.50", want: ptr(42.5)},
		{name: "currency symbol and separators", in: "$1,234.56", want: ptr(1234.56)},
		{name: "euro symbol", in: "€ 9.90", want: ptr(9.9)},
		{name: "currency code", in: "USD 10.00", want: ptr(10.0)},
		{name: "trailing code", in: "10.00 EUR", want: ptr(10.0)},
		{name: "negative", in: "-5", want: ptr(-5.0)},
		{name: "thousands without decimals", in: "1,200", want: ptr(1200.0)},
		{name: "millions", in: "$1,234,567.89", want: ptr(1234567.89)},
		{name: "decimal comma with symbol", in: "12,50 €", want: ptr(12.5)},
		{name: "decimal comma with code", in: "EUR 9,99", want: ptr(9.99)},
		{name: "single decimal digit after comma", in: "3,5", want: ptr(3.5)},
		{name: "dot thousands and decimal comma", in: "1.234,56"},
		{name: "misplaced thousands separator", in: "12,34,5"},
		{name: "comma then dot out of groups", in: "1,23.4"},
		{name: "several decimal commas", in: "1,5,0"},
		{name: "nil stays absent", in: nil},
		{name: "empty string", in: ""},
		{name: "words", in: "about twelve"},
		{name: "bool", in: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestProducts(t *testing.T) {
	raw := []any{
		map[string]any{"name": "Widget", "quantity": 2.0, "unit_price": 600.0, "total": 1200.0},
		"Gift card",
		3.0,
		map[string]any{"name": "Shipping", "total": "$4.99"},
	}

	items := Products(raw)

	require.Len(t, items, 4)
	assert.Equal(t, entity.LineItem{Name: "Widget", Quantity: 2, UnitPrice: 600, Total: 1200}, items[0])
	assert.Equal(t, entity.LineItem{Name: "Gift card", Quantity: 1}, items[1])
	assert.Equal(t, entity.LineItem{Name: "3", Quantity: 1}, items[2])
	assert.Equal(t, entity.LineItem{Name: "Shipping", Quantity: 1, Total: 4.99}, items[3])
}

func TestProducts_MissingOrWrongShape(t *testing.T) {
	assert.Empty(t, Products(nil))
	assert.NotNil(t, Products(nil))
	assert.Empty(t, Products("Widget x2"))
}

func TestProductsJSON_AlwaysArray(t *testing.T) {
	b, err := ProductsJSON(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	b, err = ProductsJSON([]entity.LineItem{{Name: "Widget", Quantity: 2, UnitPrice: 600, Total: 1200}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Widget","quantity":2,"unit_price":600,"total":1200}]`, string(b))
}

func TestNormalize(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	rec := entity.ExtractedRecord{
		VendorName:   ptr("  Acme Corp "),
		Amount:       1200.0,
		TotalAmount:  "1,200.00",
		Products:     []entity.LineItem{{Name: "Widget", Quantity: 2, UnitPrice: 600, Total: 1200}},
		Date:         "2024-01-05",
		DocumentType: constants.Invoice,
	}

	fields, err := Normalize(rec, now)
	require.NoError(t, err)

	assert.Equal(t, constants.Invoice, fields.DocumentType)
	require.NotNil(t, fields.VendorName)
	assert.Equal(t, "Acme Corp", *fields.VendorName)
	require.NotNil(t, fields.Amount)
	assert.InDelta(t, 1200.0, *fields.Amount, 1e-9)
	require.NotNil(t, fields.TotalAmount)
	assert.InDelta(t, 1200.0, *fields.TotalAmount, 1e-9)
	assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), fields.Date)
	assert.False(t, fields.DateDefaulted)
	assert.JSONEq(t, `[{"name":"Widget","quantity":2,"unit_price":600,"total":1200}]`, string(fields.ProductsJSON))
}

func TestNormalize_UnparseableDateDefaultsToNow(t *testing.T) {
	before := time.Now().UTC()
	fields, err := Normalize(entity.ExtractedRecord{
		VendorName:   ptr("Corner Shop"),
		Amount:       5.0,
		TotalAmount:  5.0,
		Date:         "the day after the party",
		DocumentType: constants.Receipt,
	}, time.Now())
	require.NoError(t, err)

	assert.True(t, fields.DateDefaulted)
	assert.WithinDuration(t, before, fields.Date, 5*time.Second)
	assert.JSONEq(t, `[]`, string(fields.ProductsJSON))
}

func TestNormalize_MissingValuesStayAbsent(t *testing.T) {
	fields, err := Normalize(entity.ExtractedRecord{DocumentType: constants.Invoice}, time.Now())
	require.NoError(t, err)

	assert.Nil(t, fields.VendorName)
	assert.Nil(t, fields.Amount)
	assert.Nil(t, fields.TotalAmount)
	assert.True(t, fields.DateDefaulted)
}
