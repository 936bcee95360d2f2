package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"
)

// Decimal is a request decimal that accepts a JSON number or a numeric string.
type Decimal struct {
	decimal.Decimal
}

// Schema implements huma.SchemaProvider.
func (Decimal) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "Decimal with at most two fractional digits, as a number or string",
		OneOf: []*huma.Schema{
			{Type: huma.TypeString, Pattern: `^-?\d+(\.\d+)?$`},
			{Type: huma.TypeNumber},
		},
	}
}

// decimalPtr unwraps an optional request decimal.
func decimalPtr(d *Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := d.Decimal
	return &v
}

// formatDecimal renders money-like values with two fixed decimals.
func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}
