package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownTitle is used when no title could be extracted from a product entry
const UnknownTitle = "Unknown Product"

// NullPrice is a price that may be absent, in the spirit of sql.NullFloat64
type NullPrice struct {
	Amount decimal.Decimal
	Valid  bool
}

// NewPrice returns a valid NullPrice holding amount
func NewPrice(amount decimal.Decimal) NullPrice {
	return NullPrice{Amount: amount, Valid: true}
}

// NoPrice returns an absent price
func NoPrice() NullPrice {
	return NullPrice{}
}

// LessThan reports whether the price is present and strictly below limit
func (p NullPrice) LessThan(limit decimal.Decimal) bool {
	return p.Valid && p.Amount.LessThan(limit)
}

// String renders the price with two decimals, or "N/A" when absent
func (p NullPrice) String() string {
	if !p.Valid {
		return "N/A"
	}
	return "$" + p.Amount.StringFixed(2)
}

// MarshalJSON renders an absent price as null
func (p NullPrice) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Amount.StringFixed(2))
}

// ExtractedProduct is the title and price pulled out of one product entry
type ExtractedProduct struct {
	Title       string    `json:"title"`
	Price       NullPrice `json:"price"`
	URL         string    `json:"url,omitempty"`
	PriceSource string    `json:"price_source,omitempty"` // "selector", "open-box", "text-scan"
}

// HasPrice returns true if a price was extracted
func (p *ExtractedProduct) HasPrice() bool {
	return p.Price.Valid
}

// HasKnownTitle returns true unless the title fell back to UnknownTitle
func (p *ExtractedProduct) HasKnownTitle() bool {
	return p.Title != "" && p.Title != UnknownTitle
}

// TitleContains checks the title for keyword, ignoring case
func (p *ExtractedProduct) TitleContains(keyword string) bool {
	return strings.Contains(strings.ToLower(p.Title), strings.ToLower(keyword))
}

// Match is a product whose price cleared the alert threshold
type Match struct {
	ExtractedProduct
}
