package scraper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // empty means no price
	}{
		{"grouped with cents", "$1,199.99", "1199.99"},
		{"bare integer", "999", "999"},
		{"no amount", "Call for price", ""},
		{"empty", "", ""},
		{"sentence", "Your price for this item is $1,299.00", "1299"},
		{"dollar preferred over rating", "4.5 out of 5, $849.99", "849.99"},
		{"space after symbol", "$ 1,049.00", "1049"},
		{"millions", "1,234,567.89", "1234567.89"},
		{"first of several", "$1,099.99 Was $1,299.99", "1099.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if tt.want == "" {
				assert.False(t, got.Valid, "expected no price, got %s", got)
				return
			}
			require.True(t, got.Valid)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Amount), "got %s", got)
		})
	}
}

func TestParseFromAmount(t *testing.T) {
	got := ParseFromAmount("Open-Box from $949.00")
	require.True(t, got.Valid)
	assert.Equal(t, "949.00", got.Amount.StringFixed(2))

	got = ParseFromAmount("Starting FROM $1,149")
	require.True(t, got.Valid)
	assert.Equal(t, "1149.00", got.Amount.StringFixed(2))

	for _, text := range []string{
		"Open box",
		"Starting FROM 1,149",
		"Available from 3 sellers",
		"Choose from 2 configurations",
	} {
		assert.False(t, ParseFromAmount(text).Valid, text)
	}
}

func TestParseDollarPrice(t *testing.T) {
	got := ParseDollarPrice("Your price for this item is $1,099.99")
	require.True(t, got.Valid)
	assert.Equal(t, "1099.99", got.Amount.String())

	assert.False(t, ParseDollarPrice("Rating 4.7 out of 5 stars with 312 reviews").Valid)
	assert.False(t, ParseDollarPrice("999").Valid)
}

func TestDollarAmounts(t *testing.T) {
	amounts := DollarAmounts("Save $200 now $1,099.99, 12 months")
	require.Len(t, amounts, 2)
	assert.Equal(t, "200", amounts[0].String())
	assert.Equal(t, "1099.99", amounts[1].String())

	assert.Empty(t, DollarAmounts("no money here 1,099"))
}

func TestPlausiblePrice(t *testing.T) {
	got := PlausiblePrice("Save $50 now $1,099.99", PlausiblePriceFloor)
	require.True(t, got.Valid)
	assert.Equal(t, "1099.99", got.Amount.String())

	// The floor itself is not plausible
	assert.False(t, PlausiblePrice("$99.99 or $100", PlausiblePriceFloor).Valid)
	assert.False(t, PlausiblePrice("", PlausiblePriceFloor).Valid)
}

func TestIsOpenBoxText(t *testing.T) {
	for _, text := range []string{"Open-Box", "open box deals", "Openbox", "Starting from $10"} {
		assert.True(t, IsOpenBoxText(text), text)
	}
	for _, text := range []string{"Opened", "Boxed set", "$1,299.00", "Available from 3 sellers", "Choose from 2 configurations"} {
		assert.False(t, IsOpenBoxText(text), text)
	}
}
