package scraper

import (
	"regexp"
	"strings"

	"imacwatch/models"

	"github.com/shopspring/decimal"
)

// PlausiblePriceFloor is the lowest amount the text scan accepts as a
// product price. Anything at or below it is taken to be a fee, a monthly
// payment or a savings badge.
var PlausiblePriceFloor = decimal.NewFromInt(100)

const amountPattern = `(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{2})?`

var (
	// Optional currency symbol; grouped or plain digits; optional cents
	pricePattern = regexp.MustCompile(`\$?` + amountPattern)
	// Same shape but the currency symbol is required
	dollarPattern = regexp.MustCompile(`\$\s?` + amountPattern)
	// "from $899.99", as used by open-box offers. "from 3 sellers" is not a price.
	fromPattern = regexp.MustCompile(`(?i)\bfrom\b\s*(\$\s?` + amountPattern + `)`)
	// "Open-Box", "open box", "Openbox"
	openBoxPattern = regexp.MustCompile(`(?i)\bopen[\s-]?box\b`)
)

// ParsePrice extracts the first price from text. A dollar-prefixed amount is
// preferred over a bare number. Text without a parsable amount yields an
// absent price.
func ParsePrice(text string) models.NullPrice {
	if m := dollarPattern.FindString(text); m != "" {
		return parseAmount(m)
	}
	if m := pricePattern.FindString(text); m != "" {
		return parseAmount(m)
	}
	return models.NoPrice()
}

// ParseDollarPrice is ParsePrice without the bare number fallback
func ParseDollarPrice(text string) models.NullPrice {
	if m := dollarPattern.FindString(text); m != "" {
		return parseAmount(m)
	}
	return models.NoPrice()
}

// ParseFromAmount extracts the dollar amount that follows the word "from"
func ParseFromAmount(text string) models.NullPrice {
	m := fromPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return models.NoPrice()
	}
	return parseAmount(m[1])
}

// DollarAmounts returns every dollar amount in text, in order of appearance
func DollarAmounts(text string) []decimal.Decimal {
	var amounts []decimal.Decimal
	for _, m := range dollarPattern.FindAllString(text, -1) {
		if p := parseAmount(m); p.Valid {
			amounts = append(amounts, p.Amount)
		}
	}
	return amounts
}

// PlausiblePrice returns the first dollar amount in text that is greater
// than floor
func PlausiblePrice(text string, floor decimal.Decimal) models.NullPrice {
	for _, amount := range DollarAmounts(text) {
		if amount.GreaterThan(floor) {
			return models.NewPrice(amount)
		}
	}
	return models.NoPrice()
}

// IsOpenBoxText reports whether text advertises an open-box offer: either an
// open-box label or "from $<amount>"
func IsOpenBoxText(text string) bool {
	return openBoxPattern.MatchString(text) || fromPattern.MatchString(text)
}

// parseAmount converts "$1,199.99" to 1199.99. Malformed input yields an
// absent price.
func parseAmount(raw string) models.NullPrice {
	clean := strings.TrimPrefix(strings.TrimSpace(raw), "$")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return models.NoPrice()
	}

	amount, err := decimal.NewFromString(clean)
	if err != nil || amount.IsNegative() {
		return models.NoPrice()
	}
	return models.NewPrice(amount)
}
