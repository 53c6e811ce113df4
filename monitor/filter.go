package monitor

import (
	"strings"

	"imacwatch/config"
	"imacwatch/models"

	"github.com/shopspring/decimal"
)

// IsMatch reports whether p is priced strictly below threshold and, when the
// filter requires it, mentions the keyword in its title
func IsMatch(p models.ExtractedProduct, threshold decimal.Decimal, filter config.FilterConfig) bool {
	if !p.Price.LessThan(threshold) {
		return false
	}
	if filter.RequireKeyword && !p.TitleContains(strings.TrimSpace(filter.Keyword)) {
		return false
	}
	return true
}

// FilterMatches keeps the matching products in page order
func FilterMatches(products []models.ExtractedProduct, threshold decimal.Decimal, filter config.FilterConfig) []models.Match {
	var matches []models.Match
	for _, p := range products {
		if IsMatch(p, threshold, filter) {
			matches = append(matches, models.Match{ExtractedProduct: p})
		}
	}
	return matches
}
