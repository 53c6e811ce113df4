package scraper

import (
	"imacwatch/models"

	"github.com/PuerkitoBio/goquery"
)

// Names of the price rules, recorded on each product as its price source
const (
	PriceSourceSelector = "selector"
	PriceSourceOpenBox  = "open-box"
	PriceSourceTextScan = "text-scan"
)

// PriceRule is one step of the price fallback chain
type PriceRule struct {
	Name    string
	Extract func(entry *goquery.Selection) models.NullPrice
}

// EvaluatePriceRules applies rules in order and stops at the first one that
// yields a price. The returned name is empty when no rule succeeds.
func EvaluatePriceRules(rules []PriceRule, entry *goquery.Selection) (models.NullPrice, string) {
	for _, rule := range rules {
		if price := rule.Extract(entry); price.Valid {
			return price, rule.Name
		}
	}
	return models.NoPrice(), ""
}

func (e *Extractor) defaultPriceRules() []PriceRule {
	return []PriceRule{
		{Name: PriceSourceSelector, Extract: e.priceFromSelectors},
		{Name: PriceSourceOpenBox, Extract: e.priceFromOpenBox},
		{Name: PriceSourceTextScan, Extract: priceFromText},
	}
}

// priceFromSelectors tries every price selector, and for each matching
// element its text then its aria-label. Bare numbers are only trusted from
// the dedicated price selectors.
func (e *Extractor) priceFromSelectors(entry *goquery.Selection) models.NullPrice {
	if price := firstPrice(entry, e.prices, ParsePrice); price.Valid {
		return price
	}
	return firstPrice(entry, e.dollars, ParseDollarPrice)
}

func firstPrice(entry *goquery.Selection, selectors []compiledSelector, parse func(string) models.NullPrice) models.NullPrice {
	for _, sel := range selectors {
		price := models.NoPrice()
		entry.FindMatcher(sel.matcher).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			candidates := []string{normalizeSpace(el.Text())}
			if label, ok := el.Attr("aria-label"); ok {
				candidates = append(candidates, label)
			}
			for _, text := range candidates {
				if text == "" {
					continue
				}
				if p := parse(text); p.Valid {
					price = p
					return false
				}
			}
			return true
		})
		if price.Valid {
			return price
		}
	}
	return models.NoPrice()
}

// priceFromOpenBox looks for an "Open-Box from $X" style offer
func (e *Extractor) priceFromOpenBox(entry *goquery.Selection) models.NullPrice {
	for _, sel := range e.openBox {
		price := models.NoPrice()
		entry.FindMatcher(sel.matcher).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := normalizeSpace(el.Text())
			if !IsOpenBoxText(text) {
				return true
			}
			if p := ParseFromAmount(text); p.Valid {
				price = p
				return false
			}
			if amounts := DollarAmounts(text); len(amounts) > 0 {
				price = models.NewPrice(amounts[0])
				return false
			}
			return true
		})
		if price.Valid {
			return price
		}
	}
	return models.NoPrice()
}

// priceFromText accepts the first dollar amount in the entry above the
// plausibility floor
func priceFromText(entry *goquery.Selection) models.NullPrice {
	return PlausiblePrice(normalizeSpace(entry.Text()), PlausiblePriceFloor)
}
