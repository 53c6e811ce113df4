package scraper

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"imacwatch/config"
	"imacwatch/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
)

// minTitleLength is the rune count a title candidate must exceed
const minTitleLength = 3

// Entry is one product node of a parsed page. It is only valid for the
// document it was found in.
type Entry struct {
	Index     int
	Selection *goquery.Selection
}

// Text returns the whitespace-normalized text of the entry
func (e Entry) Text() string {
	return normalizeSpace(e.Selection.Text())
}

// compiledSelector pairs a selector with its compiled matcher
type compiledSelector struct {
	raw     string
	matcher goquery.Matcher
}

// Extractor finds product entries on a category page and pulls a title,
// link and price out of each one
type Extractor struct {
	items      []compiledSelector
	titles     []compiledSelector
	prices     []compiledSelector
	dollars    []compiledSelector
	openBox    []compiledSelector
	priceRules []PriceRule
	keyword    string
	baseURL    *url.URL
	logger     *zap.Logger
}

// NewExtractor compiles the selector chains. Selectors that fail to compile
// are logged and dropped; the rest of the chain still applies.
func NewExtractor(selectors config.SelectorConfig, keyword, pageURL string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Extractor{
		keyword: strings.ToLower(strings.TrimSpace(keyword)),
		logger:  logger,
	}
	e.items = e.compile("items", selectors.Items)
	e.titles = e.compile("titles", selectors.Titles)
	e.prices = e.compile("prices", selectors.Prices)
	e.dollars = e.compile("dollar_prices", selectors.DollarPrices)
	e.openBox = e.compile("open_box", selectors.OpenBox)
	e.priceRules = e.defaultPriceRules()

	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		e.baseURL = u
	}

	return e
}

func (e *Extractor) compile(chain string, selectors []string) []compiledSelector {
	compiled := make([]compiledSelector, 0, len(selectors))
	for _, raw := range selectors {
		m, err := cascadia.Compile(raw)
		if err != nil {
			e.logger.Warn("⚠️  Skipping invalid selector",
				zap.String("chain", chain),
				zap.String("selector", raw),
				zap.Error(err))
			continue
		}
		compiled = append(compiled, compiledSelector{raw: raw, matcher: m})
	}
	return compiled
}

// FindEntries returns the product entries matched by the first item
// selector that matches anything, together with that selector. Results of
// different selectors are never merged.
func (e *Extractor) FindEntries(doc *goquery.Document) ([]Entry, string, error) {
	for _, sel := range e.items {
		found := doc.FindMatcher(sel.matcher)
		e.logger.Debug("Item selector tried",
			zap.String("selector", sel.raw),
			zap.Int("matches", found.Length()))
		if found.Length() == 0 {
			continue
		}

		entries := make([]Entry, 0, found.Length())
		found.Each(func(i int, s *goquery.Selection) {
			entries = append(entries, Entry{Index: i, Selection: s})
		})
		return entries, sel.raw, nil
	}

	return nil, "", &ExtractionError{Stage: "items", Index: -1, Err: ErrNoEntries}
}

// ExtractProduct builds the title, link and price of one entry
func (e *Extractor) ExtractProduct(entry Entry) (models.ExtractedProduct, error) {
	if entry.Selection == nil || entry.Text() == "" {
		return models.ExtractedProduct{}, &ExtractionError{Stage: "entry", Index: entry.Index, Err: ErrEmptyEntry}
	}

	title, titleNode := e.ExtractTitle(entry.Selection)
	price, source := e.ExtractPrice(entry.Selection)

	return models.ExtractedProduct{
		Title:       title,
		Price:       price,
		URL:         e.extractURL(entry.Selection, titleNode),
		PriceSource: source,
	}, nil
}

// ExtractTitle walks the title selectors and returns the first text longer
// than minTitleLength, then falls back to any link mentioning the keyword,
// then to models.UnknownTitle. The node the title came from is returned
// when there is one.
func (e *Extractor) ExtractTitle(s *goquery.Selection) (string, *goquery.Selection) {
	for _, sel := range e.titles {
		var title string
		var node *goquery.Selection
		s.FindMatcher(sel.matcher).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := normalizeSpace(el.Text())
			if utf8.RuneCountInString(text) > minTitleLength {
				title, node = text, el
				return false
			}
			return true
		})
		if title != "" {
			return title, node
		}
	}

	if e.keyword != "" {
		var title string
		var node *goquery.Selection
		s.Find("a").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := normalizeSpace(el.Text())
			if text != "" && strings.Contains(strings.ToLower(text), e.keyword) {
				title, node = text, el
				return false
			}
			return true
		})
		if title != "" {
			return title, node
		}
	}

	return models.UnknownTitle, nil
}

// ExtractPrice runs the price rules in order and returns the first price
// found together with the name of the rule that produced it
func (e *Extractor) ExtractPrice(s *goquery.Selection) (models.NullPrice, string) {
	return EvaluatePriceRules(e.priceRules, s)
}

// extractURL prefers the link the title came from, then any product-page
// link inside the entry
func (e *Extractor) extractURL(s, titleNode *goquery.Selection) string {
	var candidates []*goquery.Selection
	if titleNode != nil {
		candidates = append(candidates, titleNode, titleNode.Closest("a"), titleNode.Find("a[href]").First())
	}
	candidates = append(candidates, s.Find("a[href*='/site/']").First(), s.Find("a[href]").First())

	for _, c := range candidates {
		if c == nil || c.Length() == 0 {
			continue
		}
		href, ok := c.Attr("href")
		if !ok {
			continue
		}
		if resolved := e.resolve(href); resolved != "" {
			return resolved
		}
	}
	return ""
}

func (e *Extractor) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if e.baseURL != nil {
		u = e.baseURL.ResolveReference(u)
	}
	if !u.IsAbs() {
		return ""
	}
	return u.String()
}

// normalizeSpace collapses runs of whitespace into single spaces
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
