package config

// SelectorConfig holds the ordered selector chains used to pick apart the
// category page. Order matters: earlier entries are tried first and the first
// one that yields a result wins.
type SelectorConfig struct {
	// Items locate repeated product entries, most specific first
	Items []string `mapstructure:"items"`
	// Titles are evaluated inside a product entry
	Titles []string `mapstructure:"titles"`
	// Prices are evaluated inside a product entry. Their elements hold
	// nothing but price text, so a bare number counts.
	Prices []string `mapstructure:"prices"`
	// DollarPrices are generic elements that also carry ratings and counts;
	// only a $ amount counts. Tried after Prices.
	DollarPrices []string `mapstructure:"dollar_prices"`
	// OpenBox candidates are scanned for "open box" / "from $X" text
	OpenBox []string `mapstructure:"open_box"`
}

// DefaultSelectors returns the built-in selector chains for the Best Buy
// category layout, including the older sku-item markup and the newer
// product-list-item markup.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Items: []string{
			// Entity class names
			"li.sku-item",
			".sku-item",
			"li.product-list-item",
			".product-list-item",
			"[data-testid='product-list-item']",
			// Attribute-substring patterns
			"[class*='sku-item']",
			"[class*='product-item']",
			"[class*='ProductCard']",
			"[data-sku-id]",
			// Generic semantic tags
			"main article",
			"article",
		},
		Titles: []string{
			".sku-title a",
			".sku-header a",
			"h4.sku-title",
			"h4.sku-header",
			"[class*='sku-title']",
			"[class*='product-title']",
			"[data-testid='product-title']",
			"h4 a",
			"h3 a",
			"h2 a",
			"a[class*='title']",
			"a",
		},
		Prices: []string{
			".priceView-customer-price span[aria-hidden='true']",
			".priceView-customer-price span",
			"[data-testid='customer-price'] span",
			"[data-testid='large-customer-price']",
			".priceView-hero-price span",
			".customer-price",
			"[aria-label*='Price']",
			"[aria-label*='price']",
			"[class*='price'] span",
			"[class*='price']",
		},
		DollarPrices: []string{
			".sr-only",
			".visually-hidden",
		},
		OpenBox: []string{
			"a",
			"button",
			"span",
			"p",
			"div",
		},
	}
}
