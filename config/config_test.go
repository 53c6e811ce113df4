package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load looks at so the host environment
// cannot leak into the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DISCORD_WEBHOOK",
		"IMACWATCH_CONFIG",
		"IMACWATCH_WEBHOOK_URL",
		"IMACWATCH_TARGET_URL",
		"IMACWATCH_ALERT_THRESHOLD",
		"IMACWATCH_FILTER_REQUIRE_KEYWORD",
		"IMACWATCH_BROWSER_HEADLESS",
		"IMACWATCH_BROWSER_READY_TIMEOUT",
		"IMACWATCH_WEBHOOK_TIMEOUT",
		"IMACWATCH_SELECTORS_ITEMS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when nothing is set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load(nil)
		require.NoError(t, err)

		assert.Equal(t, DefaultTargetURL, cfg.TargetURL)
		assert.True(t, cfg.AlertThreshold.Equal(decimal.RequireFromString("1200")))
		assert.Equal(t, "iMacs", cfg.ProductLabel)
		assert.Equal(t, "imac", cfg.Filter.Keyword)
		assert.False(t, cfg.Filter.RequireKeyword)
		assert.False(t, cfg.Webhook.IsConfigured())
		assert.Equal(t, 30*time.Second, cfg.Webhook.Timeout)
		assert.True(t, cfg.Browser.Headless)
		assert.True(t, cfg.Browser.Stealth)
		assert.Equal(t, 15*time.Second, cfg.Browser.ReadyTimeout)
		assert.Equal(t, 8, cfg.Browser.ScrollSteps)
		assert.Equal(t, DefaultSelectors(), cfg.Selectors)
	})

	t.Run("reads the legacy DISCORD_WEBHOOK variable", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DISCORD_WEBHOOK", "https://discord.com/api/webhooks/1/abc")

		cfg, err := Load(nil)
		require.NoError(t, err)

		assert.True(t, cfg.Webhook.IsConfigured())
		assert.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Webhook.URL)
	})

	t.Run("loads custom values from prefixed environment variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IMACWATCH_ALERT_THRESHOLD", "$1,050.50")
		t.Setenv("IMACWATCH_FILTER_REQUIRE_KEYWORD", "true")
		t.Setenv("IMACWATCH_BROWSER_HEADLESS", "false")
		t.Setenv("IMACWATCH_BROWSER_READY_TIMEOUT", "5s")
		t.Setenv("IMACWATCH_SELECTORS_ITEMS", ".tile,.card")

		cfg, err := Load(nil)
		require.NoError(t, err)

		assert.True(t, cfg.AlertThreshold.Equal(decimal.RequireFromString("1050.50")))
		assert.True(t, cfg.Filter.RequireKeyword)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 5*time.Second, cfg.Browser.ReadyTimeout)
		assert.Equal(t, []string{".tile", ".card"}, cfg.Selectors.Items)
	})

	t.Run("flags override environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IMACWATCH_ALERT_THRESHOLD", "1500")

		fs := Flags()
		require.NoError(t, fs.Parse([]string{"--threshold", "999.99", "--dry-run", "--url", "https://example.com/imacs"}))

		cfg, err := Load(fs)
		require.NoError(t, err)

		assert.True(t, cfg.AlertThreshold.Equal(decimal.RequireFromString("999.99")))
		assert.True(t, cfg.DryRun)
		assert.Equal(t, "https://example.com/imacs", cfg.TargetURL)
	})

	t.Run("reads selectors from a config file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "imacwatch.yaml")
		content := `
alert_threshold: 1100
product_label: iMac deals
selectors:
  items:
    - ".grid-tile"
  titles:
    - ".grid-tile h3"
webhook:
  timeout: 5s
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		fs := Flags()
		require.NoError(t, fs.Parse([]string{"--config", path}))

		cfg, err := Load(fs)
		require.NoError(t, err)

		assert.True(t, cfg.AlertThreshold.Equal(decimal.NewFromInt(1100)))
		assert.Equal(t, "iMac deals", cfg.ProductLabel)
		assert.Equal(t, []string{".grid-tile"}, cfg.Selectors.Items)
		assert.Equal(t, []string{".grid-tile h3"}, cfg.Selectors.Titles)
		assert.Equal(t, DefaultSelectors().Prices, cfg.Selectors.Prices)
		// Clamped to the minimum delivery timeout
		assert.Equal(t, 20*time.Second, cfg.Webhook.Timeout)
	})

	t.Run("fails on a missing explicit config file", func(t *testing.T) {
		clearEnv(t)
		fs := Flags()
		require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}))

		_, err := Load(fs)
		assert.Error(t, err)
	})

	t.Run("fails on a malformed threshold", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IMACWATCH_ALERT_THRESHOLD", "cheap")

		_, err := Load(nil)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TargetURL:      "https://www.bestbuy.com/site/imac",
			AlertThreshold: decimal.NewFromInt(1200),
			Browser: BrowserConfig{
				NavigationTimeout: time.Minute,
				ReadyTimeout:      time.Second,
			},
			Selectors: DefaultSelectors(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"relative url", func(c *Config) { c.TargetURL = "/site/imac" }, true},
		{"ftp url", func(c *Config) { c.TargetURL = "ftp://example.com" }, true},
		{"zero threshold", func(c *Config) { c.AlertThreshold = decimal.Zero }, true},
		{"negative threshold", func(c *Config) { c.AlertThreshold = decimal.NewFromInt(-1) }, true},
		{"keyword required but empty", func(c *Config) { c.Filter.RequireKeyword = true }, true},
		{"bad webhook", func(c *Config) { c.Webhook.URL = "not a url" }, true},
		{"no item selectors", func(c *Config) { c.Selectors.Items = nil }, true},
		{"no ready timeout", func(c *Config) { c.Browser.ReadyTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalize_ClampsWebhookTimeout(t *testing.T) {
	c := &Config{Webhook: WebhookConfig{Timeout: 5 * time.Minute}}
	c.normalize()
	assert.Equal(t, 60*time.Second, c.Webhook.Timeout)
	assert.Equal(t, "Products", c.ProductLabel)
	assert.Equal(t, 500*time.Millisecond, c.Browser.PollInterval)
}
