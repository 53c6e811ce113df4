package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultTargetURL is the Best Buy iMac category, sorted cheapest first
	DefaultTargetURL = "https://www.bestbuy.com/site/apple-imacs-minis-mac-pros/imac/pcmcat378600050012.c?id=pcmcat378600050012&sp=Price-Low-To-High"

	// DefaultUserAgent is a desktop Chrome user agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"

	envPrefix = "IMACWATCH"

	minWebhookTimeout = 20 * time.Second
	maxWebhookTimeout = 60 * time.Second
)

// Config holds all configuration for a monitoring run
type Config struct {
	TargetURL      string          `mapstructure:"target_url"`
	AlertThreshold decimal.Decimal `mapstructure:"alert_threshold"`
	ProductLabel   string          `mapstructure:"product_label"`
	DryRun         bool            `mapstructure:"dry_run"`

	Filter    FilterConfig   `mapstructure:"filter"`
	Webhook   WebhookConfig  `mapstructure:"webhook"`
	Browser   BrowserConfig  `mapstructure:"browser"`
	Debug     DebugConfig    `mapstructure:"debug"`
	Log       LogConfig      `mapstructure:"log"`
	Selectors SelectorConfig `mapstructure:"selectors"`
}

// FilterConfig controls keyword matching on product titles
type FilterConfig struct {
	Keyword        string `mapstructure:"keyword"`
	RequireKeyword bool   `mapstructure:"require_keyword"`
}

// WebhookConfig holds the chat webhook settings
type WebhookConfig struct {
	URL      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Username string        `mapstructure:"username"`
}

// IsConfigured returns true if a webhook endpoint is set
func (c WebhookConfig) IsConfigured() bool {
	return strings.TrimSpace(c.URL) != ""
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	Bin               string        `mapstructure:"bin"`
	Headless          bool          `mapstructure:"headless"`
	NoSandbox         bool          `mapstructure:"no_sandbox"`
	Leakless          bool          `mapstructure:"leakless"`
	Stealth           bool          `mapstructure:"stealth"`
	UserAgent         string        `mapstructure:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ReadyTimeout      time.Duration `mapstructure:"ready_timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	ScrollSteps       int           `mapstructure:"scroll_steps"`
	ScrollPause       time.Duration `mapstructure:"scroll_pause"`
	SettleTimeout     time.Duration `mapstructure:"settle_timeout"`
}

// DebugConfig controls auxiliary debug artifacts
type DebugConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// LogConfig controls the logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Flags returns the command line flags understood by Load
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("imacwatch", pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("url", "", "category page to check")
	fs.String("threshold", "", "alert when a price is below this amount")
	fs.String("webhook", "", "chat webhook URL (defaults to $DISCORD_WEBHOOK)")
	fs.String("snapshot", "", "write the rendered page to this file")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.Bool("dry-run", false, "log the alert instead of sending it")
	return fs
}

// Load loads configuration from defaults, an optional config file,
// environment variables and command line flags, in increasing priority.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetConfigName("imacwatch")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/imacwatch/")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The webhook secret has historically lived in DISCORD_WEBHOOK
	if err := v.BindEnv("webhook.url", envPrefix+"_WEBHOOK_URL", "DISCORD_WEBHOOK"); err != nil {
		return nil, fmt.Errorf("bind webhook env: %w", err)
	}

	SetDefaults(v)

	configPath := getEnv(envPrefix+"_CONFIG", "")
	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
		if f := flags.Lookup("config"); f != nil && f.Changed {
			configPath = f.Value.String()
		}
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults, env and flags only
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		stringToDecimalHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	v.SetDefault("target_url", DefaultTargetURL)
	v.SetDefault("alert_threshold", "1200.00")
	v.SetDefault("product_label", "iMacs")
	v.SetDefault("dry_run", false)

	v.SetDefault("filter.keyword", "imac")
	v.SetDefault("filter.require_keyword", false)

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout", "30s")
	v.SetDefault("webhook.username", "iMac Price Watch")

	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.leakless", false)
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.ready_timeout", "15s")
	v.SetDefault("browser.poll_interval", "500ms")
	v.SetDefault("browser.scroll_steps", 8)
	v.SetDefault("browser.scroll_pause", "750ms")
	v.SetDefault("browser.settle_timeout", "3s")

	v.SetDefault("debug.snapshot_path", "debug/page.html")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	sel := DefaultSelectors()
	v.SetDefault("selectors.items", sel.Items)
	v.SetDefault("selectors.titles", sel.Titles)
	v.SetDefault("selectors.prices", sel.Prices)
	v.SetDefault("selectors.dollar_prices", sel.DollarPrices)
	v.SetDefault("selectors.open_box", sel.OpenBox)
}

// bindFlags maps command line flags onto config keys
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"target_url":          "url",
		"alert_threshold":     "threshold",
		"webhook.url":         "webhook",
		"debug.snapshot_path": "snapshot",
		"log.level":           "log-level",
		"dry_run":             "dry-run",
	}
	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// normalize fills gaps the decoder cannot express as defaults
func (c *Config) normalize() {
	c.TargetURL = strings.TrimSpace(c.TargetURL)
	c.Webhook.URL = strings.TrimSpace(c.Webhook.URL)

	if c.Webhook.Timeout < minWebhookTimeout {
		c.Webhook.Timeout = minWebhookTimeout
	}
	if c.Webhook.Timeout > maxWebhookTimeout {
		c.Webhook.Timeout = maxWebhookTimeout
	}
	if c.Browser.PollInterval <= 0 {
		c.Browser.PollInterval = 500 * time.Millisecond
	}
	if c.Browser.ScrollSteps < 0 {
		c.Browser.ScrollSteps = 0
	}
	if c.ProductLabel == "" {
		c.ProductLabel = "Products"
	}
}

// Validate checks the configuration for values a run cannot work with
func (c *Config) Validate() error {
	u, err := url.Parse(c.TargetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("target_url must be an absolute http(s) URL, got: %q", c.TargetURL)
	}

	if !c.AlertThreshold.IsPositive() {
		return fmt.Errorf("alert_threshold must be positive, got: %s", c.AlertThreshold.String())
	}

	if c.Filter.RequireKeyword && strings.TrimSpace(c.Filter.Keyword) == "" {
		return fmt.Errorf("filter.keyword is required when filter.require_keyword is set")
	}

	if c.Webhook.IsConfigured() {
		wu, err := url.Parse(c.Webhook.URL)
		if err != nil || wu.Scheme == "" || wu.Host == "" {
			return fmt.Errorf("webhook.url is not a valid URL")
		}
	}

	if c.Browser.NavigationTimeout <= 0 || c.Browser.ReadyTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}

	lists := map[string][]string{
		"selectors.items":  c.Selectors.Items,
		"selectors.titles": c.Selectors.Titles,
		"selectors.prices": c.Selectors.Prices,
	}
	for key, list := range lists {
		if len(list) == 0 {
			return fmt.Errorf("%s must list at least one selector", key)
		}
	}

	return nil
}

// stringToDecimalHookFunc decodes strings and numbers into decimal.Decimal
func stringToDecimalHookFunc() mapstructure.DecodeHookFuncType {
	decimalType := reflect.TypeOf(decimal.Decimal{})
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != decimalType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "$"))
			s = strings.ReplaceAll(s, ",", "")
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid decimal %q: %w", v, err)
			}
			return d, nil
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		}
		return data, nil
	}
}
