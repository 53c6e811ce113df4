package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"imacwatch/config"
	"imacwatch/logger"
	"imacwatch/monitor"
	"imacwatch/notifier"
	"imacwatch/scraper"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run performs one check and returns the process exit code. Only bad
// configuration and a browser that cannot start are failures; a run that
// finds nothing, or cannot deliver its alert, still exits 0.
func run(args []string) int {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	flags := config.Flags()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer, err := scraper.NewBrowserRenderer(cfg.Browser, cfg.Selectors.Items, zl.Named("browser"))
	if err != nil {
		zl.Error("❌ Failed to start browser", zap.Error(err))
		return 1
	}
	defer renderer.Close()

	if !cfg.Webhook.IsConfigured() && !cfg.DryRun {
		zl.Warn("⚠️  DISCORD_WEBHOOK not set, matches will only be logged")
	}

	m := monitor.New(cfg, renderer, notifier.NewDiscordNotifier(cfg.Webhook), zl.Named("monitor"))
	report, err := m.Run(ctx)
	if err != nil {
		zl.Warn("⚠️  Run interrupted", zap.Error(err))
	}

	zl.Info("Price check complete",
		zap.String("outcome", string(report.Outcome)),
		zap.String("reason", report.Reason),
		zap.Int("entries", report.EntriesFound),
		zap.Int("skipped", report.SkippedEntries),
		zap.Int("priced", report.PricedCount()),
		zap.Int("matches", len(report.Matches)),
		zap.Bool("notified", report.Notified),
		zap.Duration("duration", report.Duration()))

	return 0
}
