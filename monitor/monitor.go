package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"imacwatch/config"
	"imacwatch/models"
	"imacwatch/notifier"
	"imacwatch/scraper"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var errNoNotifier = errors.New("no notifier")

// Renderer turns a URL into rendered page markup
type Renderer interface {
	Render(ctx context.Context, url string) (*scraper.RenderedPage, error)
}

// Notifier delivers one alert message
type Notifier interface {
	Notify(ctx context.Context, content string) error
}

// Monitor runs one price check against the category page
type Monitor struct {
	cfg         *config.Config
	renderer    Renderer
	notifier    Notifier
	botDetector *scraper.BotDetector
	logger      *zap.Logger
}

// New creates a monitor. With a nil notify, matches are only logged.
func New(cfg *config.Config, renderer Renderer, notify Notifier, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		cfg:         cfg,
		renderer:    renderer,
		notifier:    notify,
		botDetector: scraper.NewBotDetector(),
		logger:      logger,
	}
}

// Run checks the page once and sends at most one alert. Page, item and
// delivery failures are recorded on the report and do not fail the run; the
// error is only set when ctx ended before the run could finish.
func (m *Monitor) Run(ctx context.Context) (*models.RunReport, error) {
	report := models.NewRunReport(m.cfg.TargetURL)

	m.logger.Info("🔍 Starting price check",
		zap.String("url", m.cfg.TargetURL),
		zap.String("threshold", m.cfg.AlertThreshold.StringFixed(2)))

	page, err := m.renderer.Render(ctx, m.cfg.TargetURL)
	if err != nil {
		m.logger.Error("❌ Failed to load page", zap.String("url", m.cfg.TargetURL), zap.Error(err))
		report.Finish(models.OutcomeLoadFailed, err.Error())
		return report, ctxErr(ctx)
	}

	if err := scraper.WriteSnapshot(m.cfg.Debug.SnapshotPath, page.HTML); err != nil {
		m.logger.Warn("⚠️  Failed to write page snapshot", zap.String("path", m.cfg.Debug.SnapshotPath), zap.Error(err))
	} else if m.cfg.Debug.SnapshotPath != "" {
		m.logger.Debug("Page snapshot written", zap.String("path", m.cfg.Debug.SnapshotPath))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		m.logger.Error("❌ Failed to parse page", zap.Error(err))
		report.Finish(models.OutcomeLoadFailed, err.Error())
		return report, nil
	}

	if err := m.botDetector.Check(page.Title, visibleText(doc)); err != nil {
		m.logger.Error("❌ Bot detection page served", zap.String("title", page.Title), zap.Error(err))
		report.Finish(models.OutcomeBlocked, err.Error())
		return report, nil
	}

	extractor := scraper.NewExtractor(m.cfg.Selectors, m.cfg.Filter.Keyword, page.URL, m.logger)
	entries, selector, err := extractor.FindEntries(doc)
	if err != nil {
		m.logger.Warn("⚠️  No product entries found", zap.String("page_title", page.Title), zap.Error(err))
		report.Finish(models.OutcomeNoEntries, err.Error())
		return report, nil
	}
	report.Selector = selector
	report.EntriesFound = len(entries)
	m.logger.Info("Found product entries", zap.Int("count", len(entries)), zap.String("selector", selector))

	for _, entry := range entries {
		product, err := extractSafe(extractor, entry)
		if err != nil {
			report.SkippedEntries++
			m.logger.Error("❌ Skipping product entry", zap.Int("index", entry.Index), zap.Error(err))
			continue
		}
		if !product.HasPrice() {
			m.logger.Warn("⚠️  No price found", zap.Int("index", entry.Index), zap.String("title", product.Title))
		} else {
			m.logger.Debug("Product extracted",
				zap.Int("index", entry.Index),
				zap.String("title", product.Title),
				zap.Stringer("price", product.Price),
				zap.String("source", product.PriceSource))
		}
		report.Products = append(report.Products, product)
	}

	report.Matches = FilterMatches(report.Products, m.cfg.AlertThreshold, m.cfg.Filter)
	if len(report.Matches) == 0 {
		m.logger.Info(fmt.Sprintf("❌ No %s under %s", m.cfg.ProductLabel, notifier.FormatMoney(m.cfg.AlertThreshold)),
			zap.Int("products", len(report.Products)),
			zap.Int("priced", report.PricedCount()))
		report.Finish(models.OutcomeNoMatches, "")
		return report, nil
	}

	m.dispatch(ctx, report)
	report.Finish(models.OutcomeMatched, "")
	return report, ctxErr(ctx)
}

// dispatch formats the matches and delivers them once
func (m *Monitor) dispatch(ctx context.Context, report *models.RunReport) {
	blocks := make([]string, 0, len(report.Matches))
	for _, match := range report.Matches {
		blocks = append(blocks, notifier.FormatMatch(match))
	}
	content := notifier.FormatAlert(m.cfg.ProductLabel, m.cfg.AlertThreshold, blocks)

	if m.cfg.DryRun {
		m.logger.Info("Dry run, alert not sent", zap.Int("matches", len(report.Matches)), zap.String("message", content))
		return
	}
	if m.notifier == nil {
		report.NotifyError = errNoNotifier.Error()
		m.logger.Warn("⚠️  No notifier set up, alert not sent",
			zap.Int("matches", len(report.Matches)),
			zap.String("message", content))
		return
	}

	err := m.notifier.Notify(ctx, content)
	switch {
	case err == nil:
		report.Notified = true
		m.logger.Info("✅ Alert sent", zap.Int("matches", len(report.Matches)))
	case errors.Is(err, notifier.ErrNotConfigured):
		report.NotifyError = err.Error()
		m.logger.Warn("⚠️  Webhook not configured, alert not sent",
			zap.Int("matches", len(report.Matches)),
			zap.String("message", content))
	default:
		report.NotifyError = err.Error()
		m.logger.Error("❌ Failed to send alert", zap.Error(err))
	}
}

// extractSafe turns a panic in one entry into an error for that entry
func extractSafe(e *scraper.Extractor, entry scraper.Entry) (product models.ExtractedProduct, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &scraper.ExtractionError{Stage: "entry", Index: entry.Index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return e.ExtractProduct(entry)
}

// visibleText returns the body text without script and style contents
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}
