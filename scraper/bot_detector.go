package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

// BotDetector detects bot walls and CAPTCHA interstitials served in place
// of the category page
type BotDetector struct {
	titlePatterns []*regexp.Regexp
	bodyPatterns  []*regexp.Regexp
}

// NewBotDetector creates a new bot detector
func NewBotDetector() *BotDetector {
	return &BotDetector{
		// A product listing never carries these words in its <title>
		titlePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bblocked\b`),
			regexp.MustCompile(`(?i)\brobots?\b`),
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)attention required`),
			regexp.MustCompile(`(?i)just a moment`),
			regexp.MustCompile(`(?i)security check`),
		},
		// Body text is noisy, so only challenge phrasing counts here
		bodyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)verify (?:that )?you are (?:a )?human`),
			regexp.MustCompile(`(?i)are you a robot`),
			regexp.MustCompile(`(?i)press (?:&|and) hold`),
			regexp.MustCompile(`(?i)unusual traffic from your`),
			regexp.MustCompile(`(?i)checking your browser before accessing`),
			regexp.MustCompile(`(?i)complete the (?:re)?captcha`),
		},
	}
}

// DetectBotWall checks the page title and visible text for bot-detection
// signatures and returns the reason when one is found
func (bd *BotDetector) DetectBotWall(pageTitle, pageText string) (bool, string) {
	for _, pattern := range bd.titlePatterns {
		if pattern.MatchString(pageTitle) {
			return true, fmt.Sprintf("title %q matches %s", strings.TrimSpace(pageTitle), pattern.String())
		}
	}

	for _, pattern := range bd.bodyPatterns {
		if loc := pattern.FindStringIndex(pageText); loc != nil {
			return true, fmt.Sprintf("page text matches %s", pattern.String())
		}
	}

	return false, ""
}

// Check returns ErrBotWall wrapped with the reason when the page is a bot wall
func (bd *BotDetector) Check(pageTitle, pageText string) error {
	if blocked, reason := bd.DetectBotWall(pageTitle, pageText); blocked {
		return fmt.Errorf("%w: %s", ErrBotWall, reason)
	}
	return nil
}
