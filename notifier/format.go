package notifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"imacwatch/models"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// MaxContentLength is the longest message content Discord accepts
const MaxContentLength = 2000

const blockSeparator = "\n\n"

// FormatMoney renders an amount as $1,234.56
func FormatMoney(amount decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", amount.Round(2).InexactFloat64())
}

// FormatMatch renders one match as a short message block
func FormatMatch(m models.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n💵 %s", m.Title, FormatMoney(m.Price.Amount))
	if m.URL != "" {
		fmt.Fprintf(&b, "\n🔗 %s", m.URL)
	}
	return b.String()
}

// FormatHeader renders the first line of an alert
func FormatHeader(label string, threshold decimal.Decimal) string {
	return fmt.Sprintf("🔥 **%s Under %s Found!**", label, FormatMoney(threshold))
}

// FormatAlert joins match blocks under a header. Blocks that would push the
// message past MaxContentLength are dropped and counted in a trailer line.
// An empty block list yields an empty string.
func FormatAlert(label string, threshold decimal.Decimal, blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}

	header := FormatHeader(label, threshold)
	full := header + blockSeparator + strings.Join(blocks, blockSeparator)
	if utf8.RuneCountInString(full) <= MaxContentLength {
		return full
	}

	msg := header
	used := utf8.RuneCountInString(msg)
	for i, block := range blocks {
		remaining := len(blocks) - i - 1
		size := utf8.RuneCountInString(blockSeparator + block)
		trailer := 0
		if remaining > 0 {
			trailer = utf8.RuneCountInString(moreTrailer(remaining))
		}
		if used+size+trailer > MaxContentLength {
			return truncateRunes(msg+moreTrailer(len(blocks)-i), MaxContentLength)
		}
		msg += blockSeparator + block
		used += size
	}
	return msg
}

func moreTrailer(n int) string {
	return fmt.Sprintf("%s…and %d more", blockSeparator, n)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
