package cli

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FormatPrice formats a price in dollars with two decimals.
func FormatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "N/A"
	}
	if price < 0 {
		return "-$" + FormatThousands(decimal.NewFromFloat(-price).StringFixed(2))
	}
	return "$" + FormatThousands(decimal.NewFromFloat(price).StringFixed(2))
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatChange formats a price change and its percentage.
func FormatChange(change, changePct float64) string {
	sign := ""
	if change > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f (%s)", sign, change, FormatPercent(changePct))
}

// FormatVolume formats volume in compact form.
func FormatVolume(volume float64) string {
	switch v := math.Abs(volume); {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", volume/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", volume/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", volume/1e3)
	}
	return fmt.Sprintf("%.0f", volume)
}

// FormatInt formats an integer with thousands separators.
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + FormatThousands(fmt.Sprintf("%d", -n))
	}
	return FormatThousands(fmt.Sprintf("%d", n))
}

// FormatThousands inserts commas into the integer part of a decimal string.
func FormatThousands(s string) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	n := len(intPart)
	if n <= 3 {
		return s
	}

	var sb strings.Builder
	head := n % 3
	if head > 0 {
		sb.WriteString(intPart[:head])
	}
	for i := head; i < n; i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	sb.WriteString(frac)
	return sb.String()
}

// FormatDate formats a bar date.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// TruncateString truncates a string to max runes with ellipsis.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// PadRight pads a string to the right.
func PadRight(s string, length int) string {
	w := displayWidth(s)
	if w >= length {
		return s
	}
	return s + strings.Repeat(" ", length-w)
}

// PadLeft pads a string to the left.
func PadLeft(s string, length int) string {
	w := displayWidth(s)
	if w >= length {
		return s
	}
	return strings.Repeat(" ", length-w) + s
}

func displayWidth(s string) int {
	return utf8.RuneCountInString(s)
}
