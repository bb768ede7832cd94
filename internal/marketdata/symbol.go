package marketdata

import (
	"strings"

	"stock-dashboard/internal/models"
)

// Exchange suffixes for the domestic market.
const (
	SuffixShanghai = ".SS"
	SuffixShenzhen = ".SZ"
)

// CleanSymbol trims and upper-cases user input.
func CleanSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeSymbol resolves user input to a data-provider ticker. On the
// domestic market a bare code gets .SS when it starts with '6' and .SZ
// otherwise; codes that already carry either suffix are left alone.
func NormalizeSymbol(symbol string, market models.Market) string {
	symbol = CleanSymbol(symbol)
	if symbol == "" || market != models.MarketDomestic {
		return symbol
	}
	if strings.HasSuffix(symbol, SuffixShanghai) || strings.HasSuffix(symbol, SuffixShenzhen) {
		return symbol
	}
	if strings.HasPrefix(symbol, "6") {
		return symbol + SuffixShanghai
	}
	return symbol + SuffixShenzhen
}
