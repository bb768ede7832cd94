// Package models provides domain models for the stock dashboard.
package models

import (
	"fmt"
	"strconv"
	"time"
)

// Market selects how bare ticker symbols are resolved.
type Market string

const (
	// MarketForeign resolves symbols as-is (US listings).
	MarketForeign Market = "foreign"
	// MarketDomestic resolves bare codes to Shanghai/Shenzhen listings.
	MarketDomestic Market = "domestic"
)

// Valid reports whether m is a known market.
func (m Market) Valid() bool {
	return m == MarketForeign || m == MarketDomestic
}

// Label returns a display label for the market selector.
func (m Market) Label() string {
	switch m {
	case MarketForeign:
		return "US market"
	case MarketDomestic:
		return "A-share market"
	default:
		return string(m)
	}
}

// ParseMarket parses a market name or label.
func ParseMarket(s string) (Market, error) {
	switch s {
	case "foreign", "us", "US market":
		return MarketForeign, nil
	case "domestic", "cn", "a", "A-share market":
		return MarketDomestic, nil
	}
	return "", fmt.Errorf("unknown market %q (must be 'foreign' or 'domestic')", s)
}

// Lookbacks are the selectable lookback windows in days.
var Lookbacks = []int{7, 14, 30, 60, 90, 180, 365}

// DefaultLookback is the preselected lookback window.
const DefaultLookback = 30

// ValidLookback reports whether days is one of Lookbacks.
func ValidLookback(days int) bool {
	for _, d := range Lookbacks {
		if d == days {
			return true
		}
	}
	return false
}

// PriceBar represents one trading-day OHLCV observation.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is a chronologically ordered set of bars for one symbol.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Latest returns the most recent bar.
func (s *PriceSeries) Latest() (PriceBar, bool) {
	if s.Len() == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Tail returns a copy of the last n bars.
func (s *PriceSeries) Tail(n int) []PriceBar {
	if n > s.Len() {
		n = s.Len()
	}
	if n <= 0 {
		return nil
	}
	out := make([]PriceBar, n)
	copy(out, s.Bars[len(s.Bars)-n:])
	return out
}

// Validate checks that the series is non-empty and strictly ascending by date.
func (s *PriceSeries) Validate() error {
	if s.Len() == 0 {
		return fmt.Errorf("price series for %s is empty", s.symbol())
	}
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("price series for %s not ascending at index %d", s.symbol(), i)
		}
	}
	return nil
}

func (s *PriceSeries) symbol() string {
	if s == nil {
		return ""
	}
	return s.Symbol
}

// CompanyInfo holds fundamental fields. Nil pointers mean the field was not reported.
type CompanyInfo struct {
	Symbol           string   `json:"symbol"`
	LongName         string   `json:"long_name,omitempty"`
	ShortName        string   `json:"short_name,omitempty"`
	Exchange         string   `json:"exchange,omitempty"`
	MarketCap        *int64   `json:"market_cap,omitempty"`
	TrailingPE       *float64 `json:"trailing_pe,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *float64 `json:"fifty_two_week_low,omitempty"`
}

// NotAvailable marks a missing value in prompts and displays.
const NotAvailable = "N/A"

// DisplayName returns the long name, falling back to the given symbol.
func (c *CompanyInfo) DisplayName(fallback string) string {
	if c == nil || c.LongName == "" {
		return fallback
	}
	return c.LongName
}

// MarketCapText renders the market cap or N/A.
func (c *CompanyInfo) MarketCapText() string {
	if c == nil || c.MarketCap == nil {
		return NotAvailable
	}
	return strconv.FormatInt(*c.MarketCap, 10)
}

// TrailingPEText renders the trailing P/E or N/A.
func (c *CompanyInfo) TrailingPEText() string {
	if c == nil {
		return NotAvailable
	}
	return floatText(c.TrailingPE)
}

// FiftyTwoWeekHighText renders the 52-week high or N/A.
func (c *CompanyInfo) FiftyTwoWeekHighText() string {
	if c == nil {
		return NotAvailable
	}
	return floatText(c.FiftyTwoWeekHigh)
}

// FiftyTwoWeekLowText renders the 52-week low or N/A.
func (c *CompanyInfo) FiftyTwoWeekLowText() string {
	if c == nil {
		return NotAvailable
	}
	return floatText(c.FiftyTwoWeekLow)
}

func floatText(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }
