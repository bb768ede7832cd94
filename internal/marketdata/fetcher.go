// Package marketdata retrieves historical bars and fundamentals for a symbol.
package marketdata

import (
	"context"

	"stock-dashboard/internal/models"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// Fetch returns the daily bars covering the last lookbackDays calendar days
	// plus whatever fundamentals the provider reports. The symbol is expected
	// to be normalized already (see NormalizeSymbol).
	Fetch(ctx context.Context, symbol string, lookbackDays int) (*models.PriceSeries, *models.CompanyInfo, error)
	Name() string
}
