package marketdata

import (
	"context"
	"sort"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/logging"
	"stock-dashboard/internal/models"
)

// source abstracts the Yahoo Finance endpoints used by YahooFetcher.
type source interface {
	Bars(symbol string, start, end time.Time) ([]*finance.ChartBar, error)
	Equity(symbol string) (*finance.Equity, error)
}

// yahooSource calls Yahoo Finance through finance-go.
type yahooSource struct{}

func (yahooSource) Bars(symbol string, start, end time.Time) ([]*finance.ChartBar, error) {
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	bars := make([]*finance.ChartBar, 0)
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

func (yahooSource) Equity(symbol string) (*finance.Equity, error) {
	return equity.Get(symbol)
}

// YahooFetcher implements Fetcher using Yahoo Finance.
type YahooFetcher struct {
	src    source
	logger zerolog.Logger
	now    func() time.Time
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(logger zerolog.Logger) *YahooFetcher {
	return &YahooFetcher{
		src:    yahooSource{},
		logger: logging.WithOperation(logger, "marketdata"),
		now:    time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// Fetch retrieves daily bars and fundamentals. Missing bars are a FetchError;
// a failed fundamentals lookup is logged and yields an info with only the symbol.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol string, lookbackDays int) (*models.PriceSeries, *models.CompanyInfo, error) {
	if symbol == "" {
		return nil, nil, apperrors.NewFetchError(symbol, "symbol is empty", apperrors.ErrSymbolNotFound)
	}
	if lookbackDays <= 0 {
		return nil, nil, apperrors.NewFetchError(symbol, "lookback must be positive", apperrors.ErrInputValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, apperrors.NewFetchError(symbol, "request cancelled", err)
	}

	end := f.now()
	start := end.AddDate(0, 0, -lookbackDays)

	began := time.Now()
	raw, err := f.src.Bars(symbol, start, end)
	logging.LogAPICall(f.logger, "GET", "yahoo/chart/"+symbol, time.Since(began), err)
	if err != nil {
		return nil, nil, apperrors.NewFetchError(symbol, "failed to get historical data", err)
	}

	series := &models.PriceSeries{
		Symbol: symbol,
		Bars:   convertBars(raw),
	}
	if series.Len() == 0 {
		return nil, nil, apperrors.NewFetchError(symbol, "no data returned", apperrors.ErrDataNotFound)
	}

	began = time.Now()
	eq, err := f.src.Equity(symbol)
	logging.LogAPICall(f.logger, "GET", "yahoo/quote/"+symbol, time.Since(began), err)
	if err != nil {
		f.logger.Warn().Err(err).Str("symbol", symbol).Msg("Fundamentals unavailable")
	}

	return series, companyInfo(symbol, eq), nil
}

// convertBars drops empty bars, sorts ascending and keeps one bar per day.
func convertBars(raw []*finance.ChartBar) []models.PriceBar {
	bars := make([]models.PriceBar, 0, len(raw))
	for _, b := range raw {
		if b == nil {
			continue
		}
		if b.Open.IsZero() && b.High.IsZero() && b.Low.IsZero() && b.Close.IsZero() {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:   toFloat(b.Open),
			High:   toFloat(b.High),
			Low:    toFloat(b.Low),
			Close:  toFloat(b.Close),
			Volume: int64(b.Volume),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && sameDay(out[len(out)-1].Date, b.Date) {
			// Keep the later observation of the day.
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func toFloat(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// companyInfo maps Yahoo's equity quote; zero values are treated as not reported.
func companyInfo(symbol string, eq *finance.Equity) *models.CompanyInfo {
	info := &models.CompanyInfo{Symbol: symbol}
	if eq == nil {
		return info
	}

	info.LongName = eq.LongName
	info.ShortName = eq.ShortName
	info.Exchange = eq.FullExchangeName
	if eq.MarketCap != 0 {
		info.MarketCap = models.Int64Ptr(eq.MarketCap)
	}
	if eq.TrailingPE != 0 {
		info.TrailingPE = models.Float64Ptr(eq.TrailingPE)
	}
	if eq.FiftyTwoWeekHigh != 0 {
		info.FiftyTwoWeekHigh = models.Float64Ptr(eq.FiftyTwoWeekHigh)
	}
	if eq.FiftyTwoWeekLow != 0 {
		info.FiftyTwoWeekLow = models.Float64Ptr(eq.FiftyTwoWeekLow)
	}
	return info
}
