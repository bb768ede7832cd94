// Package indicators provides technical indicator calculations with parallel processing.
package indicators

import (
	"context"
	"fmt"
	"sync"

	apperrors "stock-dashboard/internal/errors"
	"stock-dashboard/internal/models"
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(bars []models.PriceBar) ([]float64, error)
	Period() int
}

// Names of the indicators the dashboard reports.
const (
	NameMA5  = "SMA_5"
	NameMA20 = "SMA_20"
	NameMA60 = "SMA_60"
	NameRSI  = "RSI_14"
)

// Set holds per-bar indicator values aligned index-for-index with the series.
// Entries without enough history are Undefined. A Set is never mutated after
// Compute returns it.
type Set struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
	MA5    []float64 `json:"ma5"`
	MA20   []float64 `json:"ma20"`
	MA60   []float64 `json:"ma60"`
	RSI    []float64 `json:"rsi"`
}

// Len returns the number of bars covered.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Closes)
}

// Snapshot holds the values at the last bar. Undefined fields are NaN.
type Snapshot struct {
	Close float64
	MA5   float64
	MA20  float64
	MA60  float64
	RSI   float64
}

// Latest returns the values at the last bar. When no indicator is defined
// there it returns the snapshot together with ErrInsufficientHistory.
func (s *Set) Latest() (Snapshot, error) {
	n := s.Len()
	if n == 0 {
		return Snapshot{Close: Undefined, MA5: Undefined, MA20: Undefined, MA60: Undefined, RSI: Undefined},
			apperrors.ErrInsufficientHistory
	}
	last := n - 1
	snap := Snapshot{
		Close: s.Closes[last],
		MA5:   s.MA5[last],
		MA20:  s.MA20[last],
		MA60:  s.MA60[last],
		RSI:   s.RSI[last],
	}
	if !IsDefined(snap.MA5) && !IsDefined(snap.MA20) && !IsDefined(snap.MA60) && !IsDefined(snap.RSI) {
		return snap, apperrors.ErrInsufficientHistory
	}
	return snap, nil
}

// Engine provides parallel indicator calculation using a worker pool.
type Engine struct {
	workers    int
	indicators map[string]Indicator
	mu         sync.RWMutex
}

// NewEngine creates a new indicator engine with the specified number of workers.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		workers:    workers,
		indicators: make(map[string]Indicator),
	}
}

// NewDefaultEngine returns an engine with MA5, MA20, MA60 and RSI(14) registered.
func NewDefaultEngine() *Engine {
	e := NewEngine(4)
	e.RegisterIndicator(NewSMA(5))
	e.RegisterIndicator(NewSMA(20))
	e.RegisterIndicator(NewSMA(60))
	e.RegisterIndicator(NewRSI(14))
	return e
}

// RegisterIndicator registers a single-value indicator.
func (e *Engine) RegisterIndicator(ind Indicator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indicators[ind.Name()] = ind
}

// ListIndicators returns the names of all registered indicators.
func (e *Engine) ListIndicators() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.indicators))
	for name := range e.indicators {
		names = append(names, name)
	}
	return names
}

// CalculateAll calculates all registered indicators in parallel. Indicators
// that lack history come back as fully Undefined slices rather than errors.
func (e *Engine) CalculateAll(ctx context.Context, bars []models.PriceBar) (map[string][]float64, error) {
	e.mu.RLock()
	indicators := make([]Indicator, 0, len(e.indicators))
	for _, ind := range e.indicators {
		indicators = append(indicators, ind)
	}
	e.mu.RUnlock()

	results := make(map[string][]float64, len(indicators))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	work := make(chan Indicator, len(indicators))

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				values, err := ind.Calculate(bars)
				mu.Lock()
				switch {
				case err == nil:
					results[ind.Name()] = values
				case err == ErrInsufficientData:
					results[ind.Name()] = undefinedSeries(len(bars))
				case firstErr == nil:
					firstErr = fmt.Errorf("%s: %w", ind.Name(), err)
				}
				mu.Unlock()
			}
		}()
	}

	for _, ind := range indicators {
		work <- ind
	}
	close(work)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// Compute derives the dashboard indicator set from a price series. The input
// is never modified.
func (e *Engine) Compute(ctx context.Context, series *models.PriceSeries) (*Set, error) {
	var bars []models.PriceBar
	symbol := ""
	if series != nil {
		bars = series.Bars
		symbol = series.Symbol
	}

	set := &Set{
		Symbol: symbol,
		Closes: closePrices(bars),
	}

	// Fewer than two bars cannot produce any indicator.
	if len(bars) < 2 {
		set.MA5 = undefinedSeries(len(bars))
		set.MA20 = undefinedSeries(len(bars))
		set.MA60 = undefinedSeries(len(bars))
		set.RSI = undefinedSeries(len(bars))
		return set, nil
	}

	results, err := e.CalculateAll(ctx, bars)
	if err != nil {
		return nil, err
	}

	set.MA5 = pick(results, NameMA5, len(bars))
	set.MA20 = pick(results, NameMA20, len(bars))
	set.MA60 = pick(results, NameMA60, len(bars))
	set.RSI = pick(results, NameRSI, len(bars))
	return set, nil
}

func pick(results map[string][]float64, name string, n int) []float64 {
	if v, ok := results[name]; ok {
		return v
	}
	return undefinedSeries(n)
}

var defaultEngine = NewDefaultEngine()

// Compute runs the default engine over series.
func Compute(series *models.PriceSeries) *Set {
	set, err := defaultEngine.Compute(context.Background(), series)
	if err != nil {
		// Background context and fixed periods: unreachable in practice.
		var bars []models.PriceBar
		if series != nil {
			bars = series.Bars
		}
		n := len(bars)
		return &Set{
			Closes: closePrices(bars),
			MA5:    undefinedSeries(n),
			MA20:   undefinedSeries(n),
			MA60:   undefinedSeries(n),
			RSI:    undefinedSeries(n),
		}
	}
	return set
}
