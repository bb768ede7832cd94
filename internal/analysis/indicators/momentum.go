package indicators

import (
	"fmt"

	"stock-dashboard/internal/models"
)

// RSI calculates the Relative Strength Index from simple trailing means of
// gains and losses (no Wilder smoothing).
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI_%d", r.period)
}

func (r *RSI) Period() int {
	return r.period
}

// Calculate returns one value per bar. Index i is defined once period deltas
// exist, i.e. from i == period. A window with no losses yields 100; a window
// with neither gains nor losses stays Undefined.
func (r *RSI) Calculate(bars []models.PriceBar) ([]float64, error) {
	if r.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(bars) < r.period+1 {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	result := undefinedSeries(n)
	closes := closePrices(bars)

	gains := make([]float64, n)
	losses := make([]float64, n)

	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := r.period; i < n; i++ {
		avgGain := mean(gains[i-r.period+1 : i+1])
		avgLoss := mean(losses[i-r.period+1 : i+1])
		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return Undefined
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
