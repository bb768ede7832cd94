package indicators

import (
	"fmt"

	"stock-dashboard/internal/models"
)

// SMA calculates Simple Moving Average.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

// Calculate returns one value per bar; the first period-1 entries are Undefined.
func (s *SMA) Calculate(bars []models.PriceBar) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(bars) < s.period {
		return nil, ErrInsufficientData
	}

	result := undefinedSeries(len(bars))
	closes := closePrices(bars)

	for i := s.period - 1; i < len(bars); i++ {
		result[i] = mean(closes[i-s.period+1 : i+1])
	}

	return result, nil
}
