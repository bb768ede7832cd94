package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stock-dashboard/internal/models"
)

func TestSummarize(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	series := &models.PriceSeries{
		Symbol: "AAPL",
		Bars: []models.PriceBar{
			{Date: day, Close: 100, Volume: 1000},
			{Date: day.AddDate(0, 0, 1), Close: 105, Volume: 2000},
			{Date: day.AddDate(0, 0, 2), Close: 110, Volume: 3000},
		},
	}

	s, ok := Summarize(series)
	assert.True(t, ok)
	assert.Equal(t, 110.0, s.LatestClose)
	assert.Equal(t, 10.0, s.Change)
	assert.InDelta(t, 10.0, s.ChangePercent, 1e-9)
	assert.Equal(t, 2000.0, s.AverageVolume)
}

func TestSummarize_Empty(t *testing.T) {
	_, ok := Summarize(&models.PriceSeries{Symbol: "X"})
	assert.False(t, ok)

	_, ok = Summarize(nil)
	assert.False(t, ok)
}
