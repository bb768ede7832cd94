// Package analysis provides summary metrics over a loaded price series.
package analysis

import (
	"stock-dashboard/internal/models"
)

// Summary holds the three headline dashboard metrics.
type Summary struct {
	LatestClose   float64 `json:"latest_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	AverageVolume float64 `json:"average_volume"`
}

// Summarize computes the latest close, the change against the first bar of the
// window and the mean volume. It returns false for an empty series.
func Summarize(series *models.PriceSeries) (Summary, bool) {
	if series.Len() == 0 {
		return Summary{}, false
	}

	first := series.Bars[0]
	last := series.Bars[len(series.Bars)-1]

	s := Summary{
		LatestClose: last.Close,
		Change:      last.Close - first.Close,
	}
	if first.Close != 0 {
		s.ChangePercent = s.Change / first.Close * 100
	}

	var total float64
	for _, b := range series.Bars {
		total += float64(b.Volume)
	}
	s.AverageVolume = total / float64(len(series.Bars))

	return s, true
}
