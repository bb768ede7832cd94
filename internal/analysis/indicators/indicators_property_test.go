package indicators

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stock-dashboard/internal/models"
)

// Property: moving averages equal the arithmetic mean of the trailing window
// and stay undefined until the window is full.
// Property: RSI stays within [0, 100] whenever it is defined.

// closesGen generates close price slices of a length in [minLen, maxLen].
func closesGen(minLen, maxLen int) gopter.Gen {
	return gen.IntRange(minLen, maxLen).FlatMap(func(v interface{}) gopter.Gen {
		return gen.SliceOfN(v.(int), gen.Float64Range(1.0, 1000.0))
	}, reflect.TypeOf([]float64{}))
}

// barsFromCloses builds a chronologically ordered series.
func barsFromCloses(closes []float64) []models.PriceBar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    math.Max(c-1, 0.01),
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestProperty_MAEqualsTrailingMean(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("MA60[i] is the mean of close[i-59..i] and undefined before", prop.ForAll(
		func(closes []float64) bool {
			set := Compute(&models.PriceSeries{Symbol: "TEST", Bars: barsFromCloses(closes)})
			if set.Len() != len(closes) || len(set.MA60) != len(closes) {
				return false
			}
			for i, v := range set.MA60 {
				if i < 59 {
					if IsDefined(v) {
						return false
					}
					continue
				}
				want := 0.0
				for _, c := range closes[i-59 : i+1] {
					want += c
				}
				want /= 60
				if !almostEqual(v, want) {
					t.Logf("MA60[%d] = %f, want %f", i, v, want)
					return false
				}
			}
			return true
		},
		closesGen(60, 120),
	))

	properties.Property("MA5 and MA20 warm up at index period-1", prop.ForAll(
		func(closes []float64) bool {
			set := Compute(&models.PriceSeries{Symbol: "TEST", Bars: barsFromCloses(closes)})
			for i := range closes {
				if IsDefined(set.MA5[i]) != (i >= 4) {
					return false
				}
				if IsDefined(set.MA20[i]) != (i >= 19) {
					return false
				}
			}
			return true
		},
		closesGen(2, 80),
	))

	properties.TestingRun(t)
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100] and undefined for the first 14 bars", prop.ForAll(
		func(closes []float64) bool {
			set := Compute(&models.PriceSeries{Symbol: "TEST", Bars: barsFromCloses(closes)})
			for i, v := range set.RSI {
				if i < 14 {
					if IsDefined(v) {
						return false
					}
					continue
				}
				if !IsDefined(v) {
					// Only a window with no movement at all is left undefined.
					continue
				}
				if v < 0 || v > 100 {
					t.Logf("RSI[%d] = %f out of bounds", i, v)
					return false
				}
			}
			return true
		},
		closesGen(2, 100),
	))

	properties.Property("RSI is 100 on strictly rising windows", prop.ForAll(
		func(steps []float64) bool {
			closes := make([]float64, len(steps))
			price := 10.0
			for i, s := range steps {
				price += s
				closes[i] = price
			}
			set := Compute(&models.PriceSeries{Symbol: "UP", Bars: barsFromCloses(closes)})
			for i := 14; i < len(closes); i++ {
				if set.RSI[i] != 100 {
					return false
				}
			}
			return true
		},
		gen.IntRange(15, 60).FlatMap(func(v interface{}) gopter.Gen {
			return gen.SliceOfN(v.(int), gen.Float64Range(0.01, 5.0))
		}, reflect.TypeOf([]float64{})),
	))

	properties.TestingRun(t)
}

func TestProperty_InputNotMutated(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("Compute leaves the series untouched", prop.ForAll(
		func(closes []float64) bool {
			bars := barsFromCloses(closes)
			original := make([]models.PriceBar, len(bars))
			copy(original, bars)

			Compute(&models.PriceSeries{Symbol: "TEST", Bars: bars})
			return reflect.DeepEqual(original, bars)
		},
		closesGen(0, 70),
	))

	properties.TestingRun(t)
}
