// Package chart renders price series as terminal candlestick charts.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stock-dashboard/internal/models"
)

// Glyphs used for each cell.
const (
	GlyphBody  = "┃"
	GlyphWick  = "│"
	GlyphEmpty = " "
)

const (
	defaultHeight  = 16
	defaultMaxBars = 60
	axisWidth      = 10
	dateLayout     = "2006-01-02"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Options controls the chart size and styling.
type Options struct {
	// Height is the number of price rows.
	Height int
	// MaxBars caps the number of candles; older bars are dropped.
	MaxBars int
	Color   bool
}

// Chart is a rendered candlestick chart.
type Chart struct {
	Title string
	// Grid holds the uncolored glyph for each row (top first) and candle.
	Grid   [][]string
	Up     []bool
	Levels []float64
	First  string
	Last   string
	color  bool
}

// Candlestick lays out series as a grid of candles. Up bars (close >= open)
// are green and down bars red when color is enabled.
func Candlestick(series *models.PriceSeries, opts Options) Chart {
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.MaxBars <= 0 {
		opts.MaxBars = defaultMaxBars
	}

	c := Chart{color: opts.Color}
	if series == nil {
		return c
	}
	c.Title = series.Symbol + " candlestick"

	bars := series.Tail(opts.MaxBars)
	if len(bars) == 0 {
		return c
	}
	c.First = bars[0].Date.Format(dateLayout)
	c.Last = bars[len(bars)-1].Date.Format(dateLayout)

	lo, hi := priceRange(bars)
	step := (hi - lo) / float64(opts.Height)

	c.Grid = make([][]string, opts.Height)
	c.Levels = make([]float64, opts.Height)
	for r := 0; r < opts.Height; r++ {
		top := hi - float64(r)*step
		bottom := top - step
		c.Levels[r] = top
		row := make([]string, len(bars))
		for i, b := range bars {
			row[i] = cell(b, bottom, top)
		}
		c.Grid[r] = row
	}

	c.Up = make([]bool, len(bars))
	for i, b := range bars {
		c.Up[i] = b.Close >= b.Open
	}
	return c
}

// priceRange returns the low/high envelope, widened when the series is flat.
func priceRange(bars []models.PriceBar) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range bars {
		lo = math.Min(lo, math.Min(b.Low, math.Min(b.Open, b.Close)))
		hi = math.Max(hi, math.Max(b.High, math.Max(b.Open, b.Close)))
	}
	if hi-lo < 1e-9 {
		pad := math.Max(math.Abs(hi)*0.01, 0.01)
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

func cell(b models.PriceBar, bottom, top float64) string {
	bodyLo, bodyHi := math.Min(b.Open, b.Close), math.Max(b.Open, b.Close)
	wickLo, wickHi := math.Min(b.Low, bodyLo), math.Max(b.High, bodyHi)
	switch {
	case overlaps(bodyLo, bodyHi, bottom, top):
		return GlyphBody
	case overlaps(wickLo, wickHi, bottom, top):
		return GlyphWick
	default:
		return GlyphEmpty
	}
}

func overlaps(lo, hi, bottom, top float64) bool {
	return hi >= bottom && lo <= top
}

// String renders the chart with a price axis and a date footer.
func (c Chart) String() string {
	if len(c.Grid) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(c.style(titleStyle, c.Title))
	sb.WriteString("\n")

	for r, row := range c.Grid {
		sb.WriteString(c.style(axisStyle, fmt.Sprintf("%*.2f ┤", axisWidth, c.Levels[r])))
		for i, g := range row {
			switch {
			case g == GlyphEmpty:
				sb.WriteString(g)
			case c.Up[i]:
				sb.WriteString(c.style(upStyle, g))
			default:
				sb.WriteString(c.style(downStyle, g))
			}
		}
		sb.WriteString("\n")
	}

	width := len(c.Up)
	pad := strings.Repeat(" ", axisWidth+2)
	sb.WriteString(pad)
	sb.WriteString(c.style(axisStyle, footer(c.First, c.Last, width)))
	sb.WriteString("\n")
	return sb.String()
}

func footer(first, last string, width int) string {
	gap := width - len(first) - len(last)
	if gap < 1 {
		return first + " .. " + last
	}
	return first + strings.Repeat(" ", gap) + last
}

func (c Chart) style(s lipgloss.Style, text string) string {
	if !c.color {
		return text
	}
	return s.Render(text)
}
