// Package indicator computes technical indicators over a bar series. Each
// indicator produces fully materialized output lines aligned with the series
// by absolute bar index; there is no implicit current/previous-bar lookback
// state.
package indicator

import (
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
)

// LineID identifies one output line of an indicator.
type LineID string

const (
	LineMACD       LineID = "macd"
	LineMACDSignal LineID = "macd_signal"
	LineMACDHist   LineID = "macd_hist"
	LineRSI        LineID = "rsi"
	LineSlowK      LineID = "slow_k"
	LineSlowD      LineID = "slow_d"
	LineJ          LineID = "j"
	LineUpperBand  LineID = "upper_band"
	LineMiddleBand LineID = "middle_band"
	LineLowerBand  LineID = "lower_band"
)

// Output holds the named output lines of one indicator, each aligned 1:1
// with the bar series the indicator was computed over.
type Output map[LineID]Line

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Warmup returns the index of the first defined output position. All
	// positions before it are undefined for any input series.
	Warmup() int
	// Compute calculates the indicator's output lines over the whole series.
	// A series shorter than the warmup period is not an error: the lines are
	// simply undefined everywhere.
	Compute(s *series.BarSeries) (Output, error)
}
