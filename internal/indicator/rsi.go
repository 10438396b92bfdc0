package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates an RSI indicator with the given period.
func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &RSI{period: period}, nil
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Warmup returns the first bar index with defined output. RSI needs period+1
// closes, so the first value appears at index period.
func (r *RSI) Warmup() int {
	return r.period
}

// Compute calculates the RSI over the whole series using Wilder's smoothing.
// A window with no losses yields 100, so the output stays within [0, 100]
// for any finite input.
func (r *RSI) Compute(s *series.BarSeries) (Output, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeIndicatorCalculation, "bar series is nil")
	}

	n := s.Len()
	out := undefinedLine(n)

	if n <= r.period {
		return Output{LineRSI: out}, nil
	}

	closes := s.Closes()

	// First averages are plain means over the initial window.
	var avgGain, avgLoss float64

	for i := 1; i <= r.period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}

	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)
	out[r.period] = optional.Some(rsiFromAverages(avgGain, avgLoss))

	// Subsequent averages use Wilder's smoothing method.
	for i := r.period + 1; i < n; i++ {
		change := closes[i] - closes[i-1]

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(r.period-1) + gain) / float64(r.period)
		avgLoss = (avgLoss*float64(r.period-1) + loss) / float64(r.period)
		out[i] = optional.Some(rsiFromAverages(avgGain, avgLoss))
	}

	return Output{LineRSI: out}, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100 // Perfect uptrend
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
