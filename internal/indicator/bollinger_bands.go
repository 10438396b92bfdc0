package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// BollingerBands implements the Indicator interface for Bollinger Bands.
type BollingerBands struct {
	period int     // Number of periods for the moving average
	stdDev float64 // Number of standard deviations for the band width
}

// NewBollingerBands creates a Bollinger Bands indicator with the given SMA
// period and deviation multiplier.
func NewBollingerBands(period int, stdDev float64) (*BollingerBands, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	if stdDev <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidDeviation, "stdDev must be a positive number, got %f", stdDev)
	}

	return &BollingerBands{
		period: period,
		stdDev: stdDev,
	}, nil
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Warmup returns the first bar index with defined output.
func (bb *BollingerBands) Warmup() int {
	return bb.period - 1
}

// Compute calculates the middle band (SMA of close), and the upper and lower
// bands at stdDev population standard deviations, using rolling sums.
func (bb *BollingerBands) Compute(s *series.BarSeries) (Output, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeIndicatorCalculation, "bar series is nil")
	}

	n := s.Len()
	upper := undefinedLine(n)
	middle := undefinedLine(n)
	lower := undefinedLine(n)

	if n < bb.period {
		return Output{
			LineUpperBand:  upper,
			LineMiddleBand: middle,
			LineLowerBand:  lower,
		}, nil
	}

	closes := s.Closes()

	var sum, sumSq float64

	for i, c := range closes {
		sum += c
		sumSq += c * c

		if i >= bb.period {
			old := closes[i-bb.period]
			sum -= old
			sumSq -= old * old
		}

		if i < bb.period-1 {
			continue
		}

		mean := sum / float64(bb.period)

		// Population variance; clamp tiny negative values from float
		// cancellation to zero so a constant series yields width 0.
		variance := sumSq/float64(bb.period) - mean*mean
		if variance < 0 {
			variance = 0
		}

		width := bb.stdDev * math.Sqrt(variance)

		middle[i] = optional.Some(mean)
		upper[i] = optional.Some(mean + width)
		lower[i] = optional.Some(mean - width)
	}

	return Output{
		LineUpperBand:  upper,
		LineMiddleBand: middle,
		LineLowerBand:  lower,
	}, nil
}
