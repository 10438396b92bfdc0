// Package series provides the validated, time-ordered OHLCV bar sequence
// that indicators and the simulator read from.
package series

import (
	"math"

	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// BarSeries is an immutable, time-ordered sequence of OHLCV bars. Timestamps
// are strictly increasing and every numeric field is finite. Construct it
// with New; the zero value is not usable.
type BarSeries struct {
	bars []types.Bar
}

// New validates the given bars and returns a BarSeries backed by a private
// copy of them. It fails if the slice is empty, timestamps are not strictly
// increasing, or any bar carries a non-finite value, a negative close/volume,
// or a high below its low.
func New(bars []types.Bar) (*BarSeries, error) {
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySeries, "bar series must not be empty")
	}

	for i, bar := range bars {
		if err := validateBar(i, bar); err != nil {
			return nil, err
		}

		if i == 0 {
			continue
		}

		if bar.Time.Equal(bars[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeDuplicateBar, "duplicate timestamp %s at index %d", bar.Time, i)
		}

		if bar.Time.Before(bars[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeUnsortedSeries, "bar at index %d (%s) is earlier than its predecessor (%s)", i, bar.Time, bars[i-1].Time)
		}
	}

	owned := make([]types.Bar, len(bars))
	copy(owned, bars)

	return &BarSeries{bars: owned}, nil
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int {
	return len(s.bars)
}

// At returns the bar at index i. The caller must keep i within [0, Len()).
func (s *BarSeries) At(i int) types.Bar {
	return s.bars[i]
}

// First returns the earliest bar in the series.
func (s *BarSeries) First() types.Bar {
	return s.bars[0]
}

// Last returns the latest bar in the series.
func (s *BarSeries) Last() types.Bar {
	return s.bars[len(s.bars)-1]
}

// Closes returns a copy of the close prices, aligned with bar indices.
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, bar := range s.bars {
		closes[i] = bar.Close
	}

	return closes
}

func validateBar(i int, bar types.Bar) error {
	if bar.Time.IsZero() {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at index %d has a zero timestamp", i)
	}

	fields := map[string]float64{
		"open":   bar.Open,
		"high":   bar.High,
		"low":    bar.Low,
		"close":  bar.Close,
		"volume": bar.Volume,
	}

	for name, value := range fields {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return errors.Newf(errors.ErrCodeInvalidBar, "bar at index %d has non-finite %s", i, name)
		}
	}

	if bar.Close < 0 {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at index %d has negative close %f", i, bar.Close)
	}

	if bar.Volume < 0 {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at index %d has negative volume %f", i, bar.Volume)
	}

	if bar.High < bar.Low {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at index %d has high %f below low %f", i, bar.High, bar.Low)
	}

	return nil
}
