package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// Stochastic represents the Stochastic Oscillator (KDJ variant). The J line
// is 3K - 2D and is deliberately not clamped to [0, 100]: the overshoot past
// the K/D range is part of the signal.
type Stochastic struct {
	fastKPeriod int
	slowKPeriod int
	slowDPeriod int
}

// NewStochastic creates a Stochastic Oscillator with the given raw %K window
// and the SMA smoothing periods for slow %K and %D.
func NewStochastic(fastKPeriod, slowKPeriod, slowDPeriod int) (*Stochastic, error) {
	if fastKPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "fastKPeriod must be a positive integer, got %d", fastKPeriod)
	}

	if slowKPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "slowKPeriod must be a positive integer, got %d", slowKPeriod)
	}

	if slowDPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "slowDPeriod must be a positive integer, got %d", slowDPeriod)
	}

	return &Stochastic{
		fastKPeriod: fastKPeriod,
		slowKPeriod: slowKPeriod,
		slowDPeriod: slowDPeriod,
	}, nil
}

// Name returns the name of the indicator.
func (st *Stochastic) Name() types.IndicatorType {
	return types.IndicatorTypeStochasticOscillator
}

// Warmup returns the first bar index with defined %D (and therefore J)
// output: the raw %K window plus both SMA smoothing windows.
func (st *Stochastic) Warmup() int {
	return st.fastKPeriod + st.slowKPeriod + st.slowDPeriod - 3
}

// Compute calculates slow %K, %D and J over the whole series. Rolling
// highest-high/lowest-low windows are tracked with monotonic deques so the
// whole computation is O(n).
func (st *Stochastic) Compute(s *series.BarSeries) (Output, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeIndicatorCalculation, "bar series is nil")
	}

	n := s.Len()
	rawK := undefinedLine(n)

	// Deques hold indices of candidate extremes in the current window.
	var maxDeque, minDeque []int

	prevRawK := optional.None[float64]()

	for i := 0; i < n; i++ {
		bar := s.At(i)

		for len(maxDeque) > 0 && s.At(maxDeque[len(maxDeque)-1]).High <= bar.High {
			maxDeque = maxDeque[:len(maxDeque)-1]
		}

		maxDeque = append(maxDeque, i)

		for len(minDeque) > 0 && s.At(minDeque[len(minDeque)-1]).Low >= bar.Low {
			minDeque = minDeque[:len(minDeque)-1]
		}

		minDeque = append(minDeque, i)

		windowStart := i - st.fastKPeriod + 1
		if maxDeque[0] < windowStart {
			maxDeque = maxDeque[1:]
		}

		if minDeque[0] < windowStart {
			minDeque = minDeque[1:]
		}

		if windowStart < 0 {
			continue
		}

		highest := s.At(maxDeque[0]).High
		lowest := s.At(minDeque[0]).Low

		var k float64

		if highest == lowest {
			// Flat window: hold the previous %K, or 50 when none exists yet.
			k = prevRawK.TakeOr(50)
		} else {
			k = 100 * (bar.Close - lowest) / (highest - lowest)
		}

		rawK[i] = optional.Some(k)
		prevRawK = optional.Some(k)
	}

	slowK := smaLine(rawK, st.slowKPeriod)
	slowD := smaLine(slowK, st.slowDPeriod)
	jLine := undefinedLine(n)

	// Gate slow %K at the common warmup index so the K/D/J triple becomes
	// defined together; %D and J already start there.
	for i := 0; i < st.Warmup() && i < n; i++ {
		slowK[i] = optional.None[float64]()
	}

	for i := 0; i < n; i++ {
		k, kOK := slowK.Value(i)
		d, dOK := slowD.Value(i)

		if kOK && dOK {
			jLine[i] = optional.Some(3*k - 2*d)
		}
	}

	return Output{
		LineSlowK: slowK,
		LineSlowD: slowD,
		LineJ:     jLine,
	}, nil
}
