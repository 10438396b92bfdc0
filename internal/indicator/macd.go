package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// MACD represents the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a MACD indicator. fastPeriod must be smaller than
// slowPeriod and every period must be positive.
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) (*MACD, error) {
	if fastPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "fastPeriod must be a positive integer, got %d", fastPeriod)
	}

	if slowPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "slowPeriod must be a positive integer, got %d", slowPeriod)
	}

	if signalPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "signalPeriod must be a positive integer, got %d", signalPeriod)
	}

	if fastPeriod >= slowPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "fastPeriod (%d) must be smaller than slowPeriod (%d)", fastPeriod, slowPeriod)
	}

	return &MACD{
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		signalPeriod: signalPeriod,
	}, nil
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Warmup returns the first bar index with defined output. The MACD line,
// signal line and histogram become defined together at slowPeriod +
// signalPeriod - 1 so that callers always see a consistent triple.
func (m *MACD) Warmup() int {
	return m.slowPeriod + m.signalPeriod - 1
}

// Compute calculates the MACD line (fast EMA minus slow EMA), the signal
// line (EMA of the MACD line) and the histogram (their difference) over the
// whole series.
func (m *MACD) Compute(s *series.BarSeries) (Output, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeIndicatorCalculation, "bar series is nil")
	}

	closes := lineFromFloats(s.Closes())
	n := len(closes)

	fastEMA := emaLine(closes, m.fastPeriod)
	slowEMA := emaLine(closes, m.slowPeriod)

	macdLine := undefinedLine(n)

	for i := 0; i < n; i++ {
		fast, fastOK := fastEMA.Value(i)
		slow, slowOK := slowEMA.Value(i)

		if fastOK && slowOK {
			macdLine[i] = optional.Some(fast - slow)
		}
	}

	signalLine := emaLine(macdLine, m.signalPeriod)
	histLine := undefinedLine(n)

	// Gate all three lines at the common warmup index.
	for i := 0; i < m.Warmup() && i < n; i++ {
		macdLine[i] = optional.None[float64]()
		signalLine[i] = optional.None[float64]()
	}

	for i := 0; i < n; i++ {
		macd, macdOK := macdLine.Value(i)
		signal, signalOK := signalLine.Value(i)

		if macdOK && signalOK {
			histLine[i] = optional.Some(macd - signal)
		}
	}

	return Output{
		LineMACD:       macdLine,
		LineMACDSignal: signalLine,
		LineMACDHist:   histLine,
	}, nil
}
