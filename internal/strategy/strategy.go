// Package strategy turns precomputed indicator lines into buy/sell signals.
// The evaluator is stateless across bars: every decision reads only the
// current and previous bar's line values.
package strategy

import (
	"github.com/quantfold/quantfold/internal/indicator"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// Evaluator votes over the four indicator rule families. Any single rule
// firing is enough to emit a signal; the first matching rule in a fixed
// order names the signal's reason.
type Evaluator struct {
	series   *series.BarSeries
	macd     indicator.Output
	rsi      indicator.Output
	stoch    indicator.Output
	boll     indicator.Output
	rsiLower float64
	rsiUpper float64
}

// NewEvaluator creates an Evaluator over a bar series and the indicator
// outputs computed on it. The RSI thresholds must satisfy 0 < lower < upper
// < 100.
func NewEvaluator(s *series.BarSeries, outputs map[types.IndicatorType]indicator.Output, rsiLower, rsiUpper float64) (*Evaluator, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeEmptySeries, "bar series is nil")
	}

	if rsiLower <= 0 || rsiUpper >= 100 || rsiLower >= rsiUpper {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "rsi thresholds must satisfy 0 < lower < upper < 100, got lower=%f upper=%f", rsiLower, rsiUpper)
	}

	for _, name := range []types.IndicatorType{
		types.IndicatorTypeMACD,
		types.IndicatorTypeRSI,
		types.IndicatorTypeStochasticOscillator,
		types.IndicatorTypeBollingerBands,
	} {
		if _, ok := outputs[name]; !ok {
			return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "missing output for indicator %s", name)
		}
	}

	return &Evaluator{
		series:   s,
		macd:     outputs[types.IndicatorTypeMACD],
		rsi:      outputs[types.IndicatorTypeRSI],
		stoch:    outputs[types.IndicatorTypeStochasticOscillator],
		boll:     outputs[types.IndicatorTypeBollingerBands],
		rsiLower: rsiLower,
		rsiUpper: rsiUpper,
	}, nil
}

// Evaluate returns the signal for bar i. Buy rules are only checked while
// flat and sell rules only while long, so the two sets can never both fire
// on the same bar.
func (e *Evaluator) Evaluate(i int, flat bool) types.Signal {
	bar := e.series.At(i)

	signal := types.Signal{
		Time:     bar.Time,
		Type:     types.SignalTypeNoAction,
		BarIndex: i,
	}

	if flat {
		if reason, raw, ok := e.buyReason(i); ok {
			signal.Type = types.SignalTypeBuy
			signal.Reason = reason
			signal.RawValue = raw
		}

		return signal
	}

	if reason, raw, ok := e.sellReason(i); ok {
		signal.Type = types.SignalTypeSell
		signal.Reason = reason
		signal.RawValue = raw
	}

	return signal
}

func (e *Evaluator) buyReason(i int) (string, map[string]float64, bool) {
	if crossedAbove(e.macd[indicator.LineMACD], e.macd[indicator.LineMACDSignal], i) {
		m, _ := e.macd[indicator.LineMACD].Value(i)
		sig, _ := e.macd[indicator.LineMACDSignal].Value(i)

		return types.OrderReasonMACDCrossUp, map[string]float64{
			string(indicator.LineMACD):       m,
			string(indicator.LineMACDSignal): sig,
		}, true
	}

	if v, ok := e.rsi[indicator.LineRSI].Value(i); ok && v < e.rsiLower {
		return types.OrderReasonRSIOversold, map[string]float64{
			string(indicator.LineRSI): v,
		}, true
	}

	if crossedAbove(e.stoch[indicator.LineSlowK], e.stoch[indicator.LineSlowD], i) {
		k, _ := e.stoch[indicator.LineSlowK].Value(i)
		d, _ := e.stoch[indicator.LineSlowD].Value(i)

		return types.OrderReasonStochCrossUp, map[string]float64{
			string(indicator.LineSlowK): k,
			string(indicator.LineSlowD): d,
		}, true
	}

	if lower, ok := e.boll[indicator.LineLowerBand].Value(i); ok {
		if close := e.series.At(i).Close; close < lower {
			return types.OrderReasonBelowLowerBand, map[string]float64{
				string(indicator.LineLowerBand): lower,
				"close":                         close,
			}, true
		}
	}

	return "", nil, false
}

func (e *Evaluator) sellReason(i int) (string, map[string]float64, bool) {
	if crossedAbove(e.macd[indicator.LineMACDSignal], e.macd[indicator.LineMACD], i) {
		m, _ := e.macd[indicator.LineMACD].Value(i)
		sig, _ := e.macd[indicator.LineMACDSignal].Value(i)

		return types.OrderReasonMACDCrossDown, map[string]float64{
			string(indicator.LineMACD):       m,
			string(indicator.LineMACDSignal): sig,
		}, true
	}

	if v, ok := e.rsi[indicator.LineRSI].Value(i); ok && v > e.rsiUpper {
		return types.OrderReasonRSIOverbought, map[string]float64{
			string(indicator.LineRSI): v,
		}, true
	}

	if crossedAbove(e.stoch[indicator.LineSlowD], e.stoch[indicator.LineSlowK], i) {
		k, _ := e.stoch[indicator.LineSlowK].Value(i)
		d, _ := e.stoch[indicator.LineSlowD].Value(i)

		return types.OrderReasonStochCrossDown, map[string]float64{
			string(indicator.LineSlowK): k,
			string(indicator.LineSlowD): d,
		}, true
	}

	if upper, ok := e.boll[indicator.LineUpperBand].Value(i); ok {
		if close := e.series.At(i).Close; close > upper {
			return types.OrderReasonAboveUpperBand, map[string]float64{
				string(indicator.LineUpperBand): upper,
				"close":                         close,
			}, true
		}
	}

	return "", nil, false
}

// crossedAbove reports whether line a moved from at-or-below line b on the
// previous bar to strictly above it on bar i. All four values must be
// defined; an undefined value never counts as a crossing.
func crossedAbove(a, b indicator.Line, i int) bool {
	if i < 1 {
		return false
	}

	aPrev, ok := a.Value(i - 1)
	if !ok {
		return false
	}

	bPrev, ok := b.Value(i - 1)
	if !ok {
		return false
	}

	aCur, ok := a.Value(i)
	if !ok {
		return false
	}

	bCur, ok := b.Value(i)
	if !ok {
		return false
	}

	return aPrev <= bPrev && aCur > bCur
}
