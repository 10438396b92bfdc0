package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantfold/quantfold/internal/indicator"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func newCloseSeries(closes ...float64) *series.BarSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}

	s, err := series.New(bars)
	if err != nil {
		panic(err)
	}

	return s
}

func definedLine(values ...float64) indicator.Line {
	line := make(indicator.Line, len(values))
	for i, v := range values {
		line[i] = optional.Some(v)
	}

	return line
}

func undefinedLine(n int) indicator.Line {
	return make(indicator.Line, n)
}

// quietOutputs returns outputs for n bars where no rule ever fires: flat
// MACD, RSI pinned at 50, flat stochastic and wide Bollinger bands around a
// close of 100.
func quietOutputs(n int) map[types.IndicatorType]indicator.Output {
	flat := make(indicator.Line, n)
	fifty := make(indicator.Line, n)
	upper := make(indicator.Line, n)
	lower := make(indicator.Line, n)

	for i := 0; i < n; i++ {
		flat[i] = optional.Some(0.0)
		fifty[i] = optional.Some(50.0)
		upper[i] = optional.Some(1000.0)
		lower[i] = optional.Some(1.0)
	}

	return map[types.IndicatorType]indicator.Output{
		types.IndicatorTypeMACD: {
			indicator.LineMACD:       flat,
			indicator.LineMACDSignal: flat,
			indicator.LineMACDHist:   flat,
		},
		types.IndicatorTypeRSI: {
			indicator.LineRSI: fifty,
		},
		types.IndicatorTypeStochasticOscillator: {
			indicator.LineSlowK: fifty,
			indicator.LineSlowD: fifty,
			indicator.LineJ:     fifty,
		},
		types.IndicatorTypeBollingerBands: {
			indicator.LineUpperBand:  upper,
			indicator.LineMiddleBand: fifty,
			indicator.LineLowerBand:  lower,
		},
	}
}

func (suite *StrategyTestSuite) newEvaluator(s *series.BarSeries, outputs map[types.IndicatorType]indicator.Output) *Evaluator {
	e, err := NewEvaluator(s, outputs, 30, 70)
	suite.Require().NoError(err)

	return e
}

func (suite *StrategyTestSuite) TestNewEvaluatorValidation() {
	s := newCloseSeries(100, 100, 100)
	outputs := quietOutputs(3)

	_, err := NewEvaluator(nil, outputs, 30, 70)
	suite.Error(err)

	_, err = NewEvaluator(s, outputs, 70, 30)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidThreshold))

	_, err = NewEvaluator(s, outputs, 0, 70)
	suite.Error(err)

	delete(outputs, types.IndicatorTypeRSI)
	_, err = NewEvaluator(s, outputs, 30, 70)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))
}

func (suite *StrategyTestSuite) TestQuietMarketEmitsNoAction() {
	s := newCloseSeries(100, 100, 100, 100)
	e := suite.newEvaluator(s, quietOutputs(4))

	for i := 0; i < s.Len(); i++ {
		signal := e.Evaluate(i, true)
		suite.Equal(types.SignalTypeNoAction, signal.Type)
		suite.Equal(i, signal.BarIndex)

		signal = e.Evaluate(i, false)
		suite.Equal(types.SignalTypeNoAction, signal.Type)
	}
}

func (suite *StrategyTestSuite) TestMACDCrossUpEmitsBuy() {
	s := newCloseSeries(100, 100, 100)
	outputs := quietOutputs(3)
	outputs[types.IndicatorTypeMACD][indicator.LineMACD] = definedLine(-1, -0.5, 0.5)
	outputs[types.IndicatorTypeMACD][indicator.LineMACDSignal] = definedLine(0, 0, 0)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(2, true)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.Equal(types.OrderReasonMACDCrossUp, signal.Reason)
	suite.InDelta(0.5, signal.RawValue[string(indicator.LineMACD)], 1e-9)

	// No crossing yet on the bar before.
	signal = e.Evaluate(1, true)
	suite.Equal(types.SignalTypeNoAction, signal.Type)
}

func (suite *StrategyTestSuite) TestMACDCrossUpIgnoredWhileLong() {
	s := newCloseSeries(100, 100, 100)
	outputs := quietOutputs(3)
	outputs[types.IndicatorTypeMACD][indicator.LineMACD] = definedLine(-1, -0.5, 0.5)
	outputs[types.IndicatorTypeMACD][indicator.LineMACDSignal] = definedLine(0, 0, 0)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(2, false)
	suite.Equal(types.SignalTypeNoAction, signal.Type)
}

func (suite *StrategyTestSuite) TestMACDCrossRequiresDefinedPreviousBar() {
	s := newCloseSeries(100, 100, 100)
	outputs := quietOutputs(3)

	macdLine := undefinedLine(3)
	macdLine[1] = optional.None[float64]()
	macdLine[2] = optional.Some(0.5)
	outputs[types.IndicatorTypeMACD][indicator.LineMACD] = macdLine
	outputs[types.IndicatorTypeMACD][indicator.LineMACDSignal] = definedLine(0, 0, 0)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(2, true)
	suite.Equal(types.SignalTypeNoAction, signal.Type)
}

func (suite *StrategyTestSuite) TestTouchThenCrossCounts() {
	// Equal on the previous bar, strictly above on the current bar.
	s := newCloseSeries(100, 100)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeMACD][indicator.LineMACD] = definedLine(0, 0.5)
	outputs[types.IndicatorTypeMACD][indicator.LineMACDSignal] = definedLine(0, 0)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, true)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.Equal(types.OrderReasonMACDCrossUp, signal.Reason)
}

func (suite *StrategyTestSuite) TestRSIOversoldEmitsBuy() {
	s := newCloseSeries(100, 100)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeRSI][indicator.LineRSI] = definedLine(50, 25)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, true)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.Equal(types.OrderReasonRSIOversold, signal.Reason)
	suite.InDelta(25.0, signal.RawValue[string(indicator.LineRSI)], 1e-9)
}

func (suite *StrategyTestSuite) TestRSIAtThresholdIsNotOversold() {
	s := newCloseSeries(100, 100)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeRSI][indicator.LineRSI] = definedLine(50, 30)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, true)
	suite.Equal(types.SignalTypeNoAction, signal.Type)
}

func (suite *StrategyTestSuite) TestStochCrossUpEmitsBuy() {
	s := newCloseSeries(100, 100)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeStochasticOscillator][indicator.LineSlowK] = definedLine(10, 30)
	outputs[types.IndicatorTypeStochasticOscillator][indicator.LineSlowD] = definedLine(20, 20)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, true)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.Equal(types.OrderReasonStochCrossUp, signal.Reason)
}

func (suite *StrategyTestSuite) TestCloseBelowLowerBandEmitsBuy() {
	s := newCloseSeries(100, 90)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeBollingerBands][indicator.LineLowerBand] = definedLine(95, 95)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, true)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.Equal(types.OrderReasonBelowLowerBand, signal.Reason)
	suite.InDelta(90.0, signal.RawValue["close"], 1e-9)
}

func (suite *StrategyTestSuite) TestRuleOrderPrefersMACDCross() {
	// Both the MACD cross and the RSI rule fire; the MACD rule is reported.
	s := newCloseSeries(100, 100)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeMACD][indicator.LineMACD] = definedLine(-1, 0.5)
	outputs[types.IndicatorTypeMACD][indicator.LineMACDSignal] = definedLine(0, 0)
	outputs[types.IndicatorTypeRSI][indicator.LineRSI] = definedLine(50, 25)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, true)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.Equal(types.OrderReasonMACDCrossUp, signal.Reason)
}

func (suite *StrategyTestSuite) TestMACDCrossDownEmitsSell() {
	s := newCloseSeries(100, 100)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeMACD][indicator.LineMACD] = definedLine(0.5, -0.5)
	outputs[types.IndicatorTypeMACD][indicator.LineMACDSignal] = definedLine(0, 0)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, false)
	suite.Equal(types.SignalTypeSell, signal.Type)
	suite.Equal(types.OrderReasonMACDCrossDown, signal.Reason)

	// Sell rules never fire while flat.
	signal = e.Evaluate(1, true)
	suite.Equal(types.SignalTypeNoAction, signal.Type)
}

func (suite *StrategyTestSuite) TestRSIOverboughtEmitsSell() {
	s := newCloseSeries(100, 100)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeRSI][indicator.LineRSI] = definedLine(50, 85)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, false)
	suite.Equal(types.SignalTypeSell, signal.Type)
	suite.Equal(types.OrderReasonRSIOverbought, signal.Reason)
}

func (suite *StrategyTestSuite) TestStochCrossDownEmitsSell() {
	s := newCloseSeries(100, 100)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeStochasticOscillator][indicator.LineSlowK] = definedLine(30, 10)
	outputs[types.IndicatorTypeStochasticOscillator][indicator.LineSlowD] = definedLine(20, 20)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, false)
	suite.Equal(types.SignalTypeSell, signal.Type)
	suite.Equal(types.OrderReasonStochCrossDown, signal.Reason)
}

func (suite *StrategyTestSuite) TestCloseAboveUpperBandEmitsSell() {
	s := newCloseSeries(100, 110)
	outputs := quietOutputs(2)
	outputs[types.IndicatorTypeBollingerBands][indicator.LineUpperBand] = definedLine(105, 105)

	e := suite.newEvaluator(s, outputs)

	signal := e.Evaluate(1, false)
	suite.Equal(types.SignalTypeSell, signal.Type)
	suite.Equal(types.OrderReasonAboveUpperBand, signal.Reason)
}

func (suite *StrategyTestSuite) TestUndefinedLinesNeverFire() {
	s := newCloseSeries(100, 100, 100)
	outputs := map[types.IndicatorType]indicator.Output{
		types.IndicatorTypeMACD: {
			indicator.LineMACD:       undefinedLine(3),
			indicator.LineMACDSignal: undefinedLine(3),
			indicator.LineMACDHist:   undefinedLine(3),
		},
		types.IndicatorTypeRSI: {
			indicator.LineRSI: undefinedLine(3),
		},
		types.IndicatorTypeStochasticOscillator: {
			indicator.LineSlowK: undefinedLine(3),
			indicator.LineSlowD: undefinedLine(3),
			indicator.LineJ:     undefinedLine(3),
		},
		types.IndicatorTypeBollingerBands: {
			indicator.LineUpperBand:  undefinedLine(3),
			indicator.LineMiddleBand: undefinedLine(3),
			indicator.LineLowerBand:  undefinedLine(3),
		},
	}

	e := suite.newEvaluator(s, outputs)

	for i := 0; i < s.Len(); i++ {
		suite.Equal(types.SignalTypeNoAction, e.Evaluate(i, true).Type)
		suite.Equal(types.SignalTypeNoAction, e.Evaluate(i, false).Type)
	}
}
