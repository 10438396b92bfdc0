package types

type IndicatorType string

const (
	IndicatorTypeMACD                 IndicatorType = "macd"
	IndicatorTypeRSI                  IndicatorType = "rsi"
	IndicatorTypeStochasticOscillator IndicatorType = "stochastic_oscillator"
	IndicatorTypeBollingerBands       IndicatorType = "bollinger_bands"
)
