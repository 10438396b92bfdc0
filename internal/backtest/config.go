package backtest

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/quantfold/quantfold/pkg/errors"
)

// Config holds every tunable of a run. All fields have defaults mirroring
// the reference parameter set, so an empty YAML document is a valid config.
type Config struct {
	// MACD
	MACDFastPeriod   int `yaml:"macd_fast_period" json:"macd_fast_period" validate:"gt=0"`
	MACDSlowPeriod   int `yaml:"macd_slow_period" json:"macd_slow_period" validate:"gt=0"`
	MACDSignalPeriod int `yaml:"macd_signal_period" json:"macd_signal_period" validate:"gt=0"`

	// RSI
	RSIPeriod int     `yaml:"rsi_period" json:"rsi_period" validate:"gt=0"`
	RSIUpper  float64 `yaml:"rsi_upper" json:"rsi_upper" validate:"gt=0,lt=100"`
	RSILower  float64 `yaml:"rsi_lower" json:"rsi_lower" validate:"gt=0,lt=100"`

	// Stochastic oscillator
	StochFastKPeriod int `yaml:"stoch_fast_k_period" json:"stoch_fast_k_period" validate:"gt=0"`
	StochSlowKPeriod int `yaml:"stoch_slow_k_period" json:"stoch_slow_k_period" validate:"gt=0"`
	StochSlowDPeriod int `yaml:"stoch_slow_d_period" json:"stoch_slow_d_period" validate:"gt=0"`

	// Bollinger Bands
	BollPeriod     int     `yaml:"boll_period" json:"boll_period" validate:"gt=0"`
	BollDeviations float64 `yaml:"boll_deviations" json:"boll_deviations" validate:"gt=0"`

	// Sizing and account
	RiskFraction float64 `yaml:"risk_fraction" json:"risk_fraction" validate:"gt=0,lte=1"`
	// FixedSizerStake switches sizing to a constant stake when set.
	FixedSizerStake *int64  `yaml:"fixed_sizer_stake,omitempty" json:"fixed_sizer_stake,omitempty" validate:"omitempty,gt=0"`
	CommissionRate  float64 `yaml:"commission_rate" json:"commission_rate" validate:"gte=0"`
	InitialCash     float64 `yaml:"initial_cash" json:"initial_cash" validate:"gte=0"`
}

// DefaultConfig returns the reference parameter set.
func DefaultConfig() Config {
	return Config{
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		RSIPeriod:        14,
		RSIUpper:         70,
		RSILower:         30,
		StochFastKPeriod: 9,
		StochSlowKPeriod: 3,
		StochSlowDPeriod: 3,
		BollPeriod:       20,
		BollDeviations:   2.0,
		RiskFraction:     0.02,
		FixedSizerStake:  nil,
		CommissionRate:   0.001,
		InitialCash:      100000,
	}
}

// ParseConfig unmarshals a YAML document over the defaults and validates the
// result.
func ParseConfig(raw string) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(raw), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return ParseConfig(string(raw))
}

// Validate checks the field constraints plus the cross-field ones the struct
// tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if c.MACDFastPeriod >= c.MACDSlowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "macd_fast_period must be smaller than macd_slow_period, got %d >= %d", c.MACDFastPeriod, c.MACDSlowPeriod)
	}

	if c.RSILower >= c.RSIUpper {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "rsi_lower must be smaller than rsi_upper, got %f >= %f", c.RSILower, c.RSIUpper)
	}

	return nil
}
