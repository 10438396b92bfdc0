package types

import "time"

// EquityPoint is one entry of the portfolio valuation curve: the total
// portfolio value (cash plus position marked at close) at one bar.
type EquityPoint struct {
	Time  time.Time `yaml:"time" json:"time" csv:"time"`
	Value float64   `yaml:"value" json:"value" csv:"value"`
}
