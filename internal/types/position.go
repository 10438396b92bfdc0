package types

import "time"

// Position represents the current holding. Quantity is zero when flat and
// positive when long; short positions are not modeled.
type Position struct {
	Quantity      int64     `yaml:"quantity" json:"quantity" csv:"quantity"`
	AvgEntryPrice float64   `yaml:"avg_entry_price" json:"avg_entry_price" csv:"avg_entry_price"`
	OpenedAt      time.Time `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
}

// IsFlat reports whether no position is held.
func (p *Position) IsFlat() bool {
	return p.Quantity == 0
}

// MarketValue returns the value of the position at the given close price.
func (p *Position) MarketValue(close float64) float64 {
	return float64(p.Quantity) * close
}
