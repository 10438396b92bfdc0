package commission_fee

// RateCommissionFee charges a flat proportional rate on the fill value.
type RateCommissionFee struct {
	rate float64
}

// NewRateCommissionFee creates a proportional commission fee with the given
// rate, e.g. 0.001 for ten basis points per side.
func NewRateCommissionFee(rate float64) CommissionFee {
	return &RateCommissionFee{rate: rate}
}

func (c *RateCommissionFee) Calculate(fillValue float64) float64 {
	return fillValue * c.rate
}
