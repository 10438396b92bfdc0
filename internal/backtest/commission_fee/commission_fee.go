package commission_fee

type CommissionFee interface {
	// Calculate the commission fee for a given fill value (price * quantity)
	// and returns the fee in account currency
	Calculate(fillValue float64) float64
}

type Broker string

const (
	BrokerRate Broker = "rate_commission"
	BrokerZero Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerRate,
	BrokerZero,
}

func GetCommissionFeeHandler(broker Broker, rate float64) CommissionFee {
	switch broker {
	case BrokerRate:
		return NewRateCommissionFee(rate)
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
