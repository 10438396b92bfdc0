package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/quantfold/quantfold/pkg/errors"
)

type OrderSide string

type OrderStatus string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

const (
	OrderReasonMACDCrossUp    string = "macd_cross_above_signal"
	OrderReasonMACDCrossDown  string = "macd_cross_below_signal"
	OrderReasonRSIOversold    string = "rsi_oversold"
	OrderReasonRSIOverbought  string = "rsi_overbought"
	OrderReasonStochCrossUp   string = "stoch_k_cross_above_d"
	OrderReasonStochCrossDown string = "stoch_k_cross_below_d"
	OrderReasonBelowLowerBand string = "close_below_lower_band"
	OrderReasonAboveUpperBand string = "close_above_upper_band"
)

// Order is a request to change the position, created by the strategy and
// owned by the simulator until it is filled or rejected. At most one order
// is outstanding at any time.
type Order struct {
	OrderID        string      `yaml:"order_id" json:"order_id" csv:"order_id" validate:"required,uuid"`
	Side           OrderSide   `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Quantity       int64       `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	RequestedPrice float64     `yaml:"requested_price" json:"requested_price" csv:"requested_price" validate:"required,gt=0"`
	CreatedAt      time.Time   `yaml:"created_at" json:"created_at" csv:"created_at" validate:"required"`
	// BarIndex is the index of the bar on which the order was created.
	BarIndex int `yaml:"bar_index" json:"bar_index" csv:"bar_index" validate:"gte=0"`
	// Status is the status of the order (PENDING, FILLED, REJECTED)
	Status OrderStatus `yaml:"status" json:"status" csv:"status"`
	// Reason names the signal rule that created this order
	Reason string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
}

// Fill is the record of an executed order.
type Fill struct {
	OrderID    string    `yaml:"order_id" json:"order_id" csv:"order_id"`
	Side       OrderSide `yaml:"side" json:"side" csv:"side"`
	Quantity   int64     `yaml:"quantity" json:"quantity" csv:"quantity"`
	Price      float64   `yaml:"price" json:"price" csv:"price"`
	Commission float64   `yaml:"commission" json:"commission" csv:"commission"`
	// PnL is the realized profit and loss for this fill. Zero for buys; for
	// sells it is (fill price - average entry price) * quantity minus the
	// commission of the whole round trip.
	PnL    float64   `yaml:"pnl" json:"pnl" csv:"pnl"`
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Reason string    `yaml:"reason" json:"reason" csv:"reason"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
