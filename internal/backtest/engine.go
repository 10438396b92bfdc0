// Package backtest runs a rules-based strategy over a historical bar series
// as an explicit fold: indicators are fully materialized up front, then each
// bar is processed once in order with no callbacks into the engine.
package backtest

import (
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantfold/quantfold/internal/backtest/commission_fee"
	"github.com/quantfold/quantfold/internal/indicator"
	"github.com/quantfold/quantfold/internal/logger"
	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/sizer"
	"github.com/quantfold/quantfold/internal/strategy"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
	"github.com/quantfold/quantfold/pkg/utils"
)

// Engine simulates one long-only strategy over one bar series. It owns the
// cash balance, the single position and the single outstanding order; fills
// and orders are mirrored into the ledger as they happen.
type Engine struct {
	config     Config
	log        *logger.Logger
	registry   indicator.IndicatorRegistry
	commission commission_fee.CommissionFee
	sizer      sizer.Sizer
	ledger     *Ledger
	recorder   *EquityRecorder
	maxWarmup  int

	series    *series.BarSeries
	evaluator *strategy.Evaluator

	cash decimal.Decimal
	// entryCommission carries the open position's entry fee so the sell fill
	// can report round-trip PnL.
	entryCommission decimal.Decimal
	position        types.Position
	pending         optional.Option[types.Order]
	progress        func(current, total int)
}

// Result is the complete outcome of one run.
type Result struct {
	InitialCash   float64             `yaml:"initial_cash" json:"initial_cash"`
	FinalCash     float64             `yaml:"final_cash" json:"final_cash"`
	FinalEquity   float64             `yaml:"final_equity" json:"final_equity"`
	FinalPosition types.Position      `yaml:"final_position" json:"final_position"`
	EquityCurve   []types.EquityPoint `yaml:"-" json:"-"`
	Fills         []types.Fill        `yaml:"-" json:"-"`
	TradeResult   types.TradeResult   `yaml:"trade_result" json:"trade_result"`
	TotalFees     float64             `yaml:"total_fees" json:"total_fees"`
	RealizedPnL   float64             `yaml:"realized_pnl" json:"realized_pnl"`
}

// NewEngine creates an engine from a validated config.
func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	registry := indicator.NewIndicatorRegistry()

	macd, err := indicator.NewMACD(config.MACDFastPeriod, config.MACDSlowPeriod, config.MACDSignalPeriod)
	if err != nil {
		return nil, err
	}

	rsi, err := indicator.NewRSI(config.RSIPeriod)
	if err != nil {
		return nil, err
	}

	stoch, err := indicator.NewStochastic(config.StochFastKPeriod, config.StochSlowKPeriod, config.StochSlowDPeriod)
	if err != nil {
		return nil, err
	}

	boll, err := indicator.NewBollingerBands(config.BollPeriod, config.BollDeviations)
	if err != nil {
		return nil, err
	}

	maxWarmup := 0

	for _, ind := range []indicator.Indicator{macd, rsi, stoch, boll} {
		if err := registry.RegisterIndicator(ind); err != nil {
			return nil, err
		}

		if ind.Warmup() > maxWarmup {
			maxWarmup = ind.Warmup()
		}
	}

	var positionSizer sizer.Sizer
	if config.FixedSizerStake != nil {
		positionSizer, err = sizer.NewFixedSizer(*config.FixedSizerStake)
	} else {
		positionSizer, err = sizer.NewRiskFractionSizer(config.RiskFraction)
	}

	if err != nil {
		return nil, err
	}

	broker := commission_fee.BrokerRate
	if config.CommissionRate == 0 {
		broker = commission_fee.BrokerZero
	}

	ledger, err := NewLedger(log)
	if err != nil {
		return nil, err
	}

	if err := ledger.Initialize(); err != nil {
		return nil, err
	}

	return &Engine{
		config:          config,
		log:             log,
		registry:        registry,
		commission:      commission_fee.GetCommissionFeeHandler(broker, config.CommissionRate),
		sizer:           positionSizer,
		ledger:          ledger,
		recorder:        NewEquityRecorder(),
		maxWarmup:       maxWarmup,
		series:          nil,
		evaluator:       nil,
		cash:            decimal.Zero,
		entryCommission: decimal.Zero,
		position:        types.Position{},
		pending:         optional.None[types.Order](),
		progress:        nil,
	}, nil
}

// SetProgressCallback registers a callback invoked after every processed bar.
func (e *Engine) SetProgressCallback(fn func(current, total int)) {
	e.progress = fn
}

// Ledger exposes the run's order and fill store, e.g. for Parquet export.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Close releases the ledger.
func (e *Engine) Close() error {
	return e.ledger.Close()
}

// GetConfigSchema returns the JSON schema of the engine config.
func GetConfigSchema() (string, error) {
	return utils.GetSchemaFromConfig(&Config{})
}

// Run folds the whole series through the simulation and returns the result.
// After validation the run always completes: sizing failures, unplaceable
// orders and rejected orders are logged and skipped, never fatal. Running the
// same engine again starts from a clean ledger and equity curve.
func (e *Engine) Run(s *series.BarSeries) (*Result, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeEmptySeries, "bar series is nil")
	}

	if s.Len() <= e.maxWarmup {
		// Not fatal: the lines simply stay undefined and no rule can fire.
		shortfall := errors.NewInsufficientDataErrorf(e.maxWarmup+1, s.Len(),
			"series has %d bars but the slowest indicator needs %d for a defined value", s.Len(), e.maxWarmup+1)
		e.log.Warn("Series shorter than warmup", zap.Error(shortfall))
	}

	outputs, err := e.registry.ComputeAll(s)
	if err != nil {
		return nil, err
	}

	evaluator, err := strategy.NewEvaluator(s, outputs, e.config.RSILower, e.config.RSIUpper)
	if err != nil {
		return nil, err
	}

	e.series = s
	e.evaluator = evaluator
	e.cash = decimal.NewFromFloat(e.config.InitialCash)
	e.entryCommission = decimal.Zero
	e.position = types.Position{}
	e.pending = optional.None[types.Order]()
	e.recorder = NewEquityRecorder()

	// A fresh run starts from an empty ledger.
	if err := e.ledger.Cleanup(); err != nil {
		return nil, err
	}

	if err := e.ledger.Initialize(); err != nil {
		return nil, err
	}

	for i := 0; i < s.Len(); i++ {
		if err := e.runBar(i); err != nil {
			return nil, err
		}

		if e.progress != nil {
			e.progress(i+1, s.Len())
		}
	}

	if e.pending.IsSome() {
		// The series ended before the next open: the order expires unfilled.
		order := e.pending.Unwrap()
		e.log.Info("Pending order expired at end of series",
			zap.String("order_id", order.OrderID),
			zap.String("side", string(order.Side)),
		)
	}

	return e.buildResult()
}

// runBar processes one bar: resolve the outstanding order at this bar's
// open, then evaluate signals on this bar's values, then record equity.
func (e *Engine) runBar(i int) error {
	bar := e.series.At(i)

	if e.pending.IsSome() {
		order := e.pending.Unwrap()
		e.pending = optional.None[types.Order]()

		if err := e.fillOrder(order, bar); err != nil {
			return err
		}
	}

	// Evaluation is skipped only while an order is outstanding, which cannot
	// happen here: the fill above always consumes it.
	signal := e.evaluator.Evaluate(i, e.position.IsFlat())

	switch signal.Type {
	case types.SignalTypeBuy:
		if err := e.placeOrder(types.OrderSideBuy, signal, bar); err != nil {
			return err
		}
	case types.SignalTypeSell:
		if err := e.placeOrder(types.OrderSideSell, signal, bar); err != nil {
			return err
		}
	case types.SignalTypeNoAction:
	}

	equity := e.cash.Add(decimal.NewFromInt(e.position.Quantity).Mul(decimal.NewFromFloat(bar.Close)))
	value, _ := equity.Float64()
	e.recorder.Record(bar.Time, value)

	return nil
}

// fillOrder executes an order at the given bar's open price.
func (e *Engine) fillOrder(order types.Order, bar types.Bar) error {
	price := decimal.NewFromFloat(bar.Open)
	qty := decimal.NewFromInt(order.Quantity)
	fillValue := price.Mul(qty)

	value, _ := fillValue.Float64()
	fee := decimal.NewFromFloat(e.commission.Calculate(value))

	switch order.Side {
	case types.OrderSideBuy:
		cost := fillValue.Add(fee)
		if cost.GreaterThan(e.cash) {
			e.log.Warn("Order rejected: insufficient cash",
				zap.String("order_id", order.OrderID),
				zap.String("cost", cost.String()),
				zap.String("cash", e.cash.String()),
			)

			return e.ledger.UpdateOrderStatus(order.OrderID, types.OrderStatusRejected)
		}

		e.cash = e.cash.Sub(cost)
		e.entryCommission = fee
		e.position = types.Position{
			Quantity:      order.Quantity,
			AvgEntryPrice: bar.Open,
			OpenedAt:      bar.Time,
		}

		return e.recordFill(order, bar, fee, decimal.Zero)

	case types.OrderSideSell:
		if e.position.IsFlat() {
			return errors.Newf(errors.ErrCodeNoPosition, "sell order %s with no open position", order.OrderID)
		}

		entry := decimal.NewFromFloat(e.position.AvgEntryPrice).Mul(qty)
		pnl := fillValue.Sub(entry).Sub(e.entryCommission).Sub(fee)

		e.cash = e.cash.Add(fillValue.Sub(fee))
		e.entryCommission = decimal.Zero
		e.position = types.Position{}

		return e.recordFill(order, bar, fee, pnl)
	}

	return errors.Newf(errors.ErrCodeInvalidOrder, "unknown order side %s", order.Side)
}

func (e *Engine) recordFill(order types.Order, bar types.Bar, fee, pnl decimal.Decimal) error {
	feeValue, _ := fee.Float64()
	pnlValue, _ := pnl.Float64()

	fill := types.Fill{
		OrderID:    order.OrderID,
		Side:       order.Side,
		Quantity:   order.Quantity,
		Price:      bar.Open,
		Commission: feeValue,
		PnL:        pnlValue,
		Time:       bar.Time,
		Reason:     order.Reason,
	}

	if err := e.ledger.RecordFill(fill); err != nil {
		return err
	}

	e.log.Debug("Order filled",
		zap.String("order_id", order.OrderID),
		zap.String("side", string(order.Side)),
		zap.Int64("quantity", order.Quantity),
		zap.Float64("price", bar.Open),
	)

	return e.ledger.UpdateOrderStatus(order.OrderID, types.OrderStatusFilled)
}

// placeOrder turns a signal into the single outstanding order. Sizing
// failures are logged and skipped.
func (e *Engine) placeOrder(side types.OrderSide, signal types.Signal, bar types.Bar) error {
	var quantity int64

	if side == types.OrderSideBuy {
		equity := e.cash.Add(decimal.NewFromInt(e.position.Quantity).Mul(decimal.NewFromFloat(bar.Close)))
		equityValue, _ := equity.Float64()

		qty, err := e.sizer.Quantity(equityValue, bar.Close)
		if err != nil {
			e.log.Warn("Sizing skipped",
				zap.Int("bar_index", signal.BarIndex),
				zap.Error(err),
			)

			return nil
		}

		quantity = qty
	} else {
		quantity = e.position.Quantity
	}

	order := types.Order{
		OrderID:        uuid.New().String(),
		Side:           side,
		Quantity:       quantity,
		RequestedPrice: bar.Close,
		CreatedAt:      bar.Time,
		BarIndex:       signal.BarIndex,
		Status:         types.OrderStatusPending,
		Reason:         signal.Reason,
	}

	if err := order.Validate(); err != nil {
		// A non-positive close cannot form a valid order; skip this bar.
		e.log.Warn("Order skipped",
			zap.Int("bar_index", signal.BarIndex),
			zap.Error(err),
		)

		return nil
	}

	if err := e.ledger.RecordOrder(order); err != nil {
		return err
	}

	e.pending = optional.Some(order)

	e.log.Debug("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("side", string(side)),
		zap.Int64("quantity", quantity),
		zap.String("reason", order.Reason),
	)

	return nil
}

func (e *Engine) buildResult() (*Result, error) {
	fills, err := e.ledger.GetFills()
	if err != nil {
		return nil, err
	}

	tradeResult, err := e.ledger.CalculateTradeResult()
	if err != nil {
		return nil, err
	}

	totalFees, err := e.ledger.CalculateTotalFees()
	if err != nil {
		return nil, err
	}

	realizedPnL, err := e.ledger.CalculateRealizedPnL()
	if err != nil {
		return nil, err
	}

	curve := e.recorder.Points()
	finalCash, _ := e.cash.Float64()

	finalEquity := finalCash
	if len(curve) > 0 {
		finalEquity = curve[len(curve)-1].Value
	}

	return &Result{
		InitialCash:   e.config.InitialCash,
		FinalCash:     finalCash,
		FinalEquity:   finalEquity,
		FinalPosition: e.position,
		EquityCurve:   curve,
		Fills:         fills,
		TradeResult:   tradeResult,
		TotalFees:     totalFees,
		RealizedPnL:   realizedPnL,
	}, nil
}
