// Package sizer decides how many units an order should request. Sizers are
// pure: quantity depends only on the current equity and the reference price.
package sizer

import (
	"math"

	"github.com/quantfold/quantfold/pkg/errors"
)

// Sizer computes the order quantity for a new long entry.
type Sizer interface {
	// Quantity returns the number of units to buy given the current total
	// equity and the reference price (the close of the signal bar).
	Quantity(equity float64, price float64) (int64, error)
}

// RiskFractionSizer risks a fixed fraction of current equity per entry. The
// price is padded by 1% to leave headroom for the fill price moving between
// the signal bar's close and the next bar's open.
type RiskFractionSizer struct {
	fraction float64
}

// NewRiskFractionSizer creates a RiskFractionSizer with the given equity
// fraction in (0, 1].
func NewRiskFractionSizer(fraction float64) (*RiskFractionSizer, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidRiskFraction, "fraction must be in (0, 1], got %f", fraction)
	}

	return &RiskFractionSizer{fraction: fraction}, nil
}

// Quantity implements Sizer.
func (s *RiskFractionSizer) Quantity(equity float64, price float64) (int64, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "price must be a positive number, got %f", price)
	}

	if equity <= 0 || math.IsNaN(equity) || math.IsInf(equity, 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidEquity, "equity must be a positive number, got %f", equity)
	}

	riskAmount := equity * s.fraction
	qty := int64(math.Floor(riskAmount / (price * 1.01)))

	if qty < 1 {
		qty = 1
	}

	return qty, nil
}

// FixedSizer requests the same stake on every entry.
type FixedSizer struct {
	stake int64
}

// NewFixedSizer creates a FixedSizer with the given constant stake.
func NewFixedSizer(stake int64) (*FixedSizer, error) {
	if stake <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidStake, "stake must be a positive integer, got %d", stake)
	}

	return &FixedSizer{stake: stake}, nil
}

// Quantity implements Sizer.
func (s *FixedSizer) Quantity(_ float64, price float64) (int64, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "price must be a positive number, got %f", price)
	}

	return s.stake, nil
}
