// Package statistics summarizes a finished run into a flat report that
// serializes to YAML.
package statistics

import (
	"math"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/quantfold/quantfold/internal/backtest"
	"github.com/quantfold/quantfold/internal/types"
	"github.com/quantfold/quantfold/pkg/errors"
)

// Stats is the performance summary of one run.
type Stats struct {
	StartTime        time.Time         `yaml:"start_time" json:"start_time"`
	EndTime          time.Time         `yaml:"end_time" json:"end_time"`
	Bars             int               `yaml:"bars" json:"bars"`
	InitialCash      float64           `yaml:"initial_cash" json:"initial_cash"`
	FinalEquity      float64           `yaml:"final_equity" json:"final_equity"`
	TotalReturn      float64           `yaml:"total_return" json:"total_return"`
	AnnualizedReturn float64           `yaml:"annualized_return" json:"annualized_return"`
	MaxDrawdown      float64           `yaml:"max_drawdown" json:"max_drawdown"`
	TradeResult      types.TradeResult `yaml:"trade_result" json:"trade_result"`
	TotalFees        float64           `yaml:"total_fees" json:"total_fees"`
	RealizedPnL      float64           `yaml:"realized_pnl" json:"realized_pnl"`
}

// Compute derives the summary from a run result.
func Compute(result *backtest.Result) (Stats, error) {
	if result == nil {
		return Stats{}, errors.New(errors.ErrCodeRunNotFinished, "result is nil")
	}

	stats := Stats{
		Bars:        len(result.EquityCurve),
		InitialCash: result.InitialCash,
		FinalEquity: result.FinalEquity,
		TradeResult: result.TradeResult,
		TotalFees:   result.TotalFees,
		RealizedPnL: result.RealizedPnL,
	}

	if len(result.EquityCurve) == 0 {
		return stats, nil
	}

	stats.StartTime = result.EquityCurve[0].Time
	stats.EndTime = result.EquityCurve[len(result.EquityCurve)-1].Time

	if result.InitialCash > 0 {
		stats.TotalReturn = (result.FinalEquity - result.InitialCash) / result.InitialCash
	}

	stats.MaxDrawdown = maxDrawdown(result.EquityCurve)
	stats.AnnualizedReturn = annualizedReturn(result.InitialCash, result.FinalEquity, stats.StartTime, stats.EndTime)

	return stats, nil
}

// WriteYAML writes the stats report to a file.
func WriteYAML(path string, stats Stats) error {
	out, err := yaml.Marshal(stats)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to marshal stats", err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to write stats file %s", path)
	}

	return nil
}

// WriteEquityCSV persists the per-bar equity curve.
func WriteEquityCSV(path string, points []types.EquityPoint) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to create equity file %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&points, file); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to write equity curve", err)
	}

	return nil
}

// maxDrawdown returns the largest peak-to-trough decline as a fraction of
// the peak.
func maxDrawdown(curve []types.EquityPoint) float64 {
	var peak, worst float64

	for _, point := range curve {
		if point.Value > peak {
			peak = point.Value
		}

		if peak <= 0 {
			continue
		}

		drawdown := (peak - point.Value) / peak
		if drawdown > worst {
			worst = drawdown
		}
	}

	return worst
}

// annualizedReturn compounds the total return over the curve's span using a
// 365.25-day year. A span shorter than one day yields zero.
func annualizedReturn(initial, final float64, start, end time.Time) float64 {
	if initial <= 0 || final <= 0 {
		return 0
	}

	years := end.Sub(start).Hours() / (24 * 365.25)
	if years <= 0 {
		return 0
	}

	return math.Pow(final/initial, 1/years) - 1
}
