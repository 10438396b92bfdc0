package types

import "time"

type SignalType string

const (
	// SignalTypeBuy tells the simulator to open a long position
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell tells the simulator to close the long position
	SignalTypeSell SignalType = "sell"
	// SignalTypeNoAction tells the simulator to take no action
	SignalTypeNoAction SignalType = "no_action"
)

// Signal is the advisory output of the signal evaluator for one bar. It is
// recomputed every bar and never stored.
type Signal struct {
	// Time is the time of the bar that produced the signal
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// BarIndex is the absolute index of the bar within the series
	BarIndex int
	// Reason names the rule that triggered the signal
	Reason string
	// RawValue carries the indicator values that triggered the signal
	RawValue map[string]float64
}
