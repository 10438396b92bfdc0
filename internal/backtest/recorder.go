package backtest

import (
	"time"

	"github.com/quantfold/quantfold/internal/types"
)

// EquityRecorder keeps the per-bar equity curve of a run. It is append-only:
// points are recorded once per bar in series order and never revised.
type EquityRecorder struct {
	points []types.EquityPoint
}

// NewEquityRecorder creates an empty recorder.
func NewEquityRecorder() *EquityRecorder {
	return &EquityRecorder{points: nil}
}

// Record appends one equity observation.
func (r *EquityRecorder) Record(t time.Time, value float64) {
	r.points = append(r.points, types.EquityPoint{
		Time:  t,
		Value: value,
	})
}

// Points returns the recorded curve. The slice is a copy so callers cannot
// alter the record.
func (r *EquityRecorder) Points() []types.EquityPoint {
	out := make([]types.EquityPoint, len(r.points))
	copy(out, r.points)

	return out
}

// Len returns the number of recorded points.
func (r *EquityRecorder) Len() int {
	return len(r.points)
}
