package indicator

import (
	"github.com/moznion/go-optional"
)

// Line is an indicator output series aligned 1:1 with a bar series. Positions
// before the indicator's warmup period hold None; callers must never treat an
// undefined position as a signal value.
type Line []optional.Option[float64]

// undefinedLine returns a Line of length n with every position undefined.
func undefinedLine(n int) Line {
	line := make(Line, n)
	for i := range line {
		line[i] = optional.None[float64]()
	}

	return line
}

// lineFromFloats returns a Line where every position is defined.
func lineFromFloats(values []float64) Line {
	line := make(Line, len(values))
	for i, v := range values {
		line[i] = optional.Some(v)
	}

	return line
}

// Defined reports whether position i holds a defined value.
func (l Line) Defined(i int) bool {
	if i < 0 || i >= len(l) {
		return false
	}

	return l[i].IsSome()
}

// Value returns the value at position i. The second return value is false
// when the position is undefined or out of range.
func (l Line) Value(i int) (float64, bool) {
	if !l.Defined(i) {
		return 0, false
	}

	return l[i].Unwrap(), true
}

// firstDefined returns the index of the first defined position, or -1 when
// the whole line is undefined.
func (l Line) firstDefined() int {
	for i, v := range l {
		if v.IsSome() {
			return i
		}
	}

	return -1
}
