package indicator

import (
	"github.com/moznion/go-optional"
)

// smaLine computes a simple moving average over the defined suffix of the
// input line using a rolling sum, so the whole line costs O(n). The output is
// defined from period-1 positions after the input's first defined position.
func smaLine(values Line, period int) Line {
	n := len(values)
	out := undefinedLine(n)

	start := values.firstDefined()
	if start < 0 || n-start < period {
		return out
	}

	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i].Unwrap()
	}

	out[start+period-1] = optional.Some(sum / float64(period))

	for i := start + period; i < n; i++ {
		sum += values[i].Unwrap() - values[i-period].Unwrap()
		out[i] = optional.Some(sum / float64(period))
	}

	return out
}

// emaLine computes an exponential moving average over the defined suffix of
// the input line. The first output is the SMA of the first period defined
// values; later positions use alpha = 2/(period+1), matching the pandas ewm
// implementation with adjust=False.
func emaLine(values Line, period int) Line {
	n := len(values)
	out := undefinedLine(n)

	start := values.firstDefined()
	if start < 0 || n-start < period {
		return out
	}

	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i].Unwrap()
	}

	ema := sum / float64(period)
	out[start+period-1] = optional.Some(ema)

	alpha := 2.0 / float64(period+1)
	for i := start + period; i < n; i++ {
		ema = values[i].Unwrap()*alpha + ema*(1-alpha)
		out[i] = optional.Some(ema)
	}

	return out
}
