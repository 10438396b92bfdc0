package indicator

import (
	"time"

	"github.com/quantfold/quantfold/internal/series"
	"github.com/quantfold/quantfold/internal/types"
)

// newTestSeries builds a daily bar series where each bar's high/low straddle
// its close by one.
func newTestSeries(closes ...float64) *series.BarSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}

	s, err := series.New(bars)
	if err != nil {
		panic(err)
	}

	return s
}

// newOHLCSeries builds a daily bar series from explicit high/low/close rows.
func newOHLCSeries(rows [][3]float64) *series.BarSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(rows))

	for i, row := range rows {
		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   row[2],
			High:   row[0],
			Low:    row[1],
			Close:  row[2],
			Volume: 1000,
		}
	}

	s, err := series.New(bars)
	if err != nil {
		panic(err)
	}

	return s
}

// assertUndefinedBeforeWarmup checks the warmup contract for every line of
// an output: undefined strictly before the warmup index, defined from it on.
func assertUndefinedBeforeWarmup(suiteT interface {
	False(value bool, msgAndArgs ...any) bool
	True(value bool, msgAndArgs ...any) bool
}, output Output, warmup, n int,
) {
	for _, line := range output {
		for i := 0; i < warmup && i < n; i++ {
			suiteT.False(line.Defined(i), "index %d should be undefined", i)
		}

		for i := warmup; i < n; i++ {
			suiteT.True(line.Defined(i), "index %d should be defined", i)
		}
	}
}
