package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantfold/quantfold/pkg/errors"
)

type BollingerBandsUnitTestSuite struct {
	suite.Suite
}

func TestBollingerBandsUnitSuite(t *testing.T) {
	suite.Run(t, new(BollingerBandsUnitTestSuite))
}

func (suite *BollingerBandsUnitTestSuite) TestNewBollingerBands() {
	bb, err := NewBollingerBands(20, 2.0)
	suite.NoError(err)
	suite.Equal(19, bb.Warmup())

	_, err = NewBollingerBands(0, 2.0)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

	_, err = NewBollingerBands(20, 0)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDeviation))

	_, err = NewBollingerBands(20, -1.5)
	suite.Error(err)
}

func (suite *BollingerBandsUnitTestSuite) TestComputeWarmupContract() {
	bb, err := NewBollingerBands(5, 2.0)
	suite.NoError(err)

	s := newTestSeries(10, 11, 12, 13, 14, 15, 16, 17)

	output, err := bb.Compute(s)
	suite.NoError(err)
	suite.Len(output, 3)

	assertUndefinedBeforeWarmup(&suite.Suite, output, bb.Warmup(), s.Len())
}

func (suite *BollingerBandsUnitTestSuite) TestComputeKnownValues() {
	bb, err := NewBollingerBands(5, 2.0)
	suite.NoError(err)

	// Window 1..5: mean 3, population variance 2.
	s := newTestSeries(1, 2, 3, 4, 5)

	output, err := bb.Compute(s)
	suite.NoError(err)

	width := 2.0 * math.Sqrt(2.0)

	mid, ok := output[LineMiddleBand].Value(4)
	suite.True(ok)
	suite.InDelta(3.0, mid, 1e-9)

	up, ok := output[LineUpperBand].Value(4)
	suite.True(ok)
	suite.InDelta(3.0+width, up, 1e-9)

	low, ok := output[LineLowerBand].Value(4)
	suite.True(ok)
	suite.InDelta(3.0-width, low, 1e-9)
}

func (suite *BollingerBandsUnitTestSuite) TestComputeConstantSeriesHasZeroWidth() {
	bb, err := NewBollingerBands(20, 2.0)
	suite.NoError(err)

	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 123.45
	}

	s := newTestSeries(closes...)

	output, err := bb.Compute(s)
	suite.NoError(err)

	for i := bb.Warmup(); i < s.Len(); i++ {
		up, _ := output[LineUpperBand].Value(i)
		mid, _ := output[LineMiddleBand].Value(i)
		low, _ := output[LineLowerBand].Value(i)

		suite.InDelta(123.45, mid, 1e-9)
		suite.InDelta(mid, up, 1e-9)
		suite.InDelta(mid, low, 1e-9)
	}
}

func (suite *BollingerBandsUnitTestSuite) TestComputeBandOrdering() {
	bb, err := NewBollingerBands(5, 2.0)
	suite.NoError(err)

	s := newTestSeries(10, 12, 9, 14, 11, 13, 8, 15, 12, 10)

	output, err := bb.Compute(s)
	suite.NoError(err)

	for i := bb.Warmup(); i < s.Len(); i++ {
		up, _ := output[LineUpperBand].Value(i)
		mid, _ := output[LineMiddleBand].Value(i)
		low, _ := output[LineLowerBand].Value(i)

		suite.GreaterOrEqual(up, mid)
		suite.GreaterOrEqual(mid, low)
	}
}

func (suite *BollingerBandsUnitTestSuite) TestComputeShortSeriesAllUndefined() {
	bb, err := NewBollingerBands(20, 2.0)
	suite.NoError(err)

	s := newTestSeries(10, 11, 12)

	output, err := bb.Compute(s)
	suite.NoError(err)

	for _, line := range output {
		for i := 0; i < s.Len(); i++ {
			suite.False(line.Defined(i))
		}
	}
}

func (suite *BollingerBandsUnitTestSuite) TestComputeNilSeries() {
	bb, err := NewBollingerBands(20, 2.0)
	suite.NoError(err)

	_, err = bb.Compute(nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorCalculation))
}
