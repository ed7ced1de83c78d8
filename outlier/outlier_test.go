package outlier

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/matrix"
	"github.com/carbocation/qtmatrix/qtmatrixtest"
)

func TestQuantileType8(t *testing.T) {
	v, err := Quantile([]float64{4, 2, 1, 3}, 50)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-12)

	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},    // below the first rank
		{100, 4},  // at or above the last rank
		{25, 1.4166666666666667},
		{75, 3.5833333333333335},
	}
	for _, tt := range tests {
		got, err := Quantile([]float64{1, 2, 3, 4}, tt.q)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "q=%v", tt.q)
	}

	v, err = Quantile([]float64{math.NaN(), 7}, 50)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	_, err = Quantile([]float64{math.NaN()}, 50)
	assert.True(t, errors.Is(err, qtmatrix.ErrStatistics))
}

func TestQuantileIndex(t *testing.T) {
	assert.InDelta(t, 2.5, QuantileIndex(4, 50), 1e-12)
	assert.Equal(t, 1.0, QuantileIndex(4, 10))
	assert.Equal(t, 4.0, QuantileIndex(4, 90))
	// Memoized calls agree.
	assert.Equal(t, QuantileIndex(10, 15), QuantileIndex(10, 15))
}

func samples(n int) []*qtmatrix.BioAssay {
	out := make([]*qtmatrix.BioAssay, n)
	for i := range out {
		out[i] = &qtmatrix.BioAssay{ID: int64(i), Name: string(rune('a' + i))}
	}
	return out
}

// blockMatrix returns n samples correlated at within with each other except
// sample 0, which correlates at between with everyone.
func blockMatrix(t *testing.T, n int, within, between float64) *CorrelationMatrix {
	t.Helper()
	vals := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == j:
				vals[i*n+j] = 1
			case i == 0 || j == 0:
				vals[i*n+j] = between
			default:
				vals[i*n+j] = within
			}
		}
	}
	c, err := NewCorrelationMatrix(samples(n), vals)
	require.NoError(t, err)
	return c
}

func TestIdentifyByMedianCorrelation(t *testing.T) {
	c := blockMatrix(t, 5, 0.9, 0.1)

	got, err := IdentifyByMedianCorrelation(c, Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(0), got[0].BioAssay.ID)
	assert.InDelta(t, 0.1, got[0].Median, 1e-12)
	assert.InDelta(t, 0.1+(1.0/3+1.0/12)*0.8, got[0].Threshold, 1e-12)
	assert.Equal(t, 1.0, got[0].Score)
}

func TestFalsePositiveRemoval(t *testing.T) {
	ba := samples(5)
	records := []Record{
		{BioAssay: ba[0], FirstQuartile: 0.10, Median: 0.15, ThirdQuartile: 0.20},
		{BioAssay: ba[1], FirstQuartile: 0.30, Median: 0.40, ThirdQuartile: 0.50},
		{BioAssay: ba[2], FirstQuartile: 0.60, Median: 0.70, ThirdQuartile: 0.80},
		{BioAssay: ba[3], FirstQuartile: 0.45, Median: 0.85, ThirdQuartile: 0.90},
		{BioAssay: ba[4], FirstQuartile: 0.70, Median: 0.90, ThirdQuartile: 0.95},
	}

	// The gap search alone flags samples 0 and 1, but sample 1 overlaps
	// sample 3's first quartile.
	got := fromQuartiles(records)
	require.Len(t, got, 1)
	assert.Equal(t, int64(0), got[0].BioAssay.ID)
	assert.Equal(t, 0.30, got[0].Threshold)
}

func TestNoGapNoOutliers(t *testing.T) {
	c := blockMatrix(t, 4, 0.9, 0.9)
	got, err := IdentifyByMedianCorrelation(c, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmptyAndTinyMatrices(t *testing.T) {
	empty, err := NewCorrelationMatrix(nil, nil)
	require.NoError(t, err)

	for _, c := range []*CorrelationMatrix{empty, blockMatrix(t, 1, 0, 0)} {
		got, err := IdentifyCombined(c, Options{})
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	_, err = NewCorrelationMatrix(samples(2), []float64{1})
	assert.True(t, errors.Is(err, qtmatrix.ErrDimensionMismatch))
}

func TestUndefinedCorrelationsAreAStatisticsError(t *testing.T) {
	nan := math.NaN()
	c, err := NewCorrelationMatrix(samples(3), []float64{
		1, nan, nan,
		nan, 1, 0.5,
		nan, 0.5, 1,
	})
	require.NoError(t, err)

	_, err = IdentifyByMedianCorrelation(c, Options{})
	assert.True(t, errors.Is(err, qtmatrix.ErrStatistics))
}

func TestIdentifyByQuantile(t *testing.T) {
	c := blockMatrix(t, 20, 0.9, 0.1)

	got, err := IdentifyByQuantile(c, Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(0), got[0].BioAssay.ID)
	assert.Equal(t, 1.0, got[0].Score)
	assert.InDelta(t, 0.9, got[0].Threshold, 1e-12)
}

func TestIdentifyCombinedIsUnionBySample(t *testing.T) {
	c := blockMatrix(t, 20, 0.9, 0.1)

	got, err := IdentifyCombined(c, Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Same(Record{BioAssay: &qtmatrix.BioAssay{ID: 0}}))
}

func TestFlaggedSamplesAreIgnored(t *testing.T) {
	c := blockMatrix(t, 5, 0.9, 0.1)
	c.Samples()[0].IsOutlier = true

	got, err := IdentifyByMedianCorrelation(c, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Equal(t, 4, c.WithoutFlagged().Len())
	assert.Equal(t, 3, c.Without(1, 2).Len())
}

func TestCorrelations(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2, 3)
	qt := qtmatrixtest.Double(1, "VALUE")
	nan := math.NaN()
	rows := [][]float64{
		{1, 2, 5},
		{2, 4, nan},
		{3, 6, 1},
		{4, 8, nan},
	}
	var vectors []*qtmatrix.DataVector
	for i, r := range rows {
		vectors = append(vectors, qtmatrixtest.Vector(qtmatrixtest.Element(int64(i+1), nil), qt, dim, r))
	}
	m, err := matrix.BuildDouble(vectors, nil)
	require.NoError(t, err)

	c := Correlations(m)
	require.Equal(t, 3, c.Len())
	assert.Equal(t, 1.0, c.At(0, 0))
	assert.InDelta(t, 1.0, c.At(0, 1), 1e-12)
	assert.InDelta(t, -1.0, c.At(0, 2), 1e-12, "two complete rows")
	assert.Equal(t, c.At(2, 0), c.At(0, 2))
}

func TestSummarize(t *testing.T) {
	c := blockMatrix(t, 5, 0.9, 0.1)
	s, records, err := Summarize(c)
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, 5, s.Samples)
	assert.InDelta(t, 0.1, s.Min, 1e-12)
	assert.InDelta(t, 0.9, s.Max, 1e-12)
	assert.InDelta(t, 0.9, s.Median, 1e-12)
	assert.InDelta(t, (0.1+4*0.9)/5, s.Mean, 1e-12)
}
