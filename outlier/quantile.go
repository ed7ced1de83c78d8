package outlier

import (
	"math"
	"sort"

	"github.com/BenLubar/memoize"

	"github.com/carbocation/qtmatrix"
)

var memoizedQuantileIndex = memoize.Memoize(quantileIndex)

// QuantileIndex is the 1-based fractional rank of the q-th percentile
// (0-100) among n sorted values, following Hyndman and Fan's definition 8
// (median-unbiased). QuantileIndex is safe to call from concurrent
// goroutines.
func QuantileIndex(n int, q float64) float64 {
	return memoizedQuantileIndex.(func(int, float64) float64)(n, q)
}

func quantileIndex(n int, q float64) float64 {
	const third = 1.0 / 3.0
	p := q / 100
	nf := float64(n)

	if p < (2*third)/(nf+third) {
		return 1
	}
	if p >= (nf-third)/(nf+third) {
		return nf
	}
	return (nf+third)*p + third
}

// quantileSorted interpolates between the values either side of the type 8
// rank. sorted must be ascending, free of NaN and non-empty.
func quantileSorted(sorted []float64, q float64) float64 {
	idx := QuantileIndex(len(sorted), q)
	lo := int(math.Floor(idx))
	frac := idx - float64(lo)

	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= len(sorted) {
			return len(sorted) - 1
		}
		return i
	}
	lower := sorted[clamp(lo-1)]
	upper := sorted[clamp(lo)]
	return lower + frac*(upper-lower)
}

// Quantile returns the q-th percentile (0-100) of values by type 8
// interpolation. NaN values are ignored; none left is an error.
func Quantile(values []float64, q float64) (float64, error) {
	sorted := finiteSorted(values)
	if len(sorted) == 0 {
		return math.NaN(), qtmatrix.Errorf(qtmatrix.KindStatistics, "outlier.Quantile", "no values")
	}
	return quantileSorted(sorted, q), nil
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
