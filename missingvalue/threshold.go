package missingvalue

import (
	"math"

	"github.com/grd/histogram"

	"github.com/carbocation/qtmatrix/matrix"
)

const (
	thresholdBins     = 100
	thresholdQuantile = 0.01
)

// SignalThreshold puts every finite signal of both channels into a
// 100-bucket histogram spanning their range and returns the upper edge of
// the bucket holding the 1st percentile. It is NaN when there are no finite
// signals.
func SignalThreshold(signalA, signalB *matrix.Double) (float64, error) {
	var vals []float64
	for _, m := range []*matrix.Double{signalA, signalB} {
		if m == nil {
			continue
		}
		for i := 0; i < m.NumRows(); i++ {
			for _, v := range m.Row(i) {
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					vals = append(vals, v)
				}
			}
		}
	}
	if len(vals) == 0 {
		return math.NaN(), nil
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max <= min {
		return min, nil
	}

	width := (max - min) / float64(thresholdBins)
	hg, err := histogram.NewHistogram(histogram.Range(min, uint(thresholdBins), width))
	if err != nil {
		return math.NaN(), err
	}
	for _, v := range vals {
		// The maximum sits on the upper edge and may be rejected; it can
		// never be in the lowest percentile anyway.
		hg.Add(v)
	}

	target := thresholdQuantile * float64(len(vals))
	cum := 0
	for k := 0; k < thresholdBins; k++ {
		cum += hg.Get(k)
		if float64(cum) >= target {
			return min + float64(k+1)*width, nil
		}
	}
	return max, nil
}
