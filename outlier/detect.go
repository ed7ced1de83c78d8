// Package outlier finds samples whose correlations with the rest of an
// experiment are unusually low.
package outlier

import (
	"log/slog"
	"math"
	"sort"

	"github.com/carbocation/qtmatrix"
)

const (
	DefaultQuantile = 15.0
	DefaultFraction = 0.90
)

// Record describes one outlying sample. Records are the same finding when
// they name the same sample, whatever their statistics.
type Record struct {
	BioAssay      *qtmatrix.BioAssay
	FirstQuartile float64
	Median        float64
	ThirdQuartile float64

	// Score is the fraction of the sample's correlations that fall below
	// Threshold.
	Score     float64
	Threshold float64
}

// Same compares sample identity only.
func (r Record) Same(o Record) bool {
	return r.BioAssay != nil && o.BioAssay != nil && r.BioAssay.ID == o.BioAssay.ID
}

type Options struct {
	Logger *slog.Logger

	// Quantile (0-100) and Fraction drive IdentifyByQuantile. Zero values
	// mean DefaultQuantile and DefaultFraction.
	Quantile float64
	Fraction float64
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Quantile == 0 {
		o.Quantile = DefaultQuantile
	}
	if o.Fraction == 0 {
		o.Fraction = DefaultFraction
	}
	return o
}

// Quartiles computes the type 8 quartiles of every sample's correlations
// with the other samples.
func Quartiles(c *CorrelationMatrix) ([]Record, error) {
	out := make([]Record, c.Len())
	for i, ba := range c.samples {
		sorted := finiteSorted(c.others(i))
		if len(sorted) == 0 {
			return nil, qtmatrix.Errorf(qtmatrix.KindStatistics, "outlier.Quartiles", "sample %s has no defined correlations", ba.Name)
		}
		out[i] = Record{
			BioAssay:      ba,
			FirstQuartile: quantileSorted(sorted, 25),
			Median:        quantileSorted(sorted, 50),
			ThirdQuartile: quantileSorted(sorted, 75),
		}
	}
	return out, nil
}

// IdentifyByMedianCorrelation sorts samples by median correlation and looks
// for the last gap where one sample's third quartile lies below the next
// sample's first quartile. Samples before the gap are candidates; those that
// still overlap the remaining samples are then discarded.
//
// Samples already flagged as outliers are ignored. A matrix with fewer than
// two samples has no outliers.
func IdentifyByMedianCorrelation(c *CorrelationMatrix, opts Options) ([]Record, error) {
	opts = opts.withDefaults()
	c = c.WithoutFlagged()
	if c.Len() < 2 {
		opts.Logger.Info("too few samples to look for outliers", "samples", c.Len())
		return nil, nil
	}

	records, err := Quartiles(c)
	if err != nil {
		return nil, err
	}
	out := fromQuartiles(records)

	for i := range out {
		row := c.others(indexOf(c, out[i].BioAssay.ID))
		out[i].Score = fractionBelow(row, out[i].Threshold)
	}
	return out, nil
}

func indexOf(c *CorrelationMatrix, id int64) int {
	for i, ba := range c.samples {
		if ba.ID == id {
			return i
		}
	}
	return -1
}

func fractionBelow(vals []float64, threshold float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	n := 0
	for _, v := range vals {
		if v < threshold {
			n++
		}
	}
	return float64(n) / float64(len(vals))
}

// fromQuartiles runs the gap search and the false-positive pass on
// precomputed quartiles. The Threshold of each returned record is the final
// inlier threshold.
func fromQuartiles(records []Record) []Record {
	sorted := append([]Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Median < sorted[j].Median })

	numOutliers := 0
	for k := 0; k+1 < len(sorted); k++ {
		if sorted[k].ThirdQuartile < sorted[k+1].FirstQuartile {
			numOutliers = k + 1
		}
	}
	if numOutliers == 0 {
		return nil
	}

	threshold := math.Inf(1)
	for _, r := range sorted[numOutliers:] {
		threshold = math.Min(threshold, r.FirstQuartile)
	}

	candidates := append([]Record(nil), sorted[:numOutliers]...)
	candidates, threshold = removeFalsePositives(candidates, threshold)

	for i := range candidates {
		candidates[i].Threshold = threshold
	}
	return candidates
}

// removeFalsePositives drops candidates that overlap the inliers, lowering
// the threshold to each dropped candidate's first quartile, until nothing
// changes.
func removeFalsePositives(candidates []Record, threshold float64) ([]Record, float64) {
	for {
		changed := false
		kept := candidates[:0]
		for _, r := range candidates {
			if r.ThirdQuartile >= threshold {
				threshold = math.Min(threshold, r.FirstQuartile)
				changed = true
				continue
			}
			kept = append(kept, r)
		}
		candidates = kept
		if !changed {
			return candidates, threshold
		}
	}
}

// IdentifyByQuantile flags samples for which more than opts.Fraction of
// their correlations fall below the opts.Quantile percentile of all
// pairwise correlations.
func IdentifyByQuantile(c *CorrelationMatrix, opts Options) ([]Record, error) {
	opts = opts.withDefaults()
	c = c.WithoutFlagged()
	if c.Len() < 2 {
		opts.Logger.Info("too few samples to look for outliers", "samples", c.Len())
		return nil, nil
	}

	threshold, err := Quantile(c.upperTriangle(), opts.Quantile)
	if err != nil {
		return nil, err
	}

	var out []Record
	for i, ba := range c.samples {
		row := c.others(i)
		below := 0
		for _, v := range row {
			if v < threshold {
				below++
			}
		}
		if float64(below) <= opts.Fraction*float64(len(row)) {
			continue
		}

		r := Record{BioAssay: ba, Score: float64(below) / float64(len(row)), Threshold: threshold}
		if sorted := finiteSorted(row); len(sorted) > 0 {
			r.FirstQuartile = quantileSorted(sorted, 25)
			r.Median = quantileSorted(sorted, 50)
			r.ThirdQuartile = quantileSorted(sorted, 75)
		}
		out = append(out, r)
	}
	return out, nil
}

// IdentifyCombined is the union, by sample, of both methods. Records from
// the median method come first.
func IdentifyCombined(c *CorrelationMatrix, opts Options) ([]Record, error) {
	byMedian, err := IdentifyByMedianCorrelation(c, opts)
	if err != nil {
		return nil, err
	}
	byQuantile, err := IdentifyByQuantile(c, opts)
	if err != nil {
		return nil, err
	}

	out := append([]Record(nil), byMedian...)
Next:
	for _, r := range byQuantile {
		for _, have := range out {
			if have.Same(r) {
				continue Next
			}
		}
		out = append(out, r)
	}
	return out, nil
}
