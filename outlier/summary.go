package outlier

import (
	"github.com/montanaflynn/stats"

	"github.com/carbocation/qtmatrix"
)

// Summary describes the distribution of per-sample median correlations.
type Summary struct {
	Samples int
	Mean    float64
	StdDev  float64
	Median  float64
	Min     float64
	Max     float64
}

// Summarize computes the quartiles of every sample and summarizes their
// medians.
func Summarize(c *CorrelationMatrix) (Summary, []Record, error) {
	c = c.WithoutFlagged()
	if c.Len() < 2 {
		return Summary{Samples: c.Len()}, nil, nil
	}
	records, err := Quartiles(c)
	if err != nil {
		return Summary{}, nil, err
	}

	medians := make([]float64, len(records))
	for i, r := range records {
		medians[i] = r.Median
	}
	data := stats.LoadRawData(medians)

	s := Summary{Samples: len(records)}
	for _, f := range []struct {
		dst *float64
		fn  func() (float64, error)
	}{
		{&s.Mean, data.Mean},
		{&s.StdDev, data.StandardDeviation},
		{&s.Median, data.Median},
		{&s.Min, data.Min},
		{&s.Max, data.Max},
	} {
		v, err := f.fn()
		if err != nil {
			return Summary{}, nil, qtmatrix.NewError(qtmatrix.KindStatistics, "outlier.Summarize", err)
		}
		*f.dst = v
	}
	return s, records, nil
}
