package outlier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/matrix"
)

// CorrelationMatrix holds sample-by-sample correlations. The diagonal is 1
// and undefined pairs are NaN.
type CorrelationMatrix struct {
	samples []*qtmatrix.BioAssay
	values  *mat.SymDense // nil when there are no samples
}

// NewCorrelationMatrix wraps a row-major square matrix of correlations.
// Only the upper triangle is read.
func NewCorrelationMatrix(samples []*qtmatrix.BioAssay, values []float64) (*CorrelationMatrix, error) {
	n := len(samples)
	if len(values) != n*n {
		return nil, qtmatrix.NewError(qtmatrix.KindDimensionMismatch, "outlier.NewCorrelationMatrix",
			fmt.Errorf("%d samples need %d values, got %d", n, n*n, len(values)))
	}
	c := &CorrelationMatrix{samples: samples}
	if n > 0 {
		c.values = mat.NewSymDense(n, append([]float64(nil), values...))
	}
	return c, nil
}

// Correlations computes the Pearson correlation between every pair of
// sample columns of m, using the rows where both samples have a value.
// Pairs with fewer than two such rows are NaN.
func Correlations(m *matrix.Double) *CorrelationMatrix {
	n := m.NumCols()
	c := &CorrelationMatrix{samples: append([]*qtmatrix.BioAssay(nil), m.Cols()...)}
	if n == 0 {
		return c
	}
	c.values = mat.NewSymDense(n, nil)

	cols := make([][]float64, n)
	for j := range cols {
		cols[j] = m.Col(j)
	}

	x := make([]float64, 0, m.NumRows())
	y := make([]float64, 0, m.NumRows())
	for i := 0; i < n; i++ {
		c.values.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			x, y = x[:0], y[:0]
			for k := range cols[i] {
				a, b := cols[i][k], cols[j][k]
				if math.IsNaN(a) || math.IsNaN(b) {
					continue
				}
				x = append(x, a)
				y = append(y, b)
			}
			r := math.NaN()
			if len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
			}
			c.values.SetSym(i, j, r)
		}
	}
	return c
}

func (c *CorrelationMatrix) Len() int { return len(c.samples) }

// Samples returns the sample labels. The slice must not be modified.
func (c *CorrelationMatrix) Samples() []*qtmatrix.BioAssay { return c.samples }

func (c *CorrelationMatrix) At(i, j int) float64 {
	return c.values.At(i, j)
}

// others returns sample i's correlations with every other sample.
func (c *CorrelationMatrix) others(i int) []float64 {
	out := make([]float64, 0, c.Len()-1)
	for j := 0; j < c.Len(); j++ {
		if j != i {
			out = append(out, c.values.At(i, j))
		}
	}
	return out
}

// upperTriangle returns every off-diagonal correlation once.
func (c *CorrelationMatrix) upperTriangle() []float64 {
	n := c.Len()
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, c.values.At(i, j))
		}
	}
	return out
}

// Without returns a copy of c without the samples whose IDs are listed.
func (c *CorrelationMatrix) Without(bioAssayIDs ...int64) *CorrelationMatrix {
	drop := make(map[int64]struct{}, len(bioAssayIDs))
	for _, id := range bioAssayIDs {
		drop[id] = struct{}{}
	}
	var keep []int
	for i, ba := range c.samples {
		if _, ok := drop[ba.ID]; !ok {
			keep = append(keep, i)
		}
	}
	return c.subset(keep)
}

// WithoutFlagged drops samples already marked as outliers.
func (c *CorrelationMatrix) WithoutFlagged() *CorrelationMatrix {
	var flagged []int64
	for _, ba := range c.samples {
		if ba.IsOutlier {
			flagged = append(flagged, ba.ID)
		}
	}
	if len(flagged) == 0 {
		return c
	}
	return c.Without(flagged...)
}

func (c *CorrelationMatrix) subset(keep []int) *CorrelationMatrix {
	out := &CorrelationMatrix{}
	for _, i := range keep {
		out.samples = append(out.samples, c.samples[i])
	}
	if len(keep) == 0 {
		return out
	}
	out.values = mat.NewSymDense(len(keep), nil)
	for a, i := range keep {
		for b := a; b < len(keep); b++ {
			out.values.SetSym(a, b, c.values.At(i, keep[b]))
		}
	}
	return out
}
