package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/carbocation/qtmatrix"
)

// Double is a labelled matrix of float64 values. Missing cells are NaN.
type Double struct {
	Axes
	qts  []*qtmatrix.QuantitationType
	data *mat.Dense // nil when either axis is empty
}

// NewDouble returns an all-NaN matrix over the given axes.
func NewDouble(axes Axes, qts ...*qtmatrix.QuantitationType) *Double {
	d := &Double{Axes: axes, qts: qts}
	r, c := axes.NumRows(), axes.NumCols()
	if r == 0 || c == 0 {
		return d
	}
	raw := make([]float64, r*c)
	for i := range raw {
		raw[i] = math.NaN()
	}
	d.data = mat.NewDense(r, c, raw)
	return d
}

func (d *Double) Representation() qtmatrix.Representation {
	return qtmatrix.RepresentationDouble
}

// QuantitationTypes are the types the values were drawn from.
func (d *Double) QuantitationTypes() []*qtmatrix.QuantitationType {
	return d.qts
}

func (d *Double) At(i, j int) float64 {
	return d.data.At(i, j)
}

// Set writes one cell. It is used while a matrix is being built; derived
// matrices are never modified in place.
func (d *Double) Set(i, j int, v float64) {
	d.data.Set(i, j, v)
}

// Get looks a cell up by design element and bioassay ID.
func (d *Double) Get(designElementID, bioAssayID int64) (float64, bool) {
	i, ok := d.RowIndex(designElementID)
	if !ok {
		return math.NaN(), false
	}
	j, ok := d.ColIndex(bioAssayID)
	if !ok {
		return math.NaN(), false
	}
	return d.data.At(i, j), true
}

// Row returns a copy of row i.
func (d *Double) Row(i int) []float64 {
	out := make([]float64, d.NumCols())
	if d.data != nil {
		copy(out, d.data.RawRowView(i))
	}
	return out
}

// Col returns a copy of column j.
func (d *Double) Col(j int) []float64 {
	out := make([]float64, d.NumRows())
	if d.data != nil {
		mat.Col(out, j, d.data)
	}
	return out
}

// Dense exposes the backing matrix, or nil for an empty matrix.
func (d *Double) Dense() *mat.Dense {
	return d.data
}

// CountMissing counts NaN cells.
func (d *Double) CountMissing() int {
	if d.data == nil {
		return 0
	}
	n := 0
	for i := 0; i < d.NumRows(); i++ {
		for _, v := range d.data.RawRowView(i) {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}

// Equal compares labels and values; NaN equals NaN.
func (d *Double) Equal(o *Double) bool {
	if !d.SameOrder(o.Axes) {
		return false
	}
	for i := 0; i < d.NumRows(); i++ {
		for j := 0; j < d.NumCols(); j++ {
			a, b := d.At(i, j), o.At(i, j)
			if math.IsNaN(a) && math.IsNaN(b) {
				continue
			}
			if a != b {
				return false
			}
		}
	}
	return true
}

// aligned returns b's values permuted into a's row and column order.
func aligned(a, b *Double) *mat.Dense {
	if a.SameOrder(b.Axes) {
		return b.data
	}
	out := mat.NewDense(a.NumRows(), a.NumCols(), nil)
	for i, de := range a.rows {
		bi := b.rowIndex[de.ID]
		for j, ba := range a.cols {
			out.Set(i, j, b.data.At(bi, b.colIndex[ba.ID]))
		}
	}
	return out
}
