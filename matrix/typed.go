package matrix

import (
	"github.com/carbocation/qtmatrix"
)

// Labelled is a row-major labelled matrix for the non-double
// representations.
type Labelled[T any] struct {
	Axes
	qts    []*qtmatrix.QuantitationType
	rep    qtmatrix.Representation
	values []T
}

type (
	Int    = Labelled[int]
	Bool   = Labelled[bool]
	String = Labelled[string]
)

func newLabelled[T any](axes Axes, rep qtmatrix.Representation, fill T, qts []*qtmatrix.QuantitationType) *Labelled[T] {
	m := &Labelled[T]{Axes: axes, qts: qts, rep: rep, values: make([]T, axes.NumRows()*axes.NumCols())}
	for i := range m.values {
		m.values[i] = fill
	}
	return m
}

// NewInt returns a zero-filled int matrix.
func NewInt(axes Axes, qts ...*qtmatrix.QuantitationType) *Int {
	return newLabelled(axes, qtmatrix.RepresentationInt, 0, qts)
}

// NewBool returns an all-false (absent) boolean matrix.
func NewBool(axes Axes, qts ...*qtmatrix.QuantitationType) *Bool {
	return newLabelled(axes, qtmatrix.RepresentationBoolean, false, qts)
}

// NewString returns a matrix of empty strings.
func NewString(axes Axes, qts ...*qtmatrix.QuantitationType) *String {
	return newLabelled(axes, qtmatrix.RepresentationString, "", qts)
}

func (m *Labelled[T]) Representation() qtmatrix.Representation { return m.rep }

func (m *Labelled[T]) QuantitationTypes() []*qtmatrix.QuantitationType { return m.qts }

func (m *Labelled[T]) At(i, j int) T {
	return m.values[i*m.NumCols()+j]
}

func (m *Labelled[T]) Set(i, j int, v T) {
	m.values[i*m.NumCols()+j] = v
}

// Get looks a cell up by design element and bioassay ID.
func (m *Labelled[T]) Get(designElementID, bioAssayID int64) (T, bool) {
	var zero T
	i, ok := m.RowIndex(designElementID)
	if !ok {
		return zero, false
	}
	j, ok := m.ColIndex(bioAssayID)
	if !ok {
		return zero, false
	}
	return m.At(i, j), true
}

// Row returns a copy of row i.
func (m *Labelled[T]) Row(i int) []T {
	c := m.NumCols()
	return append([]T(nil), m.values[i*c:(i+1)*c]...)
}
