package matrix

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/qtmatrixtest"
)

var nan = math.NaN()

func twoByTwo(t *testing.T, qt *qtmatrix.QuantitationType, dim *qtmatrix.BioAssayDimension, rows ...[]float64) *Double {
	t.Helper()
	var vectors []*qtmatrix.DataVector
	for i, r := range rows {
		vectors = append(vectors, qtmatrixtest.Vector(qtmatrixtest.Element(int64(i+1), nil), qt, dim, r))
	}
	m, err := BuildDouble(vectors, nil)
	require.NoError(t, err)
	return m
}

func TestBuildDoubleLayout(t *testing.T) {
	dimA := qtmatrixtest.Dimension(1, 10, 11)
	dimB := qtmatrixtest.Dimension(2, 12)
	qt := qtmatrixtest.Double(1, "VALUE")
	de1 := qtmatrixtest.Element(1, nil)
	de2 := qtmatrixtest.Element(2, nil)

	m, err := BuildDouble([]*qtmatrix.DataVector{
		qtmatrixtest.Vector(de1, qt, dimA, []float64{1, 2}),
		qtmatrixtest.Vector(de2, qt, dimB, []float64{3}),
		qtmatrixtest.Vector(de1, qt, dimB, []float64{4}),
	}, nil)
	require.NoError(t, err)

	require.Equal(t, 2, m.NumRows())
	require.Equal(t, 3, m.NumCols())
	assert.Equal(t, []float64{1, 2, 4}, m.Row(0))

	v, ok := m.Get(2, 12)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = m.Get(2, 10)
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))
	assert.Equal(t, 2, m.CountMissing())

	_, ok = m.Get(3, 10)
	assert.False(t, ok)
}

func TestBuildDispatch(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	de := qtmatrixtest.Element(1, nil)

	tests := []struct {
		rep    qtmatrix.Representation
		values interface{}
	}{
		{qtmatrix.RepresentationDouble, []float64{1, 2}},
		{qtmatrix.RepresentationInt, []int{1, 2}},
		{qtmatrix.RepresentationBoolean, []bool{true, false}},
		{qtmatrix.RepresentationString, []string{"a", "b"}},
	}
	for _, tt := range tests {
		qt := &qtmatrix.QuantitationType{ID: 1, Name: "X", Representation: tt.rep}
		m, err := Build([]*qtmatrix.DataVector{qtmatrixtest.Vector(de, qt, dim, tt.values)}, []*qtmatrix.QuantitationType{qt})
		require.NoError(t, err, tt.rep.String())
		assert.Equal(t, tt.rep, m.Representation())
		assert.Equal(t, 1, m.NumRows())
		assert.Equal(t, 2, m.NumCols())
	}

	long := &qtmatrix.QuantitationType{ID: 2, Name: "L", Representation: qtmatrix.RepresentationLong}
	_, err := Build([]*qtmatrix.DataVector{qtmatrixtest.Vector(de, long, dim, []int64{1, 2})}, nil)
	assert.True(t, errors.Is(err, qtmatrix.ErrUnsupportedRepresentation))

	_, err = Build(nil, nil)
	assert.True(t, errors.Is(err, qtmatrix.ErrInvalidInput))
}

func TestBuildRejectsShortVector(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2, 3)
	qt := qtmatrixtest.Double(1, "VALUE")
	v := &qtmatrix.DataVector{DesignElement: qtmatrixtest.Element(1, nil), QuantitationType: qt, Dimension: dim, Data: qtmatrix.EncodeDoubles([]float64{1, 2})}

	_, err := BuildDouble([]*qtmatrix.DataVector{v}, nil)
	assert.True(t, errors.Is(err, qtmatrix.ErrInvalidInput))
}

func TestBuildBoolFromCalls(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2, 3, 4)
	qt := &qtmatrix.QuantitationType{ID: 1, Name: "ABS_CALL", Representation: qtmatrix.RepresentationString, StandardType: qtmatrix.StandardTypePresentAbsent}
	m, err := BuildBool([]*qtmatrix.DataVector{qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), qt, dim, []string{"P", "A", "M", ""})}, nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, m.Row(0))
}

func TestAlgebra(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	a := twoByTwo(t, qtmatrixtest.Double(1, "A"), dim, []float64{10, 8}, []float64{4, nan})
	b := twoByTwo(t, qtmatrixtest.Double(2, "B"), dim, []float64{2, 8}, []float64{1, 1})

	diff, err := Subtract(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 0}, diff.Row(0))
	assert.Equal(t, 3.0, diff.At(1, 0))
	assert.True(t, math.IsNaN(diff.At(1, 1)))
	assert.Len(t, diff.QuantitationTypes(), 2)

	sum, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 16}, sum.Row(0))

	avg, err := Average(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 8}, avg.Row(0))

	logged, err := Log2(diff)
	require.NoError(t, err)
	assert.Equal(t, 3.0, logged.At(0, 0))
	assert.True(t, math.IsNaN(logged.At(0, 1)), "log of zero")

	half, err := ScalarDivide(a, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 4}, half.Row(0))

	// Inputs are untouched.
	assert.Equal(t, []float64{10, 8}, a.Row(0))

	_, err = ScalarDivide(a, 0)
	assert.True(t, errors.Is(err, qtmatrix.ErrInvalidArgument))
	_, err = LogTransform(a, 1)
	assert.True(t, errors.Is(err, qtmatrix.ErrInvalidArgument))
}

func TestAlgebraAlignsKeyOrder(t *testing.T) {
	qt := qtmatrixtest.Double(1, "A")
	a := twoByTwo(t, qt, qtmatrixtest.Dimension(1, 1, 2), []float64{10, 20})
	b := twoByTwo(t, qt, qtmatrixtest.Dimension(2, 2, 1), []float64{2, 1})

	diff, err := Subtract(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 18}, diff.Row(0))
}

func TestAlgebraDimensionMismatch(t *testing.T) {
	qt := qtmatrixtest.Double(1, "A")
	a := twoByTwo(t, qt, qtmatrixtest.Dimension(1, 1, 2), []float64{1, 2})
	b := twoByTwo(t, qt, qtmatrixtest.Dimension(2, 1, 3), []float64{1, 2})
	c := twoByTwo(t, qt, qtmatrixtest.Dimension(1, 1, 2), []float64{1, 2}, []float64{3, 4})

	for _, other := range []*Double{b, c} {
		_, err := Subtract(a, other)
		assert.True(t, errors.Is(err, qtmatrix.ErrDimensionMismatch))
		_, err = Add(a, other)
		assert.True(t, errors.Is(err, qtmatrix.ErrDimensionMismatch))
	}
}

func TestMask(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	a := twoByTwo(t, qtmatrixtest.Double(1, "A"), dim, []float64{1, 2})

	present := NewBool(a.Axes)
	present.Set(0, 1, true)

	masked, err := Mask(a, present)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(masked.At(0, 0)))
	assert.Equal(t, 2.0, masked.At(0, 1))

	_, err = Mask(a, NewBool(NewAxes(nil, nil)))
	assert.True(t, errors.Is(err, qtmatrix.ErrDimensionMismatch))
}

func TestEmptyDouble(t *testing.T) {
	d := NewDouble(NewAxes(nil, nil))
	assert.Equal(t, 0, d.CountMissing())
	out, err := Log2(d)
	require.NoError(t, err)
	assert.Equal(t, 0, out.NumRows())
}
