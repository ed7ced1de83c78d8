package align

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/qtmatrixtest"
)

func doubles(t *testing.T, v *qtmatrix.DataVector) []float64 {
	t.Helper()
	out, err := v.Doubles()
	require.NoError(t, err)
	return out
}

func byElement(vectors []*qtmatrix.DataVector) map[int64]*qtmatrix.DataVector {
	out := make(map[int64]*qtmatrix.DataVector)
	for _, v := range vectors {
		out[v.DesignElement.ID] = v
	}
	return out
}

type fixture struct {
	a, b    *qtmatrix.BioAssayDimension
	qt      *qtmatrix.QuantitationType
	vectors []*qtmatrix.DataVector
}

// newFixture has two disjoint dimensions of 3 and 2 samples. Probe 1 is on
// both, probe 2 only on the first and probe 3 has nothing but NaN.
func newFixture() fixture {
	nan := math.NaN()
	f := fixture{
		a:  qtmatrixtest.Dimension(2, 1, 2, 3),
		b:  qtmatrixtest.Dimension(1, 4, 5),
		qt: qtmatrixtest.Double(10, "VALUE"),
	}
	de1, de2, de3 := qtmatrixtest.Element(1, nil), qtmatrixtest.Element(2, nil), qtmatrixtest.Element(3, nil)
	f.vectors = []*qtmatrix.DataVector{
		qtmatrixtest.Vector(de1, f.qt, f.a, []float64{1, 2, 3}),
		qtmatrixtest.Vector(de1, f.qt, f.b, []float64{4, 5}),
		qtmatrixtest.Vector(de2, f.qt, f.a, []float64{6, 7, 8}),
		qtmatrixtest.Vector(de3, f.qt, f.a, []float64{nan, nan, nan}),
	}
	return f
}

func TestMergeOrdersByDimensionID(t *testing.T) {
	f := newFixture()

	res, err := Merge([]*qtmatrix.BioAssayDimension{f.a, f.b}, f.vectors, MergeOptions{ExpectedSamples: 5})
	require.NoError(t, err)
	assert.False(t, res.Reused)
	assert.True(t, res.Dimension.Merged)

	var ids []int64
	for _, ba := range res.Dimension.BioAssays {
		ids = append(ids, ba.ID)
	}
	assert.Equal(t, []int64{4, 5, 1, 2, 3}, ids)

	got := byElement(res.Vectors)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{4, 5, 1, 2, 3}, doubles(t, got[1]))

	v2 := doubles(t, got[2])
	assert.True(t, math.IsNaN(v2[0]) && math.IsNaN(v2[1]))
	assert.Equal(t, []float64{6, 7, 8}, v2[2:])
}

func TestMergeDropsAllMissingVectors(t *testing.T) {
	f := newFixture()

	res, err := Merge([]*qtmatrix.BioAssayDimension{f.a, f.b}, f.vectors, MergeOptions{})
	require.NoError(t, err)
	assert.NotContains(t, byElement(res.Vectors), int64(3))
	assert.Equal(t, 1, res.Dropped[f.qt.ID])
}

func TestMergeThenSliceRoundTrip(t *testing.T) {
	f := newFixture()

	res, err := Merge([]*qtmatrix.BioAssayDimension{f.a, f.b}, f.vectors, MergeOptions{})
	require.NoError(t, err)

	parts, err := Split([]*qtmatrix.BioAssayDimension{f.a, f.b}, res.Vectors)
	require.NoError(t, err)
	require.Len(t, parts, 2)

	a := byElement(parts[0])
	assert.Equal(t, []float64{1, 2, 3}, doubles(t, a[1]))
	assert.Equal(t, []float64{6, 7, 8}, doubles(t, a[2]))
	assert.Same(t, f.a, a[1].Dimension)

	b := byElement(parts[1])
	assert.Equal(t, []float64{4, 5}, doubles(t, b[1]))
	for _, v := range doubles(t, b[2]) {
		assert.True(t, math.IsNaN(v), "probe 2 was never measured on the second dimension")
	}
}

func TestMergeFillsStringsAndInts(t *testing.T) {
	a := qtmatrixtest.Dimension(1, 1, 2)
	b := qtmatrixtest.Dimension(2, 3)
	calls := &qtmatrix.QuantitationType{ID: 20, Name: "ABS_CALL", Representation: qtmatrix.RepresentationString}
	counts := &qtmatrix.QuantitationType{ID: 21, Name: "COUNT", Representation: qtmatrix.RepresentationInt}
	de1, de2 := qtmatrixtest.Element(1, nil), qtmatrixtest.Element(2, nil)

	res, err := Merge([]*qtmatrix.BioAssayDimension{a, b}, []*qtmatrix.DataVector{
		qtmatrixtest.Vector(de1, calls, a, []string{"P", "A"}),
		qtmatrixtest.Vector(de1, calls, b, []string{"M"}),
		qtmatrixtest.Vector(de2, calls, b, []string{"P"}),
		qtmatrixtest.Vector(de1, counts, a, []int{3, 4}),
		qtmatrixtest.Vector(de1, counts, b, []int{5}),
		qtmatrixtest.Vector(de2, counts, a, []int{6, 7}),
	}, MergeOptions{})
	require.NoError(t, err)
	require.Len(t, res.Vectors, 4)

	got := make(map[qtmatrix.VectorKey]interface{})
	for _, v := range res.Vectors {
		vals, err := v.Values()
		require.NoError(t, err)
		got[v.Key()] = vals
	}
	assert.Equal(t, []string{"P", "A", "M"}, got[qtmatrix.VectorKey{DesignElementID: 1, QuantitationTypeID: 20}])
	assert.Equal(t, []string{"", "", "P"}, got[qtmatrix.VectorKey{DesignElementID: 2, QuantitationTypeID: 20}])
	assert.Equal(t, []int{3, 4, 5}, got[qtmatrix.VectorKey{DesignElementID: 1, QuantitationTypeID: 21}])
	assert.Equal(t, []int{6, 7, 0}, got[qtmatrix.VectorKey{DesignElementID: 2, QuantitationTypeID: 21}])
}

func TestMergeFailures(t *testing.T) {
	f := newFixture()
	dims := []*qtmatrix.BioAssayDimension{f.a, f.b}

	tests := []struct {
		name    string
		dims    []*qtmatrix.BioAssayDimension
		vectors []*qtmatrix.DataVector
		opts    MergeOptions
	}{
		{"no dimensions", nil, f.vectors, MergeOptions{}},
		{"no vectors", dims, nil, MergeOptions{}},
		{"duplicate sample", []*qtmatrix.BioAssayDimension{f.a, qtmatrixtest.Dimension(3, 3, 9)}, f.vectors, MergeOptions{}},
		{"wrong sample count", dims, f.vectors, MergeOptions{ExpectedSamples: 6}},
		{"already merged", []*qtmatrix.BioAssayDimension{f.a, qtmatrixtest.Dimension(3)}, f.vectors[2:], MergeOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(tt.dims, tt.vectors, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, qtmatrix.ErrMerge), err.Error())
			assert.True(t, qtmatrix.KindOf(err).Fatal())
		})
	}
}

func TestMergeFillsQuantitationTypesSeenOnOneDimension(t *testing.T) {
	f := newFixture()
	bkg := qtmatrixtest.Double(11, "CH1B_MEAN")
	only := []*qtmatrix.DataVector{
		qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), bkg, f.a, []float64{1, 2, 3}),
		qtmatrixtest.Vector(qtmatrixtest.Element(2, nil), bkg, f.a, []float64{4, 5, 6}),
	}
	dims := []*qtmatrix.BioAssayDimension{f.a, f.b}

	for name, vectors := range map[string][]*qtmatrix.DataVector{
		"with other types": append(append([]*qtmatrix.DataVector(nil), f.vectors...), only...),
		"alone":            only,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := Merge(dims, vectors, MergeOptions{})
			require.NoError(t, err)
			assert.Empty(t, res.Skipped)

			var got []*qtmatrix.DataVector
			for _, v := range res.Vectors {
				if v.QuantitationType.ID == bkg.ID {
					got = append(got, v)
				}
			}
			require.Len(t, got, 2)
			for i, want := range [][]float64{{1, 2, 3}, {4, 5, 6}} {
				vals := doubles(t, got[i])
				require.Len(t, vals, 5)
				assert.True(t, math.IsNaN(vals[0]) && math.IsNaN(vals[1]), "dimension %d has no %s", f.b.ID, bkg.Name)
				assert.Equal(t, want, vals[2:])
				assert.Same(t, res.Dimension, got[i].Dimension)
			}
		})
	}
}

func TestMergeSkipsVectorsAlreadyOnReusedDimension(t *testing.T) {
	full := qtmatrixtest.Dimension(1, 1, 2, 3)
	empty := qtmatrixtest.Dimension(2)
	qt := qtmatrixtest.Double(10, "VALUE")
	other := qtmatrixtest.Double(11, "OTHER")
	v := qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), qt, full, []float64{1, 2, 3})
	moved := qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), other, full, []float64{4, 5, 6})
	moved.Dimension = qtmatrixtest.Dimension(1, 1, 2, 3)
	third := qtmatrixtest.Double(12, "THIRD")
	unmeasured := qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), third, empty, []float64{})

	res, err := Merge([]*qtmatrix.BioAssayDimension{full, empty}, []*qtmatrix.DataVector{v, moved, unmeasured}, MergeOptions{})
	require.NoError(t, err)
	assert.True(t, res.Reused)
	require.Len(t, res.Skipped, 2, "loaded copies of the reused dimension match by ID")
	assert.Empty(t, res.Vectors)
	assert.Equal(t, 1, res.Dropped[third.ID])
}

func TestCombineReusesMatchingDimension(t *testing.T) {
	full := qtmatrixtest.Dimension(1, 1, 2, 3)
	empty := qtmatrixtest.Dimension(2)

	got, reused, err := combine([]*qtmatrix.BioAssayDimension{full, empty})
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Same(t, full, got)

	// Same samples, different order: not reusable.
	got, reused, err = combine([]*qtmatrix.BioAssayDimension{qtmatrixtest.Dimension(1, 2), qtmatrixtest.Dimension(2, 1)})
	require.NoError(t, err)
	assert.False(t, reused)
	assert.Equal(t, 2, got.Len())
}

func TestSliceKeepsTargetOrderAndFills(t *testing.T) {
	src := qtmatrixtest.Dimension(1, 1, 2, 3)
	qt := qtmatrixtest.Double(10, "VALUE")
	de := qtmatrixtest.Element(1, nil)
	v := qtmatrixtest.Vector(de, qt, src, []float64{10, 20, 30})

	target := qtmatrixtest.Dimension(5, 3, 9, 1)
	got, err := Slice(target, []*qtmatrix.DataVector{v})
	require.NoError(t, err)
	require.Len(t, got, 1)

	vals := doubles(t, got[0])
	assert.Equal(t, 30.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]))
	assert.Equal(t, 10.0, vals[2])
}

func TestSliceOmitsVectorsWithoutOverlap(t *testing.T) {
	src := qtmatrixtest.Dimension(1, 1, 2)
	v := qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), qtmatrixtest.Double(10, "VALUE"), src, []float64{1, 2})

	got, err := Slice(qtmatrixtest.Dimension(2, 7, 8), []*qtmatrix.DataVector{v})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Slice(qtmatrixtest.Dimension(3), []*qtmatrix.DataVector{v})
	assert.True(t, errors.Is(err, qtmatrix.ErrInvalidInput))
}

func TestSplitRejectsOverlappingParts(t *testing.T) {
	f := newFixture()
	_, err := Split([]*qtmatrix.BioAssayDimension{f.a, qtmatrixtest.Dimension(9, 3)}, f.vectors)
	assert.True(t, errors.Is(err, qtmatrix.ErrInvalidInput))
}
