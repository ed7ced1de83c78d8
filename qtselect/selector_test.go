package qtselect

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/channel"
	"github.com/carbocation/qtmatrix/qtmatrixtest"
)

var nan = math.NaN()

// withMissing returns a vector of n values of which the first k are NaN.
func withMissing(n, k int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
		if i < k {
			out[i] = nan
		}
	}
	return out
}

func TestResolvePrefersFewerMissing(t *testing.T) {
	ad := &qtmatrix.ArrayDesign{ID: 1, TechnologyType: qtmatrix.TechnologyTwoColor}
	dim := qtmatrixtest.Dimension(1, 1, 2, 3, 4, 5, 6)
	worse := qtmatrixtest.Double(10, "CH1I_MEAN")  // 5 missing
	better := qtmatrixtest.Double(11, "CH1_MEDIAN") // 3 missing
	de := qtmatrixtest.Element(1, ad)

	vWorse := qtmatrixtest.Vector(de, worse, dim, withMissing(6, 5))
	vBetter := qtmatrixtest.Vector(de, better, dim, withMissing(6, 3))

	for name, order := range map[string][]*qtmatrix.DataVector{
		"worse first":  {vWorse, vBetter},
		"better first": {vBetter, vWorse},
	} {
		order := order
		t.Run(name, func(t *testing.T) {
			a, err := New(Config{}).Resolve(order, []*qtmatrix.BioAssayDimension{dim})
			require.NoError(t, err)
			assert.Equal(t, better.ID, a.Get(dim.ID, channel.SignalA).ID)
			assert.Equal(t, 5, a.NumMissing(worse))
			assert.Equal(t, 3, a.NumMissing(better))
			assert.True(t, a.AnyMissing())
		})
	}
}

func TestResolveTieKeepsFirstSeen(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	first := qtmatrixtest.Double(20, "CH2I_MEAN")
	second := qtmatrixtest.Double(21, "CH2_MEDIAN")
	de := qtmatrixtest.Element(1, nil)

	a, err := New(Config{}).Resolve([]*qtmatrix.DataVector{
		qtmatrixtest.Vector(de, first, dim, []float64{1, 2}),
		qtmatrixtest.Vector(de, second, dim, []float64{1, 2}),
	}, []*qtmatrix.BioAssayDimension{dim})
	require.NoError(t, err)
	assert.Equal(t, first.ID, a.Get(dim.ID, channel.SignalB).ID)
	assert.False(t, a.AnyMissing())
}

func TestResolveIsIdempotent(t *testing.T) {
	dimA := qtmatrixtest.Dimension(1, 1, 2)
	dimB := qtmatrixtest.Dimension(2, 3, 4)
	pref := qtmatrixtest.Preferred(1, "VALUE")
	sigA := qtmatrixtest.Double(2, "F532 Median")
	bkgA := qtmatrixtest.Double(3, "B532 Median")
	sigB := qtmatrixtest.Double(4, "F635 Median")

	var vectors []*qtmatrix.DataVector
	for i := int64(1); i <= 3; i++ {
		de := qtmatrixtest.Element(i, nil)
		for _, dim := range []*qtmatrix.BioAssayDimension{dimA, dimB} {
			for _, qt := range []*qtmatrix.QuantitationType{pref, sigA, bkgA, sigB} {
				vectors = append(vectors, qtmatrixtest.Vector(de, qt, dim, []float64{float64(i), nan}))
			}
		}
	}

	s := New(Config{})
	dims := []*qtmatrix.BioAssayDimension{dimA, dimB}
	first, err := s.Resolve(vectors, dims)
	require.NoError(t, err)
	second, err := s.Resolve(vectors, dims)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, pref.ID, first.Get(dimB.ID, channel.Preferred).ID)
	assert.Equal(t, bkgA.ID, first.Get(dimA.ID, channel.BackgroundA).ID)
	assert.Nil(t, first.Get(dimA.ID, channel.BackgroundB))
	assert.Len(t, first.ByRole(channel.SignalB), 2)
	assert.Equal(t, []*qtmatrix.QuantitationType{sigA}, first.QuantitationTypes(channel.SignalA))
}

func TestResolveAllOtherIsEmpty(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1)
	v := qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), qtmatrixtest.Double(1, "CH1_AREA"), dim, []float64{1})

	a, err := New(Config{}).Resolve([]*qtmatrix.DataVector{v}, []*qtmatrix.BioAssayDimension{dim})
	require.NoError(t, err)
	assert.True(t, a.Empty())
	assert.False(t, a.Has(channel.Preferred))
}

func TestResolveInvalidInput(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1)
	v := qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), qtmatrixtest.Double(1, "VALUE"), dim, []float64{1})

	_, err := New(Config{}).Resolve(nil, []*qtmatrix.BioAssayDimension{dim})
	require.True(t, errors.Is(err, qtmatrix.ErrInvalidInput))

	_, err = New(Config{}).Resolve([]*qtmatrix.DataVector{v}, nil)
	require.True(t, errors.Is(err, qtmatrix.ErrInvalidInput))
}

func TestMissingCountsStrings(t *testing.T) {
	qt := &qtmatrix.QuantitationType{ID: 5, Name: "CALL", Representation: qtmatrix.RepresentationString}
	dim := qtmatrixtest.Dimension(1, 1, 2, 3)
	v := qtmatrixtest.Vector(qtmatrixtest.Element(1, nil), qt, dim, []string{"P", "", "A"})

	counts, err := MissingCounts([]*qtmatrix.DataVector{v, v})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[5])
}
