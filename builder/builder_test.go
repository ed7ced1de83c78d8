package builder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/qtmatrixtest"
)

var (
	twoColor = &qtmatrix.ArrayDesign{ID: 1, ShortName: "GPL2C", TechnologyType: qtmatrix.TechnologyTwoColor}
	oneColor = &qtmatrix.ArrayDesign{ID: 2, ShortName: "GPL1C", TechnologyType: qtmatrix.TechnologyOneColor}

	ratio  = func() *qtmatrix.QuantitationType { qt := qtmatrixtest.Preferred(1, "LOG_RATIO"); qt.IsRatio = true; return qt }()
	sigA   = qtmatrixtest.Double(2, "CH1I_MEAN")
	sigB   = qtmatrixtest.Double(3, "CH2I_MEAN")
	bkgA   = qtmatrixtest.Double(4, "CH1B_MEDIAN")
	bkgB   = qtmatrixtest.Double(5, "CH2B_MEDIAN")
	bkgSub = qtmatrixtest.Double(6, "CH1D_MEAN")
)

type cells map[*qtmatrix.QuantitationType][]float64

func vectorsOf(ad *qtmatrix.ArrayDesign, dim *qtmatrix.BioAssayDimension, rows ...cells) []*qtmatrix.DataVector {
	var out []*qtmatrix.DataVector
	for i, row := range rows {
		de := qtmatrixtest.Element(int64(i+1), ad)
		for _, qt := range []*qtmatrix.QuantitationType{ratio, sigA, sigB, bkgA, bkgB, bkgSub} {
			if vals, ok := row[qt]; ok {
				out = append(out, qtmatrixtest.Vector(de, qt, dim, vals))
			}
		}
	}
	return out
}

func TestSignalChannelAReconstruction(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	b, err := New(Config{}, vectorsOf(twoColor, dim,
		cells{sigB: {5, 6}, bkgA: {1, 2}, bkgSub: {10, 20}},
		cells{sigB: {7, 8}, bkgA: {3, 4}, bkgSub: {30, 40}},
	))
	require.NoError(t, err)

	got, err := b.SignalChannelA()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []float64{11, 22}, got.Row(0))
	assert.Equal(t, []float64{33, 44}, got.Row(1))
}

func TestSignalChannelAUnavailable(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)

	// Background without the background-subtracted signal is not enough.
	b, err := New(Config{}, vectorsOf(twoColor, dim, cells{sigB: {5, 6}, bkgA: {1, 2}}))
	require.NoError(t, err)

	got, err := b.SignalChannelA()
	require.NoError(t, err)
	assert.Nil(t, got)

	sb, err := b.SignalChannelB()
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, sb.Row(0))
}

func TestSignalChannelARecorded(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	b, err := New(Config{}, vectorsOf(twoColor, dim, cells{sigA: {9, 9}, sigB: {5, 6}, bkgA: {1, 2}, bkgSub: {10, 20}}))
	require.NoError(t, err)

	got, err := b.SignalChannelA()
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 9}, got.Row(0))
}

func TestSignalChannelAPerDimension(t *testing.T) {
	recorded := vectorsOf(twoColor, qtmatrixtest.Dimension(1, 1, 2), cells{sigA: {9, 8}, sigB: {5, 6}})
	rebuilt := vectorsOf(twoColor, qtmatrixtest.Dimension(2, 3, 4), cells{sigB: {7, 7}, bkgA: {1, 2}, bkgSub: {10, 20}})

	for name, vectors := range map[string][]*qtmatrix.DataVector{
		"recorded first": append(append([]*qtmatrix.DataVector(nil), recorded...), rebuilt...),
		"rebuilt first":  append(append([]*qtmatrix.DataVector(nil), rebuilt...), recorded...),
	} {
		t.Run(name, func(t *testing.T) {
			b, err := New(Config{}, vectors)
			require.NoError(t, err)

			sa, err := b.SignalChannelA()
			require.NoError(t, err)
			sb, err := b.SignalChannelB()
			require.NoError(t, err)
			require.NotNil(t, sa)
			require.Equal(t, 4, sa.NumCols())
			assert.True(t, sa.SameOrder(sb.Axes), "channel A columns line up with channel B")

			for ba, want := range map[int64]float64{1: 9, 2: 8, 3: 11, 4: 22} {
				got, ok := sa.Get(1, ba)
				require.True(t, ok)
				assert.Equal(t, want, got, "sample %d", ba)
			}
		})
	}
}

func TestSignalChannelAPartlyUnavailable(t *testing.T) {
	recorded := qtmatrixtest.Dimension(1, 1, 2)
	bare := qtmatrixtest.Dimension(2, 3)
	vectors := append(
		vectorsOf(twoColor, recorded, cells{sigA: {9, 8}, sigB: {5, 6}}),
		vectorsOf(twoColor, bare, cells{sigB: {7}})...,
	)
	b, err := New(Config{}, vectors)
	require.NoError(t, err)

	sa, err := b.SignalChannelA()
	require.NoError(t, err)
	assert.Equal(t, 2, sa.NumCols())
}

func TestIntensityTwoColor(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	b, err := New(Config{}, vectorsOf(twoColor, dim,
		cells{ratio: {0.1, 0.2}, sigA: {10, 1}, bkgA: {2, 2}, sigB: {34, 6}, bkgB: {2, 2}},
	))
	require.NoError(t, err)

	got, err := b.Intensity()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4.0, got.At(0, 0), "mean of log2(8) and log2(32)")
	assert.True(t, got.At(0, 1) != got.At(0, 1), "channel A below background is NaN")
}

func TestIntensityOneChannel(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1)
	b, err := New(Config{}, vectorsOf(twoColor, dim, cells{ratio: {0.1}, sigB: {34}, bkgB: {2}}))
	require.NoError(t, err)

	got, err := b.Intensity()
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.At(0, 0))
}

func TestIntensityNoChannels(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1)
	b, err := New(Config{}, vectorsOf(twoColor, dim, cells{ratio: {0.1}}))
	require.NoError(t, err)

	got, err := b.Intensity()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIntensityOneColorIsPreferred(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	b, err := New(Config{}, vectorsOf(oneColor, dim, cells{ratio: {7, 8}, sigA: {100, 100}}))
	require.NoError(t, err)

	got, err := b.Intensity()
	require.NoError(t, err)
	pref, err := b.PreferredData()
	require.NoError(t, err)
	assert.True(t, got.Equal(pref))
	assert.False(t, b.IsTwoColor())
}

func TestPerDimensionSelection(t *testing.T) {
	dimA := qtmatrixtest.Dimension(1, 1)
	dimB := qtmatrixtest.Dimension(2, 2)
	other := qtmatrixtest.Preferred(7, "VALUE2")
	de := qtmatrixtest.Element(1, oneColor)

	// dimB carries both preferred types; only the first-seen one is used there.
	b, err := New(Config{}, []*qtmatrix.DataVector{
		qtmatrixtest.Vector(de, ratio, dimA, []float64{1}),
		qtmatrixtest.Vector(de, other, dimB, []float64{2}),
		qtmatrixtest.Vector(de, ratio, dimB, []float64{3}),
	})
	require.NoError(t, err)

	pref, err := b.PreferredData()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, pref.Row(0))
}

func TestMissingValueData(t *testing.T) {
	dim := qtmatrixtest.Dimension(1, 1, 2)
	call := &qtmatrix.QuantitationType{ID: 9, Name: "Detection call", Representation: qtmatrix.RepresentationBoolean, StandardType: qtmatrix.StandardTypePresentAbsent}
	de := qtmatrixtest.Element(1, oneColor)

	b, err := New(Config{}, []*qtmatrix.DataVector{
		qtmatrixtest.Vector(de, ratio, dim, []float64{1, 2}),
		qtmatrixtest.Vector(de, call, dim, []bool{true, false}),
	})
	require.NoError(t, err)

	mv, err := b.MissingValueData()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, mv.Row(0))

	b, err = New(Config{}, []*qtmatrix.DataVector{qtmatrixtest.Vector(de, ratio, dim, []float64{1, 2})})
	require.NoError(t, err)
	mv, err = b.MissingValueData()
	require.NoError(t, err)
	assert.Nil(t, mv)
}

func TestNewRequiresVectors(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.True(t, errors.Is(err, qtmatrix.ErrInvalidInput))
}

func TestUsefulQuantitationTypes(t *testing.T) {
	area := qtmatrixtest.Double(8, "CH1_AREA")
	call := &qtmatrix.QuantitationType{ID: 9, Name: "ABS_CALL", StandardType: qtmatrix.StandardTypePresentAbsent}
	all := []*qtmatrix.QuantitationType{ratio, area, sigA, bkgSub, call}

	assert.Equal(t, []*qtmatrix.QuantitationType{ratio, sigA, bkgSub, call}, UsefulQuantitationTypes(nil, all))
	assert.Equal(t, []*qtmatrix.QuantitationType{ratio}, PreferredQuantitationTypes(all))
	assert.Equal(t, []*qtmatrix.QuantitationType{call}, MissingValueQuantitationTypes(all))
}
