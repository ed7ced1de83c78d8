package matrix

import (
	"fmt"
	"strings"

	"github.com/carbocation/qtmatrix"
)

// Matrix is implemented by Double, Int, Bool and String.
type Matrix interface {
	NumRows() int
	NumCols() int
	Rows() []*qtmatrix.DesignElement
	Cols() []*qtmatrix.BioAssay
	Representation() qtmatrix.Representation
	QuantitationTypes() []*qtmatrix.QuantitationType
}

// Build constructs a matrix from the vectors whose quantitation type is in
// qts (all vectors when qts is empty). The representation of the first
// selected vector decides the matrix type.
func Build(vectors []*qtmatrix.DataVector, qts []*qtmatrix.QuantitationType) (Matrix, error) {
	selected := Select(vectors, qts)
	if len(selected) == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "matrix.Build", "no vectors for the requested quantitation types")
	}

	var (
		m   Matrix
		err error
	)
	switch rep := selected[0].QuantitationType.Representation; rep {
	case qtmatrix.RepresentationDouble:
		m, err = BuildDouble(selected, nil)
	case qtmatrix.RepresentationString:
		m, err = BuildString(selected, nil)
	case qtmatrix.RepresentationInt:
		m, err = BuildInt(selected, nil)
	case qtmatrix.RepresentationBoolean:
		m, err = BuildBool(selected, nil)
	default:
		return nil, qtmatrix.NewError(qtmatrix.KindUnsupportedRepresentation, "matrix.Build", fmt.Errorf("cannot build a matrix of %s", rep))
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Select keeps the vectors whose quantitation type ID is in qts, preserving
// order. An empty qts keeps everything.
func Select(vectors []*qtmatrix.DataVector, qts []*qtmatrix.QuantitationType) []*qtmatrix.DataVector {
	if len(qts) == 0 {
		return vectors
	}
	keep := make(map[int64]struct{}, len(qts))
	for _, qt := range qts {
		if qt != nil {
			keep[qt.ID] = struct{}{}
		}
	}
	var out []*qtmatrix.DataVector
	for _, v := range vectors {
		if _, ok := keep[v.QuantitationType.ID]; ok {
			out = append(out, v)
		}
	}
	return out
}

// axesFor lays out one row per distinct design element and the union of the
// vectors' bioassays as columns, both in first-seen order.
func axesFor(vectors []*qtmatrix.DataVector) (Axes, []*qtmatrix.QuantitationType) {
	var rows []*qtmatrix.DesignElement
	var cols []*qtmatrix.BioAssay
	var qts []*qtmatrix.QuantitationType
	seenDim := make(map[int64]struct{})
	seenQT := make(map[int64]struct{})
	rowDims := make(map[int64][]*qtmatrix.BioAssayDimension)
	for _, v := range vectors {
		rows = append(rows, v.DesignElement)
		rowDims[v.DesignElement.ID] = appendDim(rowDims[v.DesignElement.ID], v.Dimension)
		if _, ok := seenDim[v.Dimension.ID]; !ok {
			seenDim[v.Dimension.ID] = struct{}{}
			cols = append(cols, v.Dimension.BioAssays...)
		}
		if _, ok := seenQT[v.QuantitationType.ID]; !ok {
			seenQT[v.QuantitationType.ID] = struct{}{}
			qts = append(qts, v.QuantitationType)
		}
	}
	axes := NewAxes(rows, cols)
	axes.rowDims = rowDims
	return axes, qts
}

func appendDim(dims []*qtmatrix.BioAssayDimension, d *qtmatrix.BioAssayDimension) []*qtmatrix.BioAssayDimension {
	for _, x := range dims {
		if x.ID == d.ID {
			return dims
		}
	}
	return append(dims, d)
}

func checkLength(op string, v *qtmatrix.DataVector, n int) error {
	if n != v.Dimension.Len() {
		return qtmatrix.NewError(qtmatrix.KindInvalidInput, op,
			fmt.Errorf("vector for %s/%s has %d values but its dimension has %d bioassays", v.DesignElement, v.QuantitationType.Name, n, v.Dimension.Len()))
	}
	return nil
}

// BuildDouble builds a double matrix. Integer, long, boolean and numeric
// string data are converted.
func BuildDouble(vectors []*qtmatrix.DataVector, qts []*qtmatrix.QuantitationType) (*Double, error) {
	selected := Select(vectors, qts)
	axes, used := axesFor(selected)
	out := NewDouble(axes, used...)
	for _, v := range selected {
		vals, err := v.Doubles()
		if err != nil {
			return nil, err
		}
		if err := checkLength("matrix.BuildDouble", v, len(vals)); err != nil {
			return nil, err
		}
		i, _ := axes.RowIndex(v.DesignElement.ID)
		for k, ba := range v.Dimension.BioAssays {
			j, _ := axes.ColIndex(ba.ID)
			out.Set(i, j, vals[k])
		}
	}
	return out, nil
}

func fill[T any](op string, out *Labelled[T], selected []*qtmatrix.DataVector, decode func(*qtmatrix.DataVector) ([]T, error)) (*Labelled[T], error) {
	for _, v := range selected {
		vals, err := decode(v)
		if err != nil {
			return nil, err
		}
		if err := checkLength(op, v, len(vals)); err != nil {
			return nil, err
		}
		i, _ := out.RowIndex(v.DesignElement.ID)
		for k, ba := range v.Dimension.BioAssays {
			j, _ := out.ColIndex(ba.ID)
			out.Set(i, j, vals[k])
		}
	}
	return out, nil
}

func BuildInt(vectors []*qtmatrix.DataVector, qts []*qtmatrix.QuantitationType) (*Int, error) {
	selected := Select(vectors, qts)
	axes, used := axesFor(selected)
	return fill("matrix.BuildInt", NewInt(axes, used...), selected, func(v *qtmatrix.DataVector) ([]int, error) {
		switch v.QuantitationType.Representation {
		case qtmatrix.RepresentationInt:
			return qtmatrix.DecodeInts(v.Data)
		case qtmatrix.RepresentationLong:
			longs, err := qtmatrix.DecodeLongs(v.Data)
			if err != nil {
				return nil, err
			}
			out := make([]int, len(longs))
			for i, l := range longs {
				out[i] = int(l)
			}
			return out, nil
		}
		return nil, qtmatrix.NewError(qtmatrix.KindUnsupportedRepresentation, "matrix.BuildInt", fmt.Errorf("%s is not integral", v.QuantitationType.Representation))
	})
}

func BuildString(vectors []*qtmatrix.DataVector, qts []*qtmatrix.QuantitationType) (*String, error) {
	selected := Select(vectors, qts)
	axes, used := axesFor(selected)
	return fill("matrix.BuildString", NewString(axes, used...), selected, func(v *qtmatrix.DataVector) ([]string, error) {
		switch v.QuantitationType.Representation {
		case qtmatrix.RepresentationString:
			return qtmatrix.DecodeStrings(v.Data), nil
		case qtmatrix.RepresentationChar:
			return qtmatrix.DecodeChars(v.Data)
		}
		return nil, qtmatrix.NewError(qtmatrix.KindUnsupportedRepresentation, "matrix.BuildString", fmt.Errorf("%s is not textual", v.QuantitationType.Representation))
	})
}

// BuildBool builds a boolean matrix. Textual present/absent calls are
// accepted: P, M (marginal) and their spelled-out forms count as present.
func BuildBool(vectors []*qtmatrix.DataVector, qts []*qtmatrix.QuantitationType) (*Bool, error) {
	selected := Select(vectors, qts)
	axes, used := axesFor(selected)
	return fill("matrix.BuildBool", NewBool(axes, used...), selected, func(v *qtmatrix.DataVector) ([]bool, error) {
		var calls []string
		switch v.QuantitationType.Representation {
		case qtmatrix.RepresentationBoolean:
			return qtmatrix.DecodeBools(v.Data), nil
		case qtmatrix.RepresentationString:
			calls = qtmatrix.DecodeStrings(v.Data)
		case qtmatrix.RepresentationChar:
			var err error
			if calls, err = qtmatrix.DecodeChars(v.Data); err != nil {
				return nil, err
			}
		default:
			return nil, qtmatrix.NewError(qtmatrix.KindUnsupportedRepresentation, "matrix.BuildBool", fmt.Errorf("%s is not a call", v.QuantitationType.Representation))
		}
		out := make([]bool, len(calls))
		for i, c := range calls {
			out[i] = IsPresentCall(c)
		}
		return out, nil
	})
}

// IsPresentCall interprets a textual detection call.
func IsPresentCall(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P", "PRESENT", "M", "MARGINAL", "TRUE", "T", "1":
		return true
	}
	return false
}
