package align

import (
	"fmt"
	"math"

	"github.com/carbocation/qtmatrix"
)

// segment is a run of values in an output vector. src is nil when the run
// is filled with the representation's default; otherwise idx[i] is the
// column of src to copy, or -1 for a default.
type segment struct {
	src *qtmatrix.DataVector
	idx []int
	n   int
}

// assemble concatenates segs into an encoded buffer of rep and reports how
// many values are missing, counting defaults and missing source values
// alike.
func assemble(rep qtmatrix.Representation, segs []segment) ([]byte, int, error) {
	switch rep {
	case qtmatrix.RepresentationDouble:
		return assembleAs(segs, math.NaN(), qtmatrix.DecodeDoubles, qtmatrix.EncodeDoubles, math.IsNaN)
	case qtmatrix.RepresentationInt:
		return assembleAs(segs, 0, qtmatrix.DecodeInts, qtmatrix.EncodeInts, never[int])
	case qtmatrix.RepresentationLong:
		return assembleAs(segs, int64(0), qtmatrix.DecodeLongs, qtmatrix.EncodeLongs, never[int64])
	case qtmatrix.RepresentationBoolean:
		decode := func(b []byte) ([]bool, error) { return qtmatrix.DecodeBools(b), nil }
		return assembleAs(segs, false, decode, qtmatrix.EncodeBools, never[bool])
	case qtmatrix.RepresentationString:
		decode := func(b []byte) ([]string, error) { return qtmatrix.DecodeStrings(b), nil }
		return assembleAs(segs, "", decode, qtmatrix.EncodeStrings, isEmpty)
	case qtmatrix.RepresentationChar:
		return assembleAs(segs, "", qtmatrix.DecodeChars, qtmatrix.EncodeChars, isEmpty)
	}
	return nil, 0, qtmatrix.NewError(qtmatrix.KindUnsupportedRepresentation, "align.assemble", fmt.Errorf("cannot align %s vectors", rep))
}

func never[T any](T) bool { return false }

func isEmpty(s string) bool { return s == "" }

func assembleAs[T any](segs []segment, def T, decode func([]byte) ([]T, error), encode func([]T) []byte, missing func(T) bool) ([]byte, int, error) {
	var out []T
	numMissing := 0
	for _, s := range segs {
		if s.src == nil {
			for i := 0; i < s.n; i++ {
				out = append(out, def)
			}
			numMissing += s.n
			continue
		}

		vals, err := decode(s.src.Data)
		if err != nil {
			return nil, 0, err
		}
		if len(vals) != s.src.Dimension.Len() {
			return nil, 0, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "align.assemble",
				"vector for %s / %s has %d values but its dimension has %d samples",
				s.src.DesignElement, s.src.QuantitationType, len(vals), s.src.Dimension.Len())
		}

		if s.idx == nil {
			for _, v := range vals {
				if missing(v) {
					numMissing++
				}
			}
			out = append(out, vals...)
			continue
		}
		for _, j := range s.idx {
			if j < 0 {
				out = append(out, def)
				numMissing++
				continue
			}
			if missing(vals[j]) {
				numMissing++
			}
			out = append(out, vals[j])
		}
	}
	return encode(out), numMissing, nil
}
