package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/carbocation/qtmatrix"
)

// Log2Base is the base used by Log2 and the intensity computation.
const Log2Base = 2.0

func checkKeys(op string, a, b *Double) error {
	if a == nil || b == nil {
		return qtmatrix.Errorf(qtmatrix.KindInvalidInput, op, "nil matrix")
	}
	if !a.SameKeys(b.Axes) {
		return qtmatrix.NewError(qtmatrix.KindDimensionMismatch, op,
			fmt.Errorf("%dx%d matrix does not share row and column keys with %dx%d matrix", a.NumRows(), a.NumCols(), b.NumRows(), b.NumCols()))
	}
	return nil
}

func derived(a *Double, qts []*qtmatrix.QuantitationType, compute func(dst *mat.Dense)) *Double {
	out := &Double{Axes: a.Axes, qts: qts}
	if a.data == nil {
		return out
	}
	out.data = mat.NewDense(a.NumRows(), a.NumCols(), nil)
	compute(out.data)
	return out
}

func mergeQTs(a, b *Double) []*qtmatrix.QuantitationType {
	return append(append([]*qtmatrix.QuantitationType(nil), a.qts...), b.qts...)
}

// Subtract returns a - b, element-wise. b may list its keys in a different
// order; the result uses a's order.
func Subtract(a, b *Double) (*Double, error) {
	if err := checkKeys("matrix.Subtract", a, b); err != nil {
		return nil, err
	}
	return derived(a, mergeQTs(a, b), func(dst *mat.Dense) {
		dst.Sub(a.data, aligned(a, b))
	}), nil
}

// Add returns a + b, element-wise.
func Add(a, b *Double) (*Double, error) {
	if err := checkKeys("matrix.Add", a, b); err != nil {
		return nil, err
	}
	return derived(a, mergeQTs(a, b), func(dst *mat.Dense) {
		dst.Add(a.data, aligned(a, b))
	}), nil
}

// Average returns (a + b) / 2, element-wise.
func Average(a, b *Double) (*Double, error) {
	sum, err := Add(a, b)
	if err != nil {
		return nil, err
	}
	return ScalarDivide(sum, 2)
}

// LogTransform takes the logarithm of every cell in the given base.
// Non-positive and NaN cells become NaN.
func LogTransform(a *Double, base float64) (*Double, error) {
	if a == nil {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "matrix.LogTransform", "nil matrix")
	}
	if base <= 0 || base == 1 {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidArgument, "matrix.LogTransform", "invalid logarithm base %v", base)
	}
	lb := math.Log(base)
	return derived(a, a.qts, func(dst *mat.Dense) {
		dst.Apply(func(_, _ int, v float64) float64 {
			if !(v > 0) {
				return math.NaN()
			}
			return math.Log(v) / lb
		}, a.data)
	}), nil
}

// Log2 is LogTransform in base 2.
func Log2(a *Double) (*Double, error) {
	return LogTransform(a, Log2Base)
}

// ScalarDivide divides every cell by s.
func ScalarDivide(a *Double, s float64) (*Double, error) {
	if a == nil {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "matrix.ScalarDivide", "nil matrix")
	}
	if s == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidArgument, "matrix.ScalarDivide", "division by zero")
	}
	return derived(a, a.qts, func(dst *mat.Dense) {
		dst.Apply(func(_, _ int, v float64) float64 { return v / s }, a.data)
	}), nil
}

// Mask returns a copy of a with every cell that present marks absent set
// to NaN. Both matrices must share keys.
func Mask(a *Double, present *Bool) (*Double, error) {
	if a == nil || present == nil {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "matrix.Mask", "nil matrix")
	}
	if !a.SameKeys(present.Axes) {
		return nil, qtmatrix.NewError(qtmatrix.KindDimensionMismatch, "matrix.Mask",
			fmt.Errorf("%dx%d mask does not share keys with %dx%d matrix", present.NumRows(), present.NumCols(), a.NumRows(), a.NumCols()))
	}
	return derived(a, a.qts, func(dst *mat.Dense) {
		dst.Apply(func(i, j int, v float64) float64 {
			pi, _ := present.RowIndex(a.rows[i].ID)
			pj, _ := present.ColIndex(a.cols[j].ID)
			if !present.At(pi, pj) {
				return math.NaN()
			}
			return v
		}, a.data)
	}), nil
}
