package missingvalue

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/matrix"
)

// DefaultSignalToNoise is used when no threshold is configured.
const DefaultSignalToNoise = 2.0

// Inputs are the matrices a detection call is computed from. Preferred and
// at least one signal are required; backgrounds are optional.
type Inputs struct {
	Preferred   *matrix.Double
	SignalA     *matrix.Double
	SignalB     *matrix.Double
	BackgroundA *matrix.Double
	BackgroundB *matrix.Double
}

type Options struct {
	Logger            *slog.Logger
	SignalToNoise     float64
	MissingIndicators []float64
}

// Result holds the calls both as a matrix and as one boolean vector per
// design element and dimension, tagged with a new, unsaved quantitation
// type.
type Result struct {
	QuantitationType *qtmatrix.QuantitationType
	Calls            *matrix.Bool
	Vectors          []*qtmatrix.DataVector

	// SignalThreshold is NaN when backgrounds were available.
	SignalThreshold float64
}

// Validate checks that the inputs can be combined. Row count differences
// are only logged; sample count differences are fatal.
func Validate(in Inputs, snr float64, log *slog.Logger) error {
	const op = "missingvalue.Validate"
	if log == nil {
		log = slog.Default()
	}

	if !(snr > 0) {
		return qtmatrix.Errorf(qtmatrix.KindInvalidArgument, op, "signal to noise threshold must be positive, got %v", snr)
	}
	if in.Preferred == nil {
		return qtmatrix.Errorf(qtmatrix.KindInvalidInput, op, "preferred data is required")
	}
	if in.SignalA == nil && in.SignalB == nil {
		return qtmatrix.Errorf(qtmatrix.KindInvalidInput, op, "at least one signal channel is required")
	}
	if in.BackgroundA != nil && in.BackgroundA.NumRows() == 0 {
		return qtmatrix.Errorf(qtmatrix.KindInvalidInput, op, "background for channel A is empty")
	}
	if in.BackgroundB != nil && in.BackgroundB.NumRows() == 0 {
		return qtmatrix.Errorf(qtmatrix.KindInvalidInput, op, "background for channel B is empty")
	}

	prefRows := in.Preferred.NumRows()
	for _, ch := range []struct {
		name string
		m    *matrix.Double
	}{
		{"signal A", in.SignalA},
		{"signal B", in.SignalB},
		{"background A", in.BackgroundA},
		{"background B", in.BackgroundB},
	} {
		if ch.m != nil && ch.m.NumRows() != prefRows {
			log.Warn("channel and preferred data have different numbers of rows", "channel", ch.name, "rows", ch.m.NumRows(), "preferred_rows", prefRows)
		}
	}

	if in.SignalA != nil && in.SignalB != nil && in.SignalA.NumCols() != in.SignalB.NumCols() {
		return qtmatrix.NewError(qtmatrix.KindShapeMismatch, op,
			fmt.Errorf("signal A has %d samples but signal B has %d", in.SignalA.NumCols(), in.SignalB.NumCols()))
	}
	for _, sig := range []*matrix.Double{in.SignalA, in.SignalB} {
		if sig != nil && sig.NumCols() != in.Preferred.NumCols() {
			return qtmatrix.NewError(qtmatrix.KindShapeMismatch, op,
				fmt.Errorf("signal has %d samples but preferred data has %d", sig.NumCols(), in.Preferred.NumCols()))
		}
	}
	return nil
}

// NewQuantitationType describes the calls. The description records which
// kind of threshold was used.
func NewQuantitationType(usedBackground bool, threshold float64) *qtmatrix.QuantitationType {
	desc := fmt.Sprintf("Detection call based on signal to noise threshold of %v", threshold)
	if !usedBackground {
		desc = fmt.Sprintf("Detection call based on signal threshold of %v", threshold)
	}
	return &qtmatrix.QuantitationType{
		Name:           "Detection call",
		Description:    desc,
		GeneralType:    qtmatrix.GeneralTypeCategorical,
		StandardType:   qtmatrix.StandardTypePresentAbsent,
		Representation: qtmatrix.RepresentationBoolean,
	}
}

func lookup(m *matrix.Double, deID, baID int64) float64 {
	if m == nil {
		return math.NaN()
	}
	v, _ := m.Get(deID, baID)
	return v
}

// Compute calls every cell of the preferred matrix, fills the gaps of each
// row and packages the result.
func Compute(in Inputs, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	snr := opts.SignalToNoise
	if snr == 0 {
		snr = DefaultSignalToNoise
	}
	if err := Validate(in, snr, log); err != nil {
		return nil, err
	}

	rule := Rule{
		SignalToNoise:     snr,
		SignalThreshold:   math.NaN(),
		MissingIndicators: opts.MissingIndicators,
	}
	usedBackground := in.BackgroundA != nil || in.BackgroundB != nil
	threshold := snr
	if !usedBackground {
		st, err := SignalThreshold(in.SignalA, in.SignalB)
		if err != nil {
			return nil, qtmatrix.NewError(qtmatrix.KindStatistics, "missingvalue.Compute", err)
		}
		rule.SignalThreshold = st
		threshold = st
		log.Info("no background data, using a signal threshold", "threshold", st)
	}

	pref := in.Preferred
	qt := NewQuantitationType(usedBackground, threshold)
	calls := matrix.NewBool(pref.Axes, qt)
	row := make([]Call, pref.NumCols())
	for i, de := range pref.Rows() {
		for j, ba := range pref.Cols() {
			row[j] = rule.Decide(Cell{
				Preferred:   pref.At(i, j),
				SignalA:     lookup(in.SignalA, de.ID, ba.ID),
				SignalB:     lookup(in.SignalB, de.ID, ba.ID),
				BackgroundA: lookup(in.BackgroundA, de.ID, ba.ID),
				BackgroundB: lookup(in.BackgroundB, de.ID, ba.ID),
			})
		}
		for j, present := range FillGaps(row) {
			calls.Set(i, j, present)
		}
	}

	return &Result{
		QuantitationType: qt,
		Calls:            calls,
		Vectors:          Vectors(calls, pref, qt),
		SignalThreshold:  rule.SignalThreshold,
	}, nil
}

// Vectors splits a call matrix back into one vector per design element and
// dimension, using the dimensions layout recorded in like. Rows with no
// recorded dimension get a single dimension spanning every column.
func Vectors(calls *matrix.Bool, like *matrix.Double, qt *qtmatrix.QuantitationType) []*qtmatrix.DataVector {
	var all *qtmatrix.BioAssayDimension
	var out []*qtmatrix.DataVector
	for i, de := range calls.Rows() {
		dims := like.RowDimensions(de.ID)
		if len(dims) == 0 {
			if all == nil {
				all = &qtmatrix.BioAssayDimension{Name: "detection calls", BioAssays: calls.Cols()}
			}
			dims = []*qtmatrix.BioAssayDimension{all}
		}
		for _, dim := range dims {
			vals := make([]bool, dim.Len())
			for k, ba := range dim.BioAssays {
				if j, ok := calls.ColIndex(ba.ID); ok {
					vals[k] = calls.At(i, j)
				}
			}
			out = append(out, &qtmatrix.DataVector{
				DesignElement:    de,
				QuantitationType: qt,
				Dimension:        dim,
				Data:             qtmatrix.EncodeBools(vals),
			})
		}
	}
	return out
}
