// Package builder derives the standard analysis matrices (preferred data,
// intensity, channel signals and backgrounds, detection calls) from the
// heterogeneous vectors of one experiment.
package builder

import (
	"log/slog"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/channel"
	"github.com/carbocation/qtmatrix/matrix"
	"github.com/carbocation/qtmatrix/qtselect"
)

type Config struct {
	Logger *slog.Logger
	Policy *channel.Policy
}

// Builder resolves roles once, at construction, and then answers matrix
// requests from that fixed assignment. It is never modified after New
// returns and may be shared between goroutines.
type Builder struct {
	log        *slog.Logger
	vectors    []*qtmatrix.DataVector
	assignment *qtselect.Assignment
}

// New resolves the roles of vectors over their dimensions.
func New(cfg Config, vectors []*qtmatrix.DataVector) (*Builder, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if len(vectors) == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "builder.New", "no vectors")
	}

	a, err := qtselect.New(qtselect.Config{Logger: log, Policy: cfg.Policy}).Resolve(vectors, qtmatrix.Dimensions(vectors))
	if err != nil {
		return nil, err
	}

	return &Builder{
		log:        log,
		vectors:    append([]*qtmatrix.DataVector(nil), vectors...),
		assignment: a,
	}, nil
}

func (b *Builder) Assignment() *qtselect.Assignment {
	return b.assignment
}

// Vectors returns the vectors the builder was constructed with.
func (b *Builder) Vectors() []*qtmatrix.DataVector {
	return append([]*qtmatrix.DataVector(nil), b.vectors...)
}

// NumMissingValues is the number of missing values seen for qt.
func (b *Builder) NumMissingValues(qt *qtmatrix.QuantitationType) int {
	return b.assignment.NumMissing(qt)
}

// AnyMissing reports whether any vector had a missing value.
func (b *Builder) AnyMissing() bool {
	return b.assignment.AnyMissing()
}

// roleVectors keeps each vector whose quantitation type is the one chosen
// for role in the vector's own dimension.
func (b *Builder) roleVectors(role channel.Role) []*qtmatrix.DataVector {
	var out []*qtmatrix.DataVector
	for _, v := range b.vectors {
		qt := b.assignment.Get(v.Dimension.ID, role)
		if qt != nil && qt.ID == v.QuantitationType.ID {
			out = append(out, v)
		}
	}
	return out
}

// roleMatrix returns nil, without error, when no dimension has the role.
func (b *Builder) roleMatrix(role channel.Role) (*matrix.Double, error) {
	vectors := b.roleVectors(role)
	if len(vectors) == 0 {
		return nil, nil
	}
	b.warnMissing(role)
	return matrix.BuildDouble(vectors, nil)
}

func (b *Builder) warnMissing(role channel.Role) {
	for _, qt := range b.assignment.QuantitationTypes(role) {
		if n := b.assignment.NumMissing(qt); n > 0 {
			b.log.Warn("quantitation type has missing values", "role", role, "quantitation_type", qt.Name, "missing", n)
		}
	}
}

// PreferredData is the matrix of preferred values, or nil when no dimension
// has a preferred quantitation type.
func (b *Builder) PreferredData() (*matrix.Double, error) {
	m, err := b.roleMatrix(channel.Preferred)
	if err == nil && m == nil {
		b.log.Warn("no preferred quantitation type")
	}
	return m, err
}

func (b *Builder) SignalChannelB() (*matrix.Double, error) {
	m, err := b.roleMatrix(channel.SignalB)
	if err == nil && m == nil {
		b.log.Warn("no signal for channel B")
	}
	return m, err
}

func (b *Builder) BackgroundChannelA() (*matrix.Double, error) {
	m, err := b.roleMatrix(channel.BackgroundA)
	if err == nil && m == nil {
		b.log.Info("no background for channel A")
	}
	return m, err
}

func (b *Builder) BackgroundChannelB() (*matrix.Double, error) {
	m, err := b.roleMatrix(channel.BackgroundB)
	if err == nil && m == nil {
		b.log.Info("no background for channel B")
	}
	return m, err
}

func (b *Builder) BackgroundSubtractedChannelA() (*matrix.Double, error) {
	return b.roleMatrix(channel.BackgroundSubtractedA)
}

// SignalChannelA returns the channel A signal. Each dimension is handled
// on its own: recorded channel A vectors are used where there are some, and
// where there are none but channel B, the channel A background and the
// background-subtracted channel A signal were all recorded, channel A is
// rebuilt as background-subtracted plus background. Dimensions with neither
// have no columns. A channel A missing everywhere is nil, since some
// two-colour data sets legitimately omit it.
func (b *Builder) SignalChannelA() (*matrix.Double, error) {
	a := b.assignment

	reconstructed := make(map[int64][]*qtmatrix.DataVector)
	var unavailable int
	for _, d := range a.Dimensions() {
		switch {
		case a.Get(d.ID, channel.SignalA) != nil:
		case a.Get(d.ID, channel.SignalB) != nil && a.Get(d.ID, channel.BackgroundA) != nil &&
			a.Get(d.ID, channel.BackgroundSubtractedA) != nil:
			vs, err := b.reconstructChannelA(d)
			if err != nil {
				return nil, err
			}
			reconstructed[d.ID] = vs
		default:
			unavailable++
		}
	}
	rebuilt := len(reconstructed)

	// Columns follow the first-seen dimension order of the other channels.
	var vectors []*qtmatrix.DataVector
	for _, v := range b.vectors {
		if vs, ok := reconstructed[v.Dimension.ID]; ok {
			vectors = append(vectors, vs...)
			delete(reconstructed, v.Dimension.ID)
			continue
		}
		if qt := a.Get(v.Dimension.ID, channel.SignalA); qt != nil && qt.ID == v.QuantitationType.ID {
			vectors = append(vectors, v)
		}
	}

	if len(vectors) == 0 {
		b.log.Warn("no signal for channel A and it cannot be reconstructed",
			"has_signal_b", a.Has(channel.SignalB),
			"has_background_a", a.Has(channel.BackgroundA),
			"has_background_subtracted_a", a.Has(channel.BackgroundSubtractedA))
		return nil, nil
	}
	if rebuilt > 0 {
		b.log.Info("reconstructed channel A signal from background-subtracted signal and background", "dimensions", rebuilt)
	}
	if unavailable > 0 {
		b.log.Warn("no signal for channel A in some dimensions", "dimensions", unavailable)
	}
	b.warnMissing(channel.SignalA)
	return matrix.BuildDouble(vectors, nil)
}

// reconstructChannelA adds the background-subtracted channel A signal and
// the channel A background of each design element on d. The sums are tagged
// with the background-subtracted quantitation type.
func (b *Builder) reconstructChannelA(d *qtmatrix.BioAssayDimension) ([]*qtmatrix.DataVector, error) {
	subQT := b.assignment.Get(d.ID, channel.BackgroundSubtractedA)
	bkgQT := b.assignment.Get(d.ID, channel.BackgroundA)

	bkg := make(map[int64]*qtmatrix.DataVector)
	for _, v := range b.vectors {
		if v.Dimension.ID == d.ID && v.QuantitationType.ID == bkgQT.ID {
			bkg[v.DesignElement.ID] = v
		}
	}

	var out []*qtmatrix.DataVector
	for _, v := range b.vectors {
		if v.Dimension.ID != d.ID || v.QuantitationType.ID != subQT.ID {
			continue
		}
		partner, ok := bkg[v.DesignElement.ID]
		if !ok {
			continue
		}
		sub, err := v.Doubles()
		if err != nil {
			return nil, err
		}
		bg, err := partner.Doubles()
		if err != nil {
			return nil, err
		}
		if len(sub) != d.Len() || len(bg) != d.Len() {
			return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "builder.SignalChannelA",
				"%s on dimension %d: %d and %d values for %d samples", v.DesignElement, d.ID, len(sub), len(bg), d.Len())
		}
		for i := range sub {
			sub[i] += bg[i]
		}
		out = append(out, &qtmatrix.DataVector{
			ExperimentID:     v.ExperimentID,
			DesignElement:    v.DesignElement,
			QuantitationType: subQT,
			Dimension:        v.Dimension,
			Data:             qtmatrix.EncodeDoubles(sub),
		})
	}
	return out, nil
}

// MissingValueData is the present/absent matrix from the first
// PRESENTABSENT quantitation type of each dimension, or nil.
func (b *Builder) MissingValueData() (*matrix.Bool, error) {
	vectors := b.roleVectors(channel.PresentAbsent)
	if len(vectors) == 0 {
		b.log.Info("no present/absent quantitation type")
		return nil, nil
	}
	return matrix.BuildBool(vectors, nil)
}

// IsTwoColor reports whether any vector is on a two-colour or dual-mode
// platform.
func (b *Builder) IsTwoColor() bool {
	for _, v := range b.vectors {
		if v.DesignElement == nil || v.DesignElement.ArrayDesign == nil {
			continue
		}
		switch v.DesignElement.ArrayDesign.TechnologyType {
		case qtmatrix.TechnologyTwoColor, qtmatrix.TechnologyDualMode:
			return true
		}
	}
	return false
}

func (b *Builder) preferredIsRatio() bool {
	for _, qt := range b.assignment.QuantitationTypes(channel.Preferred) {
		if qt.IsRatio {
			return true
		}
	}
	return false
}

// Intensity is the per-cell overall intensity. For two-colour ratio data it
// is the mean of the log2 background-subtracted channel signals, or the one
// channel available. Otherwise it is the preferred data itself.
func (b *Builder) Intensity() (*matrix.Double, error) {
	if !(b.IsTwoColor() && b.preferredIsRatio()) {
		return b.PreferredData()
	}

	sigA, err := b.SignalChannelA()
	if err != nil {
		return nil, err
	}
	sigB, err := b.SignalChannelB()
	if err != nil {
		return nil, err
	}
	bkgA, err := b.BackgroundChannelA()
	if err != nil {
		return nil, err
	}
	bkgB, err := b.BackgroundChannelB()
	if err != nil {
		return nil, err
	}

	chA, err := logCorrected(sigA, bkgA)
	if err != nil {
		return nil, err
	}
	chB, err := logCorrected(sigB, bkgB)
	if err != nil {
		return nil, err
	}

	switch {
	case chA != nil && chB != nil:
		return matrix.Average(chA, chB)
	case chA != nil:
		return chA, nil
	case chB != nil:
		return chB, nil
	}
	b.log.Warn("neither channel has signal, intensity is unavailable")
	return nil, nil
}

// logCorrected is log2(signal - background), or log2(signal) without a
// background. A nil signal gives nil.
func logCorrected(signal, background *matrix.Double) (*matrix.Double, error) {
	if signal == nil {
		return nil, nil
	}
	if background != nil {
		var err error
		if signal, err = matrix.Subtract(signal, background); err != nil {
			return nil, err
		}
	}
	return matrix.Log2(signal)
}
