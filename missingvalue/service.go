package missingvalue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carbocation/pfx"
	"github.com/jonboulle/clockwork"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/builder"
	"github.com/carbocation/qtmatrix/channel"
	"github.com/carbocation/qtmatrix/matrix"
)

type ServiceConfig struct {
	Logger      *slog.Logger
	Clock       clockwork.Clock
	Vectors     qtmatrix.VectorSource
	Registry    qtmatrix.QuantitationTypeRegistry
	Experiments qtmatrix.ExperimentStore
	Policy      *channel.Policy // optional
}

func (cfg *ServiceConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Vectors == nil {
		return errors.New("vector source is required")
	}
	if cfg.Registry == nil {
		return errors.New("quantitation type registry is required")
	}
	if cfg.Experiments == nil {
		return errors.New("experiment store is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Policy == nil {
		cfg.Policy = channel.Default()
	}
	return nil
}

// Service computes and stores detection calls for whole experiments.
type Service struct {
	log *slog.Logger
	cfg ServiceConfig
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{log: cfg.Logger, cfg: cfg}, nil
}

func persistence(op string, err error) error {
	return qtmatrix.NewError(qtmatrix.KindPersistence, op, pfx.Err(err))
}

// Run computes detection calls for an experiment, registers the new
// quantitation type and attaches the call vectors. An experiment that
// already has present/absent data is left alone and Run returns no vectors.
func (s *Service) Run(ctx context.Context, experimentID int64, opts Options) ([]*qtmatrix.DataVector, error) {
	const op = "missingvalue.Run"
	start := s.cfg.Clock.Now()
	if opts.Logger == nil {
		opts.Logger = s.log
	}

	ee, err := s.cfg.Experiments.Experiment(ctx, experimentID)
	if err != nil {
		return nil, persistence(op, err)
	}
	log := s.log.With("experiment", ee.ShortName)

	qts, err := s.cfg.Registry.QuantitationTypes(ctx, experimentID)
	if err != nil {
		return nil, persistence(op, err)
	}
	if existing := builder.MissingValueQuantitationTypes(qts); len(existing) > 0 {
		log.Warn("missingvalue: experiment already has present/absent data, not recomputing", "quantitation_type", existing[0].Name)
		return nil, nil
	}

	useful := builder.UsefulQuantitationTypes(s.cfg.Policy, qts)
	if len(useful) == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, op, "experiment %d has no usable quantitation types", experimentID)
	}

	vectors, err := s.cfg.Vectors.VectorsFor(ctx, experimentID, useful)
	if err != nil {
		return nil, persistence(op, err)
	}
	log.Info("missingvalue: loaded vectors", "count", len(vectors), "elapsed", s.cfg.Clock.Since(start))

	b, err := builder.New(builder.Config{Logger: log, Policy: s.cfg.Policy}, vectors)
	if err != nil {
		return nil, err
	}

	var in Inputs
	for _, get := range []struct {
		dst **matrix.Double
		fn  func() (*matrix.Double, error)
	}{
		{&in.Preferred, b.PreferredData},
		{&in.SignalA, b.SignalChannelA},
		{&in.SignalB, b.SignalChannelB},
		{&in.BackgroundA, b.BackgroundChannelA},
		{&in.BackgroundB, b.BackgroundChannelB},
	} {
		m, err := get.fn()
		if err != nil {
			return nil, err
		}
		*get.dst = m
	}

	res, err := Compute(in, opts)
	if err != nil {
		return nil, err
	}

	qt, err := s.cfg.Registry.Create(ctx, res.QuantitationType)
	if err != nil {
		return nil, persistence(op, err)
	}
	for _, v := range res.Vectors {
		v.QuantitationType = qt
		v.ExperimentID = experimentID
	}

	if err := s.cfg.Experiments.AttachVectors(ctx, experimentID, res.Vectors); err != nil {
		return nil, persistence(op, err)
	}
	ee.QuantitationTypes = append(ee.QuantitationTypes, qt)
	if err := s.cfg.Experiments.Update(ctx, ee); err != nil {
		return nil, persistence(op, err)
	}

	log.Info("missingvalue: stored detection calls", "vectors", len(res.Vectors), "quantitation_type", qt.Description, "elapsed", s.cfg.Clock.Since(start))
	return res.Vectors, nil
}
