// Package qtselect chooses, for every bioassay dimension, the single best
// quantitation type for each channel role.
package qtselect

import (
	"log/slog"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/channel"
)

type Config struct {
	Logger *slog.Logger
	Policy *channel.Policy
}

type Selector struct {
	log    *slog.Logger
	policy *channel.Policy
}

func New(cfg Config) *Selector {
	s := &Selector{log: cfg.Logger, policy: cfg.Policy}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.policy == nil {
		s.policy = channel.Default()
	}
	return s
}

// Policy returns the naming policy the selector classifies with.
func (s *Selector) Policy() *channel.Policy {
	return s.policy
}

// MissingCounts decodes every vector once and returns quantitation type ID ->
// number of missing values summed over all of that type's vectors.
func MissingCounts(vectors []*qtmatrix.DataVector) (map[int64]int, error) {
	out := make(map[int64]int)
	for _, v := range vectors {
		if v == nil || v.QuantitationType == nil {
			continue
		}
		n, err := qtmatrix.CountMissing(v.Data, v.QuantitationType.Representation)
		if err != nil {
			return nil, err
		}
		out[v.QuantitationType.ID] += n
	}
	return out, nil
}

// Resolve assigns quantitation types to roles for each dimension. Within a
// dimension the first candidate seen for a role is kept unless a later one
// has strictly fewer missing values, so the result does not depend on the
// order of vectors with differing missing counts.
//
// An assignment with no roles at all is not an error. Callers treat it as
// "nothing available".
func (s *Selector) Resolve(vectors []*qtmatrix.DataVector, dims []*qtmatrix.BioAssayDimension) (*Assignment, error) {
	if len(dims) == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "qtselect.Resolve", "no bioassay dimensions")
	}
	if len(vectors) == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "qtselect.Resolve", "no vectors")
	}

	missing, err := MissingCounts(vectors)
	if err != nil {
		return nil, err
	}

	// Distinct quantitation types per dimension, first-seen order.
	perDim := make(map[int64][]*qtmatrix.QuantitationType, len(dims))
	seen := make(map[int64]map[int64]struct{}, len(dims))
	for _, v := range vectors {
		if v == nil || v.Dimension == nil || v.QuantitationType == nil {
			continue
		}
		dimID := v.Dimension.ID
		if seen[dimID] == nil {
			seen[dimID] = make(map[int64]struct{})
		}
		if _, ok := seen[dimID][v.QuantitationType.ID]; ok {
			continue
		}
		seen[dimID][v.QuantitationType.ID] = struct{}{}
		perDim[dimID] = append(perDim[dimID], v.QuantitationType)
	}

	roleOf := make(map[int64]channel.Role)
	a := &Assignment{
		dims:    append([]*qtmatrix.BioAssayDimension(nil), dims...),
		roles:   make(map[int64]map[channel.Role]*qtmatrix.QuantitationType, len(dims)),
		missing: missing,
	}

	for _, dim := range dims {
		chosen := make(map[channel.Role]*qtmatrix.QuantitationType)
		for _, qt := range perDim[dim.ID] {
			role, ok := roleOf[qt.ID]
			if !ok {
				role = s.policy.Classify(qt)
				roleOf[qt.ID] = role
			}
			if role == channel.Other {
				continue
			}

			current, ok := chosen[role]
			if !ok {
				chosen[role] = qt
				continue
			}
			if missing[qt.ID] < missing[current.ID] {
				s.log.Debug("replacing quantitation type with one having fewer missing values",
					"role", role, "dimension", dim.ID,
					"old", current.Name, "old_missing", missing[current.ID],
					"new", qt.Name, "new_missing", missing[qt.ID])
				chosen[role] = qt
			}
		}
		a.roles[dim.ID] = chosen
	}

	if a.Empty() {
		s.log.Warn("no quantitation types could be assigned a role", "dimensions", len(dims), "vectors", len(vectors))
	}

	return a, nil
}
