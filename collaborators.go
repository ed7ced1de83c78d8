package qtmatrix

import "context"

// VectorSource fetches the data vectors of an experiment. A nil or empty
// filter returns every vector; otherwise only vectors whose quantitation type
// ID is in the filter are returned.
type VectorSource interface {
	VectorsFor(ctx context.Context, experimentID int64, filter []*QuantitationType) ([]*DataVector, error)
}

// QuantitationTypeRegistry persists quantitation types.
type QuantitationTypeRegistry interface {
	// Create stores qt and returns the stored copy with its ID assigned.
	Create(ctx context.Context, qt *QuantitationType) (*QuantitationType, error)
	QuantitationTypes(ctx context.Context, experimentID int64) ([]*QuantitationType, error)
}

// ExperimentStore loads experiments and attaches newly computed data to them.
type ExperimentStore interface {
	Experiment(ctx context.Context, experimentID int64) (*Experiment, error)
	AttachVectors(ctx context.Context, experimentID int64, vectors []*DataVector) error
	Update(ctx context.Context, ee *Experiment) error
}

// Dimensions returns the distinct dimensions of vectors in first-seen order.
// Dimensions are identified by ID.
func Dimensions(vectors []*DataVector) []*BioAssayDimension {
	seen := make(map[int64]struct{})
	var out []*BioAssayDimension
	for _, v := range vectors {
		if v == nil || v.Dimension == nil {
			continue
		}
		if _, ok := seen[v.Dimension.ID]; ok {
			continue
		}
		seen[v.Dimension.ID] = struct{}{}
		out = append(out, v.Dimension)
	}
	return out
}
