// Package qtmatrixtest builds small in-memory experiments for tests.
package qtmatrixtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/carbocation/qtmatrix"
)

// Dimension returns a dimension whose bioassays have the given IDs, named
// "ba<ID>".
func Dimension(id int64, bioAssayIDs ...int64) *qtmatrix.BioAssayDimension {
	d := &qtmatrix.BioAssayDimension{ID: id, Name: fmt.Sprintf("dim%d", id)}
	for _, ba := range bioAssayIDs {
		d.BioAssays = append(d.BioAssays, &qtmatrix.BioAssay{ID: ba, Name: fmt.Sprintf("ba%d", ba)})
	}
	return d
}

// Double returns a quantitative double quantitation type.
func Double(id int64, name string) *qtmatrix.QuantitationType {
	return &qtmatrix.QuantitationType{
		ID:             id,
		Name:           name,
		GeneralType:    qtmatrix.GeneralTypeQuantitative,
		StandardType:   qtmatrix.StandardTypeAmount,
		Representation: qtmatrix.RepresentationDouble,
	}
}

// Preferred is Double with IsPreferred set.
func Preferred(id int64, name string) *qtmatrix.QuantitationType {
	qt := Double(id, name)
	qt.IsPreferred = true
	return qt
}

// Element returns a design element on platform ad.
func Element(id int64, ad *qtmatrix.ArrayDesign) *qtmatrix.DesignElement {
	return &qtmatrix.DesignElement{ID: id, Name: fmt.Sprintf("probe%d", id), ArrayDesign: ad}
}

// Vector encodes values with the representation implied by their Go type.
// It panics on unsupported types.
func Vector(de *qtmatrix.DesignElement, qt *qtmatrix.QuantitationType, dim *qtmatrix.BioAssayDimension, values interface{}) *qtmatrix.DataVector {
	data, err := qtmatrix.EncodeAs(values, qt.Representation)
	if err != nil {
		panic(err)
	}
	return &qtmatrix.DataVector{DesignElement: de, QuantitationType: qt, Dimension: dim, Data: data}
}

// Store is an in-memory implementation of the collaborator interfaces.
type Store struct {
	mu          sync.Mutex
	Experiments map[int64]*qtmatrix.Experiment
	Vectors     map[int64][]*qtmatrix.DataVector
	QTs         map[int64][]*qtmatrix.QuantitationType
	Created     []*qtmatrix.QuantitationType
	Attached    []*qtmatrix.DataVector
	nextID      int64
}

func NewStore() *Store {
	return &Store{
		Experiments: make(map[int64]*qtmatrix.Experiment),
		Vectors:     make(map[int64][]*qtmatrix.DataVector),
		QTs:         make(map[int64][]*qtmatrix.QuantitationType),
		nextID:      1000,
	}
}

// Add registers an experiment together with its vectors and their
// quantitation types.
func (s *Store) Add(ee *qtmatrix.Experiment, vectors ...*qtmatrix.DataVector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Experiments[ee.ID] = ee
	seen := make(map[int64]struct{})
	for _, qt := range s.QTs[ee.ID] {
		seen[qt.ID] = struct{}{}
	}
	for _, v := range vectors {
		v.ExperimentID = ee.ID
		s.Vectors[ee.ID] = append(s.Vectors[ee.ID], v)
		if _, ok := seen[v.QuantitationType.ID]; !ok {
			seen[v.QuantitationType.ID] = struct{}{}
			s.QTs[ee.ID] = append(s.QTs[ee.ID], v.QuantitationType)
		}
	}
	ee.QuantitationTypes = append([]*qtmatrix.QuantitationType(nil), s.QTs[ee.ID]...)
}

func (s *Store) VectorsFor(ctx context.Context, experimentID int64, filter []*qtmatrix.QuantitationType) ([]*qtmatrix.DataVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(filter) == 0 {
		return append([]*qtmatrix.DataVector(nil), s.Vectors[experimentID]...), nil
	}
	keep := make(map[int64]struct{}, len(filter))
	for _, qt := range filter {
		keep[qt.ID] = struct{}{}
	}
	var out []*qtmatrix.DataVector
	for _, v := range s.Vectors[experimentID] {
		if _, ok := keep[v.QuantitationType.ID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, qt *qtmatrix.QuantitationType) (*qtmatrix.QuantitationType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *qt
	s.nextID++
	cp.ID = s.nextID
	s.Created = append(s.Created, &cp)
	return &cp, nil
}

func (s *Store) QuantitationTypes(ctx context.Context, experimentID int64) ([]*qtmatrix.QuantitationType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*qtmatrix.QuantitationType(nil), s.QTs[experimentID]...), nil
}

func (s *Store) Experiment(ctx context.Context, experimentID int64) (*qtmatrix.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ee, ok := s.Experiments[experimentID]
	if !ok {
		return nil, qtmatrix.Errorf(qtmatrix.KindPersistence, "Experiment", "no experiment %d", experimentID)
	}
	return ee, nil
}

func (s *Store) AttachVectors(ctx context.Context, experimentID int64, vectors []*qtmatrix.DataVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		v.ExperimentID = experimentID
	}
	s.Attached = append(s.Attached, vectors...)
	s.Vectors[experimentID] = append(s.Vectors[experimentID], vectors...)
	return nil
}

func (s *Store) Update(ctx context.Context, ee *qtmatrix.Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Experiments[ee.ID] = ee
	s.QTs[ee.ID] = append([]*qtmatrix.QuantitationType(nil), ee.QuantitationTypes...)
	return nil
}
