// Package align moves vectors between sample axes: several dimensions are
// merged into one, or a dimension is cut down to a subset of its samples.
// Every vector produced has exactly one value per sample of its target
// dimension; samples with no observation get the representation's default.
package align

import (
	"log/slog"
	"sort"

	"github.com/carbocation/qtmatrix"
)

type MergeOptions struct {
	Logger *slog.Logger

	// ExpectedSamples, when positive, is the experiment's sample count. A
	// merged dimension of any other size is an error.
	ExpectedSamples int
}

// MergeResult is the outcome of Merge. Nothing has been persisted.
type MergeResult struct {
	// Dimension is either a new dimension (ID 0, Merged set) or a source
	// dimension that already had the merged sample order.
	Dimension *qtmatrix.BioAssayDimension
	Reused    bool

	Vectors []*qtmatrix.DataVector

	// Skipped lists quantitation types whose vectors are all on the reused
	// dimension already. Their vectors are not in Vectors.
	Skipped []*qtmatrix.QuantitationType

	// Dropped counts, per quantitation type ID, the merged vectors that were
	// discarded because every value was missing.
	Dropped map[int64]int
}

// Merge concatenates dims, ordered by ID, into one sample axis and rebuilds
// every (design element, quantitation type) pair of vectors over it. A pair
// seen on only some dimensions is filled with the representation's default
// on the others.
func Merge(dims []*qtmatrix.BioAssayDimension, vectors []*qtmatrix.DataVector, opts MergeOptions) (*MergeResult, error) {
	const op = "align.Merge"
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	if len(dims) == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindMerge, op, "no dimensions to merge")
	}
	if len(vectors) == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindMerge, op, "no vectors")
	}

	sorted := append([]*qtmatrix.BioAssayDimension(nil), dims...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	target, reused, err := combine(sorted)
	if err != nil {
		return nil, err
	}
	if opts.ExpectedSamples > 0 && target.Len() != opts.ExpectedSamples {
		return nil, qtmatrix.Errorf(qtmatrix.KindMerge, op,
			"experiment has %d samples but the merged dimension has %d", opts.ExpectedSamples, target.Len())
	}
	if reused {
		log.Info("align: reusing existing dimension", "dimension", target.ID, "samples", target.Len())
	} else {
		log.Info("align: created merged dimension", "samples", target.Len(), "sources", len(sorted))
	}

	res := &MergeResult{Dimension: target, Reused: reused, Dropped: make(map[int64]int)}
	merged := 0
	for _, group := range byQuantitationType(vectors) {
		qt := group.qt
		if reused && onDimension(group.vectors, target) {
			log.Info("align: already on the merged dimension", "qt", qt.Name)
			res.Skipped = append(res.Skipped, qt)
			continue
		}
		elements := byDesignElement(group.vectors)
		log.Debug("align: merging", "qt", qt.Name, "vectors", len(group.vectors))

		numMissing := 0
		for _, el := range elements {
			segs := make([]segment, 0, len(sorted))
			for _, d := range sorted {
				segs = append(segs, segment{src: el.on(d.ID), n: d.Len()})
			}
			data, missing, err := assemble(qt.Representation, segs)
			if err != nil {
				return nil, err
			}
			numMissing += missing
			if missing == target.Len() {
				res.Dropped[qt.ID]++
				continue
			}
			res.Vectors = append(res.Vectors, &qtmatrix.DataVector{
				ExperimentID:     el.vectors[0].ExperimentID,
				DesignElement:    el.de,
				QuantitationType: qt,
				Dimension:        target,
				Data:             data,
			})
		}

		if n := res.Dropped[qt.ID]; n > 0 {
			log.Info("align: dropped vectors with all values missing", "qt", qt.Name, "vectors", n)
		}
		if numMissing > 0 {
			log.Info("align: missing values after merge", "qt", qt.Name, "values", numMissing)
		}
		merged++
	}

	if merged == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindMerge, op, "nothing was merged; every vector is already on the merged dimension")
	}
	return res, nil
}

// combine builds the concatenated axis. A sample in two dimensions is
// fatal. A source dimension already listing the same samples in the same
// order is returned instead of a new one.
func combine(sorted []*qtmatrix.BioAssayDimension) (*qtmatrix.BioAssayDimension, bool, error) {
	seen := make(map[int64]int64)
	merged := &qtmatrix.BioAssayDimension{Name: "merged", Merged: true}
	for _, d := range sorted {
		for _, ba := range d.BioAssays {
			if other, ok := seen[ba.ID]; ok {
				return nil, false, qtmatrix.Errorf(qtmatrix.KindMerge, "align.Merge",
					"sample %s is in dimensions %d and %d", ba.Name, other, d.ID)
			}
			seen[ba.ID] = d.ID
			merged.BioAssays = append(merged.BioAssays, ba)
		}
	}

	for _, d := range sorted {
		if d.SameOrder(merged) {
			return d, true, nil
		}
	}
	return merged, false, nil
}

type qtGroup struct {
	qt      *qtmatrix.QuantitationType
	vectors []*qtmatrix.DataVector
}

func byQuantitationType(vectors []*qtmatrix.DataVector) []*qtGroup {
	index := make(map[int64]*qtGroup)
	var out []*qtGroup
	for _, v := range vectors {
		g, ok := index[v.QuantitationType.ID]
		if !ok {
			g = &qtGroup{qt: v.QuantitationType}
			index[v.QuantitationType.ID] = g
			out = append(out, g)
		}
		g.vectors = append(g.vectors, v)
	}
	return out
}

type element struct {
	de      *qtmatrix.DesignElement
	vectors []*qtmatrix.DataVector
}

// on returns the first vector of the element on dimension id.
func (e *element) on(id int64) *qtmatrix.DataVector {
	for _, v := range e.vectors {
		if v.Dimension.ID == id {
			return v
		}
	}
	return nil
}

// onDimension reports whether every vector is already on d.
func onDimension(vectors []*qtmatrix.DataVector, d *qtmatrix.BioAssayDimension) bool {
	for _, v := range vectors {
		if v.Dimension != d && (d.ID == 0 || v.Dimension.ID != d.ID) {
			return false
		}
	}
	return true
}

// byDesignElement groups vectors by design element in first-seen order.
func byDesignElement(vectors []*qtmatrix.DataVector) []*element {
	var out []*element
	index := make(map[int64]*element)
	for _, v := range vectors {
		e, seen := index[v.DesignElement.ID]
		if !seen {
			e = &element{de: v.DesignElement}
			index[v.DesignElement.ID] = e
			out = append(out, e)
		}
		e.vectors = append(e.vectors, v)
	}
	return out
}
