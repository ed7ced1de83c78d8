package align

import (
	"github.com/carbocation/qtmatrix"
)

// Slice rebuilds vectors over target, keeping target's sample order. A
// (design element, quantitation type) pair observed on several dimensions
// takes each sample from the first vector that has it. Samples no vector
// has get the default value; pairs that share no sample with target are
// omitted.
func Slice(target *qtmatrix.BioAssayDimension, vectors []*qtmatrix.DataVector) ([]*qtmatrix.DataVector, error) {
	if target == nil || target.Len() == 0 {
		return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "align.Slice", "target dimension has no samples")
	}

	var out []*qtmatrix.DataVector
	for _, group := range byQuantitationType(vectors) {
		elements := byDesignElement(group.vectors)
		for _, el := range elements {
			segs, overlap := slicePlan(target, el.vectors)
			if overlap == 0 {
				continue
			}
			data, _, err := assemble(group.qt.Representation, segs)
			if err != nil {
				return nil, err
			}
			out = append(out, &qtmatrix.DataVector{
				ExperimentID:     el.vectors[0].ExperimentID,
				DesignElement:    el.de,
				QuantitationType: group.qt,
				Dimension:        target,
				Data:             data,
			})
		}
	}
	return out, nil
}

// slicePlan maps each target sample to a column of one of the vectors. Runs
// taken from the same vector share a segment.
func slicePlan(target *qtmatrix.BioAssayDimension, vectors []*qtmatrix.DataVector) ([]segment, int) {
	var segs []segment
	overlap := 0
	for _, ba := range target.BioAssays {
		var src *qtmatrix.DataVector
		col := -1
		for _, v := range vectors {
			if j := v.Dimension.IndexOf(ba.ID); j >= 0 {
				src, col = v, j
				break
			}
		}
		if src == nil {
			segs = append(segs, segment{n: 1})
			continue
		}
		overlap++
		if last := len(segs) - 1; last >= 0 && segs[last].src == src {
			segs[last].idx = append(segs[last].idx, col)
			continue
		}
		segs = append(segs, segment{src: src, idx: []int{col}})
	}
	return segs, overlap
}

// Split slices vectors once per target. Targets must not share samples.
func Split(targets []*qtmatrix.BioAssayDimension, vectors []*qtmatrix.DataVector) ([][]*qtmatrix.DataVector, error) {
	seen := make(map[int64]struct{})
	for _, t := range targets {
		if t == nil {
			return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "align.Split", "nil target dimension")
		}
		for _, ba := range t.BioAssays {
			if _, ok := seen[ba.ID]; ok {
				return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, "align.Split", "sample %s is in more than one part", ba.Name)
			}
			seen[ba.ID] = struct{}{}
		}
	}

	out := make([][]*qtmatrix.DataVector, len(targets))
	for i, t := range targets {
		part, err := Slice(t, vectors)
		if err != nil {
			return nil, err
		}
		out[i] = part
	}
	return out, nil
}
