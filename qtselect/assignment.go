package qtselect

import (
	"sort"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/channel"
)

// Assignment maps each bioassay dimension to the quantitation type chosen for
// every role. It is built by Selector.Resolve and never modified afterwards.
type Assignment struct {
	dims    []*qtmatrix.BioAssayDimension
	roles   map[int64]map[channel.Role]*qtmatrix.QuantitationType
	missing map[int64]int
}

// Dimensions returns the dimensions the assignment was resolved over, in the
// order they were given.
func (a *Assignment) Dimensions() []*qtmatrix.BioAssayDimension {
	return append([]*qtmatrix.BioAssayDimension(nil), a.dims...)
}

// Get returns the quantitation type chosen for role in dimension dimID, or
// nil.
func (a *Assignment) Get(dimID int64, role channel.Role) *qtmatrix.QuantitationType {
	return a.roles[dimID][role]
}

// ByRole returns dimension ID -> quantitation type for role. Dimensions
// without a candidate are absent from the map.
func (a *Assignment) ByRole(role channel.Role) map[int64]*qtmatrix.QuantitationType {
	out := make(map[int64]*qtmatrix.QuantitationType)
	for dimID, m := range a.roles {
		if qt, ok := m[role]; ok {
			out[dimID] = qt
		}
	}
	return out
}

// Has reports whether any dimension has a candidate for role.
func (a *Assignment) Has(role channel.Role) bool {
	for _, m := range a.roles {
		if _, ok := m[role]; ok {
			return true
		}
	}
	return false
}

// Empty reports whether no dimension has any role assigned.
func (a *Assignment) Empty() bool {
	for _, m := range a.roles {
		if len(m) > 0 {
			return false
		}
	}
	return true
}

// QuantitationTypes returns the distinct quantitation types chosen for role,
// ordered by ID.
func (a *Assignment) QuantitationTypes(role channel.Role) []*qtmatrix.QuantitationType {
	seen := make(map[int64]*qtmatrix.QuantitationType)
	for _, qt := range a.ByRole(role) {
		seen[qt.ID] = qt
	}
	out := make([]*qtmatrix.QuantitationType, 0, len(seen))
	for _, qt := range seen {
		out = append(out, qt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NumMissing is the number of missing values counted for qt across every
// vector seen by the resolution.
func (a *Assignment) NumMissing(qt *qtmatrix.QuantitationType) int {
	if qt == nil {
		return 0
	}
	return a.missing[qt.ID]
}

// AnyMissing reports whether any vector had a missing value.
func (a *Assignment) AnyMissing() bool {
	for _, n := range a.missing {
		if n > 0 {
			return true
		}
	}
	return false
}

// Equal compares role mappings by quantitation type ID.
func (a *Assignment) Equal(b *Assignment) bool {
	if len(a.roles) != len(b.roles) {
		return false
	}
	for dimID, m := range a.roles {
		o, ok := b.roles[dimID]
		if !ok || len(o) != len(m) {
			return false
		}
		for role, qt := range m {
			if oqt, ok := o[role]; !ok || oqt.ID != qt.ID {
				return false
			}
		}
	}
	return true
}
