// Package matrix holds design element by bioassay matrices of decoded vector
// data and the element-wise algebra used to derive new matrices from them.
package matrix

import (
	"github.com/carbocation/qtmatrix"
)

// Axes labels the rows (design elements) and columns (bioassays) of a
// matrix. Labels are matched by ID.
type Axes struct {
	rows     []*qtmatrix.DesignElement
	cols     []*qtmatrix.BioAssay
	rowIndex map[int64]int
	colIndex map[int64]int

	// Dimensions each row's values came from, when built from vectors.
	rowDims map[int64][]*qtmatrix.BioAssayDimension
}

// NewAxes indexes rows and columns. Duplicate IDs keep their first position.
func NewAxes(rows []*qtmatrix.DesignElement, cols []*qtmatrix.BioAssay) Axes {
	a := Axes{
		rowIndex: make(map[int64]int, len(rows)),
		colIndex: make(map[int64]int, len(cols)),
	}
	for _, de := range rows {
		if _, ok := a.rowIndex[de.ID]; ok {
			continue
		}
		a.rowIndex[de.ID] = len(a.rows)
		a.rows = append(a.rows, de)
	}
	for _, ba := range cols {
		if _, ok := a.colIndex[ba.ID]; ok {
			continue
		}
		a.colIndex[ba.ID] = len(a.cols)
		a.cols = append(a.cols, ba)
	}
	return a
}

func (a Axes) NumRows() int { return len(a.rows) }
func (a Axes) NumCols() int { return len(a.cols) }

// Rows returns the row labels. The slice must not be modified.
func (a Axes) Rows() []*qtmatrix.DesignElement { return a.rows }

// Cols returns the column labels. The slice must not be modified.
func (a Axes) Cols() []*qtmatrix.BioAssay { return a.cols }

func (a Axes) RowIndex(designElementID int64) (int, bool) {
	i, ok := a.rowIndex[designElementID]
	return i, ok
}

func (a Axes) ColIndex(bioAssayID int64) (int, bool) {
	j, ok := a.colIndex[bioAssayID]
	return j, ok
}

// RowDimensions returns the dimensions the row's values were drawn from,
// or nil when the matrix was not built from vectors.
func (a Axes) RowDimensions(designElementID int64) []*qtmatrix.BioAssayDimension {
	return a.rowDims[designElementID]
}

// SameKeys reports whether b has exactly the same row and column labels as
// a, in any order.
func (a Axes) SameKeys(b Axes) bool {
	if len(a.rows) != len(b.rows) || len(a.cols) != len(b.cols) {
		return false
	}
	for id := range a.rowIndex {
		if _, ok := b.rowIndex[id]; !ok {
			return false
		}
	}
	for id := range a.colIndex {
		if _, ok := b.colIndex[id]; !ok {
			return false
		}
	}
	return true
}

// SameOrder reports whether b has the same labels as a in the same order.
func (a Axes) SameOrder(b Axes) bool {
	if len(a.rows) != len(b.rows) || len(a.cols) != len(b.cols) {
		return false
	}
	for i := range a.rows {
		if a.rows[i].ID != b.rows[i].ID {
			return false
		}
	}
	for j := range a.cols {
		if a.cols[j].ID != b.cols[j].ID {
			return false
		}
	}
	return true
}
