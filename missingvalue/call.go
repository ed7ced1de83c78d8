// Package missingvalue computes present/absent detection calls for
// two-colour data from the channel signals and backgrounds.
package missingvalue

import "math"

// Call is the detection call for one cell.
type Call uint8

const (
	Undecided Call = iota
	Absent
	Present
)

func (c Call) String() string {
	switch c {
	case Absent:
		return "ABSENT"
	case Present:
		return "PRESENT"
	}
	return "UNDECIDED"
}

// Cell holds the values of one design element in one sample. Any field may
// be NaN.
type Cell struct {
	Preferred   float64
	SignalA     float64
	SignalB     float64
	BackgroundA float64
	BackgroundB float64
}

// Rule decides calls for individual cells.
type Rule struct {
	// SignalToNoise must be positive.
	SignalToNoise float64

	// SignalThreshold is used for cells without any background. NaN
	// disables it.
	SignalThreshold float64

	// MissingIndicators are preferred values that mean "no measurement",
	// in addition to NaN.
	MissingIndicators []float64
}

func missingOrZero(v float64) bool {
	return math.IsNaN(v) || v == 0
}

// Decide applies the rules in order. The final fallback is Present: a cell
// whose signals exist but cannot be judged against the rules above is
// called present.
func (r Rule) Decide(c Cell) Call {
	if math.IsNaN(c.Preferred) {
		return Absent
	}
	for _, m := range r.MissingIndicators {
		if c.Preferred == m {
			return Absent
		}
	}

	// NaN never compares greater, so incomplete pairs fall through.
	if c.SignalA > c.BackgroundA*r.SignalToNoise {
		return Present
	}
	if c.SignalB > c.BackgroundB*r.SignalToNoise {
		return Present
	}

	if !math.IsNaN(r.SignalThreshold) && math.IsNaN(c.BackgroundA) && math.IsNaN(c.BackgroundB) {
		if c.SignalA > r.SignalThreshold || c.SignalB > r.SignalThreshold {
			return Present
		}
		return Absent
	}

	if missingOrZero(c.SignalA) && missingOrZero(c.SignalB) {
		return Absent
	}

	if (math.IsNaN(c.SignalA) || math.IsNaN(c.BackgroundA)) && (math.IsNaN(c.SignalB) || math.IsNaN(c.BackgroundB)) {
		return Undecided
	}

	return Present
}

// FillGaps resolves the undecided calls of one design element. If any
// decided call in the row is Present, every gap becomes Present; otherwise
// every gap becomes Absent.
func FillGaps(row []Call) []bool {
	decided, present := 0, 0
	for _, c := range row {
		switch c {
		case Present:
			decided++
			present++
		case Absent:
			decided++
		}
	}
	fill := decided > 0 && float64(present)/float64(decided) > 0

	out := make([]bool, len(row))
	for i, c := range row {
		switch c {
		case Present:
			out[i] = true
		case Undecided:
			out[i] = fill
		}
	}
	return out
}
