package qtmatrix

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. Orchestrators use Fatal to decide whether a
// failed step aborts the run or is merely logged.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindUnsupportedRepresentation
	KindDimensionMismatch
	KindShapeMismatch
	KindStatistics
	KindInvalidArgument

	// Preprocessing steps, reported by callers that orchestrate a pipeline.
	KindFiltering
	KindBatchCorrection
	KindSVD
	KindQuantitationMismatch
	KindMissingValue
	KindMerge
	KindPersistence
)

var kindNames = [...]string{
	KindUnknown:                   "unknown",
	KindInvalidInput:              "invalid input",
	KindUnsupportedRepresentation: "unsupported representation",
	KindDimensionMismatch:         "dimension mismatch",
	KindShapeMismatch:             "shape mismatch",
	KindStatistics:                "statistics",
	KindInvalidArgument:           "invalid argument",
	KindFiltering:                 "filtering",
	KindBatchCorrection:           "batch correction",
	KindSVD:                       "svd",
	KindQuantitationMismatch:      "quantitation mismatch",
	KindMissingValue:              "missing value",
	KindMerge:                     "merge",
	KindPersistence:               "persistence",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Fatal reports whether errors of this kind must abort the current
// operation. Advisory kinds may be logged and skipped.
func (k Kind) Fatal() bool {
	switch k {
	case KindInvalidInput, KindUnsupportedRepresentation, KindDimensionMismatch,
		KindShapeMismatch, KindInvalidArgument, KindMerge, KindPersistence:
		return true
	}
	return false
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrInvalidInput              = &Error{Kind: KindInvalidInput}
	ErrUnsupportedRepresentation = &Error{Kind: KindUnsupportedRepresentation}
	ErrDimensionMismatch         = &Error{Kind: KindDimensionMismatch}
	ErrShapeMismatch             = &Error{Kind: KindShapeMismatch}
	ErrStatistics                = &Error{Kind: KindStatistics}
	ErrInvalidArgument           = &Error{Kind: KindInvalidArgument}
	ErrFiltering                 = &Error{Kind: KindFiltering}
	ErrBatchCorrection           = &Error{Kind: KindBatchCorrection}
	ErrSVD                       = &Error{Kind: KindSVD}
	ErrQuantitationMismatch      = &Error{Kind: KindQuantitationMismatch}
	ErrMissingValue              = &Error{Kind: KindMissingValue}
	ErrMerge                     = &Error{Kind: KindMerge}
	ErrPersistence               = &Error{Kind: KindPersistence}
)

// Error is the single error type returned by this module.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError builds an *Error. err may be nil.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is NewError with a formatted cause.
func Errorf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the sentinels above work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
