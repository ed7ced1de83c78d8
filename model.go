package qtmatrix

import "fmt"

// Representation is the primitive type stored in a DataVector's bytes.
type Representation byte

const (
	RepresentationInvalid Representation = iota
	RepresentationDouble
	RepresentationInt
	RepresentationLong
	RepresentationBoolean
	RepresentationString
	RepresentationChar
	RepresentationDoubleArray
	RepresentationIntArray
	RepresentationLongArray
	RepresentationBooleanArray
	RepresentationStringArray
	RepresentationCharArray
)

var representationNames = map[Representation]string{
	RepresentationDouble:       "DOUBLE",
	RepresentationInt:          "INT",
	RepresentationLong:         "LONG",
	RepresentationBoolean:      "BOOLEAN",
	RepresentationString:       "STRING",
	RepresentationChar:         "CHAR",
	RepresentationDoubleArray:  "DOUBLEARRAY",
	RepresentationIntArray:     "INTARRAY",
	RepresentationLongArray:    "LONGARRAY",
	RepresentationBooleanArray: "BOOLEANARRAY",
	RepresentationStringArray:  "STRINGARRAY",
	RepresentationCharArray:    "CHARARRAY",
}

func (r Representation) String() string {
	if s, ok := representationNames[r]; ok {
		return s
	}
	return "INVALID"
}

// ParseRepresentation is the inverse of Representation.String. Matching is
// exact (upper case).
func ParseRepresentation(s string) (Representation, error) {
	for k, v := range representationNames {
		if v == s {
			return k, nil
		}
	}
	return RepresentationInvalid, NewError(KindUnsupportedRepresentation, "ParseRepresentation", fmt.Errorf("unknown representation %q", s))
}

// GeneralType distinguishes categorical from quantitative data.
type GeneralType string

const (
	GeneralTypeQuantitative GeneralType = "QUANTITATIVE"
	GeneralTypeCategorical  GeneralType = "CATEGORICAL"
	GeneralTypeUnknown      GeneralType = "UNKNOWN"
)

// StandardType is the kind of measurement a quantitation type carries.
type StandardType string

const (
	StandardTypeAmount        StandardType = "AMOUNT"
	StandardTypeCount         StandardType = "COUNT"
	StandardTypePresentAbsent StandardType = "PRESENTABSENT"
	StandardTypeConfidence    StandardType = "CONFIDENCEINDICATOR"
	StandardTypeCorrelation   StandardType = "CORRELATION"
	StandardTypeOther         StandardType = "OTHER"
)

// TechnologyType describes the platform a design element belongs to.
type TechnologyType string

const (
	TechnologyOneColor TechnologyType = "ONECOLOR"
	TechnologyTwoColor TechnologyType = "TWOCOLOR"
	TechnologyDualMode TechnologyType = "DUALMODE"
	TechnologySequence TechnologyType = "SEQUENCING"
)

// QuantitationType describes one kind of measurement. Values are immutable
// once created; derived computations mint a new one.
type QuantitationType struct {
	ID          int64
	Name        string
	Description string

	GeneralType    GeneralType
	StandardType   StandardType
	Representation Representation

	IsPreferred             bool
	IsMaskedPreferred       bool
	IsRatio                 bool
	IsBackground            bool
	IsBackgroundSubtracted  bool
	IsNormalized            bool
	IsBatchCorrected        bool
	IsRecomputedFromRawData bool
}

func (qt *QuantitationType) String() string {
	if qt == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s (id=%d, %s)", qt.Name, qt.ID, qt.Representation)
}

// ArrayDesign is a platform.
type ArrayDesign struct {
	ID             int64
	ShortName      string
	TechnologyType TechnologyType
}

// DesignElement is a probe on exactly one platform.
type DesignElement struct {
	ID          int64
	Name        string
	ArrayDesign *ArrayDesign
}

func (de *DesignElement) String() string {
	if de == nil {
		return "<nil>"
	}
	return de.Name
}

// BioAssay is a single sample measured on a platform.
type BioAssay struct {
	ID        int64
	Name      string
	IsOutlier bool
}

// BioAssayDimension is the ordered sample axis of a set of vectors. The order
// defines the column order of every vector attached to it.
type BioAssayDimension struct {
	ID        int64
	Name      string
	BioAssays []*BioAssay
	Merged    bool
}

// Len is the number of samples on the axis.
func (d *BioAssayDimension) Len() int {
	if d == nil {
		return 0
	}
	return len(d.BioAssays)
}

// SameOrder reports whether two dimensions list exactly the same samples in
// exactly the same order. Set membership is not enough.
func (d *BioAssayDimension) SameOrder(o *BioAssayDimension) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i := range d.BioAssays {
		if d.BioAssays[i].ID != o.BioAssays[i].ID {
			return false
		}
	}
	return true
}

// IndexOf returns the column of the bioassay with the given ID, or -1.
func (d *BioAssayDimension) IndexOf(bioAssayID int64) int {
	if d == nil {
		return -1
	}
	for i, ba := range d.BioAssays {
		if ba.ID == bioAssayID {
			return i
		}
	}
	return -1
}

// DataVector is one row of data: a design element measured under one
// quantitation type across every sample of a dimension. Data must decode to
// exactly Dimension.Len() values of QuantitationType.Representation.
type DataVector struct {
	ID               int64
	ExperimentID     int64
	DesignElement    *DesignElement
	QuantitationType *QuantitationType
	Dimension        *BioAssayDimension
	Data             []byte
}

// VectorKey is the identity of a vector within a dimension.
type VectorKey struct {
	DesignElementID    int64
	QuantitationTypeID int64
}

// Key returns the (design element, quantitation type) identity of v.
func (v *DataVector) Key() VectorKey {
	return VectorKey{DesignElementID: v.DesignElement.ID, QuantitationTypeID: v.QuantitationType.ID}
}

// Doubles decodes the vector's data as float64 values. Non-double
// representations are converted where that is meaningful.
func (v *DataVector) Doubles() ([]float64, error) {
	return DecodeAsDoubles(v.Data, v.QuantitationType.Representation)
}

// Values decodes the vector's data into a typed slice ([]float64, []int,
// []int64, []bool, []string).
func (v *DataVector) Values() (interface{}, error) {
	return Decode(v.Data, v.QuantitationType.Representation)
}

// Experiment is the minimal view of an expression experiment needed here.
type Experiment struct {
	ID                int64
	ShortName         string
	NumberOfSamples   int
	BioAssays         []*BioAssay
	QuantitationTypes []*QuantitationType
}
