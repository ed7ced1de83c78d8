package vectorsource

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/csimplestring/go-csv/detector"
	"github.com/gocarina/gocsv"

	"github.com/carbocation/qtmatrix"
)

// QuantitationTypeRecord is one row of the manifest. Flags accept
// true/false, 1/0 or yes/no; empty means false.
type QuantitationTypeRecord struct {
	Name                    string `csv:"name"`
	Description             string `csv:"description"`
	GeneralType             string `csv:"general_type"`
	StandardType            string `csv:"standard_type"`
	Representation          string `csv:"representation"`
	IsPreferred             bool   `csv:"is_preferred"`
	IsMaskedPreferred       bool   `csv:"is_masked_preferred"`
	IsRatio                 bool   `csv:"is_ratio"`
	IsBackground            bool   `csv:"is_background"`
	IsBackgroundSubtracted  bool   `csv:"is_background_subtracted"`
	IsNormalized            bool   `csv:"is_normalized"`
	IsBatchCorrected        bool   `csv:"is_batch_corrected"`
	IsRecomputedFromRawData bool   `csv:"is_recomputed_from_raw_data"`
}

// ValueRecord is one cell of long-format data.
type ValueRecord struct {
	Dimension        string `csv:"dimension"`
	Sample           string `csv:"sample"`
	DesignElement    string `csv:"design_element"`
	Platform         string `csv:"platform"`
	Technology       string `csv:"technology"`
	QuantitationType string `csv:"quantitation_type"`
	Value            string `csv:"value"`
}

func (r QuantitationTypeRecord) model(id int64) (*qtmatrix.QuantitationType, error) {
	rep, err := qtmatrix.ParseRepresentation(r.Representation)
	if err != nil {
		return nil, err
	}
	gt := qtmatrix.GeneralType(r.GeneralType)
	if gt == "" {
		gt = qtmatrix.GeneralTypeQuantitative
	}
	st := qtmatrix.StandardType(r.StandardType)
	if st == "" {
		st = qtmatrix.StandardTypeAmount
	}
	return &qtmatrix.QuantitationType{
		ID:                      id,
		Name:                    r.Name,
		Description:             r.Description,
		GeneralType:             gt,
		StandardType:            st,
		Representation:          rep,
		IsPreferred:             r.IsPreferred,
		IsMaskedPreferred:       r.IsMaskedPreferred,
		IsRatio:                 r.IsRatio,
		IsBackground:            r.IsBackground,
		IsBackgroundSubtracted:  r.IsBackgroundSubtracted,
		IsNormalized:            r.IsNormalized,
		IsBatchCorrected:        r.IsBatchCorrected,
		IsRecomputedFromRawData: r.IsRecomputedFromRawData,
	}, nil
}

// DetectDelimiter returns the most likely delimiter of a CSV-like sample,
// defaulting to a comma.
func DetectDelimiter(sample []byte) rune {
	delimiters := detector.New().DetectDelimiter(bytes.NewReader(sample), '"')
	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}
	return ','
}

// sniffLen bytes of each file are used to detect its delimiter.
const sniffLen = 64 << 10

// unmarshal reads delimited records from r into out, a pointer to a slice
// of structs with csv tags.
func unmarshal(r io.Reader, out interface{}) error {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}
	head = head[:n]

	cr := csv.NewReader(io.MultiReader(bytes.NewReader(head), r))
	cr.Comma = DetectDelimiter(head)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return gocsv.UnmarshalCSV(cr, out)
}
