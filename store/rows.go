package store

import (
	"gopkg.in/guregu/null.v3"

	"github.com/carbocation/qtmatrix"
)

type experimentRow struct {
	ID              int64  `db:"id"`
	ShortName       string `db:"short_name"`
	NumberOfSamples int    `db:"number_of_samples"`
}

type bioAssayRow struct {
	ID           int64  `db:"id"`
	ExperimentID int64  `db:"experiment_id"`
	Name         string `db:"name"`
	IsOutlier    bool   `db:"is_outlier"`
}

type quantitationTypeRow struct {
	ID                      int64       `db:"id"`
	Name                    string      `db:"name"`
	Description             null.String `db:"description"`
	GeneralType             string      `db:"general_type"`
	StandardType            string      `db:"standard_type"`
	Representation          string      `db:"representation"`
	IsPreferred             bool        `db:"is_preferred"`
	IsMaskedPreferred       bool        `db:"is_masked_preferred"`
	IsRatio                 bool        `db:"is_ratio"`
	IsBackground            bool        `db:"is_background"`
	IsBackgroundSubtracted  bool        `db:"is_background_subtracted"`
	IsNormalized            bool        `db:"is_normalized"`
	IsBatchCorrected        bool        `db:"is_batch_corrected"`
	IsRecomputedFromRawData bool        `db:"is_recomputed_from_raw_data"`
}

func quantitationTypeRowFrom(qt *qtmatrix.QuantitationType) quantitationTypeRow {
	return quantitationTypeRow{
		ID:                      qt.ID,
		Name:                    qt.Name,
		Description:             null.NewString(qt.Description, qt.Description != ""),
		GeneralType:             string(qt.GeneralType),
		StandardType:            string(qt.StandardType),
		Representation:          qt.Representation.String(),
		IsPreferred:             qt.IsPreferred,
		IsMaskedPreferred:       qt.IsMaskedPreferred,
		IsRatio:                 qt.IsRatio,
		IsBackground:            qt.IsBackground,
		IsBackgroundSubtracted:  qt.IsBackgroundSubtracted,
		IsNormalized:            qt.IsNormalized,
		IsBatchCorrected:        qt.IsBatchCorrected,
		IsRecomputedFromRawData: qt.IsRecomputedFromRawData,
	}
}

func (r quantitationTypeRow) model() (*qtmatrix.QuantitationType, error) {
	rep, err := qtmatrix.ParseRepresentation(r.Representation)
	if err != nil {
		return nil, err
	}
	return &qtmatrix.QuantitationType{
		ID:                      r.ID,
		Name:                    r.Name,
		Description:             r.Description.String,
		GeneralType:             qtmatrix.GeneralType(r.GeneralType),
		StandardType:            qtmatrix.StandardType(r.StandardType),
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

const insertQuantitationType = `INSERT INTO quantitation_type (
	name, description, general_type, standard_type, representation,
	is_preferred, is_masked_preferred, is_ratio, is_background, is_background_subtracted,
	is_normalized, is_batch_corrected, is_recomputed_from_raw_data
) VALUES (
	:name, :description, :general_type, :standard_type, :representation,
	:is_preferred, :is_masked_preferred, :is_ratio, :is_background, :is_background_subtracted,
	:is_normalized, :is_batch_corrected, :is_recomputed_from_raw_data
)`

// Used when the caller already owns the ID.
const insertQuantitationTypeWithID = `INSERT OR IGNORE INTO quantitation_type (
	id, name, description, general_type, standard_type, representation,
	is_preferred, is_masked_preferred, is_ratio, is_background, is_background_subtracted,
	is_normalized, is_batch_corrected, is_recomputed_from_raw_data
) VALUES (
	:id, :name, :description, :general_type, :standard_type, :representation,
	:is_preferred, :is_masked_preferred, :is_ratio, :is_background, :is_background_subtracted,
	:is_normalized, :is_batch_corrected, :is_recomputed_from_raw_data
)`

type dimensionRow struct {
	ID     int64       `db:"id"`
	Name   null.String `db:"name"`
	Merged bool        `db:"merged"`
}

type memberRow struct {
	DimensionID int64  `db:"dimension_id"`
	BioAssayID  int64  `db:"bioassay_id"`
	Name        string `db:"name"`
	IsOutlier   bool   `db:"is_outlier"`
}

type vectorRow struct {
	ID                 int64  `db:"id"`
	ExperimentID       int64  `db:"experiment_id"`
	QuantitationTypeID int64  `db:"quantitation_type_id"`
	DimensionID        int64  `db:"dimension_id"`
	Data               []byte `db:"data"`

	DesignElementID   int64       `db:"de_id"`
	DesignElementName string      `db:"de_name"`
	ArrayDesignID     null.Int    `db:"ad_id"`
	ArrayDesignName   null.String `db:"ad_short_name"`
	TechnologyType    null.String `db:"ad_technology_type"`
}
