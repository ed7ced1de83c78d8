// Package store persists experiments, quantitation types, sample axes and
// data vectors in a SQLite database. A *Store satisfies the
// qtmatrix.VectorSource, qtmatrix.QuantitationTypeRegistry and
// qtmatrix.ExperimentStore interfaces.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/guregu/null.v3"

	"github.com/carbocation/qtmatrix"
)

var (
	_ qtmatrix.VectorSource             = (*Store)(nil)
	_ qtmatrix.QuantitationTypeRegistry = (*Store)(nil)
	_ qtmatrix.ExperimentStore          = (*Store)(nil)
)

type Store struct {
	log *slog.Logger
	db  *sqlx.DB
}

// Open connects to the SQLite database at path, creating the schema if
// needed.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	// go-sqlite3 wants URI filenames to carry the file: prefix.
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, persistence("store.Open", pfx.Err(err))
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, persistence("store.Open", pfx.Err(err))
	}
	log.Debug("store: opened", "path", path)
	return &Store{log: log, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func persistence(op string, err error) error {
	var qe *qtmatrix.Error
	if errors.As(err, &qe) {
		return err
	}
	return qtmatrix.NewError(qtmatrix.KindPersistence, op, err)
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return pfx.Err(err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// PutExperiment inserts or replaces an experiment and its samples. Its
// quantitation types are registered (those without an ID are created and
// given one) and linked to it.
func (s *Store) PutExperiment(ctx context.Context, ee *qtmatrix.Experiment) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO experiment (id, short_name, number_of_samples)
			VALUES (:id, :short_name, :number_of_samples)`,
			experimentRow{ID: ee.ID, ShortName: ee.ShortName, NumberOfSamples: ee.NumberOfSamples}); err != nil {
			return pfx.Err(err)
		}
		for _, ba := range ee.BioAssays {
			if err := putBioAssay(ctx, tx, ee.ID, ba, true); err != nil {
				return err
			}
		}
		return linkQuantitationTypes(ctx, tx, ee.ID, ee.QuantitationTypes)
	})
	if err != nil {
		return persistence("store.PutExperiment", err)
	}
	return nil
}

func putBioAssay(ctx context.Context, tx *sqlx.Tx, experimentID int64, ba *qtmatrix.BioAssay, replace bool) error {
	verb := "INSERT OR IGNORE"
	if replace {
		verb = "INSERT OR REPLACE"
	}
	if _, err := tx.NamedExecContext(ctx, verb+` INTO bioassay (id, experiment_id, name, is_outlier)
		VALUES (:id, :experiment_id, :name, :is_outlier)`,
		bioAssayRow{ID: ba.ID, ExperimentID: experimentID, Name: ba.Name, IsOutlier: ba.IsOutlier}); err != nil {
		return pfx.Err(err)
	}
	return nil
}

func linkQuantitationTypes(ctx context.Context, tx *sqlx.Tx, experimentID int64, qts []*qtmatrix.QuantitationType) error {
	for _, qt := range qts {
		if qt.ID == 0 {
			id, err := createQuantitationType(ctx, tx, qt)
			if err != nil {
				return err
			}
			qt.ID = id
		} else if _, err := tx.NamedExecContext(ctx, insertQuantitationTypeWithID, quantitationTypeRowFrom(qt)); err != nil {
			return pfx.Err(err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO experiment_quantitation_type (experiment_id, quantitation_type_id)
			VALUES (?, ?)`, experimentID, qt.ID); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

func createQuantitationType(ctx context.Context, tx *sqlx.Tx, qt *qtmatrix.QuantitationType) (int64, error) {
	res, err := tx.NamedExecContext(ctx, insertQuantitationType, quantitationTypeRowFrom(qt))
	if err != nil {
		return 0, pfx.Err(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, pfx.Err(err)
	}
	return id, nil
}

// Create stores a copy of qt under a new ID. The copy is not linked to any
// experiment until the experiment is updated with it.
func (s *Store) Create(ctx context.Context, qt *qtmatrix.QuantitationType) (*qtmatrix.QuantitationType, error) {
	out := *qt
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		id, err := createQuantitationType(ctx, tx, qt)
		out.ID = id
		return err
	})
	if err != nil {
		return nil, persistence("store.Create", err)
	}
	s.log.Debug("store: created quantitation type", "qt", out.Name, "id", out.ID)
	return &out, nil
}

func (s *Store) QuantitationTypes(ctx context.Context, experimentID int64) ([]*qtmatrix.QuantitationType, error) {
	out, err := quantitationTypes(ctx, s.db, experimentID)
	if err != nil {
		return nil, persistence("store.QuantitationTypes", err)
	}
	return out, nil
}

func quantitationTypes(ctx context.Context, q sqlx.QueryerContext, experimentID int64) ([]*qtmatrix.QuantitationType, error) {
	var rows []quantitationTypeRow
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT qt.* FROM quantitation_type qt
		JOIN experiment_quantitation_type eqt ON eqt.quantitation_type_id = qt.id
		WHERE eqt.experiment_id = ? ORDER BY qt.id`, experimentID); err != nil {
		return nil, pfx.Err(err)
	}
	return models(rows)
}

func models(rows []quantitationTypeRow) ([]*qtmatrix.QuantitationType, error) {
	out := make([]*qtmatrix.QuantitationType, 0, len(rows))
	for _, r := range rows {
		qt, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, qt)
	}
	return out, nil
}

func (s *Store) Experiment(ctx context.Context, experimentID int64) (*qtmatrix.Experiment, error) {
	const op = "store.Experiment"

	var row experimentRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM experiment WHERE id = ?`, experimentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, qtmatrix.Errorf(qtmatrix.KindPersistence, op, "no experiment with id %d", experimentID)
	} else if err != nil {
		return nil, persistence(op, pfx.Err(err))
	}
	ee := &qtmatrix.Experiment{ID: row.ID, ShortName: row.ShortName, NumberOfSamples: row.NumberOfSamples}

	var bas []bioAssayRow
	if err := s.db.SelectContext(ctx, &bas, `SELECT * FROM bioassay WHERE experiment_id = ? ORDER BY id`, experimentID); err != nil {
		return nil, persistence(op, pfx.Err(err))
	}
	for _, ba := range bas {
		ee.BioAssays = append(ee.BioAssays, &qtmatrix.BioAssay{ID: ba.ID, Name: ba.Name, IsOutlier: ba.IsOutlier})
	}

	if ee.QuantitationTypes, err = quantitationTypes(ctx, s.db, experimentID); err != nil {
		return nil, persistence(op, err)
	}
	return ee, nil
}

// Update saves the experiment's name, sample count and outlier flags, and
// links every quantitation type it lists. Links are never removed.
func (s *Store) Update(ctx context.Context, ee *qtmatrix.Experiment) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE experiment SET short_name = ?, number_of_samples = ? WHERE id = ?`,
			ee.ShortName, ee.NumberOfSamples, ee.ID)
		if err != nil {
			return pfx.Err(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return pfx.Err(err)
		} else if n == 0 {
			return fmt.Errorf("no experiment with id %d", ee.ID)
		}

		for _, ba := range ee.BioAssays {
			if _, err := tx.ExecContext(ctx, `UPDATE bioassay SET is_outlier = ? WHERE id = ?`, ba.IsOutlier, ba.ID); err != nil {
				return pfx.Err(err)
			}
		}
		return linkQuantitationTypes(ctx, tx, ee.ID, ee.QuantitationTypes)
	})
	if err != nil {
		return persistence("store.Update", err)
	}
	return nil
}

// AttachVectors stores vectors for an experiment. Dimensions without an ID
// are created and the ID is written back to them, as are the IDs of the new
// vectors. Design elements, platforms and samples are added if unknown.
func (s *Store) AttachVectors(ctx context.Context, experimentID int64, vectors []*qtmatrix.DataVector) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return attach(ctx, tx, experimentID, vectors)
	})
	if err != nil {
		return persistence("store.AttachVectors", err)
	}
	s.log.Info("store: attached vectors", "experiment", experimentID, "vectors", len(vectors))
	return nil
}

// ReplaceVectors removes every vector of the experiment and stores vectors
// in their place, atomically.
func (s *Store) ReplaceVectors(ctx context.Context, experimentID int64, vectors []*qtmatrix.DataVector) error {
	var removed int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM vector WHERE experiment_id = ?`, experimentID)
		if err != nil {
			return pfx.Err(err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return pfx.Err(err)
		}
		return attach(ctx, tx, experimentID, vectors)
	})
	if err != nil {
		return persistence("store.ReplaceVectors", err)
	}
	s.log.Info("store: replaced vectors", "experiment", experimentID, "removed", removed, "added", len(vectors))
	return nil
}

func attach(ctx context.Context, tx *sqlx.Tx, experimentID int64, vectors []*qtmatrix.DataVector) error {
	dims := make(map[*qtmatrix.BioAssayDimension]struct{})
	elements := make(map[int64]struct{})

	for _, v := range vectors {
		if v.QuantitationType == nil || v.QuantitationType.ID == 0 {
			return fmt.Errorf("vector for %s has an unregistered quantitation type", v.DesignElement)
		}
		if _, ok := dims[v.Dimension]; !ok {
			if err := putDimension(ctx, tx, experimentID, v.Dimension); err != nil {
				return err
			}
			dims[v.Dimension] = struct{}{}
		}
		if _, ok := elements[v.DesignElement.ID]; !ok {
			if err := putDesignElement(ctx, tx, v.DesignElement); err != nil {
				return err
			}
			elements[v.DesignElement.ID] = struct{}{}
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO vector (experiment_id, design_element_id, quantitation_type_id, dimension_id, data)
			VALUES (?, ?, ?, ?, ?)`, experimentID, v.DesignElement.ID, v.QuantitationType.ID, v.Dimension.ID, v.Data)
		if err != nil {
			return pfx.Err(err)
		}
		if v.ID, err = res.LastInsertId(); err != nil {
			return pfx.Err(err)
		}
		v.ExperimentID = experimentID
	}
	return nil
}

func putDimension(ctx context.Context, tx *sqlx.Tx, experimentID int64, d *qtmatrix.BioAssayDimension) error {
	if d.ID != 0 {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM bioassay_dimension WHERE id = ?`, d.ID); err != nil {
			return pfx.Err(err)
		}
		if exists > 0 {
			return nil
		}
	}

	row := dimensionRow{ID: d.ID, Name: null.NewString(d.Name, d.Name != ""), Merged: d.Merged}
	q := `INSERT INTO bioassay_dimension (id, name, merged) VALUES (:id, :name, :merged)`
	if d.ID == 0 {
		q = `INSERT INTO bioassay_dimension (name, merged) VALUES (:name, :merged)`
	}
	res, err := tx.NamedExecContext(ctx, q, row)
	if err != nil {
		return pfx.Err(err)
	}
	if d.ID == 0 {
		if d.ID, err = res.LastInsertId(); err != nil {
			return pfx.Err(err)
		}
	}

	for i, ba := range d.BioAssays {
		if err := putBioAssay(ctx, tx, experimentID, ba, false); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO dimension_bioassay (dimension_id, position, bioassay_id) VALUES (?, ?, ?)`,
			d.ID, i, ba.ID); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

func putDesignElement(ctx context.Context, tx *sqlx.Tx, de *qtmatrix.DesignElement) error {
	var adID null.Int
	if ad := de.ArrayDesign; ad != nil {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO array_design (id, short_name, technology_type) VALUES (?, ?, ?)`,
			ad.ID, ad.ShortName, null.NewString(string(ad.TechnologyType), ad.TechnologyType != "")); err != nil {
			return pfx.Err(err)
		}
		adID = null.IntFrom(ad.ID)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO design_element (id, name, array_design_id) VALUES (?, ?, ?)`,
		de.ID, de.Name, adID); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// Dimensions returns the distinct dimensions the experiment's vectors are
// on, ordered by ID.
func (s *Store) Dimensions(ctx context.Context, experimentID int64) ([]*qtmatrix.BioAssayDimension, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, `SELECT DISTINCT dimension_id FROM vector WHERE experiment_id = ? ORDER BY dimension_id`, experimentID); err != nil {
		return nil, persistence("store.Dimensions", pfx.Err(err))
	}
	byID, err := loadDimensions(ctx, s.db, ids)
	if err != nil {
		return nil, persistence("store.Dimensions", err)
	}
	out := make([]*qtmatrix.BioAssayDimension, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out, nil
}

func loadDimensions(ctx context.Context, q sqlx.QueryerContext, ids []int64) (map[int64]*qtmatrix.BioAssayDimension, error) {
	out := make(map[int64]*qtmatrix.BioAssayDimension, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM bioassay_dimension WHERE id IN (?)`, ids)
	if err != nil {
		return nil, pfx.Err(err)
	}
	var dims []dimensionRow
	if err := sqlx.SelectContext(ctx, q, &dims, query, args...); err != nil {
		return nil, pfx.Err(err)
	}
	for _, d := range dims {
		out[d.ID] = &qtmatrix.BioAssayDimension{ID: d.ID, Name: d.Name.String, Merged: d.Merged}
	}

	query, args, err = sqlx.In(`SELECT dm.dimension_id, dm.bioassay_id, ba.name, ba.is_outlier
		FROM dimension_bioassay dm JOIN bioassay ba ON ba.id = dm.bioassay_id
		WHERE dm.dimension_id IN (?) ORDER BY dm.dimension_id, dm.position`, ids)
	if err != nil {
		return nil, pfx.Err(err)
	}
	var members []memberRow
	if err := sqlx.SelectContext(ctx, q, &members, query, args...); err != nil {
		return nil, pfx.Err(err)
	}

	// Samples are shared between dimensions.
	samples := make(map[int64]*qtmatrix.BioAssay)
	for _, m := range members {
		ba, ok := samples[m.BioAssayID]
		if !ok {
			ba = &qtmatrix.BioAssay{ID: m.BioAssayID, Name: m.Name, IsOutlier: m.IsOutlier}
			samples[m.BioAssayID] = ba
		}
		d := out[m.DimensionID]
		d.BioAssays = append(d.BioAssays, ba)
	}
	return out, nil
}

// VectorsFor loads the experiment's vectors, in insertion order, optionally
// restricted to the quantitation types in filter.
func (s *Store) VectorsFor(ctx context.Context, experimentID int64, filter []*qtmatrix.QuantitationType) ([]*qtmatrix.DataVector, error) {
	const op = "store.VectorsFor"

	query := `SELECT v.id, v.experiment_id, v.quantitation_type_id, v.dimension_id, v.data,
		de.id AS de_id, de.name AS de_name,
		ad.id AS ad_id, ad.short_name AS ad_short_name, ad.technology_type AS ad_technology_type
		FROM vector v
		JOIN design_element de ON de.id = v.design_element_id
		LEFT JOIN array_design ad ON ad.id = de.array_design_id
		WHERE v.experiment_id = ?`
	args := []interface{}{experimentID}
	if len(filter) > 0 {
		ids := make([]int64, 0, len(filter))
		for _, qt := range filter {
			ids = append(ids, qt.ID)
		}
		var err error
		if query, args, err = sqlx.In(query+` AND v.quantitation_type_id IN (?)`, experimentID, ids); err != nil {
			return nil, persistence(op, pfx.Err(err))
		}
	}
	query += ` ORDER BY v.id`

	var rows []vectorRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, persistence(op, pfx.Err(err))
	}
	if len(rows) == 0 {
		return nil, nil
	}

	qts, err := s.quantitationTypesByID(ctx, rows)
	if err != nil {
		return nil, persistence(op, err)
	}
	var dimIDs []int64
	seenDim := make(map[int64]struct{})
	for _, r := range rows {
		if _, ok := seenDim[r.DimensionID]; !ok {
			seenDim[r.DimensionID] = struct{}{}
			dimIDs = append(dimIDs, r.DimensionID)
		}
	}
	dims, err := loadDimensions(ctx, s.db, dimIDs)
	if err != nil {
		return nil, persistence(op, err)
	}

	designs := make(map[int64]*qtmatrix.ArrayDesign)
	elements := make(map[int64]*qtmatrix.DesignElement)
	out := make([]*qtmatrix.DataVector, 0, len(rows))
	for _, r := range rows {
		de, ok := elements[r.DesignElementID]
		if !ok {
			de = &qtmatrix.DesignElement{ID: r.DesignElementID, Name: r.DesignElementName}
			if r.ArrayDesignID.Valid {
				ad, ok := designs[r.ArrayDesignID.Int64]
				if !ok {
					ad = &qtmatrix.ArrayDesign{
						ID:             r.ArrayDesignID.Int64,
						ShortName:      r.ArrayDesignName.String,
						TechnologyType: qtmatrix.TechnologyType(r.TechnologyType.String),
					}
					designs[ad.ID] = ad
				}
				de.ArrayDesign = ad
			}
			elements[de.ID] = de
		}
		out = append(out, &qtmatrix.DataVector{
			ID:               r.ID,
			ExperimentID:     r.ExperimentID,
			DesignElement:    de,
			QuantitationType: qts[r.QuantitationTypeID],
			Dimension:        dims[r.DimensionID],
			Data:             r.Data,
		})
	}
	return out, nil
}

func (s *Store) quantitationTypesByID(ctx context.Context, rows []vectorRow) (map[int64]*qtmatrix.QuantitationType, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, r := range rows {
		if _, ok := seen[r.QuantitationTypeID]; !ok {
			seen[r.QuantitationTypeID] = struct{}{}
			ids = append(ids, r.QuantitationTypeID)
		}
	}

	query, args, err := sqlx.In(`SELECT * FROM quantitation_type WHERE id IN (?)`, ids)
	if err != nil {
		return nil, pfx.Err(err)
	}
	var qtRows []quantitationTypeRow
	if err := s.db.SelectContext(ctx, &qtRows, s.db.Rebind(query), args...); err != nil {
		return nil, pfx.Err(err)
	}
	qts, err := models(qtRows)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*qtmatrix.QuantitationType, len(qts))
	for _, qt := range qts {
		out[qt.ID] = qt
	}
	return out, nil
}
