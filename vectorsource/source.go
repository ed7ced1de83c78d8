// Package vectorsource reads an experiment from delimited text: a manifest
// with one row per quantitation type and long-format data with one row per
// value. Files may be local or on Google Storage and may be compressed.
package vectorsource

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"

	"github.com/carbocation/qtmatrix"
)

var _ qtmatrix.VectorSource = (*Source)(nil)

type Config struct {
	Logger  *slog.Logger
	Storage *storage.Client // required for gs:// paths

	ExperimentID int64
	ShortName    string

	// IDOffset is added to every ID Load assigns, so that several imported
	// experiments can share a database.
	IDOffset int64

	Manifest string
	// Data is a file, or a directory or gs:// prefix ending in "/" whose
	// files are read in name order.
	Data string
}

// Source holds a whole experiment in memory.
type Source struct {
	experiment *qtmatrix.Experiment
	vectors    []*qtmatrix.DataVector
}

// Load reads the manifest and data. IDs are assigned in first-seen order,
// starting at IDOffset+1. Samples of a dimension are ordered as first seen; a sample
// without a row for some vector gets the representation's default value.
func Load(ctx context.Context, cfg Config) (*Source, error) {
	const op = "vectorsource.Load"
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var manifest []*QuantitationTypeRecord
	if err := readAll(ctx, cfg.Manifest, cfg.Storage, &manifest); err != nil {
		return nil, qtmatrix.NewError(qtmatrix.KindPersistence, op, err)
	}
	qts := make(map[string]*qtmatrix.QuantitationType, len(manifest))
	ee := &qtmatrix.Experiment{ID: cfg.ExperimentID, ShortName: cfg.ShortName}
	for i, rec := range manifest {
		qt, err := rec.model(cfg.IDOffset + int64(i+1))
		if err != nil {
			return nil, err
		}
		if _, dup := qts[qt.Name]; dup {
			return nil, qtmatrix.Errorf(qtmatrix.KindInvalidInput, op, "quantitation type %q is listed twice", qt.Name)
		}
		qts[qt.Name] = qt
		ee.QuantitationTypes = append(ee.QuantitationTypes, qt)
	}

	paths, err := Expand(ctx, cfg.Data, cfg.Storage)
	if err != nil {
		return nil, qtmatrix.NewError(qtmatrix.KindPersistence, op, err)
	}
	b := newAssembler(ee, qts, cfg.IDOffset)
	for _, path := range paths {
		var rows []*ValueRecord
		if err := readAll(ctx, path, cfg.Storage, &rows); err != nil {
			return nil, qtmatrix.NewError(qtmatrix.KindPersistence, op, err)
		}
		for i, row := range rows {
			if err := b.add(row); err != nil {
				return nil, qtmatrix.NewError(qtmatrix.KindInvalidInput, op, fmt.Errorf("%s row %d: %w", path, i+2, err))
			}
		}
		log.Debug("vectorsource: read", "path", path, "rows", len(rows))
	}

	vectors, err := b.vectors()
	if err != nil {
		return nil, err
	}
	ee.NumberOfSamples = len(ee.BioAssays)
	log.Info("vectorsource: loaded experiment", "experiment", ee.ShortName,
		"quantitation_types", len(ee.QuantitationTypes), "samples", ee.NumberOfSamples, "vectors", len(vectors))
	return &Source{experiment: ee, vectors: vectors}, nil
}

func readAll(ctx context.Context, path string, client *storage.Client, out interface{}) error {
	rc, err := Open(ctx, path, client)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := unmarshal(rc, out); err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	return nil
}

func (s *Source) Experiment() *qtmatrix.Experiment {
	return s.experiment
}

// Vectors returns every vector, in the order their first value was read.
func (s *Source) Vectors() []*qtmatrix.DataVector {
	return append([]*qtmatrix.DataVector(nil), s.vectors...)
}

func (s *Source) VectorsFor(ctx context.Context, experimentID int64, filter []*qtmatrix.QuantitationType) ([]*qtmatrix.DataVector, error) {
	if experimentID != s.experiment.ID {
		return nil, qtmatrix.Errorf(qtmatrix.KindPersistence, "vectorsource.VectorsFor", "no experiment with id %d", experimentID)
	}
	if len(filter) == 0 {
		return s.Vectors(), nil
	}
	keep := make(map[int64]struct{}, len(filter))
	for _, qt := range filter {
		keep[qt.ID] = struct{}{}
	}
	var out []*qtmatrix.DataVector
	for _, v := range s.vectors {
		if _, ok := keep[v.QuantitationType.ID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type cellKey struct {
	dim, de, qt int64
}

// assembler accumulates long-format rows into vectors.
type assembler struct {
	ee     *qtmatrix.Experiment
	qts    map[string]*qtmatrix.QuantitationType
	offset int64

	dims      map[string]*qtmatrix.BioAssayDimension
	samples   map[string]*qtmatrix.BioAssay
	platforms map[string]*qtmatrix.ArrayDesign
	elements  map[string]*qtmatrix.DesignElement

	order  []cellKey
	cells  map[cellKey]map[int64]string
	lookup map[cellKey]*qtmatrix.DataVector
}

func newAssembler(ee *qtmatrix.Experiment, qts map[string]*qtmatrix.QuantitationType, offset int64) *assembler {
	return &assembler{
		ee:        ee,
		qts:       qts,
		offset:    offset,
		dims:      make(map[string]*qtmatrix.BioAssayDimension),
		samples:   make(map[string]*qtmatrix.BioAssay),
		platforms: make(map[string]*qtmatrix.ArrayDesign),
		elements:  make(map[string]*qtmatrix.DesignElement),
		cells:     make(map[cellKey]map[int64]string),
		lookup:    make(map[cellKey]*qtmatrix.DataVector),
	}
}

func (a *assembler) nextID(seen int) int64 {
	return a.offset + int64(seen+1)
}

func (a *assembler) add(row *ValueRecord) error {
	qt, ok := a.qts[row.QuantitationType]
	if !ok {
		return fmt.Errorf("quantitation type %q is not in the manifest", row.QuantitationType)
	}
	if row.Sample == "" || row.DesignElement == "" {
		return fmt.Errorf("sample and design element are required")
	}

	dimName := row.Dimension
	if dimName == "" {
		dimName = row.Platform
	}
	dim, ok := a.dims[dimName]
	if !ok {
		dim = &qtmatrix.BioAssayDimension{ID: a.nextID(len(a.dims)), Name: dimName}
		a.dims[dimName] = dim
	}

	ba, ok := a.samples[row.Sample]
	if !ok {
		ba = &qtmatrix.BioAssay{ID: a.nextID(len(a.samples)), Name: row.Sample}
		a.samples[row.Sample] = ba
		a.ee.BioAssays = append(a.ee.BioAssays, ba)
	}
	if dim.IndexOf(ba.ID) < 0 {
		dim.BioAssays = append(dim.BioAssays, ba)
	}

	ad, ok := a.platforms[row.Platform]
	if !ok {
		ad = &qtmatrix.ArrayDesign{
			ID:             a.nextID(len(a.platforms)),
			ShortName:      row.Platform,
			TechnologyType: qtmatrix.TechnologyType(strings.ToUpper(row.Technology)),
		}
		a.platforms[row.Platform] = ad
	}

	// Probe names are unique within a platform only.
	deName := row.Platform + "\x00" + row.DesignElement
	de, ok := a.elements[deName]
	if !ok {
		de = &qtmatrix.DesignElement{ID: a.nextID(len(a.elements)), Name: row.DesignElement, ArrayDesign: ad}
		a.elements[deName] = de
	}

	key := cellKey{dim: dim.ID, de: de.ID, qt: qt.ID}
	cells, ok := a.cells[key]
	if !ok {
		cells = make(map[int64]string)
		a.cells[key] = cells
		a.order = append(a.order, key)
		a.lookup[key] = &qtmatrix.DataVector{
			ExperimentID:     a.ee.ID,
			DesignElement:    de,
			QuantitationType: qt,
			Dimension:        dim,
		}
	}
	if _, dup := cells[ba.ID]; dup {
		return fmt.Errorf("second value for %s / %s / %s", row.DesignElement, row.QuantitationType, row.Sample)
	}
	cells[ba.ID] = row.Value
	return nil
}

// vectors encodes every accumulated vector over its dimension's final
// sample order.
func (a *assembler) vectors() ([]*qtmatrix.DataVector, error) {
	out := make([]*qtmatrix.DataVector, 0, len(a.order))
	for _, key := range a.order {
		v := a.lookup[key]
		cells := a.cells[key]
		raw := make([]string, v.Dimension.Len())
		present := make([]bool, v.Dimension.Len())
		for i, ba := range v.Dimension.BioAssays {
			raw[i], present[i] = cells[ba.ID]
		}

		values, err := parse(raw, present, v.QuantitationType.Representation)
		if err != nil {
			return nil, qtmatrix.NewError(qtmatrix.KindInvalidInput, "vectorsource.Load",
				fmt.Errorf("%s / %s: %w", v.DesignElement, v.QuantitationType.Name, err))
		}
		if v.Data, err = qtmatrix.EncodeAs(values, v.QuantitationType.Representation); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// missingTokens parse to NaN in double columns.
var missingTokens = map[string]struct{}{"": {}, "NA": {}, "NAN": {}, "NULL": {}, "-": {}}

// parse converts textual values to the slice type of rep. Absent cells take
// the default value.
func parse(raw []string, present []bool, rep qtmatrix.Representation) (interface{}, error) {
	switch rep {
	case qtmatrix.RepresentationDouble:
		out := make([]float64, len(raw))
		for i, s := range raw {
			if _, missing := missingTokens[strings.ToUpper(strings.TrimSpace(s))]; !present[i] || missing {
				out[i] = math.NaN()
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	case qtmatrix.RepresentationInt:
		out := make([]int, len(raw))
		for i, s := range raw {
			if !present[i] || s == "" {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case qtmatrix.RepresentationLong:
		out := make([]int64, len(raw))
		for i, s := range raw {
			if !present[i] || s == "" {
				continue
			}
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case qtmatrix.RepresentationBoolean:
		out := make([]bool, len(raw))
		for i, s := range raw {
			if !present[i] || s == "" {
				continue
			}
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return out, nil
	case qtmatrix.RepresentationString, qtmatrix.RepresentationChar:
		return raw, nil
	}
	return nil, qtmatrix.Errorf(qtmatrix.KindUnsupportedRepresentation, "vectorsource.parse", "cannot read %s values", rep)
}
