// mergevectors rebuilds every vector of an experiment over a single sample
// axis, replacing the per-dimension vectors in the database.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/align"
	"github.com/carbocation/qtmatrix/compileinfo"
	"github.com/carbocation/qtmatrix/config"
	"github.com/carbocation/qtmatrix/logger"
	"github.com/carbocation/qtmatrix/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	configFlag := flag.String("config", "", "JSON configuration file (optional)")
	dbFlag := flag.String("db", "", "sqlite database (or set "+config.DatabaseEnv+" env var, or database in the config file)")
	experimentFlag := flag.Int64("experiment", 0, "experiment ID")
	expectedFlag := flag.Int("expected-samples", -1, "required size of the merged axis (-1 = config file, 0 = no check)")
	dryRunFlag := flag.Bool("dry-run", false, "report what would be merged without writing to the database")
	flag.Parse()

	log := logger.New(*verboseFlag)
	log.Info("mergevectors: starting", "build", compileinfo.Get())

	if *experimentFlag <= 0 {
		flag.Usage()
		return fmt.Errorf("--experiment is required")
	}

	cfg, err := config.ParseFromPath(*configFlag)
	if err != nil {
		return err
	}
	if *dbFlag != "" {
		cfg.Database = *dbFlag
	}
	if *expectedFlag >= 0 {
		cfg.ExpectedSamples = *expectedFlag
	}

	ctx := context.Background()
	db, err := store.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ee, err := db.Experiment(ctx, *experimentFlag)
	if err != nil {
		return err
	}
	dims, err := db.Dimensions(ctx, ee.ID)
	if err != nil {
		return err
	}
	if len(dims) < 2 {
		log.Info("mergevectors: experiment is already on one sample axis", "experiment", ee.ShortName, "dimensions", len(dims))
		return nil
	}
	vectors, err := db.VectorsFor(ctx, ee.ID, nil)
	if err != nil {
		return err
	}

	res, err := align.Merge(dims, vectors, align.MergeOptions{Logger: log, ExpectedSamples: cfg.ExpectedSamples})
	if err != nil {
		return err
	}
	report(res)

	if *dryRunFlag {
		return nil
	}

	// Skipped quantitation types are already on the merged dimension.
	keep := append([]*qtmatrix.DataVector(nil), res.Vectors...)
	skipped := make(map[int64]struct{}, len(res.Skipped))
	for _, qt := range res.Skipped {
		skipped[qt.ID] = struct{}{}
	}
	for _, v := range vectors {
		if _, ok := skipped[v.QuantitationType.ID]; ok {
			keep = append(keep, v)
		}
	}
	if err := db.ReplaceVectors(ctx, ee.ID, keep); err != nil {
		return err
	}

	ee.NumberOfSamples = res.Dimension.Len()
	if err := db.Update(ctx, ee); err != nil {
		return err
	}
	log.Info("mergevectors: done", "experiment", ee.ShortName, "dimension", res.Dimension.ID,
		"reused", res.Reused, "samples", res.Dimension.Len(), "vectors", len(keep))
	return nil
}

// report writes one line per quantitation type to stdout.
func report(res *align.MergeResult) {
	merged := make(map[int64]int)
	var order []*qtmatrix.QuantitationType
	for _, v := range res.Vectors {
		if _, ok := merged[v.QuantitationType.ID]; !ok {
			order = append(order, v.QuantitationType)
		}
		merged[v.QuantitationType.ID]++
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "quantitation_type\tmerged\tdropped\tstatus")
	for _, qt := range order {
		fmt.Fprintf(w, "%s\t%d\t%d\tmerged\n", qt.Name, merged[qt.ID], res.Dropped[qt.ID])
	}
	for _, qt := range res.Skipped {
		fmt.Fprintf(w, "%s\t0\t0\tskipped\n", qt.Name)
	}
	w.Flush()
}
