// missingvalues computes present/absent calls for an experiment and stores
// them as a new quantitation type. The experiment can first be imported from
// a manifest and long-format data file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	flag "github.com/spf13/pflag"

	"github.com/carbocation/qtmatrix/compileinfo"
	"github.com/carbocation/qtmatrix/config"
	"github.com/carbocation/qtmatrix/logger"
	"github.com/carbocation/qtmatrix/missingvalue"
	"github.com/carbocation/qtmatrix/store"
	"github.com/carbocation/qtmatrix/vectorsource"
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

	// Import
	shortNameFlag := flag.String("short-name", "", "short name of an imported experiment")
	manifestFlag := flag.String("manifest", "", "quantitation type manifest to import (local or gs://)")
	dataFlag := flag.String("data", "", "long-format data to import; a path ending in / reads every file under it")
	idOffsetFlag := flag.Int64("id-offset", 0, "added to every ID assigned while importing")

	snrFlag := flag.Float64("signal-to-noise", 0, "signal to noise threshold (overrides the config file)")
	flag.Parse()

	log := logger.New(*verboseFlag)
	log.Info("missingvalues: starting", "build", compileinfo.Get())

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
	if *snrFlag != 0 {
		cfg.SignalToNoise = *snrFlag
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := store.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if *manifestFlag != "" || *dataFlag != "" {
		if err := load(ctx, log, db, vectorsource.Config{
			Logger:       log,
			ExperimentID: *experimentFlag,
			ShortName:    *shortNameFlag,
			IDOffset:     *idOffsetFlag,
			Manifest:     *manifestFlag,
			Data:         *dataFlag,
		}); err != nil {
			return err
		}
	}

	svc, err := missingvalue.NewService(missingvalue.ServiceConfig{
		Logger:      log,
		Vectors:     db,
		Registry:    db,
		Experiments: db,
		Policy:      policy,
	})
	if err != nil {
		return err
	}

	calls, err := svc.Run(ctx, *experimentFlag, missingvalue.Options{
		Logger:            log,
		SignalToNoise:     cfg.SignalToNoise,
		MissingIndicators: cfg.MissingValueIndicators,
	})
	if err != nil {
		return err
	}
	if calls == nil {
		log.Info("missingvalues: nothing to do", "experiment", *experimentFlag)
		return nil
	}
	log.Info("missingvalues: stored calls", "experiment", *experimentFlag, "vectors", len(calls))
	return nil
}

// load imports an experiment from files into the database.
func load(ctx context.Context, log *slog.Logger, db *store.Store, cfg vectorsource.Config) error {
	if cfg.Manifest == "" || cfg.Data == "" {
		return fmt.Errorf("--manifest and --data must be given together")
	}
	if cfg.ShortName == "" {
		cfg.ShortName = fmt.Sprintf("experiment %d", cfg.ExperimentID)
	}

	if strings.HasPrefix(cfg.Manifest, "gs://") || strings.HasPrefix(cfg.Data, "gs://") {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		cfg.Storage = client
	}

	src, err := vectorsource.Load(ctx, cfg)
	if err != nil {
		return err
	}
	ee := src.Experiment()
	if err := db.PutExperiment(ctx, ee); err != nil {
		return err
	}
	if err := db.AttachVectors(ctx, ee.ID, src.Vectors()); err != nil {
		return err
	}
	log.Info("missingvalues: imported", "experiment", ee.ShortName, "vectors", len(src.Vectors()))
	return nil
}
