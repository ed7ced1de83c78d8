// sampleoutliers correlates the samples of an experiment on its preferred
// data and reports those that correlate poorly with the rest. The report is
// tab-separated on stdout; the distribution of median correlations is drawn
// on stderr.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aybabtme/uniplot/histogram"
	flag "github.com/spf13/pflag"

	"github.com/carbocation/qtmatrix/builder"
	_ "github.com/carbocation/qtmatrix/compileinfoprint"
	"github.com/carbocation/qtmatrix/config"
	"github.com/carbocation/qtmatrix/logger"
	"github.com/carbocation/qtmatrix/outlier"
	"github.com/carbocation/qtmatrix/store"
)

var methods = map[string]func(*outlier.CorrelationMatrix, outlier.Options) ([]outlier.Record, error){
	"median":   outlier.IdentifyByMedianCorrelation,
	"quantile": outlier.IdentifyByQuantile,
	"combined": outlier.IdentifyCombined,
}

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
	methodFlag := flag.String("method", "combined", "outlier method: median, quantile or combined")
	quantileFlag := flag.Float64("quantile", 0, "percentile of all correlations used by the quantile method (overrides the config file)")
	fractionFlag := flag.Float64("fraction", 0, "fraction of a sample's correlations that must fall below the percentile (overrides the config file)")
	markFlag := flag.Bool("mark", false, "flag the outliers in the database")
	binsFlag := flag.Int("bins", 20, "histogram bins")
	flag.Parse()

	log := logger.New(*verboseFlag)

	identify, ok := methods[*methodFlag]
	if *experimentFlag <= 0 || !ok {
		flag.Usage()
		return fmt.Errorf("--experiment and a valid --method are required")
	}

	cfg, err := config.ParseFromPath(*configFlag)
	if err != nil {
		return err
	}
	if *dbFlag != "" {
		cfg.Database = *dbFlag
	}
	if *quantileFlag != 0 {
		cfg.OutlierQuantile = *quantileFlag
	}
	if *fractionFlag != 0 {
		cfg.OutlierFraction = *fractionFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
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

	ee, err := db.Experiment(ctx, *experimentFlag)
	if err != nil {
		return err
	}
	preferred := builder.PreferredQuantitationTypes(ee.QuantitationTypes)
	if len(preferred) == 0 {
		return fmt.Errorf("experiment %s has no preferred quantitation type", ee.ShortName)
	}
	vectors, err := db.VectorsFor(ctx, ee.ID, preferred)
	if err != nil {
		return err
	}
	b, err := builder.New(builder.Config{Logger: log, Policy: policy}, vectors)
	if err != nil {
		return err
	}
	data, err := b.PreferredData()
	if err != nil {
		return err
	}

	corr := outlier.Correlations(data)
	summary, quartiles, err := outlier.Summarize(corr)
	if err != nil {
		return err
	}
	log.Info("sampleoutliers: median correlations", "samples", summary.Samples, "mean", summary.Mean,
		"sd", summary.StdDev, "median", summary.Median, "min", summary.Min, "max", summary.Max)

	outliers, err := identify(corr, outlier.Options{
		Logger:   log,
		Quantile: cfg.OutlierQuantile,
		Fraction: cfg.OutlierFraction,
	})
	if err != nil {
		return err
	}

	flagged := make(map[int64]outlier.Record, len(outliers))
	for _, r := range outliers {
		flagged[r.BioAssay.ID] = r
	}

	fmt.Println("sample\tfirst_quartile\tmedian\tthird_quartile\toutlier\tscore\tthreshold")
	medians := make([]float64, 0, len(quartiles))
	for _, q := range quartiles {
		medians = append(medians, q.Median)
		r, isOutlier := flagged[q.BioAssay.ID]
		fmt.Printf("%s\t%g\t%g\t%g\t%t\t%g\t%g\n", q.BioAssay.Name, q.FirstQuartile, q.Median, q.ThirdQuartile,
			isOutlier, r.Score, r.Threshold)
	}

	if len(medians) > 0 {
		hist := histogram.Hist(*binsFlag, medians)
		if err := histogram.Fprint(os.Stderr, hist, histogram.Linear(40)); err != nil {
			return err
		}
	}

	log.Info("sampleoutliers: found outliers", "experiment", ee.ShortName, "method", *methodFlag, "outliers", len(outliers))
	if !*markFlag || len(outliers) == 0 {
		return nil
	}
	for _, ba := range ee.BioAssays {
		if _, ok := flagged[ba.ID]; ok {
			ba.IsOutlier = true
		}
	}
	return db.Update(ctx, ee)
}
