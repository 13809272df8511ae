package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/movelab/gaitstat/pipeline"
)

func main() {
	var (
		dataPath   = flag.String("data", "", "Path to input recording table (.csv or .parquet)")
		outDir     = flag.String("out", "", "Output directory")
		format     = flag.String("format", "parquet", "Mean-pattern table format: parquet|csv")
		points     = flag.Int("points", 0, "Points per cycle override (default 150)")
		thresholds = flag.String("thresholds", "", "Optional YAML validation thresholds file")
		outlierStd = flag.Float64("outlier-threshold", 0, "Outlier cutoff in standard deviations (default 2.0)")
		verbose    = flag.Bool("v", false, "Enable structured logging to stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --data recording.parquet --out outdir [--format parquet|csv] [--points 150] [--thresholds limits.yaml]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*dataPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
			defer logger.Sync()
		}
	}

	result, err := pipeline.Run(pipeline.Options{
		DataPath:         *dataPath,
		OutDir:           *outDir,
		Format:           *format,
		PointsPerCycle:   *points,
		ThresholdsPath:   *thresholds,
		OutlierThreshold: *outlierStd,
		Logger:           logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gaitstat failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("gaitstat complete\n")
	fmt.Printf("Output dir:             %s\n", result.OutputDir)
	fmt.Printf("manifest.json:          %s\n", result.ManifestPath)
	fmt.Printf("validation_report.json: %s\n", result.ValidationReportPath)
	fmt.Printf("group_summary.json:     %s\n", result.GroupSummaryPath)
	fmt.Printf("mean patterns:          %s\n", result.MeanPatternsPath)
	fmt.Printf("sessions analyzed:      %d\n", result.SessionCount)
}
