package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/movelab/gaitstat"
)

func main() {
	var (
		dataPath = flag.String("data", "", "Path to input recording table (.csv or .parquet)")
		subject  = flag.String("subject", "", "Subject id")
		task     = flag.String("task", "", "Task id")
		points   = flag.Int("points", 0, "Points per cycle override (default 150)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --data recording.csv --subject S01 --task level_walking\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*dataPath) == "" || strings.TrimSpace(*subject) == "" || strings.TrimSpace(*task) == "" {
		flag.Usage()
		os.Exit(2)
	}

	ds, err := gaitstat.Open(*dataPath, gaitstat.Config{PointsPerCycle: *points})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gaitnotes failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(gaitstat.BuildSessionNotes(ds, *subject, *task))
}
