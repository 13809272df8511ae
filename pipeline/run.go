package pipeline

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/movelab/gaitstat"
)

// Run executes the full batch analysis pipeline: load the recording table,
// validate and screen every subject/task session, aggregate across subjects
// per task, and write all artifacts into the output directory.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.DataPath) == "" {
		return nil, fmt.Errorf("data path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	thresholds := gaitstat.DefaultThresholds()
	if opts.ThresholdsPath != "" {
		var err error
		thresholds, err = gaitstat.LoadThresholds(opts.ThresholdsPath)
		if err != nil {
			return nil, err
		}
	}

	ds, err := gaitstat.Open(opts.DataPath, gaitstat.Config{
		PointsPerCycle: opts.PointsPerCycle,
		Thresholds:     thresholds,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	manifest, err := buildManifest(opts.DataPath, ds)
	if err != nil {
		return nil, err
	}
	manifestPath := filepath.Join(opts.OutDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}

	outlierThreshold := opts.OutlierThreshold
	if outlierThreshold == 0 {
		outlierThreshold = gaitstat.DefaultOutlierThreshold
	}

	sessions := collectSessions(ds, outlierThreshold, log)
	validationPath := filepath.Join(opts.OutDir, "validation_report.json")
	report := ValidationReportFile{
		Compliance: ds.ValidationReport(),
		Sessions:   sessions,
	}
	if err := writeJSON(validationPath, report); err != nil {
		return nil, fmt.Errorf("write validation_report.json: %w", err)
	}

	groupPath := filepath.Join(opts.OutDir, "group_summary.json")
	if err := writeJSON(groupPath, buildGroupSummary(ds)); err != nil {
		return nil, fmt.Errorf("write group_summary.json: %w", err)
	}

	records := collectMeanPatterns(ds, log)
	meanPath := filepath.Join(opts.OutDir, "mean_patterns."+format)
	switch format {
	case "csv":
		err = writeMeanPatternsCSV(meanPath, records)
	case "parquet":
		err = writeMeanPatternsParquet(meanPath, records)
	}
	if err != nil {
		return nil, fmt.Errorf("write mean patterns: %w", err)
	}

	return &Result{
		OutputDir:            opts.OutDir,
		ManifestPath:         manifestPath,
		ValidationReportPath: validationPath,
		GroupSummaryPath:     groupPath,
		MeanPatternsPath:     meanPath,
		SessionCount:         len(sessions),
	}, nil
}

func buildManifest(dataPath string, ds *gaitstat.Dataset) (Manifest, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		return Manifest{}, fmt.Errorf("open source for manifest: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return Manifest{}, fmt.Errorf("hash source: %w", err)
	}

	return Manifest{
		FormatVersion:   ManifestFormatVersion,
		GeneratedAt:     time.Now().UTC(),
		DatasetID:       ds.ID().String(),
		SourceFile:      filepath.Base(dataPath),
		SourceSHA256:    hex.EncodeToString(h.Sum(nil)),
		SourceSizeBytes: size,
		PointsPerCycle:  ds.PointsPerCycle(),
		Subjects:        ds.Subjects(),
		Tasks:           ds.Tasks(),
		Features:        ds.Features(),
	}, nil
}

// collectSessions validates and screens every subject/task combination.
// Sessions a subject never recorded, or whose rows do not divide into whole
// cycles, are reported as skipped rather than aborting the run.
func collectSessions(ds *gaitstat.Dataset, outlierThreshold float64, log *zap.Logger) []SessionReport {
	sessions := make([]SessionReport, 0, len(ds.Subjects())*len(ds.Tasks()))
	for _, subject := range ds.Subjects() {
		for _, task := range ds.Tasks() {
			session := SessionReport{Subject: subject, Task: task}

			verdicts, err := ds.ValidateCycles(subject, task)
			if err != nil {
				var nf *gaitstat.NotFoundError
				if errors.As(err, &nf) {
					continue
				}
				session.Skipped = err.Error()
				log.Warn("session skipped", zap.String("subject", subject), zap.String("task", task), zap.Error(err))
				sessions = append(sessions, session)
				continue
			}

			session.Cycles = len(verdicts)
			session.ValidRatio = gaitstat.ValidCycleRatio(verdicts)
			for _, v := range verdicts {
				if !v.Valid {
					session.InvalidCycles = append(session.InvalidCycles, v.Cycle)
				}
			}
			if outliers, err := ds.FindOutlierCycles(subject, task, outlierThreshold); err == nil {
				session.OutlierCycles = outliers
			}
			sessions = append(sessions, session)
		}
	}
	return sessions
}

func buildGroupSummary(ds *gaitstat.Dataset) GroupSummaryFile {
	out := GroupSummaryFile{}
	subjects := ds.Subjects()
	for _, task := range ds.Tasks() {
		group, err := ds.MultiSubjectStatistics(subjects, task)
		if err != nil {
			continue
		}
		out.Tasks = append(out.Tasks, TaskGroupSummary{
			Task:     task,
			Subjects: len(subjects) - skippedCount(group.Warnings),
			Stats:    group.Stats,
			Warnings: group.Warnings,
		})
	}
	return out
}

func skippedCount(warnings []string) int {
	count := 0
	for _, w := range warnings {
		if strings.Contains(w, "skipped") {
			count++
		}
	}
	return count
}

func collectMeanPatterns(ds *gaitstat.Dataset, log *zap.Logger) []meanPatternRecord {
	records := make([]meanPatternRecord, 0, 4096)
	for _, subject := range ds.Subjects() {
		for _, task := range ds.Tasks() {
			means, err := ds.MeanPatterns(subject, task)
			if err != nil {
				continue
			}
			stds, err := ds.StdPatterns(subject, task)
			if err != nil {
				continue
			}
			for feature, mean := range means {
				std := stds[feature]
				for p := range mean {
					records = append(records, meanPatternRecord{
						Subject:    subject,
						Task:       task,
						Feature:    feature,
						PhaseIndex: p,
						Mean:       mean[p],
						Std:        std[p],
					})
				}
			}
		}
	}
	log.Info("mean patterns collected", zap.Int("rows", len(records)))
	return records
}

func writeMeanPatternsCSV(path string, records []meanPatternRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"subject", "task", "feature", "phase_index", "mean", "std"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Subject,
			r.Task,
			r.Feature,
			strconv.Itoa(r.PhaseIndex),
			formatFloat(r.Mean),
			formatFloat(r.Std),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
