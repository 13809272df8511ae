package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/movelab/gaitstat"
)

// ManifestFormatVersion identifies the on-disk schema for analysis bundles.
const ManifestFormatVersion = "gait_analysis_v1"

// Options controls a batch analysis run.
type Options struct {
	// DataPath is the input recording table (.csv or .parquet).
	DataPath string

	// OutDir receives all artifacts.
	OutDir string

	// Format selects the mean-pattern table format: "parquet" (default)
	// or "csv".
	Format string

	// PointsPerCycle overrides the default cycle length of 150.
	PointsPerCycle int

	// ThresholdsPath optionally points to a YAML validation thresholds
	// file.
	ThresholdsPath string

	// OutlierThreshold sets the outlier cutoff in standard deviations;
	// zero keeps the default of 2.0.
	OutlierThreshold float64

	Logger *zap.Logger
}

// Result lists the generated artifact paths.
type Result struct {
	OutputDir            string `json:"output_dir"`
	ManifestPath         string `json:"manifest_path"`
	ValidationReportPath string `json:"validation_report_path"`
	GroupSummaryPath     string `json:"group_summary_path"`
	MeanPatternsPath     string `json:"mean_patterns_path"`
	SessionCount         int    `json:"session_count"`
}

// Manifest captures run metadata and provenance for the analysis bundle.
type Manifest struct {
	FormatVersion   string    `json:"format_version"`
	GeneratedAt     time.Time `json:"generated_at"`
	DatasetID       string    `json:"dataset_id"`
	SourceFile      string    `json:"source_file"`
	SourceSHA256    string    `json:"source_sha256"`
	SourceSizeBytes int64     `json:"source_size_bytes"`
	PointsPerCycle  int       `json:"points_per_cycle"`
	Subjects        []string  `json:"subjects"`
	Tasks           []string  `json:"tasks"`
	Features        []string  `json:"features"`
}

// SessionReport is the per-(subject, task) validation and outlier outcome.
type SessionReport struct {
	Subject       string  `json:"subject"`
	Task          string  `json:"task"`
	Cycles        int     `json:"cycles"`
	ValidRatio    float64 `json:"valid_ratio"`
	InvalidCycles []int   `json:"invalid_cycles,omitempty"`
	OutlierCycles []int   `json:"outlier_cycles,omitempty"`
	Skipped       string  `json:"skipped,omitempty"`
}

// ValidationReportFile combines the construction-time compliance report with
// per-session verdicts.
type ValidationReportFile struct {
	Compliance gaitstat.ComplianceReport `json:"compliance"`
	Sessions   []SessionReport           `json:"sessions"`
}

// TaskGroupSummary holds between-subject statistics for one task.
type TaskGroupSummary struct {
	Task     string                           `json:"task"`
	Subjects int                              `json:"subjects"`
	Stats    map[string]gaitstat.GroupSummary `json:"stats"`
	Warnings []string                         `json:"warnings,omitempty"`
}

// GroupSummaryFile is the cross-subject aggregation artifact.
type GroupSummaryFile struct {
	Tasks []TaskGroupSummary `json:"tasks"`
}

// meanPatternRecord is one output row of the mean-patterns table: one
// (subject, task, feature, phase point) cell of the stacked mean and std
// patterns.
type meanPatternRecord struct {
	Subject    string
	Task       string
	Feature    string
	PhaseIndex int
	Mean       float64
	Std        float64
}
