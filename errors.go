package gaitstat

import (
	"fmt"
	"strings"
)

// SchemaError reports a table that cannot be opened as a gait dataset:
// required columns are missing or the header is unusable. It is fatal at
// construction time.
type SchemaError struct {
	MissingColumns []string
	Reason         string
}

func (e *SchemaError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("schema: missing required columns: %s", strings.Join(e.MissingColumns, ", "))
	}
	return fmt.Sprintf("schema: %s", e.Reason)
}

// ShapeMismatchError reports a (subject, task) subset whose row count is not
// an exact multiple of the points-per-cycle setting. The operation that
// produced it still returns an empty block; callers may keep iterating.
type ShapeMismatchError struct {
	Subject        string
	Task           string
	Rows           int
	PointsPerCycle int
}

// Remainder is the number of rows left over after filling whole cycles.
func (e *ShapeMismatchError) Remainder() int {
	if e.PointsPerCycle <= 0 {
		return e.Rows
	}
	return e.Rows % e.PointsPerCycle
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf(
		"shape mismatch for %s/%s: %d rows is not a multiple of %d points per cycle (remainder %d)",
		e.Subject, e.Task, e.Rows, e.PointsPerCycle, e.Remainder(),
	)
}

// NotFoundError reports a requested subject, task, or feature that does not
// exist in the dataset. Non-fatal: batch loops over many subjects or tasks
// are expected to tolerate individual misses.
type NotFoundError struct {
	Kind    string // "subject", "task", or "feature"
	Subject string
	Task    string
	Feature string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case "subject":
		return fmt.Sprintf("subject %q not found", e.Subject)
	case "task":
		return fmt.Sprintf("task %q not found for subject %q", e.Task, e.Subject)
	case "feature":
		return fmt.Sprintf("feature %q not found (subject %q, task %q)", e.Feature, e.Subject, e.Task)
	default:
		return fmt.Sprintf("%s not found", e.Kind)
	}
}
