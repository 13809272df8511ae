package gaitstat

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
)

// GroupPattern carries across-subject mean and population std per phase
// point for one feature.
type GroupPattern struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// GroupPatternsResult is the output of GroupMeanPatterns. Subjects lists the
// entries that actually contributed; excluded subjects or features are
// reported via Warnings, never silently dropped.
type GroupPatternsResult struct {
	Task     string                  `json:"task"`
	Subjects []string                `json:"subjects"`
	Patterns map[string]GroupPattern `json:"patterns"`
	Warnings []string                `json:"warnings,omitempty"`
}

// GroupSummary is a between-group aggregate of per-entry summary means. CV
// is the coefficient of variation, 100*std/mean.
type GroupSummary struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	CV   float64 `json:"cv"`
}

// MarshalJSON emits non-finite statistics as null. A zero group mean makes CV
// undefined and an all-missing feature makes every field undefined; neither
// may poison an otherwise serializable report.
func (g GroupSummary) MarshalJSON() ([]byte, error) {
	type plain struct {
		N    int      `json:"n"`
		Mean *float64 `json:"mean"`
		Std  *float64 `json:"std"`
		Min  *float64 `json:"min"`
		Max  *float64 `json:"max"`
		CV   *float64 `json:"cv"`
	}
	return json.Marshal(plain{
		N:    g.N,
		Mean: finiteOrNull(g.Mean),
		Std:  finiteOrNull(g.Std),
		Min:  finiteOrNull(g.Min),
		Max:  finiteOrNull(g.Max),
		CV:   finiteOrNull(g.CV),
	})
}

// GroupStatisticsResult is the output of MultiSubjectStatistics and
// MultiTaskStatistics.
type GroupStatisticsResult struct {
	Stats    map[string]GroupSummary `json:"stats"`
	Warnings []string                `json:"warnings,omitempty"`
}

// GroupMeanPatterns stacks per-subject mean patterns for one task and
// reduces them across subjects per phase point. Only features present in
// every contributing subject's result are aggregated; any excluded subject
// or feature is recorded as a warning. A subject with no usable cycles is
// skipped, never substituted with zeros.
func (d *Dataset) GroupMeanPatterns(subjects []string, task string, features ...string) (GroupPatternsResult, error) {
	res := GroupPatternsResult{Task: task, Patterns: map[string]GroupPattern{}}

	perSubject := make(map[string]map[string][]float64)
	for _, subject := range subjects {
		patterns, err := d.MeanPatterns(subject, task, features...)
		if err != nil {
			if len(patterns) == 0 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("subject %s skipped: %v", subject, err))
				d.log.Warn("group aggregation skipped subject",
					zap.String("subject", subject), zap.String("task", task), zap.Error(err))
				continue
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("subject %s: %v", subject, err))
		}
		perSubject[subject] = patterns
		res.Subjects = append(res.Subjects, subject)
	}
	if len(res.Subjects) == 0 {
		return res, &NotFoundError{Kind: "subject", Task: task}
	}

	shared := intersectFeatures(perSubject, res.Subjects)
	for _, name := range excludedFeatures(perSubject, res.Subjects, shared) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("feature %s excluded: not present for every subject", name))
	}

	points := d.cfg.PointsPerCycle
	for name := range shared {
		mean := make([]float64, points)
		std := make([]float64, points)
		column := make([]float64, 0, len(res.Subjects))
		for p := 0; p < points; p++ {
			column = column[:0]
			for _, subject := range res.Subjects {
				column = append(column, perSubject[subject][name][p])
			}
			mean[p] = nanMean(column)
			std[p] = nanPopStd(column)
		}
		res.Patterns[name] = GroupPattern{Mean: mean, Std: std}
	}
	return res, nil
}

// MultiSubjectStatistics aggregates per-subject summary means for one task
// into between-subject mean, std, min, max, and CV per feature. Missing
// subjects are skipped with a warning.
func (d *Dataset) MultiSubjectStatistics(subjects []string, task string, features ...string) (GroupStatisticsResult, error) {
	summaries := make([]map[string]Summary, 0, len(subjects))
	res := GroupStatisticsResult{Stats: map[string]GroupSummary{}}
	for _, subject := range subjects {
		summary, err := d.SummaryStatistics(subject, task, features...)
		if err != nil {
			if len(summary) == 0 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("subject %s skipped: %v", subject, err))
				d.log.Warn("multi-subject statistics skipped subject",
					zap.String("subject", subject), zap.String("task", task), zap.Error(err))
				continue
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("subject %s: %v", subject, err))
		}
		summaries = append(summaries, summary)
	}
	if len(summaries) == 0 {
		return res, &NotFoundError{Kind: "subject", Task: task}
	}
	res.Stats = groupSummaries(summaries)
	return res, nil
}

// MultiTaskStatistics aggregates per-task summary means for one subject.
// Missing tasks are skipped with a warning.
func (d *Dataset) MultiTaskStatistics(subject string, tasks []string, features ...string) (GroupStatisticsResult, error) {
	summaries := make([]map[string]Summary, 0, len(tasks))
	res := GroupStatisticsResult{Stats: map[string]GroupSummary{}}
	for _, task := range tasks {
		summary, err := d.SummaryStatistics(subject, task, features...)
		if err != nil {
			if len(summary) == 0 {
				res.Warnings = append(res.Warnings, fmt.Sprintf("task %s skipped: %v", task, err))
				d.log.Warn("multi-task statistics skipped task",
					zap.String("subject", subject), zap.String("task", task), zap.Error(err))
				continue
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("task %s: %v", task, err))
		}
		summaries = append(summaries, summary)
	}
	if len(summaries) == 0 {
		return res, &NotFoundError{Kind: "task", Subject: subject}
	}
	res.Stats = groupSummaries(summaries)
	return res, nil
}

// groupSummaries reduces the per-entry feature means into between-group
// statistics, keeping only features shared by every entry.
func groupSummaries(entries []map[string]Summary) map[string]GroupSummary {
	out := make(map[string]GroupSummary)
	if len(entries) == 0 {
		return out
	}

	for name := range entries[0] {
		means := make([]float64, 0, len(entries))
		shared := true
		for _, entry := range entries {
			s, ok := entry[name]
			if !ok {
				shared = false
				break
			}
			means = append(means, s.Mean)
		}
		if !shared {
			continue
		}

		finite := finiteValues(means)
		g := GroupSummary{N: len(finite)}
		if len(finite) == 0 {
			g.Mean, g.Std, g.Min, g.Max, g.CV = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
			out[name] = g
			continue
		}
		g.Mean = nanMean(finite)
		g.Std = popStd(finite, g.Mean)
		g.Min, g.Max = finite[0], finite[0]
		for _, v := range finite[1:] {
			if v < g.Min {
				g.Min = v
			}
			if v > g.Max {
				g.Max = v
			}
		}
		if g.Mean != 0 {
			g.CV = 100 * g.Std / math.Abs(g.Mean)
		} else {
			g.CV = math.NaN()
		}
		out[name] = g
	}
	return out
}

// excludedFeatures lists, once per name and in sorted order, the features
// that fell out of the intersection.
func excludedFeatures(perSubject map[string]map[string][]float64, subjects []string, shared map[string]struct{}) []string {
	seen := make(map[string]struct{})
	for _, subject := range subjects {
		for name := range perSubject[subject] {
			if _, ok := shared[name]; ok {
				continue
			}
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func intersectFeatures(perSubject map[string]map[string][]float64, subjects []string) map[string]struct{} {
	shared := make(map[string]struct{})
	if len(subjects) == 0 {
		return shared
	}
	for name := range perSubject[subjects[0]] {
		shared[name] = struct{}{}
	}
	for _, subject := range subjects[1:] {
		for name := range shared {
			if _, ok := perSubject[subject][name]; !ok {
				delete(shared, name)
			}
		}
	}
	return shared
}
