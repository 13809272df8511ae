package gaitstat

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// BuildSessionNotes turns one subject/task recording into a human-readable
// summary: cycle counts, validity, outliers, and per-feature statistics.
func BuildSessionNotes(d *Dataset, subject, task string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s / %s\n", subject, task)

	block, err := d.GetCycles(subject, task)
	if err != nil {
		var shape *ShapeMismatchError
		if errors.As(err, &shape) {
			fmt.Fprintf(
				&b,
				"Cycles unavailable: %d rows do not divide into %d-point cycles (remainder %d)\n",
				shape.Rows, shape.PointsPerCycle, shape.Remainder(),
			)
			return b.String()
		}
		fmt.Fprintf(&b, "Cycles unavailable: %v\n", err)
		return b.String()
	}

	fmt.Fprintf(&b, "Cycles: %d x %d points | Features: %d\n", block.Cycles(), block.Points, len(block.Features))

	verdicts, err := d.ValidateCycles(subject, task)
	if err == nil && len(verdicts) > 0 {
		ratio := ValidCycleRatio(verdicts)
		fmt.Fprintf(&b, "Valid cycles: %.0f%%", ratio*100)
		ruleCounts := make(map[string]int)
		for _, v := range verdicts {
			for _, rule := range v.Violations {
				ruleCounts[rule]++
			}
		}
		if len(ruleCounts) > 0 {
			rules := make([]string, 0, len(ruleCounts))
			for rule, count := range ruleCounts {
				rules = append(rules, fmt.Sprintf("%s x%d", rule, count))
			}
			sort.Strings(rules)
			fmt.Fprintf(&b, " | Violations: %s", strings.Join(rules, ", "))
		}
		b.WriteString("\n")
	}

	if outliers, err := d.FindOutlierCycles(subject, task, DefaultOutlierThreshold); err == nil {
		if len(outliers) > 0 {
			fmt.Fprintf(&b, "Outlier cycles (RMSE > mean+2std): %v\n", outliers)
		} else {
			b.WriteString("Outlier cycles: none\n")
		}
	}

	summaries, err := d.SummaryStatistics(subject, task)
	roms, romErr := d.CalculateROM(subject, task, false)
	if err == nil && len(summaries) > 0 {
		b.WriteString("\nFeature summary\n")
		names := make([]string, 0, len(summaries))
		for name := range summaries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := summaries[name]
			fmt.Fprintf(&b, "  %-42s mean %8.3f | std %7.3f | min %8.3f | max %8.3f", name, s.Mean, s.Std, s.Min, s.Max)
			if romErr == nil {
				if rom, ok := roms[name]; ok && len(rom) == 1 {
					fmt.Fprintf(&b, " | ROM %7.3f", rom[0])
				}
			}
			b.WriteString("\n")
		}
	}

	report := d.ValidationReport()
	if len(report.NonStandard) > 0 {
		fmt.Fprintf(&b, "\nNon-standard feature columns: %s\n", strings.Join(report.NonStandard, ", "))
	}
	return b.String()
}
