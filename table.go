package gaitstat

import (
	"fmt"
	"sort"
)

// Table is a columnar, phase-indexed recording table. Each row is one sample
// at one phase point of one cycle for one subject and task. Tables are fixed
// at construction and treated as read-only by every downstream component.
type Table struct {
	subjects []string
	tasks    []string
	phases   []float64
	columns  map[string][]float64
	order    []string
	n        int
}

// NewTable builds a table from parallel column slices. order fixes the
// reported feature-column ordering; columns absent from order are appended
// alphabetically.
func NewTable(subjects, tasks []string, phases []float64, columns map[string][]float64, order []string) (*Table, error) {
	n := len(subjects)
	if len(tasks) != n || len(phases) != n {
		return nil, fmt.Errorf("table columns disagree on length: subject=%d task=%d phase=%d", n, len(tasks), len(phases))
	}
	for name, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("table column %q has %d rows, want %d", name, len(col), n)
		}
	}

	seen := make(map[string]struct{}, len(order))
	fixed := make([]string, 0, len(columns))
	for _, name := range order {
		if _, ok := columns[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		fixed = append(fixed, name)
	}
	rest := make([]string, 0, len(columns))
	for name := range columns {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	fixed = append(fixed, rest...)

	return &Table{
		subjects: subjects,
		tasks:    tasks,
		phases:   phases,
		columns:  columns,
		order:    fixed,
		n:        n,
	}, nil
}

// Len returns the row count.
func (t *Table) Len() int { return t.n }

// ColumnNames returns the feature-column names in table order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Column returns the raw values of one feature column. The slice aliases the
// table's storage and must not be mutated.
func (t *Table) Column(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// sortBySubjectTask stably reorders rows so that each (subject, task) subset
// is contiguous. Stability preserves the per-subset row order, which is the
// phase ordering the reshape step depends on.
func (t *Table) sortBySubjectTask() {
	perm := make([]int, t.n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		i, j := perm[a], perm[b]
		if t.subjects[i] != t.subjects[j] {
			return t.subjects[i] < t.subjects[j]
		}
		return t.tasks[i] < t.tasks[j]
	})

	t.subjects = applyPermStrings(t.subjects, perm)
	t.tasks = applyPermStrings(t.tasks, perm)
	t.phases = applyPermFloats(t.phases, perm)
	for name, col := range t.columns {
		t.columns[name] = applyPermFloats(col, perm)
	}
}

// selectRows builds a new independent table containing only the rows where
// keep is true, preserving row order.
func (t *Table) selectRows(keep []bool) *Table {
	count := 0
	for _, k := range keep {
		if k {
			count++
		}
	}

	subjects := make([]string, 0, count)
	tasks := make([]string, 0, count)
	phases := make([]float64, 0, count)
	columns := make(map[string][]float64, len(t.columns))
	for name := range t.columns {
		columns[name] = make([]float64, 0, count)
	}
	for i := 0; i < t.n; i++ {
		if !keep[i] {
			continue
		}
		subjects = append(subjects, t.subjects[i])
		tasks = append(tasks, t.tasks[i])
		phases = append(phases, t.phases[i])
		for name, col := range t.columns {
			columns[name] = append(columns[name], col[i])
		}
	}

	order := make([]string, len(t.order))
	copy(order, t.order)
	return &Table{
		subjects: subjects,
		tasks:    tasks,
		phases:   phases,
		columns:  columns,
		order:    order,
		n:        count,
	}
}

func applyPermStrings(src []string, perm []int) []string {
	out := make([]string, len(src))
	for i, p := range perm {
		out[i] = src[p]
	}
	return out
}

func applyPermFloats(src []float64, perm []int) []float64 {
	out := make([]float64, len(src))
	for i, p := range perm {
		out[i] = src[p]
	}
	return out
}
