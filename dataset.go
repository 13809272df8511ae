package gaitstat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dataset is one subject population's phase-indexed recording table plus the
// lazily built cycle cache. The table is read-only after construction; the
// cache is the only mutable state, so a Dataset is safe to use from one
// goroutine without locking, and instances never share state. Sharing a
// single Dataset across goroutines requires external locking.
type Dataset struct {
	id     uuid.UUID
	cfg    Config
	table  *Table
	schema *Schema
	cache  map[string]*CycleBlock
	log    *zap.Logger

	subjectRows map[string][]int
	taskSets    map[string]map[string]struct{}
}

// NewDataset wraps an already loaded table. The table is stably sorted by
// (subject, task) once so later filtering cannot break the per-subset phase
// ordering; within a subset the input row order is preserved untouched.
func NewDataset(table *Table, cfg Config) (*Dataset, error) {
	cfg = cfg.withDefaults()
	if table == nil || table.Len() == 0 {
		return nil, &SchemaError{Reason: "empty recording table"}
	}
	if len(table.ColumnNames()) == 0 {
		return nil, &SchemaError{Reason: "no feature columns"}
	}

	table.sortBySubjectTask()
	d := &Dataset{
		id:     uuid.New(),
		cfg:    cfg,
		table:  table,
		schema: resolveSchema(table.ColumnNames()),
		cache:  make(map[string]*CycleBlock),
	}
	d.log = cfg.Logger.With(zap.String("dataset_id", d.id.String()))
	d.index()

	report := d.schema.Report()
	if len(report.NonStandard) > 0 {
		d.log.Warn("non-standard feature columns",
			zap.Int("count", len(report.NonStandard)),
			zap.Strings("columns", report.NonStandard))
	}
	return d, nil
}

func (d *Dataset) index() {
	d.subjectRows = make(map[string][]int)
	d.taskSets = make(map[string]map[string]struct{})
	for i := 0; i < d.table.n; i++ {
		subj := d.table.subjects[i]
		task := d.table.tasks[i]
		d.subjectRows[subj] = append(d.subjectRows[subj], i)
		set, ok := d.taskSets[subj]
		if !ok {
			set = make(map[string]struct{})
			d.taskSets[subj] = set
		}
		set[task] = struct{}{}
	}
}

// ID returns the instance identifier used in logs and manifests.
func (d *Dataset) ID() uuid.UUID { return d.id }

// PointsPerCycle returns the configured cycle length P.
func (d *Dataset) PointsPerCycle() int { return d.cfg.PointsPerCycle }

// Subjects returns the sorted distinct subject ids.
func (d *Dataset) Subjects() []string {
	out := make([]string, 0, len(d.subjectRows))
	for s := range d.subjectRows {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Tasks returns the sorted distinct task ids across all subjects.
func (d *Dataset) Tasks() []string {
	seen := make(map[string]struct{})
	for _, set := range d.taskSets {
		for t := range set {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Features returns every resolved canonical feature name.
func (d *Dataset) Features() []string { return d.schema.FeatureNames() }

// ValidationReport returns the construction-time naming compliance report.
func (d *Dataset) ValidationReport() ComplianceReport { return d.schema.Report() }

// ClearCache drops every cached cycle block. Required after the underlying
// table has been mutated out-of-band; otherwise never needed.
func (d *Dataset) ClearCache() {
	d.cache = make(map[string]*CycleBlock)
}

// FilterSubjects returns a new independent view narrowed to the listed
// subjects, with a fresh empty cache. The receiver is unchanged.
func (d *Dataset) FilterSubjects(subjects []string) *Dataset {
	keepSet := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		keepSet[s] = struct{}{}
	}
	keep := make([]bool, d.table.n)
	for i := 0; i < d.table.n; i++ {
		_, ok := keepSet[d.table.subjects[i]]
		keep[i] = ok
	}
	return d.filtered(keep)
}

// FilterTasks returns a new independent view narrowed to the listed tasks,
// with a fresh empty cache.
func (d *Dataset) FilterTasks(tasks []string) *Dataset {
	keepSet := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		keepSet[t] = struct{}{}
	}
	keep := make([]bool, d.table.n)
	for i := 0; i < d.table.n; i++ {
		_, ok := keepSet[d.table.tasks[i]]
		keep[i] = ok
	}
	return d.filtered(keep)
}

func (d *Dataset) filtered(keep []bool) *Dataset {
	nd := &Dataset{
		id:     uuid.New(),
		cfg:    d.cfg,
		table:  d.table.selectRows(keep),
		schema: d.schema,
		cache:  make(map[string]*CycleBlock),
	}
	nd.log = d.cfg.Logger.With(zap.String("dataset_id", nd.id.String()))
	nd.index()
	return nd
}

// GetCycles reshapes the (subject, task) subset into a cycles x P x features
// block. An empty features list selects every resolved feature. Results are
// memoized per (subject, task, feature set); an identical repeated request
// returns the cached block without recomputation, while any different
// feature subset is a fresh computation. The cache grows without bound; for
// the expected dataset sizes this is an accepted constraint.
//
// When some requested features resolve and others do not, GetCycles returns
// the block for the resolvable subset together with a *NotFoundError naming
// the rest; callers decide whether the partial block is usable.
//
// On a row count that is not an exact multiple of P, GetCycles returns an
// empty block together with a *ShapeMismatchError; it never truncates or
// guesses cycle boundaries.
func (d *Dataset) GetCycles(subject, task string, features ...string) (*CycleBlock, error) {
	rows, ok := d.subjectRows[subject]
	if !ok {
		d.log.Warn("subject not found", zap.String("subject", subject))
		return emptyBlock(subject, task, nil, d.cfg.PointsPerCycle), &NotFoundError{Kind: "subject", Subject: subject}
	}
	if _, ok := d.taskSets[subject][task]; !ok {
		d.log.Warn("task not found", zap.String("subject", subject), zap.String("task", task))
		return emptyBlock(subject, task, nil, d.cfg.PointsPerCycle), &NotFoundError{Kind: "task", Subject: subject, Task: task}
	}

	resolved, missing := d.resolveFeatures(features)
	var warn error
	if len(missing) > 0 {
		d.log.Warn("requested features not in schema",
			zap.String("subject", subject), zap.String("task", task), zap.Strings("features", missing))
		warn = &NotFoundError{Kind: "feature", Subject: subject, Task: task, Feature: strings.Join(missing, ",")}
	}
	if len(resolved) == 0 {
		return emptyBlock(subject, task, nil, d.cfg.PointsPerCycle), warn
	}

	key := cacheKey(subject, task, resolved)
	if block, hit := d.cache[key]; hit {
		return block, warn
	}

	taskRows := make([]int, 0, len(rows))
	for _, i := range rows {
		if d.table.tasks[i] == task {
			taskRows = append(taskRows, i)
		}
	}

	p := d.cfg.PointsPerCycle
	if len(taskRows)%p != 0 {
		err := &ShapeMismatchError{Subject: subject, Task: task, Rows: len(taskRows), PointsPerCycle: p}
		d.log.Warn("cycle shape mismatch",
			zap.String("subject", subject), zap.String("task", task),
			zap.Int("rows", err.Rows), zap.Int("points_per_cycle", p), zap.Int("remainder", err.Remainder()))
		return emptyBlock(subject, task, resolved, p), err
	}

	block := d.reshape(subject, task, taskRows, resolved)
	d.cache[key] = block
	return block, warn
}

// resolveFeatures maps a requested feature list onto schema entries,
// defaulting to every feature, and reports names the schema cannot resolve.
func (d *Dataset) resolveFeatures(features []string) ([]Feature, []string) {
	if len(features) == 0 {
		names := d.schema.FeatureNames()
		out := make([]Feature, 0, len(names))
		for _, n := range names {
			f, _ := d.schema.Lookup(n)
			out = append(out, f)
		}
		return out, nil
	}

	out := make([]Feature, 0, len(features))
	var missing []string
	for _, name := range features {
		f, ok := d.schema.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		out = append(out, f)
	}
	return out, missing
}

func cacheKey(subject, task string, features []Feature) string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.Name
	}
	sort.Strings(names)
	return fmt.Sprintf("%s\x00%s\x00%s", subject, task, strings.Join(names, ","))
}
