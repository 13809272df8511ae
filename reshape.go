package gaitstat

// CycleBlock is a 3-axis (cycles x phase points x features) view of one
// (subject, task) subset. Values are deep copies of the table data: mutating
// a block never affects the source table or any other block. Blocks handed
// out by GetCycles are consumer-owned and must not be written back.
type CycleBlock struct {
	Subject  string
	Task     string
	Features []string
	Points   int
	// Values is indexed [cycle][phase point][feature].
	Values [][][]float64
}

// Cycles returns the number of cycles in the block.
func (b *CycleBlock) Cycles() int { return len(b.Values) }

// Empty reports whether the block carries no cycles.
func (b *CycleBlock) Empty() bool { return len(b.Values) == 0 }

// FeatureIndex resolves a canonical feature name to its feature-axis index.
func (b *CycleBlock) FeatureIndex(name string) (int, bool) {
	for i, f := range b.Features {
		if f == name {
			return i, true
		}
	}
	return -1, false
}

// FeatureSeries returns the per-cycle phase series of one feature as an
// independent cycles x P matrix.
func (b *CycleBlock) FeatureSeries(name string) ([][]float64, bool) {
	fi, ok := b.FeatureIndex(name)
	if !ok {
		return nil, false
	}
	out := make([][]float64, len(b.Values))
	for c, cycle := range b.Values {
		series := make([]float64, len(cycle))
		for p, sample := range cycle {
			series[p] = sample[fi]
		}
		out[c] = series
	}
	return out, true
}

// Flatten returns the block's values for one feature in original row order
// (cycle-major, then phase), reproducing the phase-ordered source column.
func (b *CycleBlock) Flatten(name string) ([]float64, bool) {
	fi, ok := b.FeatureIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(b.Values)*b.Points)
	for _, cycle := range b.Values {
		for _, sample := range cycle {
			out = append(out, sample[fi])
		}
	}
	return out, true
}

// reshape partitions the already phase-ordered rows sequentially into cycles
// of exactly P points. The caller guarantees len(rows) is a multiple of P;
// rows are never reordered here.
func (d *Dataset) reshape(subject, task string, rows []int, features []Feature) *CycleBlock {
	p := d.cfg.PointsPerCycle
	cycles := len(rows) / p

	cols := make([][]float64, len(features))
	names := make([]string, len(features))
	for i, f := range features {
		col, _ := d.table.Column(f.Column)
		cols[i] = col
		names[i] = f.Name
	}

	values := make([][][]float64, cycles)
	r := 0
	for c := 0; c < cycles; c++ {
		cycle := make([][]float64, p)
		for pt := 0; pt < p; pt++ {
			sample := make([]float64, len(features))
			row := rows[r]
			for fi := range cols {
				sample[fi] = cols[fi][row]
			}
			cycle[pt] = sample
			r++
		}
		values[c] = cycle
	}

	return &CycleBlock{
		Subject:  subject,
		Task:     task,
		Features: names,
		Points:   p,
		Values:   values,
	}
}

func emptyBlock(subject, task string, features []Feature, points int) *CycleBlock {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.Name
	}
	return &CycleBlock{
		Subject:  subject,
		Task:     task,
		Features: names,
		Points:   points,
		Values:   nil,
	}
}
