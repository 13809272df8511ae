package gaitstat

import (
	"encoding/json"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary is a per-feature aggregate over the flattened (cycles x phase)
// data of one block. Recomputed on every call, never cached.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// MarshalJSON emits non-finite statistics as null; encoding/json rejects NaN
// outright and an all-missing feature must not make a summary unserializable.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain struct {
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
		Median *float64 `json:"median"`
		P25    *float64 `json:"p25"`
		P75    *float64 `json:"p75"`
	}
	return json.Marshal(plain{
		Count:  s.Count,
		Mean:   finiteOrNull(s.Mean),
		Std:    finiteOrNull(s.Std),
		Min:    finiteOrNull(s.Min),
		Max:    finiteOrNull(s.Max),
		Median: finiteOrNull(s.Median),
		P25:    finiteOrNull(s.P25),
		P75:    finiteOrNull(s.P75),
	})
}

// PeakTiming locates one cycle's extrema for one feature: the phase index and
// cycle-percent position of the maximum and minimum sample.
type PeakTiming struct {
	Cycle      int     `json:"cycle"`
	MaxIndex   int     `json:"max_index"`
	MaxPercent float64 `json:"max_percent"`
	MaxValue   float64 `json:"max_value"`
	MinIndex   int     `json:"min_index"`
	MinPercent float64 `json:"min_percent"`
	MinValue   float64 `json:"min_value"`
}

// SymmetryResult quantifies bilateral symmetry of an ipsi/contra feature
// pair. Index is 1 minus the range-normalized RMS difference of the two mean
// patterns, clamped to [0, 1]; Correlation is their Pearson correlation.
type SymmetryResult struct {
	IpsiFeature   string  `json:"ipsi_feature"`
	ContraFeature string  `json:"contra_feature"`
	Index         float64 `json:"index"`
	RMSD          float64 `json:"rmsd"`
	Correlation   float64 `json:"correlation"`
}

// MeanPatterns reduces each feature across the cycle axis only, yielding one
// P-length mean sequence per feature. Missing (non-finite) samples are
// excluded at each phase point; a phase point is NaN only when every cycle is
// missing there.
func (d *Dataset) MeanPatterns(subject, task string, features ...string) (map[string][]float64, error) {
	block, err := d.GetCycles(subject, task, features...)
	if err != nil && block.Empty() {
		return map[string][]float64{}, err
	}
	return blockPatterns(block, nanMean), err
}

// StdPatterns is MeanPatterns' companion using the population standard
// deviation at each phase point.
func (d *Dataset) StdPatterns(subject, task string, features ...string) (map[string][]float64, error) {
	block, err := d.GetCycles(subject, task, features...)
	if err != nil && block.Empty() {
		return map[string][]float64{}, err
	}
	return blockPatterns(block, nanPopStd), err
}

// CalculateROM computes range of motion per feature. With byCycle true the
// result holds one max-min value per cycle; otherwise it holds a single ROM
// over the flattened (cycles x phase) data.
func (d *Dataset) CalculateROM(subject, task string, byCycle bool, features ...string) (map[string][]float64, error) {
	block, err := d.GetCycles(subject, task, features...)
	if err != nil && block.Empty() {
		return map[string][]float64{}, err
	}

	out := make(map[string][]float64, len(block.Features))
	for _, name := range block.Features {
		series, _ := block.FeatureSeries(name)
		if byCycle {
			roms := make([]float64, len(series))
			for c, cycle := range series {
				roms[c] = rangeOf(cycle)
			}
			out[name] = roms
			continue
		}
		flat, _ := block.Flatten(name)
		out[name] = []float64{rangeOf(flat)}
	}
	return out, err
}

// CalculatePeakTiming reports, per cycle and feature, where in the cycle the
// signal reaches its extrema. Non-finite samples are ignored; a cycle with no
// finite sample yields indices of -1 and NaN values and percents.
func (d *Dataset) CalculatePeakTiming(subject, task string, features ...string) (map[string][]PeakTiming, error) {
	block, err := d.GetCycles(subject, task, features...)
	if err != nil && block.Empty() {
		return map[string][]PeakTiming{}, err
	}

	out := make(map[string][]PeakTiming, len(block.Features))
	for _, name := range block.Features {
		series, _ := block.FeatureSeries(name)
		timings := make([]PeakTiming, len(series))
		for c, cycle := range series {
			timings[c] = peakTiming(c, cycle, block.Points)
		}
		out[name] = timings
	}
	return out, err
}

func peakTiming(cycle int, samples []float64, points int) PeakTiming {
	pt := PeakTiming{
		Cycle:    cycle,
		MaxIndex: -1, MaxPercent: math.NaN(), MaxValue: math.NaN(),
		MinIndex: -1, MinPercent: math.NaN(), MinValue: math.NaN(),
	}
	for i, v := range samples {
		if !isFinite(v) {
			continue
		}
		if pt.MaxIndex < 0 || v > pt.MaxValue {
			pt.MaxIndex, pt.MaxValue = i, v
		}
		if pt.MinIndex < 0 || v < pt.MinValue {
			pt.MinIndex, pt.MinValue = i, v
		}
	}
	if pt.MaxIndex >= 0 {
		pt.MaxPercent = 100 * float64(pt.MaxIndex) / float64(points)
		pt.MinPercent = 100 * float64(pt.MinIndex) / float64(points)
	}
	return pt
}

// SummaryStatistics computes mean, population std, min, max, median, and the
// 25th/75th percentiles per feature over the flattened block data.
func (d *Dataset) SummaryStatistics(subject, task string, features ...string) (map[string]Summary, error) {
	block, err := d.GetCycles(subject, task, features...)
	if err != nil && block.Empty() {
		return map[string]Summary{}, err
	}

	out := make(map[string]Summary, len(block.Features))
	for _, name := range block.Features {
		flat, _ := block.Flatten(name)
		out[name] = summarize(flat)
	}
	return out, err
}

func summarize(values []float64) Summary {
	finite := finiteValues(values)
	s := Summary{Count: len(finite)}
	if len(finite) == 0 {
		s.Mean, s.Std, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		s.Median, s.P25, s.P75 = math.NaN(), math.NaN(), math.NaN()
		return s
	}

	s.Mean = stat.Mean(finite, nil)
	s.Std = popStd(finite, s.Mean)

	sorted := make([]float64, len(finite))
	copy(sorted, finite)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]

	s.Median = quantileOr(sorted, 50, s.Min)
	s.P25 = quantileOr(sorted, 25, s.Min)
	s.P75 = quantileOr(sorted, 75, s.Max)
	return s
}

func quantileOr(sorted []float64, pct float64, fallback float64) float64 {
	v, err := mstats.Percentile(mstats.Float64Data(sorted), pct)
	if err != nil {
		return fallback
	}
	return v
}

// PhaseCorrelations computes, for every phase point, the cross-feature
// Pearson correlation matrix over the cycle axis. The matrices slice is
// indexed [phase][feature i][feature j]. With fewer than two cycles the
// correlation is undefined and the matrices slice is nil.
func (d *Dataset) PhaseCorrelations(subject, task string, features ...string) ([][][]float64, []string, error) {
	block, err := d.GetCycles(subject, task, features...)
	if err != nil && block.Empty() {
		return nil, nil, err
	}
	if block.Cycles() < 2 {
		return nil, block.Features, err
	}

	nf := len(block.Features)
	matrices := make([][][]float64, block.Points)
	for p := 0; p < block.Points; p++ {
		m := make([][]float64, nf)
		for i := 0; i < nf; i++ {
			m[i] = make([]float64, nf)
			m[i][i] = 1
		}
		for i := 0; i < nf; i++ {
			xi := cycleVector(block, p, i)
			for j := i + 1; j < nf; j++ {
				xj := cycleVector(block, p, j)
				r := pearson(xi, xj)
				m[i][j] = r
				m[j][i] = r
			}
		}
		matrices[p] = m
	}
	return matrices, block.Features, err
}

// cycleVector extracts one feature's values across cycles at a fixed phase
// point.
func cycleVector(block *CycleBlock, phase, feature int) []float64 {
	out := make([]float64, len(block.Values))
	for c := range block.Values {
		out[c] = block.Values[c][phase][feature]
	}
	return out
}

// BilateralSymmetry pairs a canonical feature with its opposite-side
// counterpart and compares their mean patterns.
func (d *Dataset) BilateralSymmetry(subject, task, feature string) (SymmetryResult, error) {
	counterpart, ok := ContralateralName(feature)
	if !ok {
		return SymmetryResult{}, &NotFoundError{Kind: "feature", Subject: subject, Task: task, Feature: feature}
	}
	ipsi, contra := feature, counterpart
	if _, ok := d.schema.Lookup(ipsi); !ok {
		return SymmetryResult{}, &NotFoundError{Kind: "feature", Subject: subject, Task: task, Feature: ipsi}
	}
	if _, ok := d.schema.Lookup(contra); !ok {
		return SymmetryResult{}, &NotFoundError{Kind: "feature", Subject: subject, Task: task, Feature: contra}
	}

	patterns, err := d.MeanPatterns(subject, task, ipsi, contra)
	if err != nil {
		return SymmetryResult{}, err
	}
	pi, pc := patterns[ipsi], patterns[contra]

	res := SymmetryResult{IpsiFeature: ipsi, ContraFeature: contra}
	res.RMSD = rmsd(pi, pc)
	res.Correlation = pearson(pi, pc)

	combined := append(append([]float64{}, pi...), pc...)
	span := rangeOf(combined)
	if span > 0 && !math.IsNaN(res.RMSD) {
		res.Index = clamp(1-res.RMSD/span, 0, 1)
	} else {
		res.Index = math.NaN()
	}
	return res, nil
}

// blockPatterns reduces each feature across the cycle axis with the given
// NaN-tolerant reducer, yielding a P-length sequence per feature.
func blockPatterns(block *CycleBlock, reduce func([]float64) float64) map[string][]float64 {
	out := make(map[string][]float64, len(block.Features))
	for fi, name := range block.Features {
		pattern := make([]float64, block.Points)
		for p := 0; p < block.Points; p++ {
			col := make([]float64, len(block.Values))
			for c := range block.Values {
				col[c] = block.Values[c][p][fi]
			}
			pattern[p] = reduce(col)
		}
		out[name] = pattern
	}
	return out
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func nanMean(values []float64) float64 {
	finite := finiteValues(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	return stat.Mean(finite, nil)
}

func nanPopStd(values []float64) float64 {
	finite := finiteValues(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	return popStd(finite, stat.Mean(finite, nil))
}

func popStd(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func rangeOf(values []float64) float64 {
	finite := finiteValues(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	min, max := finite[0], finite[0]
	for _, v := range finite[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func rmsd(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	count := 0
	for i := 0; i < n; i++ {
		if !isFinite(a[i]) || !isFinite(b[i]) {
			continue
		}
		d := a[i] - b[i]
		sum += d * d
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(count))
}

// pearson is a NaN-tolerant Pearson correlation: sample pairs with any
// non-finite member are excluded.
func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if !isFinite(a[i]) || !isFinite(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// finiteOrNull is the JSON representation of a possibly-undefined statistic:
// a pointer that is nil for NaN and infinities, marshaling to null.
func finiteOrNull(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
