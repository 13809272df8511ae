package gaitstat

import "math"

// DefaultOutlierThreshold is the number of standard deviations above the
// mean cycle RMSE at which a cycle is flagged.
const DefaultOutlierThreshold = 2.0

// FindOutlierCycles flags cycles whose RMSE against the feature-wise mean
// pattern exceeds mean(RMSE) + threshold*std(RMSE), using population
// statistics over the block's cycles. A negative threshold selects the
// default of 2.0; zero is honored and cuts at the mean RMSE itself. Returned
// indices refer to the block's cycle axis; the data itself is never removed
// or mutated.
func (d *Dataset) FindOutlierCycles(subject, task string, threshold float64, features ...string) ([]int, error) {
	block, err := d.GetCycles(subject, task, features...)
	if err != nil && block.Empty() {
		return nil, err
	}
	return OutlierCycles(block, threshold), err
}

// OutlierCycles is the block-level outlier detector behind FindOutlierCycles.
func OutlierCycles(block *CycleBlock, threshold float64) []int {
	if threshold < 0 {
		threshold = DefaultOutlierThreshold
	}
	if block.Cycles() == 0 {
		return nil
	}

	mean := blockPatterns(block, nanMean)
	rmse := make([]float64, block.Cycles())
	for c := range block.Values {
		sum := 0.0
		count := 0
		for fi, name := range block.Features {
			pattern := mean[name]
			for p := 0; p < block.Points; p++ {
				v := block.Values[c][p][fi]
				m := pattern[p]
				if !isFinite(v) || !isFinite(m) {
					continue
				}
				diff := v - m
				sum += diff * diff
				count++
			}
		}
		if count == 0 {
			rmse[c] = math.NaN()
			continue
		}
		rmse[c] = math.Sqrt(sum / float64(count))
	}

	finite := finiteValues(rmse)
	if len(finite) == 0 {
		return nil
	}
	center := nanMean(finite)
	cut := center + threshold*popStd(finite, center)

	var out []int
	for c, v := range rmse {
		if isFinite(v) && v > cut {
			out = append(out, c)
		}
	}
	return out
}
