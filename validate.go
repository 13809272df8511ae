package gaitstat

import "math"

// Validation rule identifiers reported in cycle verdicts.
const (
	RuleAngleRange    = "angle_range"
	RuleAngleJump     = "angle_jump"
	RuleVelocityRange = "velocity_range"
	RuleMomentRange   = "moment_range"
	RuleNonFinite     = "non_finite"
)

// CycleVerdict is the per-cycle validation result: the validity flag plus
// the list of violated rules. Derived on every call, never persisted.
type CycleVerdict struct {
	Cycle      int      `json:"cycle"`
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// ValidCycleRatio returns the fraction of valid verdicts, NaN for an empty
// slice.
func ValidCycleRatio(verdicts []CycleVerdict) float64 {
	if len(verdicts) == 0 {
		return math.NaN()
	}
	valid := 0
	for _, v := range verdicts {
		if v.Valid {
			valid++
		}
	}
	return float64(valid) / float64(len(verdicts))
}

// ValidateCycles evaluates biomechanical plausibility rules per cycle for a
// (subject, task) subset. A cycle is valid iff no rule triggered. Violations
// are returned as data; validation never fails on implausible values and
// never mutates the block.
func (d *Dataset) ValidateCycles(subject, task string, features ...string) ([]CycleVerdict, error) {
	block, err := d.GetCycles(subject, task, features...)
	if err != nil && block.Empty() {
		return nil, err
	}

	units := make(map[string]string, len(block.Features))
	for _, name := range block.Features {
		if f, ok := d.schema.Lookup(name); ok {
			units[name] = f.Unit
		}
	}
	return ValidateBlock(block, units, d.cfg.Thresholds), err
}

// ValidateBlock is the stateless rule evaluator behind ValidateCycles. units
// maps feature names to their unit family; features with no known unit are
// checked for non-finite samples only.
func ValidateBlock(block *CycleBlock, units map[string]string, th Thresholds) []CycleVerdict {
	verdicts := make([]CycleVerdict, block.Cycles())
	for c := range block.Values {
		violated := make(map[string]struct{})
		for fi, name := range block.Features {
			checkCycleFeature(block.Values[c], fi, units[name], th, violated)
		}

		verdict := CycleVerdict{Cycle: c, Valid: len(violated) == 0}
		for _, rule := range []string{RuleAngleRange, RuleAngleJump, RuleVelocityRange, RuleMomentRange, RuleNonFinite} {
			if _, ok := violated[rule]; ok {
				verdict.Violations = append(verdict.Violations, rule)
			}
		}
		verdicts[c] = verdict
	}
	return verdicts
}

func checkCycleFeature(cycle [][]float64, fi int, unit string, th Thresholds, violated map[string]struct{}) {
	prev := math.NaN()
	for _, sample := range cycle {
		v := sample[fi]
		if !isFinite(v) {
			violated[RuleNonFinite] = struct{}{}
			prev = math.NaN()
			continue
		}

		switch unit {
		case UnitRad:
			if math.Abs(v) > th.MaxAngleRad {
				violated[RuleAngleRange] = struct{}{}
			}
			if isFinite(prev) && math.Abs(v-prev) > th.MaxAngleJumpRad {
				violated[RuleAngleJump] = struct{}{}
			}
		case UnitRadS:
			if math.Abs(v) > th.MaxVelocityRadS {
				violated[RuleVelocityRange] = struct{}{}
			}
		case UnitNm:
			if math.Abs(v) > th.MaxMomentNm {
				violated[RuleMomentRange] = struct{}{}
			}
		}
		prev = v
	}
}
