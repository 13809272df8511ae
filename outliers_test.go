package gaitstat

import "testing"

func TestFindOutlierCyclesFlagsDeviantCycle(t *testing.T) {
	const points = 10
	const normals = 5

	base := make([]float64, points)
	for p := range base {
		base[p] = float64(p)
	}

	values := make([]float64, 0, (normals+1)*points)
	for c := 0; c < normals; c++ {
		values = append(values, base...)
	}
	// One cycle far above the mean pattern at every phase point.
	for _, v := range base {
		values = append(values, v+10)
	}

	ds := makeDataset(t, points, []session{{
		subject:  "S1",
		task:     "level_walking",
		features: map[string][]float64{angleFeature: values},
	}})

	outliers, err := ds.FindOutlierCycles("S1", "level_walking", 2.0)
	if err != nil {
		t.Fatalf("FindOutlierCycles: %v", err)
	}
	if len(outliers) != 1 || outliers[0] != normals {
		t.Fatalf("outliers = %v, want [%d]", outliers, normals)
	}
}

func TestFindOutlierCyclesMeanIdenticalNeverFlagged(t *testing.T) {
	const points = 10
	ds := makeDataset(t, points, []session{{
		subject:  "S1",
		task:     "level_walking",
		features: map[string][]float64{angleFeature: ramp(4, points)},
	}})

	outliers, err := ds.FindOutlierCycles("S1", "level_walking", DefaultOutlierThreshold)
	if err != nil {
		t.Fatalf("FindOutlierCycles: %v", err)
	}
	if len(outliers) != 0 {
		t.Fatalf("cycles identical to the mean pattern flagged: %v", outliers)
	}
}

func TestFindOutlierCyclesZeroThresholdCutsAtMean(t *testing.T) {
	const points = 10
	const normals = 5

	base := make([]float64, points)
	values := make([]float64, 0, (normals+1)*points)
	for c := 0; c < normals; c++ {
		values = append(values, base...)
	}
	for range base {
		values = append(values, 1)
	}

	ds := makeDataset(t, points, []session{{
		subject:  "S1",
		task:     "level_walking",
		features: map[string][]float64{angleFeature: values},
	}})

	// Zero is an explicit cutoff at the mean RMSE, not the 2.0 default.
	outliers, err := ds.FindOutlierCycles("S1", "level_walking", 0)
	if err != nil {
		t.Fatalf("FindOutlierCycles: %v", err)
	}
	if len(outliers) != 1 || outliers[0] != normals {
		t.Fatalf("outliers = %v, want [%d]", outliers, normals)
	}

	defaulted := OutlierCycles(mustBlock(t, ds, "S1", "level_walking"), -1)
	strict := OutlierCycles(mustBlock(t, ds, "S1", "level_walking"), DefaultOutlierThreshold)
	if len(defaulted) != len(strict) {
		t.Fatalf("negative threshold must select the default: %v vs %v", defaulted, strict)
	}
}

func mustBlock(t *testing.T, ds *Dataset, subject, task string) *CycleBlock {
	t.Helper()
	block, err := ds.GetCycles(subject, task)
	if err != nil {
		t.Fatalf("GetCycles: %v", err)
	}
	return block
}

func TestFindOutlierCyclesThresholdConfigurable(t *testing.T) {
	const points = 10
	const normals = 5

	base := make([]float64, points)
	values := make([]float64, 0, (normals+1)*points)
	for c := 0; c < normals; c++ {
		values = append(values, base...)
	}
	for range base {
		values = append(values, 1) // mildly deviant
	}

	ds := makeDataset(t, points, []session{{
		subject:  "S1",
		task:     "level_walking",
		features: map[string][]float64{angleFeature: values},
	}})

	strict, err := ds.FindOutlierCycles("S1", "level_walking", 0.5)
	if err != nil {
		t.Fatalf("FindOutlierCycles: %v", err)
	}
	if len(strict) != 1 {
		t.Fatalf("strict threshold found %v", strict)
	}

	lenient, err := ds.FindOutlierCycles("S1", "level_walking", 10)
	if err != nil {
		t.Fatalf("FindOutlierCycles: %v", err)
	}
	if len(lenient) != 0 {
		t.Fatalf("lenient threshold found %v", lenient)
	}
}
