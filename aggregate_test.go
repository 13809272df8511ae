package gaitstat

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupMeanPatterns(t *testing.T) {
	const points = 4
	ds := makeDataset(t, points, []session{
		{subject: "S1", task: "level_walking", features: map[string][]float64{angleFeature: {0, 1, 2, 3}}},
		{subject: "S2", task: "level_walking", features: map[string][]float64{angleFeature: {2, 3, 4, 5}}},
	})

	res, err := ds.GroupMeanPatterns([]string{"S1", "S2"}, "level_walking")
	require.NoError(t, err)
	require.Equal(t, []string{"S1", "S2"}, res.Subjects)

	pattern, ok := res.Patterns[angleFeature]
	require.True(t, ok)
	require.Len(t, pattern.Mean, points)
	assert.Equal(t, []float64{1, 2, 3, 4}, pattern.Mean)
	for p, v := range pattern.Std {
		assert.InDeltaf(t, 1.0, v, 1e-12, "std at phase %d", p)
	}
	assert.Empty(t, res.Warnings)
}

func TestGroupMeanPatternsSkipsMissingSubject(t *testing.T) {
	const points = 4
	ds := makeDataset(t, points, []session{
		{subject: "S1", task: "level_walking", features: map[string][]float64{angleFeature: {0, 1, 2, 3}}},
	})

	res, err := ds.GroupMeanPatterns([]string{"S1", "S9"}, "level_walking")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1"}, res.Subjects)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "S9")
}

func TestGroupMeanPatternsAllMissing(t *testing.T) {
	const points = 4
	ds := makeDataset(t, points, []session{
		{subject: "S1", task: "level_walking", features: map[string][]float64{angleFeature: {0, 1, 2, 3}}},
	})

	_, err := ds.GroupMeanPatterns([]string{"S8", "S9"}, "level_walking")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestMultiSubjectStatistics(t *testing.T) {
	const points = 4
	ds := makeDataset(t, points, []session{
		{subject: "S1", task: "level_walking", features: map[string][]float64{angleFeature: constant(1, points, 2)}},
		{subject: "S2", task: "level_walking", features: map[string][]float64{angleFeature: constant(1, points, 4)}},
	})

	res, err := ds.MultiSubjectStatistics([]string{"S1", "S2"}, "level_walking")
	require.NoError(t, err)

	g, ok := res.Stats[angleFeature]
	require.True(t, ok)
	assert.Equal(t, 2, g.N)
	assert.Equal(t, 3.0, g.Mean)
	assert.Equal(t, 1.0, g.Std)
	assert.Equal(t, 2.0, g.Min)
	assert.Equal(t, 4.0, g.Max)
	assert.InDelta(t, 100.0/3.0, g.CV, 1e-9)
}

func TestMultiTaskStatisticsSkipsMissingTask(t *testing.T) {
	const points = 4
	ds := makeDataset(t, points, []session{
		{subject: "S1", task: "level_walking", features: map[string][]float64{angleFeature: constant(1, points, 2)}},
		{subject: "S1", task: "running", features: map[string][]float64{angleFeature: constant(1, points, 6)}},
	})

	res, err := ds.MultiTaskStatistics("S1", []string{"level_walking", "running", "stairs"})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "stairs")

	g := res.Stats[angleFeature]
	assert.Equal(t, 2, g.N)
	assert.Equal(t, 4.0, g.Mean)
}

func TestGroupSummaryMarshalsNaNAsNull(t *testing.T) {
	g := GroupSummary{N: 2, Mean: 0, Std: 1, Min: -1, Max: 1, CV: math.NaN()}
	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cv":null`)
	assert.Contains(t, string(data), `"mean":0`)

	empty := GroupSummary{Mean: math.NaN(), Std: math.NaN(), Min: math.NaN(), Max: math.NaN(), CV: math.NaN()}
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mean":null`)
}

func TestSummaryMarshalsNaNAsNull(t *testing.T) {
	s := summarize(nil)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count":0`)
	assert.Contains(t, string(data), `"median":null`)
}

func TestExcludedFeatureWarningDeduped(t *testing.T) {
	perSubject := map[string]map[string][]float64{
		"S1": {"a": {1}, "extra": {1}},
		"S2": {"a": {2}, "extra": {2}},
		"S3": {"a": {3}},
	}
	subjects := []string{"S1", "S2", "S3"}

	shared := intersectFeatures(perSubject, subjects)
	_, ok := shared["extra"]
	require.False(t, ok)

	excluded := excludedFeatures(perSubject, subjects, shared)
	assert.Equal(t, []string{"extra"}, excluded)
}

func TestGroupSummaryZeroMeanCV(t *testing.T) {
	const points = 4
	ds := makeDataset(t, points, []session{
		{subject: "S1", task: "level_walking", features: map[string][]float64{angleFeature: constant(1, points, -1)}},
		{subject: "S2", task: "level_walking", features: map[string][]float64{angleFeature: constant(1, points, 1)}},
	})

	res, err := ds.MultiSubjectStatistics([]string{"S1", "S2"}, "level_walking")
	require.NoError(t, err)
	g := res.Stats[angleFeature]
	assert.True(t, math.IsNaN(g.CV), "CV must be undefined at zero mean")
}
