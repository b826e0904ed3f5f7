package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPositives(t *testing.T) {
	in := []float64{10, 0, -3, math.NaN(), math.Inf(1), 0.5}
	assert.Equal(t, []float64{10, 0.5}, CleanPositives(in))
}

func TestSampleSD(t *testing.T) {
	assert.Equal(t, 0.0, SampleSD(nil))
	assert.Equal(t, 0.0, SampleSD([]float64{42}), "single value has no variance estimate")
	assert.InDelta(t, 5.7735, SampleSD([]float64{10, 10, 20}), 0.0001)
}

func TestCVPercent(t *testing.T) {
	assert.Equal(t, 0.0, CVPercent(nil), "zero mean yields zero CV")
	assert.InDelta(t, 43.3013, CVPercent([]float64{10, 10, 20}), 0.0001)
}

func TestDuplicateDiffPercent(t *testing.T) {
	assert.InDelta(t, 7.6923, DuplicateDiffPercent(10, 10.8), 0.0001)
	assert.Equal(t, 0.0, DuplicateDiffPercent(1, -1), "zero average is not a usable reference")
}

func TestClassify(t *testing.T) {
	criteria := DefaultCriteria()

	testCases := []struct {
		name   string
		kind   Kind
		values []float64
		status Status
		metric string
		value  float64
	}{
		{
			name:   "duplicate within time threshold",
			kind:   KindTime,
			values: []float64{10, 10.8},
			status: StatusOK,
			metric: MetricDiff,
			value:  7.69,
		},
		{
			name:   "duplicate in warn band",
			kind:   KindTime,
			values: []float64{10, 11},
			status: StatusWarn,
			metric: MetricDiff,
			value:  9.52,
		},
		{
			name:   "duplicate beyond warn band",
			kind:   KindTime,
			values: []float64{10, 12},
			status: StatusFail,
			metric: MetricDiff,
			value:  18.18,
		},
		{
			name:   "identical triplicate",
			kind:   KindTime,
			values: []float64{10, 10, 10},
			status: StatusOK,
			metric: MetricCV,
			value:  0,
		},
		{
			name:   "scattered triplicate",
			kind:   KindTime,
			values: []float64{10, 10, 20},
			status: StatusFail,
			metric: MetricCV,
			value:  43.3,
		},
		{
			name:   "temperature uses the tighter threshold",
			kind:   KindTemp,
			values: []float64{100, 104},
			status: StatusWarn,
			metric: MetricDiff,
			value:  3.92,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := criteria.Classify(tc.kind, tc.values)
			assert.Equal(t, tc.status, v.Status)
			assert.Equal(t, tc.metric, v.Metric)
			require.NotNil(t, v.Value)
			assert.Equal(t, tc.value, *v.Value)
		})
	}
}

func TestClassify_NotApplicable(t *testing.T) {
	criteria := DefaultCriteria()

	for name, values := range map[string][]float64{
		"empty":            {},
		"single value":     {10},
		"only zeros":       {0, 0, 0},
		"one valid, junk":  {10, 0, -1, math.NaN()},
		"only non-finites": {math.Inf(1), math.NaN()},
	} {
		t.Run(name, func(t *testing.T) {
			v := criteria.Classify(KindTime, values)
			assert.Equal(t, StatusNA, v.Status)
			assert.Empty(t, v.Metric)
			assert.Nil(t, v.Value)
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{10, 10, 20, 0, -5})

	assert.Equal(t, 3, s.N)
	require.NotNil(t, s.Mean)
	assert.Equal(t, 13.33, *s.Mean)
	require.NotNil(t, s.SD)
	assert.Equal(t, 5.77, *s.SD)
	require.NotNil(t, s.CV)
	assert.Equal(t, 43.3, *s.CV)
	require.NotNil(t, s.Min)
	assert.Equal(t, 10.0, *s.Min)
	require.NotNil(t, s.Max)
	assert.Equal(t, 20.0, *s.Max)
	require.NotNil(t, s.Range)
	assert.Equal(t, 10.0, *s.Range)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize([]float64{0, -1})

	assert.Equal(t, 0, s.N)
	assert.Nil(t, s.Mean)
	assert.Nil(t, s.SD)
	assert.Nil(t, s.CV)
	assert.Nil(t, s.Min)
	assert.Nil(t, s.Max)
	assert.Nil(t, s.Range)
}
