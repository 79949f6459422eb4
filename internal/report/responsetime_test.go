package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeEmpty(t *testing.T) {
	s := summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Nil(t, s.AvgMinutes)
	assert.Nil(t, s.MedianMinutes)
	assert.Nil(t, s.P90Minutes)
}

func TestSummarizeMedian(t *testing.T) {
	// Odd count: middle element.
	s := summarize([]float64{1, 2, 10})
	require.NotNil(t, s.MedianMinutes)
	assert.Equal(t, 2.0, *s.MedianMinutes)

	// Even count: mean of the two middle elements.
	s = summarize([]float64{1, 2, 3, 10})
	require.NotNil(t, s.MedianMinutes)
	assert.Equal(t, 2.5, *s.MedianMinutes)
}

func TestSummarizeP90NearestRank(t *testing.T) {
	samples := make([]float64, 11) // round(0.9*10) = 9
	for i := range samples {
		samples[i] = float64(i)
	}
	s := summarize(samples)
	require.NotNil(t, s.P90Minutes)
	assert.Equal(t, 9.0, *s.P90Minutes)

	s = summarize([]float64{42})
	require.NotNil(t, s.P90Minutes)
	assert.Equal(t, 42.0, *s.P90Minutes)
}

func TestSummarizeTrimmedAverage(t *testing.T) {
	// Twenty samples of 10 plus one huge outlier. The p95 trim
	// drops the outlier, so the reported average stays at 10.
	samples := make([]float64, 20)
	for i := range samples {
		samples[i] = 10
	}
	samples = append(samples, 100000)
	s := summarize(samples)
	require.NotNil(t, s.AvgMinutes)
	assert.Equal(t, 10.0, *s.AvgMinutes)
}

func TestSummarizeCapsAtSevenDays(t *testing.T) {
	// A single sample beyond the cap: statistics use the capped
	// value, the bucket records the raw one.
	s := summarize([]float64{30 * 24 * 60})
	require.NotNil(t, s.MedianMinutes)
	assert.Equal(t, float64(sevenDayMinutes), *s.MedianMinutes)
	assert.Equal(t, 1, s.Buckets.Over7Days)
}

func TestSummarizeRounding(t *testing.T) {
	s := summarize([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	require.NotNil(t, s.AvgMinutes)
	assert.Equal(t, 0.33, *s.AvgMinutes)
}

func TestBucketBoundaries(t *testing.T) {
	cases := []struct {
		minutes float64
		want    func(BucketCounts) int
	}{
		{5, func(b BucketCounts) int { return b.Under5Min }},
		{5.01, func(b BucketCounts) int { return b.Under1Hour }},
		{60, func(b BucketCounts) int { return b.Under1Hour }},
		{61, func(b BucketCounts) int { return b.Under6Hours }},
		{360, func(b BucketCounts) int { return b.Under6Hours }},
		{1440, func(b BucketCounts) int { return b.Under24Hours }},
		{10080, func(b BucketCounts) int { return b.Under7Days }},
		{10081, func(b BucketCounts) int { return b.Over7Days }},
	}
	for _, tc := range cases {
		var b BucketCounts
		b.add(tc.minutes)
		assert.Equal(t, 1, tc.want(b), "minutes=%v", tc.minutes)
	}
}
