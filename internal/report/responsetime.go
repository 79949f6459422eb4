package report

import "math"

// sevenDayMinutes is the absolute latency ceiling. Samples beyond
// it are capped before any statistic is computed; the dormancy cap
// for left-on-read uses the same span.
const sevenDayMinutes = 7 * 24 * 60

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// nearestRank returns sorted[round(pct * (n-1))].
func nearestRank(sorted []float64, pct float64) float64 {
	idx := int(math.Round(pct * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// summarize computes the response-time summary for latency samples
// in minutes. Samples must be sorted ascending and non-negative.
// Buckets classify the raw values; statistics are computed after
// capping each sample at the seven-day ceiling, and the reported
// average is the trimmed mean over samples at or below
// min(p95, seven days).
func summarize(sorted []float64) ResponseTimeSummary {
	s := ResponseTimeSummary{Count: len(sorted)}
	for _, v := range sorted {
		s.Buckets.add(v)
	}
	if len(sorted) == 0 {
		return s
	}

	capped := make([]float64, len(sorted))
	for i, v := range sorted {
		capped[i] = math.Min(v, sevenDayMinutes)
	}

	n := len(capped)
	var median float64
	if n%2 == 0 {
		median = (capped[n/2-1] + capped[n/2]) / 2
	} else {
		median = capped[n/2]
	}
	p90 := nearestRank(capped, 0.9)

	trimCap := math.Min(nearestRank(capped, 0.95), sevenDayMinutes)
	var sum float64
	var kept int
	for _, v := range capped {
		if v <= trimCap {
			sum += v
			kept++
		}
	}
	avg := 0.0
	if kept > 0 {
		avg = sum / float64(kept)
	}

	s.AvgMinutes = ptr(round2(avg))
	s.MedianMinutes = ptr(round2(median))
	s.P90Minutes = ptr(round2(p90))
	return s
}

// add classifies one latency sample (minutes) into its speed
// bucket. Boundaries are tested ascending; the first match wins.
func (b *BucketCounts) add(minutes float64) {
	switch {
	case minutes <= 5:
		b.Under5Min++
	case minutes <= 60:
		b.Under1Hour++
	case minutes <= 6*60:
		b.Under6Hours++
	case minutes <= 24*60:
		b.Under24Hours++
	case minutes <= sevenDayMinutes:
		b.Under7Days++
	default:
		b.Over7Days++
	}
}

func ptr[T any](v T) *T { return &v }
