package report

import (
	"math"
	"sort"
	"time"
)

const dayFormat = "2006-01-02"

// computeStreaks derives streak statistics from the set of
// distinct active days.
func computeStreaks(days map[string]bool) StreakStats {
	if len(days) == 0 {
		return StreakStats{}
	}
	sorted := make([]string, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	s := StreakStats{
		ActiveDays: len(sorted),
		FirstDay:   sorted[0],
		LastDay:    sorted[len(sorted)-1],
	}

	longest, current := 1, 1
	longestGap := 0
	prev, _ := time.Parse(dayFormat, sorted[0])
	for _, d := range sorted[1:] {
		t, err := time.Parse(dayFormat, d)
		if err != nil {
			continue
		}
		gap := int(t.Sub(prev).Hours() / 24)
		if gap == 1 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			if gap-1 > longestGap {
				longestGap = gap - 1
			}
			current = 1
		}
		prev = t
	}
	s.LongestStreakDays = longest
	s.CurrentStreakDays = current
	s.LongestGapDays = longestGap
	return s
}

// energyScore blends activity volume, day-to-day consistency, and
// turn-taking into a 0-100 integer. The formula is normative for
// reproducibility, not calibrated against anything external.
func energyScore(
	total int, activeDays int, spanDays int, switches int,
) int {
	if total == 0 {
		return 0
	}
	perDay := float64(total) / float64(activeDays)
	activity := math.Min(1, math.Log10(perDay+1)/math.Log10(50))

	consistency := math.Min(1, float64(activeDays)/float64(spanDays))

	turnTaking := 0.0
	if total > 1 {
		turnTaking = float64(switches) / float64(total-1)
		turnTaking = math.Min(1, math.Max(0, turnTaking))
	}

	score := 100 * (0.4*activity + 0.3*consistency + 0.3*turnTaking)
	return int(math.Round(score))
}

// spanDays returns the inclusive day count between two day strings.
func spanDays(first, last string) int {
	a, err1 := time.Parse(dayFormat, first)
	b, err2 := time.Parse(dayFormat, last)
	if err1 != nil || err2 != nil || b.Before(a) {
		return 1
	}
	return int(b.Sub(a).Hours()/24) + 1
}
