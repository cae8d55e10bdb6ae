package analytics

import (
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

// Trend directions
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// Risk levels
const (
	RiskHigh   = "HIGH"
	RiskMedium = "MEDIUM"
	RiskLow    = "LOW"
)

const (
	defaultTrendWindow = 10
	trendThreshold     = 0.05
)

// Rate returns the percentage of statuses that are PRESENT, rounded to two
// decimals. LATE does not count as present here.
func Rate(statuses []string) float64 {
	if len(statuses) == 0 {
		return 0
	}
	var present int
	for _, s := range statuses {
		if s == attendance.StatusPresent {
			present++
		}
	}
	return core.Round2(float64(present) / float64(len(statuses)) * 100)
}

// LateRate returns the percentage of statuses that are LATE, rounded to two
// decimals.
func LateRate(statuses []string) float64 {
	if len(statuses) == 0 {
		return 0
	}
	var late int
	for _, s := range statuses {
		if s == attendance.StatusLate {
			late++
		}
	}
	return core.Round2(float64(late) / float64(len(statuses)) * 100)
}

// Trend compares the present-ratio of the most recent `window` statuses
// against the up-to-`window` statuses preceding them (ordered oldest first).
// A swing beyond 5 percentage points in either direction is reported; without
// a full recent window and at least one preceding record there is not enough
// data.
func Trend(statuses []string, window int) string {
	if window <= 0 {
		window = defaultTrendWindow
	}
	if len(statuses) <= window {
		return TrendInsufficientData
	}
	recent := statuses[len(statuses)-window:]
	prevStart := 0
	if len(statuses) > 2*window {
		prevStart = len(statuses) - 2*window
	}
	previous := statuses[prevStart : len(statuses)-window]
	diff := presentRatio(recent) - presentRatio(previous)
	switch {
	case diff > trendThreshold:
		return TrendImproving
	case diff < -trendThreshold:
		return TrendDeclining
	}
	return TrendStable
}

func presentRatio(statuses []string) float64 {
	if len(statuses) == 0 {
		return 0
	}
	var present int
	for _, s := range statuses {
		if s == attendance.StatusPresent {
			present++
		}
	}
	return float64(present) / float64(len(statuses))
}

// ConsecutiveAbsences counts the trailing run of ABSENT statuses (ordered
// oldest first); any PRESENT or LATE resets the streak.
func ConsecutiveAbsences(statuses []string) int {
	var streak int
	for i := len(statuses) - 1; i >= 0; i-- {
		if statuses[i] != attendance.StatusAbsent {
			break
		}
		streak++
	}
	return streak
}

// RiskLevel classifies a student from their attendance rate, trailing absence
// streak and late rate.
func RiskLevel(rate float64, consecutiveAbsences int, lateRate float64) string {
	switch {
	case rate < 70 || consecutiveAbsences >= 3:
		return RiskHigh
	case rate < 85 || consecutiveAbsences >= 2 || lateRate > 20:
		return RiskMedium
	}
	return RiskLow
}
