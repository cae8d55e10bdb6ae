package analytics

import (
	"testing"

	"github.com/trezcool/mahudhurio/core/attendance"
)

var (
	p = attendance.StatusPresent
	a = attendance.StatusAbsent
	l = attendance.StatusLate
)

func TestRate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     float64
	}{
		{name: "no records", statuses: nil, want: 0},
		{name: "all present", statuses: []string{p, p, p}, want: 100},
		{name: "all absent", statuses: []string{a, a}, want: 0},
		{name: "late is not present", statuses: []string{p, l, a}, want: 33.33},
		{name: "two thirds", statuses: []string{p, p, a}, want: 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rate(tt.statuses); got != tt.want {
				t.Errorf("Rate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLateRate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     float64
	}{
		{name: "no records", statuses: nil, want: 0},
		{name: "no lates", statuses: []string{p, a}, want: 0},
		{name: "one of four", statuses: []string{p, l, p, p}, want: 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LateRate(tt.statuses); got != tt.want {
				t.Errorf("LateRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func rep(status string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = status
	}
	return out
}

func seq(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{name: "too few records", statuses: []string{p, p, a}, want: TrendInsufficientData},
		{name: "one window but no previous records", statuses: rep(p, 10), want: TrendInsufficientData},
		{name: "improving", statuses: seq(rep(p, 6), rep(a, 4), rep(p, 9), rep(a, 1)), want: TrendImproving},
		{name: "declining", statuses: seq(rep(p, 9), rep(a, 1), rep(p, 6), rep(a, 4)), want: TrendDeclining},
		{name: "stable", statuses: seq(rep(p, 5), rep(a, 5), rep(p, 5), rep(a, 5)), want: TrendStable},
		{name: "partial previous window", statuses: seq(rep(a, 2), rep(p, 5), rep(a, 5)), want: TrendImproving},
		{name: "records beyond both windows ignored", statuses: seq(rep(p, 5), rep(a, 10), rep(p, 10)), want: TrendImproving},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(tt.statuses, defaultTrendWindow); got != tt.want {
				t.Errorf("Trend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func repf(rate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rate
	}
	return out
}

func TestClassTrend(t *testing.T) {
	tests := []struct {
		name  string
		rates []float64
		want  string
	}{
		{name: "too few sessions", rates: repf(100, 9), want: TrendInsufficientData},
		{name: "one window but no previous sessions", rates: repf(40, 10), want: TrendStable},
		{name: "improving", rates: append(repf(60, 10), repf(90, 10)...), want: TrendImproving},
		{name: "declining", rates: append(repf(90, 10), repf(60, 10)...), want: TrendDeclining},
		{name: "within threshold", rates: append(repf(80, 10), repf(81.5, 10)...), want: TrendStable},
		{name: "sessions beyond both windows ignored", rates: append(repf(0, 5), append(repf(60, 10), repf(90, 10)...)...), want: TrendImproving},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classTrend(tt.rates); got != tt.want {
				t.Errorf("classTrend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsecutiveAbsences(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     int
	}{
		{name: "no records", statuses: nil, want: 0},
		{name: "none trailing", statuses: []string{a, a, p}, want: 0},
		{name: "late resets streak", statuses: []string{a, l, a, a}, want: 2},
		{name: "all absent", statuses: []string{a, a, a, a}, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConsecutiveAbsences(tt.statuses); got != tt.want {
				t.Errorf("ConsecutiveAbsences() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		consec   int
		lateRate float64
		want     string
	}{
		{name: "low rate", rate: 69.99, want: RiskHigh},
		{name: "long absence streak", rate: 95, consec: 3, want: RiskHigh},
		{name: "middling rate", rate: 84.99, want: RiskMedium},
		{name: "short absence streak", rate: 95, consec: 2, want: RiskMedium},
		{name: "chronically late", rate: 95, lateRate: 20.01, want: RiskMedium},
		{name: "healthy", rate: 95, consec: 1, lateRate: 10, want: RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RiskLevel(tt.rate, tt.consec, tt.lateRate); got != tt.want {
				t.Errorf("RiskLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
