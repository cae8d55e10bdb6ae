package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/user"
)

const (
	classTrendThreshold = 2.0 // percentage points
	classTrendWindow    = 10  // sessions per compared period
)

// StudentStats aggregates one student's attendance history.
type StudentStats struct {
	StudentID           string  `json:"student_id"`
	StudentName         string  `json:"student_name"`
	TotalSessions       int     `json:"total_sessions"`
	Present             int     `json:"present"`
	Absent              int     `json:"absent"`
	Late                int     `json:"late"`
	AttendanceRate      float64 `json:"attendance_rate"`
	LateRate            float64 `json:"late_rate"`
	Trend               string  `json:"trend"`
	ConsecutiveAbsences int     `json:"consecutive_absences"`
	RiskLevel           string  `json:"risk_level"`
}

// StudentSummary is a compact per-student line in a class overview.
type StudentSummary struct {
	StudentID      string  `json:"student_id"`
	StudentName    string  `json:"student_name"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// ClassOverview aggregates a class's attendance across its sessions and
// partitions students into attention groups.
type ClassOverview struct {
	ClassID               string           `json:"class_id"`
	ClassName             string           `json:"class_name"`
	TotalSessions         int              `json:"total_sessions"`
	AverageAttendanceRate float64          `json:"average_attendance_rate"`
	Trend                 string           `json:"trend"`
	ChronicAbsentees      []StudentSummary `json:"chronic_absentees"`
	AtRiskStudents        []StudentSummary `json:"at_risk_students"`
	PerfectAttendance     []StudentSummary `json:"perfect_attendance"`
}

type Filter struct {
	From *time.Time `query:"from"`
	To   *time.Time `query:"to"`
}

// RecordSource provides the raw attendance records analytics are computed
// from.
type RecordSource interface {
	QueryStudentAttendance(ctx context.Context, studentID string, filter attendance.StudentFilter) ([]attendance.Record, error)
	QueryClassAttendance(ctx context.Context, classID string, from, to *time.Time) ([]attendance.Record, error)
}

// Registry is the slice of the school registry analytics depend on.
type Registry interface {
	GetStudent(ctx context.Context, id string) (school.Student, error)
	GetClass(ctx context.Context, id string) (school.Class, error)
	GetTeacher(ctx context.Context, id string) (school.TeacherProfile, error)
	QueryClassEnrollments(ctx context.Context, classID string) ([]school.Enrollment, error)
}

type Service struct {
	records  RecordSource
	registry Registry
}

func NewService(records RecordSource, registry Registry) *Service {
	return &Service{records: records, registry: registry}
}

// StudentStats computes a student's aggregate attendance figures. Teachers
// and admins may view any student; students only themselves.
func (svc *Service) StudentStats(ctx context.Context, actor user.User, studentID string, filter Filter) (StudentStats, error) {
	std, err := svc.registry.GetStudent(ctx, studentID)
	if err != nil {
		return StudentStats{}, err
	}
	if actor.IsStudent() && !actor.IsAdmin() && !actor.IsTeacher() && std.Email != actor.Email {
		return StudentStats{}, core.NewForbiddenError("students may only view their own analytics")
	}

	recs, err := svc.records.QueryStudentAttendance(ctx, studentID, attendance.StudentFilter{From: filter.From, To: filter.To})
	if err != nil {
		return StudentStats{}, errors.Wrapf(err, "querying attendance for student %s", studentID)
	}
	// repo returns most recent first; analytics want chronological order
	statuses := make([]string, len(recs))
	for i, rec := range recs {
		statuses[len(recs)-1-i] = rec.Status
	}

	stats := StudentStats{
		StudentID:           std.ID,
		StudentName:         std.FullName(),
		TotalSessions:       len(statuses),
		AttendanceRate:      Rate(statuses),
		LateRate:            LateRate(statuses),
		Trend:               Trend(statuses, defaultTrendWindow),
		ConsecutiveAbsences: ConsecutiveAbsences(statuses),
	}
	for _, s := range statuses {
		switch s {
		case attendance.StatusPresent:
			stats.Present++
		case attendance.StatusAbsent:
			stats.Absent++
		case attendance.StatusLate:
			stats.Late++
		}
	}
	stats.RiskLevel = RiskLevel(stats.AttendanceRate, stats.ConsecutiveAbsences, stats.LateRate)
	return stats, nil
}

// ClassOverview computes aggregate figures for a class. Admins may view any
// class; teachers only their own.
func (svc *Service) ClassOverview(ctx context.Context, actor user.User, classID string, filter Filter) (ClassOverview, error) {
	class, err := svc.registry.GetClass(ctx, classID)
	if err != nil {
		return ClassOverview{}, err
	}
	if !actor.IsAdmin() {
		if !actor.IsTeacher() {
			return ClassOverview{}, core.NewForbiddenError("only the class teacher or an admin may view class analytics")
		}
		t, err := svc.registry.GetTeacher(ctx, class.TeacherID)
		if err != nil {
			return ClassOverview{}, err
		}
		if t.UserID != actor.ID {
			return ClassOverview{}, core.NewForbiddenError("only the class teacher or an admin may view class analytics")
		}
	}

	recs, err := svc.records.QueryClassAttendance(ctx, classID, filter.From, filter.To)
	if err != nil {
		return ClassOverview{}, errors.Wrapf(err, "querying attendance for class %s", classID)
	}

	overview := ClassOverview{ClassID: class.ID, ClassName: class.Name}
	sessionRates := perSessionRates(recs)
	overview.TotalSessions = len(sessionRates)
	if len(sessionRates) > 0 {
		var sum float64
		for _, r := range sessionRates {
			sum += r
		}
		overview.AverageAttendanceRate = core.Round2(sum / float64(len(sessionRates)))
	}
	overview.Trend = classTrend(sessionRates)

	if err = svc.partitionStudents(ctx, &overview, recs); err != nil {
		return ClassOverview{}, err
	}
	return overview, nil
}

// perSessionRates groups records by session and returns each session's
// present-rate, ordered by the session's earliest mark time.
func perSessionRates(recs []attendance.Record) []float64 {
	type bucket struct {
		first    time.Time
		statuses []string
	}
	buckets := make(map[string]*bucket)
	for _, rec := range recs {
		b, ok := buckets[rec.SessionID]
		if !ok {
			b = &bucket{first: rec.MarkedAt}
			buckets[rec.SessionID] = b
		}
		if rec.MarkedAt.Before(b.first) {
			b.first = rec.MarkedAt
		}
		b.statuses = append(b.statuses, rec.Status)
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].first.Before(ordered[j].first) })

	rates := make([]float64, len(ordered))
	for i, b := range ordered {
		rates[i] = Rate(b.statuses)
	}
	return rates
}

// classTrend compares the average rate of the 10 most recent sessions against
// the up-to-10 sessions preceding them (rates ordered oldest first); swings
// beyond 2 percentage points are reported. Fewer than 10 sessions is not
// enough data; with no preceding sessions the trend is stable.
func classTrend(rates []float64) string {
	if len(rates) < classTrendWindow {
		return TrendInsufficientData
	}
	recent := rates[len(rates)-classTrendWindow:]
	prevStart := 0
	if len(rates) > 2*classTrendWindow {
		prevStart = len(rates) - 2*classTrendWindow
	}
	previous := rates[prevStart : len(rates)-classTrendWindow]
	recentAvg := mean(recent)
	previousAvg := recentAvg
	if len(previous) > 0 {
		previousAvg = mean(previous)
	}
	switch {
	case recentAvg-previousAvg > classTrendThreshold:
		return TrendImproving
	case previousAvg-recentAvg > classTrendThreshold:
		return TrendDeclining
	}
	return TrendStable
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// partitionStudents fills the overview's attention groups from per-student
// attendance rates over the class's records.
func (svc *Service) partitionStudents(ctx context.Context, overview *ClassOverview, recs []attendance.Record) error {
	enrollments, err := svc.registry.QueryClassEnrollments(ctx, overview.ClassID)
	if err != nil {
		return errors.Wrapf(err, "querying enrollments for class %s", overview.ClassID)
	}

	byStudent := make(map[string][]string)
	for _, rec := range recs {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec.Status)
	}

	for _, e := range enrollments {
		statuses, ok := byStudent[e.StudentID]
		if !ok {
			continue
		}
		std, err := svc.registry.GetStudent(ctx, e.StudentID)
		if err != nil {
			return err
		}
		summary := StudentSummary{
			StudentID:      std.ID,
			StudentName:    std.FullName(),
			AttendanceRate: Rate(statuses),
		}
		switch {
		case summary.AttendanceRate < 70:
			overview.ChronicAbsentees = append(overview.ChronicAbsentees, summary)
		case summary.AttendanceRate < 85:
			overview.AtRiskStudents = append(overview.AtRiskStudents, summary)
		case summary.AttendanceRate == 100:
			overview.PerfectAttendance = append(overview.PerfectAttendance, summary)
		}
	}
	return nil
}
