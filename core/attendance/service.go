package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

var ErrNotFound = errors.New("attendance record not found")

type Repository interface {
	// UpsertAttendance inserts the record or, if one already exists for
	// (session, student), overwrites its status, notes, marker and timestamps.
	// It returns the stored record.
	UpsertAttendance(ctx context.Context, rec Record) (Record, error)
	GetAttendanceByID(ctx context.Context, id string) (Record, error)
	UpdateAttendance(ctx context.Context, rec Record) error
	QuerySessionAttendance(ctx context.Context, sessionID string) ([]Record, error)
	// QueryStudentAttendance returns the student's records, most recent first.
	QueryStudentAttendance(ctx context.Context, studentID string, filter StudentFilter) ([]Record, error)
	QueryClassAttendance(ctx context.Context, classID string, from, to *time.Time) ([]Record, error)
}

// SessionDirectory is the slice of the session service attendance depends on.
type SessionDirectory interface {
	GetByID(ctx context.Context, id string) (session.Session, error)
}

// EnrollmentDirectory answers membership questions about classes and
// resolves student records.
type EnrollmentDirectory interface {
	IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error)
	CountClassStudents(ctx context.Context, classID string) (int, error)
	GetStudent(ctx context.Context, id string) (school.Student, error)
}

type Service struct {
	repo        Repository
	sessions    SessionDirectory
	enrollments EnrollmentDirectory
}

func NewService(repo Repository, sessions SessionDirectory, enrollments EnrollmentDirectory) *Service {
	return &Service{repo: repo, sessions: sessions, enrollments: enrollments}
}

func canMark(actor user.User, sess session.Session) bool {
	return actor.IsAdmin() || (actor.IsTeacher() && sess.TeacherUserID == actor.ID)
}

// Mark records a student's attendance for a session. Re-marking the same
// student overwrites the previous record. Sessions that have ended are
// locked; students not enrolled in the session's class are rejected.
func (svc *Service) Mark(ctx context.Context, actor user.User, ma MarkAttendance) (Record, error) {
	if err := ma.Validate(); err != nil {
		return Record{}, err
	}
	sess, err := svc.sessions.GetByID(ctx, ma.SessionID)
	if err != nil {
		return Record{}, err
	}
	if !sess.IsActive() {
		return Record{}, core.NewLockedError("attendance is locked for ended sessions")
	}
	enrolled, err := svc.enrollments.IsStudentEnrolled(ctx, sess.ClassID, ma.StudentID)
	if err != nil {
		return Record{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Record{}, core.NewNotEnrolledError("student is not enrolled in this class")
	}
	if !canMark(actor, sess) {
		return Record{}, core.NewForbiddenError("only the session teacher or an admin may mark attendance")
	}

	now := time.Now().UTC()
	rec := Record{
		ID:        uuid.New().String(),
		SessionID: ma.SessionID,
		StudentID: ma.StudentID,
		Status:    ma.Status,
		Notes:     ma.Notes,
		MarkedBy:  actor.ID,
		MarkedAt:  now,
		UpdatedAt: now,
	}
	rec, err = svc.repo.UpsertAttendance(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "upserting attendance")
	}
	return rec, nil
}

// BulkMark records attendance for many students of one session in a single
// call. Session-level failures (unknown session, locked session, missing
// permission) abort the whole batch; per-record failures (unknown student,
// bad status) are collected in the result without affecting other records.
func (svc *Service) BulkMark(ctx context.Context, actor user.User, bma BulkMarkAttendance) (BulkResult, error) {
	if err := bma.Validate(); err != nil {
		return BulkResult{}, err
	}
	sess, err := svc.sessions.GetByID(ctx, bma.SessionID)
	if err != nil {
		return BulkResult{}, err
	}
	if !sess.IsActive() {
		return BulkResult{}, core.NewLockedError("attendance is locked for ended sessions")
	}
	if !canMark(actor, sess) {
		return BulkResult{}, core.NewForbiddenError("only the session teacher or an admin may mark attendance")
	}

	var res BulkResult
	now := time.Now().UTC()
	for _, br := range bma.Records {
		if !validStatus(br.Status) {
			res.Failures = append(res.Failures, BulkFailure{StudentID: br.StudentID, Reason: attStatusText})
			continue
		}
		enrolled, err := svc.enrollments.IsStudentEnrolled(ctx, sess.ClassID, br.StudentID)
		if err != nil {
			return res, errors.Wrap(err, "checking enrollment")
		}
		if !enrolled {
			res.Failures = append(res.Failures, BulkFailure{StudentID: br.StudentID, Reason: "student is not enrolled in this class"})
			continue
		}
		rec := Record{
			ID:        uuid.New().String(),
			SessionID: bma.SessionID,
			StudentID: br.StudentID,
			Status:    br.Status,
			Notes:     br.Notes,
			MarkedBy:  actor.ID,
			MarkedAt:  now,
			UpdatedAt: now,
		}
		rec, err = svc.repo.UpsertAttendance(ctx, rec)
		if err != nil {
			return res, errors.Wrap(err, "upserting attendance")
		}
		res.Marked = append(res.Marked, rec)
	}
	return res, nil
}

// Update modifies an existing record's status and/or notes while its session
// is still active.
func (svc *Service) Update(ctx context.Context, actor user.User, id string, ua UpdateAttendance) (Record, error) {
	if err := ua.Validate(); err != nil {
		return Record{}, err
	}
	rec, err := svc.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	sess, err := svc.sessions.GetByID(ctx, rec.SessionID)
	if err != nil {
		return Record{}, err
	}
	if !sess.IsActive() {
		return Record{}, core.NewLockedError("attendance is locked for ended sessions")
	}
	if !canMark(actor, sess) {
		return Record{}, core.NewForbiddenError("only the session teacher or an admin may update attendance")
	}

	if ua.Status != "" {
		rec.Status = ua.Status
	}
	if ua.Notes != nil {
		rec.Notes = *ua.Notes
	}
	rec.MarkedBy = actor.ID
	rec.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateAttendance(ctx, rec); err != nil {
		return Record{}, errors.Wrapf(err, "updating attendance %s", id)
	}
	return rec, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Record, error) {
	rec, err := svc.repo.GetAttendanceByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Record{}, core.NewNotFoundError("attendance record not found")
		}
		return Record{}, errors.Wrapf(err, "getting attendance %s", id)
	}
	return rec, nil
}

// SessionAttendance lists all records for a session.
func (svc *Service) SessionAttendance(ctx context.Context, sessionID string) ([]Record, error) {
	if _, err := svc.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	recs, err := svc.repo.QuerySessionAttendance(ctx, sessionID)
	return recs, errors.Wrapf(err, "querying attendance for session %s", sessionID)
}

// StudentAttendance lists a student's records, most recent first. Students
// may only view their own history.
func (svc *Service) StudentAttendance(ctx context.Context, actor user.User, studentID string, filter StudentFilter) ([]Record, error) {
	if actor.IsStudent() && !actor.IsAdmin() && !actor.IsTeacher() {
		std, err := svc.enrollments.GetStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		if std.Email != actor.Email {
			return nil, core.NewForbiddenError("students may only view their own attendance")
		}
	}
	recs, err := svc.repo.QueryStudentAttendance(ctx, studentID, filter)
	return recs, errors.Wrapf(err, "querying attendance for student %s", studentID)
}

// SessionStats computes marking progress and the session attendance rate.
func (svc *Service) SessionStats(ctx context.Context, sessionID string) (SessionStats, error) {
	sess, err := svc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return SessionStats{}, err
	}
	recs, err := svc.repo.QuerySessionAttendance(ctx, sessionID)
	if err != nil {
		return SessionStats{}, errors.Wrapf(err, "querying attendance for session %s", sessionID)
	}
	total, err := svc.enrollments.CountClassStudents(ctx, sess.ClassID)
	if err != nil {
		return SessionStats{}, errors.Wrapf(err, "counting students in class %s", sess.ClassID)
	}

	stats := SessionStats{SessionID: sessionID, TotalEnrolled: total}
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		case StatusLate:
			stats.Late++
		}
	}
	stats.Marked = len(recs)
	stats.NotMarked = total - stats.Marked
	if total > 0 {
		stats.AttendanceRate = core.Round2(float64(stats.Present+stats.Late) / float64(total) * 100)
	}
	return stats, nil
}
