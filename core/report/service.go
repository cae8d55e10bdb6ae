package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

var ErrNotFound = errors.New("report not found")

type Repository interface {
	CreateReport(ctx context.Context, rep Report) error
	GetReportByID(ctx context.Context, id string) (Report, error)
	UpdateReport(ctx context.Context, rep Report) error
	QueryReports(ctx context.Context, requestedBy string, ordering ...core.DBOrdering) ([]Report, error)
}

// RecordSource provides the attendance records a report is built from.
type RecordSource interface {
	QueryStudentAttendance(ctx context.Context, studentID string, filter attendance.StudentFilter) ([]attendance.Record, error)
	QueryClassAttendance(ctx context.Context, classID string, from, to *time.Time) ([]attendance.Record, error)
}

// Registry is the slice of the school registry reports depend on.
type Registry interface {
	GetStudent(ctx context.Context, id string) (school.Student, error)
	GetClass(ctx context.Context, id string) (school.Class, error)
	GetTeacher(ctx context.Context, id string) (school.TeacherProfile, error)
	QueryClassEnrollments(ctx context.Context, classID string) ([]school.Enrollment, error)
}

// SessionDirectory resolves sessions referenced by attendance records.
type SessionDirectory interface {
	GetByID(ctx context.Context, id string) (session.Session, error)
}

// UserDirectory resolves the users that marked attendance.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Service struct {
	repo     Repository
	records  RecordSource
	registry Registry
	sessions SessionDirectory
	users    UserDirectory
	mailSvc  core.EmailService
	dir      string
}

func NewService(repo Repository, records RecordSource, registry Registry, sessions SessionDirectory,
	users UserDirectory, mailSvc core.EmailService, dir string) *Service {

	return &Service{
		repo:     repo,
		records:  records,
		registry: registry,
		sessions: sessions,
		users:    users,
		mailSvc:  mailSvc,
		dir:      dir,
	}
}

func (svc *Service) authorize(ctx context.Context, actor user.User, typ, targetID string) error {
	if actor.IsAdmin() {
		return nil
	}
	switch typ {
	case TypeClass:
		if !actor.IsTeacher() {
			return core.NewForbiddenError("only the class teacher or an admin may generate class reports")
		}
		class, err := svc.registry.GetClass(ctx, targetID)
		if err != nil {
			return err
		}
		t, err := svc.registry.GetTeacher(ctx, class.TeacherID)
		if err != nil {
			return err
		}
		if t.UserID != actor.ID {
			return core.NewForbiddenError("only the class teacher or an admin may generate class reports")
		}
	case TypeStudent:
		if actor.IsTeacher() {
			return nil
		}
		std, err := svc.registry.GetStudent(ctx, targetID)
		if err != nil {
			return err
		}
		if std.Email != actor.Email {
			return core.NewForbiddenError("students may only generate their own reports")
		}
	}
	return nil
}

// Generate creates a report record, builds the CSV file and marks the record
// COMPLETED. Generation failures are recorded on the report as FAILED with
// the error message rather than returned to the caller.
func (svc *Service) Generate(ctx context.Context, actor user.User, nr NewReport) (Report, error) {
	if err := nr.Validate(); err != nil {
		return Report{}, err
	}
	if err := svc.authorize(ctx, actor, nr.Type, nr.TargetID); err != nil {
		return Report{}, err
	}
	// fail fast on unknown targets
	switch nr.Type {
	case TypeStudent:
		if _, err := svc.registry.GetStudent(ctx, nr.TargetID); err != nil {
			return Report{}, err
		}
	case TypeClass:
		if _, err := svc.registry.GetClass(ctx, nr.TargetID); err != nil {
			return Report{}, err
		}
	}

	rep := Report{
		ID:          uuid.New().String(),
		Type:        nr.Type,
		TargetID:    nr.TargetID,
		Format:      nr.Format,
		From:        nr.From,
		To:          nr.To,
		Status:      StatusPending,
		RequestedBy: actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := svc.repo.CreateReport(ctx, rep); err != nil {
		return Report{}, errors.Wrap(err, "creating report")
	}

	path, err := svc.writeCSV(ctx, rep)
	now := time.Now().UTC()
	if err != nil {
		rep.Status = StatusFailed
		rep.ErrorMessage = err.Error()
	} else {
		rep.Status = StatusCompleted
		rep.FilePath = path
		rep.CompletedAt = &now
	}
	if err := svc.repo.UpdateReport(ctx, rep); err != nil {
		return Report{}, errors.Wrapf(err, "updating report %s", rep.ID)
	}
	return rep, nil
}

func (svc *Service) writeCSV(ctx context.Context, rep Report) (string, error) {
	var rows [][]string
	var err error
	switch rep.Type {
	case TypeStudent:
		rows, err = svc.studentRows(ctx, rep)
	case TypeClass:
		rows, err = svc.classRows(ctx, rep)
	}
	if err != nil {
		return "", err
	}

	if err = os.MkdirAll(svc.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating reports dir")
	}
	path := filepath.Join(svc.dir, rep.ID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating report file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err = w.WriteAll(rows); err != nil {
		return "", errors.Wrap(err, "writing report file")
	}
	return path, nil
}

func (svc *Service) studentRows(ctx context.Context, rep Report) ([][]string, error) {
	std, err := svc.registry.GetStudent(ctx, rep.TargetID)
	if err != nil {
		return nil, err
	}
	recs, err := svc.records.QueryStudentAttendance(ctx, rep.TargetID, attendance.StudentFilter{From: &rep.From, To: &rep.To})
	if err != nil {
		return nil, err
	}

	rows := [][]string{
		{"Student", std.FullName(), "Student No", std.StudentNo},
		{"Date", "Class", "Subject", "Status", "Notes", "Marked By"},
	}
	for _, rec := range recs {
		sess, err := svc.sessions.GetByID(ctx, rec.SessionID)
		if err != nil {
			return nil, err
		}
		marker, err := svc.markerName(ctx, rec.MarkedBy)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			sess.StartTime.Format("2006-01-02"),
			sess.ClassName,
			sess.SubjectName,
			rec.Status,
			rec.Notes,
			marker,
		})
	}
	return rows, nil
}

// classRows aggregates attendance per enrolled student over the report period.
func (svc *Service) classRows(ctx context.Context, rep Report) ([][]string, error) {
	class, err := svc.registry.GetClass(ctx, rep.TargetID)
	if err != nil {
		return nil, err
	}
	enrollments, err := svc.registry.QueryClassEnrollments(ctx, rep.TargetID)
	if err != nil {
		return nil, err
	}
	recs, err := svc.records.QueryClassAttendance(ctx, rep.TargetID, &rep.From, &rep.To)
	if err != nil {
		return nil, err
	}

	type tally struct{ total, present, absent, late int }
	tallies := make(map[string]*tally, len(enrollments))
	for _, rec := range recs {
		tl, ok := tallies[rec.StudentID]
		if !ok {
			tl = &tally{}
			tallies[rec.StudentID] = tl
		}
		tl.total++
		switch rec.Status {
		case attendance.StatusPresent:
			tl.present++
		case attendance.StatusAbsent:
			tl.absent++
		case attendance.StatusLate:
			tl.late++
		}
	}

	rows := [][]string{
		{"Class", class.Name, "Academic Year", class.AcademicYear, "Semester", class.Semester},
		{"Student No", "Student", "Email", "Sessions Marked", "Present", "Absent", "Late", "Attendance Rate (%)"},
	}
	for _, e := range enrollments {
		std, err := svc.registry.GetStudent(ctx, e.StudentID)
		if err != nil {
			return nil, err
		}
		tl := tallies[e.StudentID]
		if tl == nil {
			tl = &tally{}
		}
		var rate float64
		if tl.total > 0 {
			rate = core.Round2(float64(tl.present) / float64(tl.total) * 100)
		}
		rows = append(rows, []string{
			std.StudentNo,
			std.FullName(),
			std.Email,
			strconv.Itoa(tl.total),
			strconv.Itoa(tl.present),
			strconv.Itoa(tl.absent),
			strconv.Itoa(tl.late),
			fmt.Sprintf("%.2f", rate),
		})
	}
	return rows, nil
}

func (svc *Service) markerName(ctx context.Context, userID string) (string, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return "", errors.Wrapf(err, "getting user %s", userID)
	}
	return usr.Name, nil
}

func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Report, error) {
	rep, err := svc.repo.GetReportByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Report{}, core.NewNotFoundError("report not found")
		}
		return Report{}, errors.Wrapf(err, "getting report %s", id)
	}
	if !actor.IsAdmin() && rep.RequestedBy != actor.ID {
		return Report{}, core.NewForbiddenError("reports may only be accessed by their requester")
	}
	return rep, nil
}

// Download returns the file path of a COMPLETED report.
func (svc *Service) Download(ctx context.Context, actor user.User, id string) (Report, error) {
	rep, err := svc.GetByID(ctx, actor, id)
	if err != nil {
		return Report{}, err
	}
	if rep.Status != StatusCompleted {
		return Report{}, core.NewConflictError("report is not ready for download")
	}
	return rep, nil
}

func (svc *Service) Query(ctx context.Context, actor user.User) ([]Report, error) {
	requestedBy := actor.ID
	if actor.IsAdmin() {
		requestedBy = "" // admins see all reports
	}
	reps, err := svc.repo.QueryReports(ctx, requestedBy, core.DBOrdering{Field: "created_at"})
	return reps, errors.Wrap(err, "querying reports")
}

// EmailReport sends a COMPLETED report as an attachment to the recipient.
func (svc *Service) EmailReport(ctx context.Context, actor user.User, id string, recipient mail.Address) error {
	rep, err := svc.Download(ctx, actor, id)
	if err != nil {
		return err
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{recipient},
		Subject: fmt.Sprintf("%s - Attendance Report (%s - %s)", core.Conf.AppName, rep.From.Format("2006-01-02"), rep.To.Format("2006-01-02")),
		BodyStr: "Please find the requested attendance report attached.",
	}
	if err = msg.AttachFile(rep.FilePath, "text/csv"); err != nil {
		return errors.Wrapf(err, "attaching report %s", id)
	}
	if err = svc.mailSvc.SendMessage(msg); err != nil {
		return errors.Wrapf(err, "sending report %s", id)
	}
	return nil
}
