package report_test

import (
	"context"
	"encoding/csv"
	"net/mail"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/report"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

type fixtures struct {
	svc    *report.Service
	attSvc *attendance.Service

	admin   user.User
	teacher user.User
	stdUsr  user.User
	std     school.Student
	std2    school.Student
	class   school.Class
	sess    session.Session
	from    time.Time
	to      time.Time
}

func setup(t *testing.T) fixtures {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)
	schoolSvc := school.NewService(schoolRepo)
	usrSvc := user.NewService(usrRepo)
	sessionSvc := session.NewService(dummydb.NewSessionRepository(db), schoolSvc, usrSvc)
	attRepo := dummydb.NewAttendanceRepository(db)
	attSvc := attendance.NewService(attRepo, sessionSvc, schoolSvc)
	mailSvc := emailsvc.NewConsoleServiceMock()
	svc := report.NewService(
		dummydb.NewReportRepository(db), attRepo, schoolSvc, sessionSvc, usrSvc, mailSvc, t.TempDir())

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "pwd", user.AdminRoles, true)
	tchrUsr := testutil.CreateUser(t, usrRepo, "Teacher One", "teach1", "t1@test.cd", "pwd", user.TeacherRoles, true)
	stdUsr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane01", "jane@test.cd", "pwd", user.StudentRoles, true)

	sub := testutil.CreateSubject(t, schoolRepo, "Algebra", "MATH101")
	tchr := testutil.CreateTeacher(t, schoolRepo, tchrUsr.ID, "EMP001")
	class := testutil.CreateClass(t, schoolRepo, "Algebra A", sub.ID, tchr.ID, 0)
	std := testutil.CreateStudent(t, schoolRepo, "S001", "Jane", "Doe", "jane@test.cd")
	std2 := testutil.CreateStudent(t, schoolRepo, "S002", "John", "Doe", "john@test.cd")
	testutil.Enroll(t, schoolRepo, class.ID, std.ID)
	testutil.Enroll(t, schoolRepo, class.ID, std2.ID)

	ctx := context.Background()
	sess, err := sessionSvc.Start(ctx, tchrUsr, session.StartSession{ClassID: class.ID})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if _, err = attSvc.Mark(ctx, tchrUsr, attendance.MarkAttendance{
		SessionID: sess.ID, StudentID: std.ID, Status: attendance.StatusPresent, Notes: "on time",
	}); err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}

	now := time.Now().UTC()
	return fixtures{
		svc:     svc,
		attSvc:  attSvc,
		admin:   admin,
		teacher: tchrUsr,
		stdUsr:  stdUsr,
		std:     std,
		std2:    std2,
		class:   class,
		sess:    sess,
		from:    now.Add(-24 * time.Hour),
		to:      now.Add(24 * time.Hour),
	}
}

func TestService_Generate_studentCSV(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	rep, err := fx.svc.Generate(ctx, fx.teacher, report.NewReport{
		Type: report.TypeStudent, TargetID: fx.std.ID, Format: report.FormatCSV, From: fx.from, To: fx.to,
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if rep.Status != report.StatusCompleted {
		t.Fatalf("Generate().Status = %s (%s), want COMPLETED", rep.Status, rep.ErrorMessage)
	}
	if rep.CompletedAt == nil {
		t.Error("Generate().CompletedAt = nil, want set")
	}

	f, err := os.Open(rep.FilePath)
	if err != nil {
		t.Fatalf("opening report file failed: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // title/header rows have fewer fields than records
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("reading report file failed: %v", err)
	}
	// title row, header row, one record
	if len(rows) != 3 {
		t.Fatalf("report has %d rows, want 3", len(rows))
	}
	if rows[0][1] != "Jane Doe" {
		t.Errorf("report title = %v, want student name Jane Doe", rows[0])
	}
	last := rows[2]
	if last[1] != "Algebra A" || last[3] != attendance.StatusPresent || last[5] != "Teacher One" {
		t.Errorf("report record = %v, want class/status/marker filled in", last)
	}
}

func TestService_Generate_classCSV(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	rep, err := fx.svc.Generate(ctx, fx.admin, report.NewReport{
		Type: report.TypeClass, TargetID: fx.class.ID, Format: report.FormatCSV, From: fx.from, To: fx.to,
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if rep.Status != report.StatusCompleted {
		t.Fatalf("Generate().Status = %s (%s), want COMPLETED", rep.Status, rep.ErrorMessage)
	}

	f, err := os.Open(rep.FilePath)
	if err != nil {
		t.Fatalf("opening report file failed: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // title/header rows have fewer fields than records
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("reading report file failed: %v", err)
	}
	// title row, header row, one aggregated row per enrolled student
	if len(rows) != 4 {
		t.Fatalf("report has %d rows, want 4", len(rows))
	}
	if rows[0][1] != "Algebra A" {
		t.Errorf("report title = %v, want class name Algebra A", rows[0])
	}
	byNo := map[string][]string{rows[2][0]: rows[2], rows[3][0]: rows[3]}
	marked, ok := byNo["S001"]
	if !ok {
		t.Fatalf("report rows = %v, want a row for S001", rows[2:])
	}
	if marked[1] != "Jane Doe" || marked[3] != "1" || marked[4] != "1" || marked[7] != "100.00" {
		t.Errorf("aggregated row = %v, want 1 session marked, 1 present, rate 100.00", marked)
	}
	unmarked, ok := byNo["S002"]
	if !ok {
		t.Fatalf("report rows = %v, want a row for S002", rows[2:])
	}
	if unmarked[3] != "0" || unmarked[7] != "0.00" {
		t.Errorf("aggregated row = %v, want nothing marked and rate 0.00", unmarked)
	}
}

func TestService_Generate_validation(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	nr := report.NewReport{
		Type: report.TypeStudent, TargetID: fx.std.ID, Format: report.FormatCSV, From: fx.from, To: fx.to,
	}

	// only CSV is supported
	bad := nr
	bad.Format = "PDF"
	_, err := fx.svc.Generate(ctx, fx.teacher, bad)
	if _, ok := errors.Cause(err).(*core.UnsupportedFormatError); !ok {
		t.Errorf("Generate() error = %v, want UnsupportedFormatError", err)
	}

	// format is case-insensitive
	lower := nr
	lower.Format = "csv"
	rep, err := fx.svc.Generate(ctx, fx.teacher, lower)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if rep.Format != report.FormatCSV {
		t.Errorf("Generate().Format = %s, want %s", rep.Format, report.FormatCSV)
	}

	// inverted date range
	bad = nr
	bad.From, bad.To = bad.To, bad.From
	if _, err = fx.svc.Generate(ctx, fx.teacher, bad); err == nil {
		t.Error("Generate() expected validation error for inverted range, got nil")
	}

	// unknown target fails fast, no report record is left behind
	bad = nr
	bad.TargetID = "nope"
	if _, err = fx.svc.Generate(ctx, fx.teacher, bad); !core.IsNotFound(err) {
		t.Errorf("Generate() error = %v, want NotFoundError", err)
	}
	reps, err := fx.svc.Query(ctx, fx.admin)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(reps) != 0 {
		t.Errorf("Query() returned %d reports after failed generates, want 0", len(reps))
	}
}

func TestService_Generate_authz(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	// students may only generate their own reports
	if _, err := fx.svc.Generate(ctx, fx.stdUsr, report.NewReport{
		Type: report.TypeStudent, TargetID: fx.std2.ID, Format: report.FormatCSV, From: fx.from, To: fx.to,
	}); !core.IsForbidden(err) {
		t.Errorf("Generate() error = %v, want ForbiddenError", err)
	}
	if _, err := fx.svc.Generate(ctx, fx.stdUsr, report.NewReport{
		Type: report.TypeStudent, TargetID: fx.std.ID, Format: report.FormatCSV, From: fx.from, To: fx.to,
	}); err != nil {
		t.Errorf("Generate() failed for own report: %v", err)
	}

	// students may not generate class reports
	if _, err := fx.svc.Generate(ctx, fx.stdUsr, report.NewReport{
		Type: report.TypeClass, TargetID: fx.class.ID, Format: report.FormatCSV, From: fx.from, To: fx.to,
	}); !core.IsForbidden(err) {
		t.Errorf("Generate() error = %v, want ForbiddenError", err)
	}
}

func TestService_DownloadAndQuery(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	rep, err := fx.svc.Generate(ctx, fx.teacher, report.NewReport{
		Type: report.TypeStudent, TargetID: fx.std.ID, Format: report.FormatCSV, From: fx.from, To: fx.to,
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	// requester-only access
	if _, err = fx.svc.GetByID(ctx, fx.stdUsr, rep.ID); !core.IsForbidden(err) {
		t.Errorf("GetByID() error = %v, want ForbiddenError", err)
	}
	if _, err = fx.svc.GetByID(ctx, fx.admin, rep.ID); err != nil {
		t.Errorf("GetByID() failed for admin: %v", err)
	}

	dl, err := fx.svc.Download(ctx, fx.teacher, rep.ID)
	if err != nil {
		t.Fatalf("Download() failed: %v", err)
	}
	if !strings.HasSuffix(dl.FilePath, rep.ID+".csv") {
		t.Errorf("Download().FilePath = %s, want %s.csv", dl.FilePath, rep.ID)
	}

	// admins see all, requesters only their own
	reps, err := fx.svc.Query(ctx, fx.admin)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(reps) != 1 {
		t.Errorf("Query() returned %d reports, want 1", len(reps))
	}
	reps, err = fx.svc.Query(ctx, fx.stdUsr)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(reps) != 0 {
		t.Errorf("Query() returned %d reports for non-requester, want 0", len(reps))
	}
}

func TestService_EmailReport(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	emailsvc.ClearSentMessages()

	rep, err := fx.svc.Generate(ctx, fx.teacher, report.NewReport{
		Type: report.TypeStudent, TargetID: fx.std.ID, Format: report.FormatCSV, From: fx.from, To: fx.to,
	})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	recipient := mail.Address{Name: "Jane Doe", Address: "jane@test.cd"}
	if err = fx.svc.EmailReport(ctx, fx.teacher, rep.ID, recipient); err != nil {
		t.Fatalf("EmailReport() failed: %v", err)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if len(msg.Attachments) != 1 || msg.Attachments[0].ContentType != "text/csv" {
		t.Errorf("message attachments = %+v, want one text/csv file", msg.Attachments)
	}
	if msg.To[0].Address != "jane@test.cd" {
		t.Errorf("message recipient = %v, want jane@test.cd", msg.To)
	}
}
