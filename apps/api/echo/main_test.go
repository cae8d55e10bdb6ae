package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/analytics"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/report"
	"github.com/trezcool/mahudhurio/core/school"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

type testApp struct {
	server Server

	usrRepo    user.Repository
	schoolRepo school.Repository

	admin      user.User
	teacher    user.User
	teacher2   user.User
	stdUsr     user.User
	class      school.Class
	std        school.Student
	sessionSvc *session.Service
	attSvc     *attendance.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)
	usrSvc := user.NewService(usrRepo)
	schoolSvc := school.NewService(schoolRepo)
	sessionSvc := session.NewService(dummydb.NewSessionRepository(db), schoolSvc, usrSvc)
	attRepo := dummydb.NewAttendanceRepository(db)
	attSvc := attendance.NewService(attRepo, sessionSvc, schoolSvc)
	analyticsSvc := analytics.NewService(attRepo, schoolSvc)
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()
	reportSvc := report.NewService(
		dummydb.NewReportRepository(db), attRepo, schoolSvc, sessionSvc, usrSvc, mailSvc, t.TempDir())
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), mailSvc, logger, schoolSvc, attRepo)

	shutdown := make(chan os.Signal, 1)
	server := NewServer(":0", shutdown, &Deps{
		DisableReqLogs:  true,
		Logger:          logger,
		UserSvc:         usrSvc,
		SchoolSvc:       schoolSvc,
		SessionSvc:      sessionSvc,
		AttendanceSvc:   attSvc,
		AnalyticsSvc:    analyticsSvc,
		ReportSvc:       reportSvc,
		NotificationSvc: notifSvc,
	})

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "pwd", user.AdminRoles, true)
	tchrUsr := testutil.CreateUser(t, usrRepo, "Teacher One", "teach1", "t1@test.cd", "pwd", user.TeacherRoles, true)
	tchrUsr2 := testutil.CreateUser(t, usrRepo, "Teacher Two", "teach2", "t2@test.cd", "pwd", user.TeacherRoles, true)
	stdUsr := testutil.CreateUser(t, usrRepo, "Jane Doe", "jane01", "jane@test.cd", "pwd", user.StudentRoles, true)

	sub := testutil.CreateSubject(t, schoolRepo, "Algebra", "MATH101")
	tchr := testutil.CreateTeacher(t, schoolRepo, tchrUsr.ID, "EMP001")
	testutil.CreateTeacher(t, schoolRepo, tchrUsr2.ID, "EMP002")
	class := testutil.CreateClass(t, schoolRepo, "Algebra A", sub.ID, tchr.ID, 0)
	std := testutil.CreateStudent(t, schoolRepo, "S001", "Jane", "Doe", "jane@test.cd")
	testutil.Enroll(t, schoolRepo, class.ID, std.ID)

	return &testApp{
		server:     server,
		usrRepo:    usrRepo,
		schoolRepo: schoolRepo,
		admin:      admin,
		teacher:    tchrUsr,
		teacher2:   tchrUsr2,
		stdUsr:     stdUsr,
		class:      class,
		std:        std,
		sessionSvc: sessionSvc,
		attSvc:     attSvc,
	}
}

func (app *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echoHeaderContentType, "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	return token
}

func jsonBodyEqual(t *testing.T, rec *httptest.ResponseRecorder, want interface{}) bool {
	t.Helper()
	wantData, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshalling expected body failed: %v", err)
	}
	var j1, j2 interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &j1); err != nil {
		t.Fatalf("decoding response %q failed: %v", rec.Body.String(), err)
	}
	if err := json.Unmarshal(wantData, &j2); err != nil {
		t.Fatalf("decoding expected body failed: %v", err)
	}
	if reflect.DeepEqual(j1, j2) {
		return true
	}
	return assert.ElementsMatch(t, j1, j2)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q failed: %v", rec.Body.String(), err)
	}
}

func TestHome(t *testing.T) {
	app := setup(t)
	rec := app.request(t, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET / = %d, want 200", rec.Code)
	}
}
