package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/report"
	"github.com/trezcool/mahudhurio/core/session"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func TestReportAPI_generateAndDownload(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	sess, err := app.sessionSvc.Start(ctx, app.teacher, session.StartSession{ClassID: app.class.ID})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if _, err = app.attSvc.Mark(ctx, app.teacher, attendance.MarkAttendance{
		SessionID: sess.ID, StudentID: app.std.ID, Status: attendance.StatusPresent,
	}); err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}

	now := time.Now().UTC()
	data := report.NewReport{
		Type:     report.TypeStudent,
		TargetID: app.std.ID,
		Format:   report.FormatCSV,
		From:     now.Add(-24 * time.Hour),
		To:       now.Add(24 * time.Hour),
	}

	// students may generate their own reports, but nobody else's
	other := testutil.CreateStudent(t, app.schoolRepo, "S096", "Jill", "Doe", "jill@test.cd")
	otherData := data
	otherData.TargetID = other.ID
	rec := app.request(t, http.MethodPost, "/v1/reports/generate", app.token(t, app.stdUsr), otherData)
	if rec.Code != http.StatusForbidden {
		t.Errorf("POST /v1/reports/generate (other student) = %d, want 403", rec.Code)
	}
	rec = app.request(t, http.MethodPost, "/v1/reports/generate", app.token(t, app.stdUsr), data)
	if rec.Code != http.StatusCreated {
		t.Errorf("POST /v1/reports/generate (own) = %d (%s), want 201", rec.Code, rec.Body.String())
	}

	rec = app.request(t, http.MethodPost, "/v1/reports/generate", app.token(t, app.teacher), data)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /v1/reports/generate = %d (%s), want 201", rec.Code, rec.Body.String())
	}
	var rep report.Report
	decodeBody(t, rec, &rep)
	if rep.Status != report.StatusCompleted {
		t.Errorf("report status = %s, want COMPLETED", rep.Status)
	}

	rec = app.request(t, http.MethodGet, "/v1/reports/"+rep.ID+"/download", app.token(t, app.teacher), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/reports/:id/download = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("downloaded report is empty")
	}

	// requester scoping: admin sees it, the other teacher does not
	rec = app.request(t, http.MethodGet, "/v1/reports/"+rep.ID, app.token(t, app.admin), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /v1/reports/:id as admin = %d, want 200", rec.Code)
	}
	rec = app.request(t, http.MethodGet, "/v1/reports/"+rep.ID, app.token(t, app.teacher2), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("GET /v1/reports/:id as other teacher = %d, want 403", rec.Code)
	}
}

func TestReportAPI_unsupportedFormat(t *testing.T) {
	app := setup(t)

	now := time.Now().UTC()
	data := report.NewReport{
		Type:     report.TypeStudent,
		TargetID: app.std.ID,
		Format:   "PDF",
		From:     now.Add(-24 * time.Hour),
		To:       now,
	}
	rec := app.request(t, http.MethodPost, "/v1/reports/generate", app.token(t, app.teacher), data)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /v1/reports/generate (PDF) = %d, want 400", rec.Code)
	}
}
