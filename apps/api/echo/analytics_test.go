package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/trezcool/mahudhurio/core/analytics"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/session"
)

func TestAnalyticsAPI_studentStats(t *testing.T) {
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

	// students see their own stats
	rec := app.request(t, http.MethodGet, "/v1/analytics/student/"+app.std.ID, app.token(t, app.stdUsr), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/analytics/student/:id = %d, want 200", rec.Code)
	}
	var stats analytics.StudentStats
	decodeBody(t, rec, &stats)
	if stats.TotalSessions != 1 || stats.Present != 1 || stats.AttendanceRate != 100 {
		t.Errorf("stats = %+v, want 1 session, 1 present, rate 100", stats)
	}
	if stats.RiskLevel != analytics.RiskLow {
		t.Errorf("risk level = %s, want LOW", stats.RiskLevel)
	}
}

func TestAnalyticsAPI_classOverview(t *testing.T) {
	app := setup(t)

	// class overviews are for staff only
	rec := app.request(t, http.MethodGet, "/v1/analytics/class/"+app.class.ID, app.token(t, app.stdUsr), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("GET /v1/analytics/class/:id as student = %d, want 403", rec.Code)
	}

	rec = app.request(t, http.MethodGet, "/v1/analytics/class/"+app.class.ID, app.token(t, app.teacher), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/analytics/class/:id = %d, want 200", rec.Code)
	}
	var overview analytics.ClassOverview
	decodeBody(t, rec, &overview)
	if overview.TotalSessions != 0 {
		t.Errorf("total sessions = %d, want 0", overview.TotalSessions)
	}
	if overview.Trend != analytics.TrendInsufficientData {
		t.Errorf("trend = %s, want insufficient_data", overview.Trend)
	}
}
