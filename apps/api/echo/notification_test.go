package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/notification"
	"github.com/trezcool/mahudhurio/core/session"
)

func TestNotificationAPI_adminOnly(t *testing.T) {
	app := setup(t)

	for _, tok := range []string{app.token(t, app.teacher), app.token(t, app.stdUsr)} {
		rec := app.request(t, http.MethodGet, "/v1/notifications", tok, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("GET /v1/notifications = %d, want 403", rec.Code)
		}
	}

	rec := app.request(t, http.MethodGet, "/v1/notifications", app.token(t, app.admin), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /v1/notifications as admin = %d, want 200", rec.Code)
	}
}

func TestNotificationAPI_triggerWeeklyReports(t *testing.T) {
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

	rec := app.request(t, http.MethodPost, "/v1/notifications/trigger-weekly-report", app.token(t, app.admin), nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /v1/notifications/trigger-weekly-report = %d, want 202", rec.Code)
	}

	rec = app.request(t, http.MethodGet, "/v1/notifications?status="+notification.StatusPending, app.token(t, app.admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/notifications = %d, want 200", rec.Code)
	}
	var notifs []notification.Notification
	decodeBody(t, rec, &notifs)
	if len(notifs) != 1 {
		t.Fatalf("queued notifications = %d, want 1", len(notifs))
	}
	if notifs[0].Type != notification.TypeWeeklyReport || notifs[0].Recipient != app.std.Email {
		t.Errorf("notification = %+v, want WEEKLY_REPORT to %s", notifs[0], app.std.Email)
	}
}
