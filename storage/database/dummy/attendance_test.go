package dummydb_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/session"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
)

// Date ranges bound the session start time, not the marking time: a record
// marked today for last week's session still belongs to last week.
func TestAttendanceRepository_dateRangesUseSessionStart(t *testing.T) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	sessRepo := dummydb.NewSessionRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	day := 24 * time.Hour

	newSession := func(start time.Time) session.Session {
		end := start.Add(time.Hour)
		sess := session.Session{
			ID:        uuid.New().String(),
			ClassID:   "class1",
			StartTime: start,
			EndTime:   &end,
			Status:    session.StatusEnded,
			CreatedAt: start,
			UpdatedAt: end,
		}
		if err := sessRepo.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession() failed: %v", err)
		}
		return sess
	}
	oldSess := newSession(now.Add(-7 * day))
	recentSess := newSession(now.Add(-1 * day))

	// both records marked now, long after the old session took place
	for _, sess := range []session.Session{oldSess, recentSess} {
		if _, err = attRepo.UpsertAttendance(ctx, attendance.Record{
			ID:        uuid.New().String(),
			SessionID: sess.ID,
			StudentID: "student1",
			Status:    attendance.StatusPresent,
			MarkedBy:  "marker",
			MarkedAt:  now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("UpsertAttendance() failed: %v", err)
		}
	}

	cut := now.Add(-3 * day)

	recs, err := attRepo.QueryStudentAttendance(ctx, "student1", attendance.StudentFilter{From: &cut})
	if err != nil {
		t.Fatalf("QueryStudentAttendance() failed: %v", err)
	}
	if len(recs) != 1 || recs[0].SessionID != recentSess.ID {
		t.Errorf("QueryStudentAttendance(from) = %v, want only the recent session's record", recs)
	}

	recs, err = attRepo.QueryClassAttendance(ctx, "class1", nil, &cut)
	if err != nil {
		t.Fatalf("QueryClassAttendance() failed: %v", err)
	}
	if len(recs) != 1 || recs[0].SessionID != oldSess.ID {
		t.Errorf("QueryClassAttendance(to) = %v, want only the old session's record", recs)
	}
}
