package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db       *attendanceTable
	sessions *sessionTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance, sessions: db.session}
}

func (repo *attendanceRepository) UpsertAttendance(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.SessionID == rec.SessionID && existing.StudentID == rec.StudentID {
			existing.Status = rec.Status
			existing.Notes = rec.Notes
			existing.MarkedBy = rec.MarkedBy
			existing.UpdatedAt = rec.UpdatedAt
			return *existing, nil
		}
	}
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetAttendanceByID(ctx context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) UpdateAttendance(ctx context.Context, rec attendance.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.table[rec.ID]
	if !ok {
		return attendance.ErrNotFound
	}
	existing.Status = rec.Status
	existing.Notes = rec.Notes
	existing.MarkedBy = rec.MarkedBy
	existing.UpdatedAt = rec.UpdatedAt
	return nil
}

func (repo *attendanceRepository) QuerySessionAttendance(ctx context.Context, sessionID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.db.table {
		if rec.SessionID == sessionID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].MarkedAt.Before(recs[j].MarkedAt) })
	return recs, nil
}

func (repo *attendanceRepository) QueryStudentAttendance(ctx context.Context, studentID string, filter attendance.StudentFilter) ([]attendance.Record, error) {
	// date ranges bound the session start, not the marking time
	starts := repo.sessionStarts()

	repo.db.RLock()
	defer repo.db.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.db.table {
		if rec.StudentID != studentID {
			continue
		}
		start := starts[rec.SessionID]
		if filter.From != nil && start.Before(*filter.From) {
			continue
		}
		if filter.To != nil && start.After(*filter.To) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].MarkedAt.After(recs[j].MarkedAt) })
	return recs, nil
}

func (repo *attendanceRepository) QueryClassAttendance(ctx context.Context, classID string, from, to *time.Time) ([]attendance.Record, error) {
	starts := repo.classSessionStarts(classID)

	repo.db.RLock()
	defer repo.db.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.db.table {
		start, ok := starts[rec.SessionID]
		if !ok {
			continue
		}
		if from != nil && start.Before(*from) {
			continue
		}
		if to != nil && start.After(*to) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].MarkedAt.Before(recs[j].MarkedAt) })
	return recs, nil
}

func (repo *attendanceRepository) classSessionStarts(classID string) map[string]time.Time {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	starts := make(map[string]time.Time)
	for _, sess := range repo.sessions.table {
		if sess.ClassID == classID {
			starts[sess.ID] = sess.StartTime
		}
	}
	return starts
}

func (repo *attendanceRepository) sessionStarts() map[string]time.Time {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	starts := make(map[string]time.Time, len(repo.sessions.table))
	for _, sess := range repo.sessions.table {
		starts[sess.ID] = sess.StartTime
	}
	return starts
}
