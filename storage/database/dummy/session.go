package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.table {
		if s.ClassID == sess.ClassID && s.Status == session.StatusActive {
			return session.ErrActiveSessionExists
		}
	}
	repo.db.table[sess.ID] = &sess
	return nil
}

func (repo *sessionRepository) GetSessionByID(ctx context.Context, id string) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sess, ok := repo.db.table[id]; ok {
		return *sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) QueryActiveSessions(ctx context.Context, filter session.ActiveFilter) ([]session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var sess []session.Session
	for _, s := range repo.db.table {
		if s.Status != session.StatusActive {
			continue
		}
		if filter.ClassID != "" && s.ClassID != filter.ClassID {
			continue
		}
		if filter.TeacherID != "" && s.TeacherID != filter.TeacherID {
			continue
		}
		sess = append(sess, *s)
	}
	sort.Slice(sess, func(i, j int) bool { return sess[i].StartTime.After(sess[j].StartTime) })
	return sess, nil
}

func (repo *sessionRepository) QuerySessionHistory(ctx context.Context, filter session.HistoryFilter, ordering ...core.DBOrdering) ([]session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var sess []session.Session
	for _, s := range repo.db.table {
		if filter.ClassID != "" && s.ClassID != filter.ClassID {
			continue
		}
		if filter.TeacherID != "" && s.TeacherID != filter.TeacherID {
			continue
		}
		if filter.From != nil && s.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && s.StartTime.After(*filter.To) {
			continue
		}
		sess = append(sess, *s)
	}
	sort.Slice(sess, func(i, j int) bool { return sess[i].StartTime.After(sess[j].StartTime) })
	return sess, nil
}

func (repo *sessionRepository) EndSession(ctx context.Context, id string, endTime time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sess, ok := repo.db.table[id]
	if !ok {
		return session.ErrNotFound
	}
	if sess.Status != session.StatusActive {
		return session.ErrAlreadyEnded
	}
	sess.Status = session.StatusEnded
	sess.EndTime = &endTime
	sess.UpdatedAt = endTime
	return nil
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	return nil
}
