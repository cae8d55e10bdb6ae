package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
)

type sessionRow struct {
	ID            string    `db:"id"`
	ClassID       string    `db:"class_id"`
	ClassName     string    `db:"class_name"`
	SubjectID     string    `db:"subject_id"`
	SubjectName   string    `db:"subject_name"`
	TeacherID     string    `db:"teacher_id"`
	TeacherUserID string    `db:"teacher_user_id"`
	TeacherName   string    `db:"teacher_name"`
	StartTime     time.Time `db:"start_time"`
	EndTime       null.Time `db:"end_time"`
	Status        string    `db:"status"`
	CreatedAt     null.Time `db:"created_at"`
	UpdatedAt     null.Time `db:"updated_at"`
}

func toSessionRow(sess session.Session) sessionRow {
	return sessionRow{
		ID:            sess.ID,
		ClassID:       sess.ClassID,
		ClassName:     sess.ClassName,
		SubjectID:     sess.SubjectID,
		SubjectName:   sess.SubjectName,
		TeacherID:     sess.TeacherID,
		TeacherUserID: sess.TeacherUserID,
		TeacherName:   sess.TeacherName,
		StartTime:     sess.StartTime.UTC(),
		EndTime:       null.TimeFromPtr(sess.EndTime),
		Status:        sess.Status,
		CreatedAt:     null.NewTime(sess.CreatedAt.UTC(), !sess.CreatedAt.IsZero()),
		UpdatedAt:     null.NewTime(sess.UpdatedAt.UTC(), !sess.UpdatedAt.IsZero()),
	}
}

func (row sessionRow) session() session.Session {
	return session.Session{
		ID:        row.ID,
		ClassID:   row.ClassID,
		ClassName: row.ClassName,
		Snapshot: session.Snapshot{
			SubjectID:     row.SubjectID,
			SubjectName:   row.SubjectName,
			TeacherID:     row.TeacherID,
			TeacherUserID: row.TeacherUserID,
			TeacherName:   row.TeacherName,
		},
		StartTime: row.StartTime,
		EndTime:   row.EndTime.Ptr(),
		Status:    row.Status,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) error {
	q := `
INSERT INTO class_session (id, class_id, class_name, subject_id, subject_name, teacher_id, teacher_user_id,
                           teacher_name, start_time, end_time, status, created_at, updated_at)
VALUES (:id, :class_id, :class_name, :subject_id, :subject_name, :teacher_id, :teacher_user_id,
        :teacher_name, :start_time, :end_time, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toSessionRow(sess)); err != nil {
		if violatesUnique(errors.Cause(err), "one_active_session_per_class") {
			return session.ErrActiveSessionExists
		}
		return errors.Wrap(err, "inserting session")
	}
	return nil
}

func (repo *sessionRepository) GetSessionByID(ctx context.Context, id string) (session.Session, error) {
	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM class_session WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}
	return row.session(), nil
}

func (repo *sessionRepository) QueryActiveSessions(ctx context.Context, filter session.ActiveFilter) ([]session.Session, error) {
	q := `SELECT * FROM class_session WHERE status = $1`
	args := []interface{}{session.StatusActive}

	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		q += " AND class_id = $" + itoa(len(args))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		q += " AND teacher_id = $" + itoa(len(args))
	}
	q += " ORDER BY start_time DESC"

	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying active sessions")
	}
	return sessions(rows), nil
}

func (repo *sessionRepository) QuerySessionHistory(ctx context.Context, filter session.HistoryFilter, ordering ...core.DBOrdering) ([]session.Session, error) {
	q := `SELECT * FROM class_session`
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter.ClassID != "" {
		conds = append(conds, "class_id = "+arg(filter.ClassID))
	}
	if filter.TeacherID != "" {
		conds = append(conds, "teacher_id = "+arg(filter.TeacherID))
	}
	if filter.From != nil {
		conds = append(conds, "start_time >= "+arg(filter.From.UTC()))
	}
	if filter.To != nil {
		conds = append(conds, "start_time <= "+arg(filter.To.UTC()))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering)

	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying session history")
	}
	return sessions(rows), nil
}

func (repo *sessionRepository) EndSession(ctx context.Context, id string, endTime time.Time) error {
	q := `
UPDATE class_session
SET status = $1, end_time = $2, updated_at = $2
WHERE id = $3 AND status = $4`
	res, err := repo.db.ExecContext(ctx, q, session.StatusEnded, endTime.UTC(), id, session.StatusActive)
	if err != nil {
		return errors.Wrap(err, "ending session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrAlreadyEnded
	}
	return nil
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM class_session WHERE id = $1`, id)
	return errors.Wrap(err, "deleting session")
}

func sessions(rows []sessionRow) []session.Session {
	sess := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		sess = append(sess, row.session())
	}
	return sess
}
