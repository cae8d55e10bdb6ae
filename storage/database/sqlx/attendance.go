package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRow struct {
	ID        string      `db:"id"`
	SessionID string      `db:"session_id"`
	StudentID string      `db:"student_id"`
	Status    string      `db:"status"`
	Notes     null.String `db:"notes"`
	MarkedBy  string      `db:"marked_by"`
	MarkedAt  time.Time   `db:"marked_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func toAttendanceRow(rec attendance.Record) attendanceRow {
	return attendanceRow{
		ID:        rec.ID,
		SessionID: rec.SessionID,
		StudentID: rec.StudentID,
		Status:    rec.Status,
		Notes:     null.NewString(rec.Notes, rec.Notes != ""),
		MarkedBy:  rec.MarkedBy,
		MarkedAt:  rec.MarkedAt.UTC(),
		UpdatedAt: null.NewTime(rec.UpdatedAt.UTC(), !rec.UpdatedAt.IsZero()),
	}
}

func (row attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		SessionID: row.SessionID,
		StudentID: row.StudentID,
		Status:    row.Status,
		Notes:     row.Notes.String,
		MarkedBy:  row.MarkedBy,
		MarkedAt:  row.MarkedAt,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertAttendance(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := `
INSERT INTO attendance (id, session_id, student_id, status, notes, marked_by, marked_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (session_id, student_id)
    DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, marked_by = EXCLUDED.marked_by,
                  updated_at = EXCLUDED.updated_at
RETURNING *`
	row := toAttendanceRow(rec)
	var stored attendanceRow
	err := repo.db.GetContext(ctx, &stored, q,
		row.ID, row.SessionID, row.StudentID, row.Status, row.Notes, row.MarkedBy, row.MarkedAt, row.UpdatedAt)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance")
	}
	return stored.record(), nil
}

func (repo *attendanceRepository) GetAttendanceByID(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM attendance WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance")
	}
	return row.record(), nil
}

func (repo *attendanceRepository) UpdateAttendance(ctx context.Context, rec attendance.Record) error {
	q := `
UPDATE attendance
SET status = :status, notes = :notes, marked_by = :marked_by, updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toAttendanceRow(rec))
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo *attendanceRepository) QuerySessionAttendance(ctx context.Context, sessionID string) ([]attendance.Record, error) {
	var rows []attendanceRow
	q := `SELECT * FROM attendance WHERE session_id = $1 ORDER BY marked_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, q, sessionID); err != nil {
		return nil, errors.Wrap(err, "querying session attendance")
	}
	return records(rows), nil
}

func (repo *attendanceRepository) QueryStudentAttendance(ctx context.Context, studentID string, filter attendance.StudentFilter) ([]attendance.Record, error) {
	q := `
SELECT a.* FROM attendance a
JOIN class_session s ON s.id = a.session_id`
	conds := []string{"a.student_id = $1"}
	args := []interface{}{studentID}

	// date ranges bound the session start, not the marking time
	if filter.From != nil {
		args = append(args, filter.From.UTC())
		conds = append(conds, "s.start_time >= $"+itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, filter.To.UTC())
		conds = append(conds, "s.start_time <= $"+itoa(len(args)))
	}
	q += " WHERE " + strings.Join(conds, " AND ") + " ORDER BY a.marked_at DESC"

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying student attendance")
	}
	return records(rows), nil
}

func (repo *attendanceRepository) QueryClassAttendance(ctx context.Context, classID string, from, to *time.Time) ([]attendance.Record, error) {
	q := `
SELECT a.* FROM attendance a
JOIN class_session s ON s.id = a.session_id`
	conds := []string{"s.class_id = $1"}
	args := []interface{}{classID}

	if from != nil {
		args = append(args, from.UTC())
		conds = append(conds, "s.start_time >= $"+itoa(len(args)))
	}
	if to != nil {
		args = append(args, to.UTC())
		conds = append(conds, "s.start_time <= $"+itoa(len(args)))
	}
	q += " WHERE " + strings.Join(conds, " AND ") + " ORDER BY a.marked_at ASC"

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying class attendance")
	}
	return records(rows), nil
}

func records(rows []attendanceRow) []attendance.Record {
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs
}
