package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/report"
)

type reportRow struct {
	ID           string      `db:"id"`
	Type         string      `db:"type"`
	TargetID     string      `db:"target_id"`
	Format       string      `db:"format"`
	DateFrom     time.Time   `db:"date_from"`
	DateTo       time.Time   `db:"date_to"`
	Status       string      `db:"status"`
	FilePath     null.String `db:"file_path"`
	ErrorMessage null.String `db:"error_message"`
	RequestedBy  string      `db:"requested_by"`
	CreatedAt    null.Time   `db:"created_at"`
	CompletedAt  null.Time   `db:"completed_at"`
}

func toReportRow(rep report.Report) reportRow {
	return reportRow{
		ID:           rep.ID,
		Type:         rep.Type,
		TargetID:     rep.TargetID,
		Format:       rep.Format,
		DateFrom:     rep.From.UTC(),
		DateTo:       rep.To.UTC(),
		Status:       rep.Status,
		FilePath:     null.NewString(rep.FilePath, rep.FilePath != ""),
		ErrorMessage: null.NewString(rep.ErrorMessage, rep.ErrorMessage != ""),
		RequestedBy:  rep.RequestedBy,
		CreatedAt:    null.NewTime(rep.CreatedAt.UTC(), !rep.CreatedAt.IsZero()),
		CompletedAt:  null.TimeFromPtr(rep.CompletedAt),
	}
}

func (row reportRow) report() report.Report {
	return report.Report{
		ID:           row.ID,
		Type:         row.Type,
		TargetID:     row.TargetID,
		Format:       row.Format,
		From:         row.DateFrom,
		To:           row.DateTo,
		Status:       row.Status,
		FilePath:     row.FilePath.String,
		ErrorMessage: row.ErrorMessage.String,
		RequestedBy:  row.RequestedBy,
		CreatedAt:    row.CreatedAt.Time,
		CompletedAt:  row.CompletedAt.Ptr(),
	}
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CreateReport(ctx context.Context, rep report.Report) error {
	q := `
INSERT INTO report (id, type, target_id, format, date_from, date_to, status, file_path, error_message,
                    requested_by, created_at, completed_at)
VALUES (:id, :type, :target_id, :format, :date_from, :date_to, :status, :file_path, :error_message,
        :requested_by, :created_at, :completed_at)`
	_, err := repo.db.NamedExecContext(ctx, q, toReportRow(rep))
	return errors.Wrap(err, "inserting report")
}

func (repo *reportRepository) GetReportByID(ctx context.Context, id string) (report.Report, error) {
	var row reportRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM report WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return report.Report{}, report.ErrNotFound
		}
		return report.Report{}, errors.Wrap(err, "getting report")
	}
	return row.report(), nil
}

func (repo *reportRepository) UpdateReport(ctx context.Context, rep report.Report) error {
	q := `
UPDATE report
SET status = :status, file_path = :file_path, error_message = :error_message, completed_at = :completed_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toReportRow(rep))
	if err != nil {
		return errors.Wrap(err, "updating report")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.ErrNotFound
	}
	return nil
}

func (repo *reportRepository) QueryReports(ctx context.Context, requestedBy string, ordering ...core.DBOrdering) ([]report.Report, error) {
	q := `SELECT * FROM report`
	var args []interface{}
	if requestedBy != "" {
		q += ` WHERE requested_by = $1`
		args = append(args, requestedBy)
	}
	q += orderBy(ordering)

	var rows []reportRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}
	reps := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		reps = append(reps, row.report())
	}
	return reps, nil
}
