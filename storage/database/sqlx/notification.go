package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/notification"
)

type notificationRow struct {
	ID           string      `db:"id"`
	Type         string      `db:"type"`
	Recipient    string      `db:"recipient"`
	Subject      string      `db:"subject"`
	Body         string      `db:"body"`
	Status       string      `db:"status"`
	RetryCount   int         `db:"retry_count"`
	MaxRetries   int         `db:"max_retries"`
	ScheduledAt  time.Time   `db:"scheduled_at"`
	SentAt       null.Time   `db:"sent_at"`
	FailedAt     null.Time   `db:"failed_at"`
	ErrorMessage null.String `db:"error_message"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
}

func toNotificationRow(n notification.Notification) notificationRow {
	return notificationRow{
		ID:           n.ID,
		Type:         n.Type,
		Recipient:    n.Recipient,
		Subject:      n.Subject,
		Body:         n.Body,
		Status:       n.Status,
		RetryCount:   n.RetryCount,
		MaxRetries:   n.MaxRetries,
		ScheduledAt:  n.ScheduledAt.UTC(),
		SentAt:       null.TimeFromPtr(n.SentAt),
		FailedAt:     null.TimeFromPtr(n.FailedAt),
		ErrorMessage: null.NewString(n.ErrorMessage, n.ErrorMessage != ""),
		CreatedAt:    null.NewTime(n.CreatedAt.UTC(), !n.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(n.UpdatedAt.UTC(), !n.UpdatedAt.IsZero()),
	}
}

func (row notificationRow) notification() notification.Notification {
	return notification.Notification{
		ID:           row.ID,
		Type:         row.Type,
		Recipient:    row.Recipient,
		Subject:      row.Subject,
		Body:         row.Body,
		Status:       row.Status,
		RetryCount:   row.RetryCount,
		MaxRetries:   row.MaxRetries,
		ScheduledAt:  row.ScheduledAt,
		SentAt:       row.SentAt.Ptr(),
		FailedAt:     row.FailedAt.Ptr(),
		ErrorMessage: row.ErrorMessage.String,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) error {
	q := `
INSERT INTO email_notification (id, type, recipient, subject, body, status, retry_count, max_retries,
                                scheduled_at, sent_at, failed_at, error_message, created_at, updated_at)
VALUES (:id, :type, :recipient, :subject, :body, :status, :retry_count, :max_retries,
        :scheduled_at, :sent_at, :failed_at, :error_message, :created_at, :updated_at)`
	_, err := repo.db.NamedExecContext(ctx, q, toNotificationRow(n))
	return errors.Wrap(err, "inserting notification")
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM email_notification WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.notification(), nil
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) error {
	q := `
UPDATE email_notification
SET status = :status, retry_count = :retry_count, scheduled_at = :scheduled_at, sent_at = :sent_at,
    failed_at = :failed_at, error_message = :error_message, updated_at = :updated_at
WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toNotificationRow(n))
	if err != nil {
		return errors.Wrap(err, "updating notification")
	}
	if num, err := res.RowsAffected(); err == nil && num == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (repo *notificationRepository) QueryDueNotifications(ctx context.Context, now time.Time) ([]notification.Notification, error) {
	q := `
SELECT * FROM email_notification
WHERE status IN ($1, $2) AND scheduled_at <= $3
ORDER BY scheduled_at ASC`
	var rows []notificationRow
	err := repo.db.SelectContext(ctx, &rows, q, notification.StatusPending, notification.StatusRetrying, now.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "querying due notifications")
	}
	return notifications(rows), nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, status string, ordering ...core.DBOrdering) ([]notification.Notification, error) {
	q := `SELECT * FROM email_notification`
	var args []interface{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += orderBy(ordering)

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifications(rows), nil
}

func notifications(rows []notificationRow) []notification.Notification {
	ns := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		ns = append(ns, row.notification())
	}
	return ns
}
