package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/analytics"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
)

var ErrNotFound = errors.New("notification not found")

type Repository interface {
	CreateNotification(ctx context.Context, n Notification) error
	GetNotificationByID(ctx context.Context, id string) (Notification, error)
	UpdateNotification(ctx context.Context, n Notification) error
	// QueryDueNotifications returns PENDING and RETRYING notifications whose
	// ScheduledAt is at or before now, oldest first.
	QueryDueNotifications(ctx context.Context, now time.Time) ([]Notification, error)
	QueryNotifications(ctx context.Context, status string, ordering ...core.DBOrdering) ([]Notification, error)
}

// StudentSource lists the students periodic notifications are built for.
type StudentSource interface {
	QueryStudents(ctx context.Context) ([]school.Student, error)
}

// RecordSource provides the attendance records periodic notifications
// summarize.
type RecordSource interface {
	QueryStudentAttendance(ctx context.Context, studentID string, filter attendance.StudentFilter) ([]attendance.Record, error)
}

type Service struct {
	repo         Repository
	mailSvc      core.EmailService
	logger       core.Logger
	students     StudentSource
	records      RecordSource
	maxRetries   int
	retryDelay   time.Duration
	pollInterval time.Duration
	lowThreshold float64
}

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger,
	students StudentSource, records RecordSource) *Service {

	return &Service{
		repo:         repo,
		mailSvc:      mailSvc,
		logger:       logger,
		students:     students,
		records:      records,
		maxRetries:   core.Conf.Notification.MaxRetries,
		retryDelay:   core.Conf.Notification.RetryDelay,
		pollInterval: core.Conf.Notification.PollInterval,
		lowThreshold: core.Conf.Notification.LowAttendanceThreshold,
	}
}

// Queue enqueues a notification for delivery on the next dispatcher pass.
func (svc *Service) Queue(ctx context.Context, typ, recipient, subject, body string) (Notification, error) {
	now := time.Now().UTC()
	n := Notification{
		ID:          uuid.New().String(),
		Type:        typ,
		Recipient:   recipient,
		Subject:     subject,
		Body:        body,
		Status:      StatusPending,
		MaxRetries:  svc.maxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := svc.repo.CreateNotification(ctx, n); err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}
	return n, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Notification{}, core.NewNotFoundError("notification not found")
		}
		return Notification{}, errors.Wrapf(err, "getting notification %s", id)
	}
	return n, nil
}

func (svc *Service) Query(ctx context.Context, status string) ([]Notification, error) {
	ns, err := svc.repo.QueryNotifications(ctx, status, core.DBOrdering{Field: "created_at"})
	return ns, errors.Wrap(err, "querying notifications")
}

// DeliverDue runs one dispatcher pass: every due notification is attempted
// once and its status updated. Delivery failures are rescheduled with a
// linearly growing delay until MaxRetries attempts have been made, after
// which the notification is marked FAILED for good.
func (svc *Service) DeliverDue(ctx context.Context, now time.Time) error {
	due, err := svc.repo.QueryDueNotifications(ctx, now)
	if err != nil {
		return errors.Wrap(err, "querying due notifications")
	}
	for _, n := range due {
		if err = svc.deliver(ctx, n, now); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) deliver(ctx context.Context, n Notification, now time.Time) error {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Address: n.Recipient}},
		Subject: n.Subject,
		BodyStr: n.Body,
	}

	n.UpdatedAt = now
	if sendErr := svc.mailSvc.SendMessage(msg); sendErr != nil {
		n.RetryCount++
		n.ErrorMessage = sendErr.Error()
		if n.CanRetry() {
			n.Status = StatusRetrying
			n.ScheduledAt = now.Add(svc.retryDelay * time.Duration(n.RetryCount))
			svc.logger.Warn(fmt.Sprintf("notification %s delivery failed (attempt %d/%d), retrying at %s: %v",
				n.ID, n.RetryCount, n.MaxRetries, n.ScheduledAt.Format(time.RFC3339), sendErr))
		} else {
			n.Status = StatusFailed
			n.FailedAt = &now
			svc.logger.Error(fmt.Sprintf("notification %s permanently failed after %d attempts: %v",
				n.ID, n.RetryCount, sendErr))
		}
	} else {
		n.Status = StatusSent
		n.SentAt = &now
		n.ErrorMessage = ""
	}
	return errors.Wrapf(svc.repo.UpdateNotification(ctx, n), "updating notification %s", n.ID)
}

// Start runs the dispatcher loop until the context is cancelled.
func (svc *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(svc.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := svc.DeliverDue(ctx, time.Now().UTC()); err != nil {
					svc.logger.Error(fmt.Sprintf("notification dispatch: %v", err))
				}
			}
		}
	}()
}

// TriggerWeeklyReports queues a per-student summary of the last 7 days.
// Students with no records in the window are skipped.
func (svc *Service) TriggerWeeklyReports(ctx context.Context, now time.Time) error {
	students, err := svc.students.QueryStudents(ctx)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	from := now.AddDate(0, 0, -7)
	for _, std := range students {
		recs, err := svc.records.QueryStudentAttendance(ctx, std.ID, attendance.StudentFilter{From: &from, To: &now})
		if err != nil {
			return errors.Wrapf(err, "querying attendance for student %s", std.ID)
		}
		if len(recs) == 0 {
			continue
		}
		statuses := statusesOf(recs)
		body := fmt.Sprintf(
			"Hi %s,\n\nHere is your attendance summary for the week of %s:\n\n"+
				"Sessions: %d\nPresent: %d\nAbsent: %d\nLate: %d\nAttendance rate: %.2f%%\n",
			std.FirstName, from.Format("2006-01-02"), len(statuses),
			count(statuses, attendance.StatusPresent),
			count(statuses, attendance.StatusAbsent),
			count(statuses, attendance.StatusLate),
			analytics.Rate(statuses),
		)
		subject := fmt.Sprintf("%s - Weekly Attendance Summary", core.Conf.AppName)
		if _, err = svc.Queue(ctx, TypeWeeklyReport, std.Email, subject, body); err != nil {
			return err
		}
	}
	return nil
}

// TriggerLowAttendanceAlerts queues an alert for every student whose overall
// attendance rate has dropped below the configured threshold.
func (svc *Service) TriggerLowAttendanceAlerts(ctx context.Context, now time.Time) error {
	students, err := svc.students.QueryStudents(ctx)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	for _, std := range students {
		recs, err := svc.records.QueryStudentAttendance(ctx, std.ID, attendance.StudentFilter{})
		if err != nil {
			return errors.Wrapf(err, "querying attendance for student %s", std.ID)
		}
		if len(recs) == 0 {
			continue
		}
		rate := analytics.Rate(statusesOf(recs))
		if rate >= svc.lowThreshold {
			continue
		}
		body := fmt.Sprintf(
			"Hi %s,\n\nYour attendance rate is currently %.2f%%, below the required %.0f%%.\n"+
				"Please make every effort to attend your upcoming sessions.\n",
			std.FirstName, rate, svc.lowThreshold,
		)
		subject := fmt.Sprintf("%s - Low Attendance Alert", core.Conf.AppName)
		if _, err = svc.Queue(ctx, TypeLowAttendanceAlert, std.Email, subject, body); err != nil {
			return err
		}
	}
	return nil
}

func statusesOf(recs []attendance.Record) []string {
	statuses := make([]string, len(recs))
	for i, rec := range recs {
		statuses[i] = rec.Status
	}
	return statuses
}

func count(statuses []string, status string) int {
	var n int
	for _, s := range statuses {
		if s == status {
			n++
		}
	}
	return n
}
