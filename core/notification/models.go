package notification

import "time"

// Notification types
const (
	TypeWeeklyReport       = "WEEKLY_REPORT"
	TypeLowAttendanceAlert = "LOW_ATTENDANCE_ALERT"
	TypeSystem             = "SYSTEM_NOTIFICATION"
)

// Notification statuses
const (
	StatusPending  = "PENDING"
	StatusRetrying = "RETRYING"
	StatusSent     = "SENT"
	StatusFailed   = "FAILED"
)

// Notification is a queued email delivery with bounded retries. PENDING and
// RETRYING notifications whose ScheduledAt has passed are due; SENT and
// FAILED are terminal.
type Notification struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Recipient    string     `json:"recipient"` // email address
	Subject      string     `json:"subject"`
	Body         string     `json:"body"`
	Status       string     `json:"status"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	ScheduledAt  time.Time  `json:"scheduled_at"` // UTC
	SentAt       *time.Time `json:"sent_at,omitempty"`
	FailedAt     *time.Time `json:"failed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

func (n Notification) CanRetry() bool { return n.RetryCount < n.MaxRetries }
