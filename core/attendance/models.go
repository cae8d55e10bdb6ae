package attendance

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Attendance statuses
const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
	StatusLate    = "LATE"
)

// Record is a single student's attendance for a session; unique per
// (session, student). Re-marking overwrites the previous value while the
// session is active.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	StudentID string    `json:"student_id"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	MarkedBy  string    `json:"marked_by"` // user ID
	MarkedAt  time.Time `json:"marked_at"`  // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type MarkAttendance struct {
	SessionID string `json:"session_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attstatus"`
	Notes     string `json:"notes"`
}

func (ma *MarkAttendance) Validate() error {
	return core.Validate.Struct(ma)
}

// BulkRecord's status is checked per record during the bulk mark rather than
// up front so a bad status rejects that record only, not the whole batch.
type BulkRecord struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

type BulkMarkAttendance struct {
	SessionID string       `json:"session_id" validate:"required"`
	Records   []BulkRecord `json:"records" validate:"required,min=1,dive"`
}

func (bma *BulkMarkAttendance) Validate() error {
	return core.Validate.Struct(bma)
}

type UpdateAttendance struct {
	Status string  `json:"status" validate:"omitempty,attstatus"`
	Notes  *string `json:"notes"`
}

func (ua *UpdateAttendance) Validate() error {
	return core.Validate.Struct(ua)
}

// BulkFailure reports a single record rejected during a bulk mark; the rest
// of the batch is unaffected.
type BulkFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

type BulkResult struct {
	Marked   []Record      `json:"marked"`
	Failures []BulkFailure `json:"failures"`
}

// SessionStats summarizes marking progress for one session.
type SessionStats struct {
	SessionID      string  `json:"session_id"`
	TotalEnrolled  int     `json:"total_enrolled"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Marked         int     `json:"marked"`
	NotMarked      int     `json:"not_marked"`
	AttendanceRate float64 `json:"attendance_rate"` // (present + late) / enrolled, percent
}

type StudentFilter struct {
	From *time.Time `query:"from"`
	To   *time.Time `query:"to"`
}
