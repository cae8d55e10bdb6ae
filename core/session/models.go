package session

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Session statuses
const (
	StatusActive = "ACTIVE"
	StatusEnded  = "ENDED"
)

// Snapshot carries subject and teacher details captured at session start so
// history stays correct even when the class is later reassigned.
type Snapshot struct {
	SubjectID     string `json:"subject_id"`
	SubjectName   string `json:"subject_name"`
	TeacherID     string `json:"teacher_id"`
	TeacherUserID string `json:"-"`
	TeacherName   string `json:"teacher_name"`
}

// Session is a single occurrence of a class taking place. At most one ACTIVE
// session may exist per class at any time.
type Session struct {
	ID        string `json:"id"`
	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`
	Snapshot
	StartTime time.Time  `json:"start_time"` // UTC
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

func (s Session) IsActive() bool { return s.Status == StatusActive }

// Duration returns the session length, or the elapsed time so far for an
// active session.
func (s Session) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Now().UTC().Sub(s.StartTime)
}

type StartSession struct {
	ClassID string `json:"class_id" validate:"required"`
}

func (ss *StartSession) Validate() error {
	return core.Validate.Struct(ss)
}

type ActiveFilter struct {
	ClassID   string `query:"class_id"`
	TeacherID string `query:"teacher_id"`
}

type HistoryFilter struct {
	ClassID   string     `query:"class_id"`
	TeacherID string     `query:"teacher_id"`
	From      *time.Time `query:"from"`
	To        *time.Time `query:"to"`
}
