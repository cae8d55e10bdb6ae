package report

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// Report types
const (
	TypeStudent = "STUDENT"
	TypeClass   = "CLASS"
)

// Report formats
const FormatCSV = "CSV"

// Report statuses
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Report tracks a single generation request and, once completed, points at
// the file on disk.
type Report struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	TargetID     string     `json:"target_id"` // student or class ID
	Format       string     `json:"format"`
	From         time.Time  `json:"from"`
	To           time.Time  `json:"to"`
	Status       string     `json:"status"`
	FilePath     string     `json:"-"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RequestedBy  string     `json:"requested_by"` // user ID
	CreatedAt    time.Time  `json:"created_at"`   // UTC
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type NewReport struct {
	Type     string    `json:"type" validate:"required,oneof=STUDENT CLASS"`
	TargetID string    `json:"target_id" validate:"required"`
	Format   string    `json:"format" validate:"required"`
	From     time.Time `json:"from" validate:"required"`
	To       time.Time `json:"to" validate:"required"`
}

func (nr *NewReport) Validate() error {
	// formats are matched case-insensitively; "csv" means CSV
	nr.Format = strings.ToUpper(core.CleanString(nr.Format))
	if err := core.Validate.Struct(nr); err != nil {
		return err
	}
	if nr.Format != FormatCSV {
		return core.NewUnsupportedFormatError("only CSV reports are supported")
	}
	if nr.To.Before(nr.From) {
		return core.NewValidationError(errors.New("invalid date range"), core.FieldError{Field: "to", Error: "must not be before from"})
	}
	return nil
}
