package attendance

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	attStatusTag  = "attstatus"
	attStatusText = "status must be one of PRESENT, ABSENT or LATE"
)

func init() {
	_ = core.Validate.RegisterValidation(attStatusTag, attStatusValidation)
	core.RegisterCustomTranslation(attStatusTag, attStatusText)
}

func attStatusValidation(fl validator.FieldLevel) bool {
	return validStatus(fl.Field().String())
}

func validStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}
