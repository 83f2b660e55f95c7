package note

import "github.com/ogurasousui/probation-workflow/internal/core/probation"

var (
	ErrInvalidBody      = probation.NewValidationError("note: body is required")
	ErrInvalidReference = probation.NewValidationError("note: invalid reference")
)
