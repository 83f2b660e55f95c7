package evaluation

import "github.com/ogurasousui/probation-workflow/internal/core/probation"

var (
	ErrInvalidID            = probation.NewValidationError("evaluation: invalid id")
	ErrInvalidEmployeeID    = probation.NewValidationError("evaluation: invalid employee id")
	ErrInvalidPageSize      = probation.NewValidationError("evaluation: invalid page size")
	ErrInvalidPageToken     = probation.NewValidationError("evaluation: invalid page token")
	ErrEvaluationNotFound   = probation.NewNotFoundError("evaluation: not found")
	ErrSeparationNotFound   = probation.NewNotFoundError("evaluation: separation not found")
	ErrEmployeeNotEligible  = probation.NewStateError("evaluation: employee must be active and under probation")
	ErrOpenEvaluationExists = probation.NewStateError("evaluation: employee already has an open evaluation")
	ErrInvalidWorkflowState = probation.NewStateError("evaluation: ratings submitted out of order")
	ErrVerdictPending       = probation.NewStateError("evaluation: verdict is still pending")
	ErrVersionConflict      = probation.NewStateError("evaluation: modified concurrently")
)
