package employee

import "github.com/ogurasousui/probation-workflow/internal/core/probation"

var (
	ErrInvalidID                 = probation.NewValidationError("employee: invalid id")
	ErrInvalidEmployeeCode       = probation.NewValidationError("employee: invalid employee code")
	ErrInvalidName               = probation.NewValidationError("employee: invalid name")
	ErrInvalidStatus             = probation.NewValidationError("employee: invalid status")
	ErrInvalidEmploymentStatus   = probation.NewValidationError("employee: invalid employment status")
	ErrInvalidManager            = probation.NewValidationError("employee: employee cannot report to themselves")
	ErrInvalidPageSize           = probation.NewValidationError("employee: invalid page size")
	ErrInvalidPageToken          = probation.NewValidationError("employee: invalid page token")
	ErrEmployeeNotFound          = probation.NewNotFoundError("employee: not found")
	ErrManagerNotFound           = probation.NewNotFoundError("employee: reporting manager not found")
	ErrEmployeeCodeAlreadyExists = probation.NewStateError("employee: employee code already exists")
	ErrVersionConflict           = probation.NewStateError("employee: modified concurrently")
	ErrProbationTermsAdminOnly   = probation.NewPermissionError("employee: only an admin can change the reporting line or probation terms")
)
