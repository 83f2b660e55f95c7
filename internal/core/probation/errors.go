package probation

import "errors"

// エラー種別です。各ルールエラーはいずれか一つに unwrap されます。
var (
	ErrValidation   = errors.New("probation: validation failed")
	ErrState        = errors.New("probation: invalid state")
	ErrNotFound     = errors.New("probation: not found")
	ErrInvalidInput = errors.New("probation: invalid input")
	ErrPermission   = errors.New("probation: permission denied")
)

// ValidationError は不正または範囲外の入力を表します。
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() []error { return []error{e.Err, ErrValidation} }

// StateError は現在の状態では実行できない操作を表します。
type StateError struct {
	Err error
}

func (e *StateError) Error() string { return e.Err.Error() }
func (e *StateError) Unwrap() []error { return []error{e.Err, ErrState} }

// NotFoundError は参照先のレコードが存在しないことを表します。
type NotFoundError struct {
	Err error
}

func (e *NotFoundError) Error() string { return e.Err.Error() }
func (e *NotFoundError) Unwrap() []error { return []error{e.Err, ErrNotFound} }

// InvalidInputError は呼び出し側が渡すべきデータの欠落を表します。
type InvalidInputError struct {
	Err error
}

func (e *InvalidInputError) Error() string { return e.Err.Error() }
func (e *InvalidInputError) Unwrap() []error { return []error{e.Err, ErrInvalidInput} }

// PermissionError は実行者に操作の権限がないことを表します。
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string { return e.Err.Error() }
func (e *PermissionError) Unwrap() []error { return []error{e.Err, ErrPermission} }

// NewValidationError は msg を ValidationError として生成します。
func NewValidationError(msg string) error { return &ValidationError{Err: errors.New(msg)} }

// NewStateError は msg を StateError として生成します。
func NewStateError(msg string) error { return &StateError{Err: errors.New(msg)} }

// NewNotFoundError は msg を NotFoundError として生成します。
func NewNotFoundError(msg string) error { return &NotFoundError{Err: errors.New(msg)} }

// NewInvalidInputError は msg を InvalidInputError として生成します。
func NewInvalidInputError(msg string) error { return &InvalidInputError{Err: errors.New(msg)} }

// NewPermissionError は msg を PermissionError として生成します。
func NewPermissionError(msg string) error { return &PermissionError{Err: errors.New(msg)} }

var (
	ErrStatusChangeBlocked     = NewValidationError("status change blocked while under probation")
	ErrExtensionDaysOutOfRange = NewValidationError("extension must be 1-30 days")
	ErrReasonTooShort          = NewValidationError("reason too short")
	ErrRatingOutOfRange        = NewValidationError("ratings must be between 1 and 10")
	ErrAlreadyFinalized        = NewStateError("already finalized")
	ErrNotUnderProbation       = NewStateError("employee is not under probation")
	ErrEarlyEndNotApproved     = NewStateError("probation cannot end early without manager approval")
	ErrScoreOutOfRange         = NewInvalidInputError("score must be between 0 and 100")
	ErrMissingStartDate        = NewInvalidInputError("start date is required")
	ErrMissingProbationEndDate = NewInvalidInputError("probation end date is required")
	ErrInvalidPeriod           = NewInvalidInputError("invalid probation period")
	ErrExtensionNotPermitted   = NewPermissionError("only the reporting manager or an admin can extend probation")
)
