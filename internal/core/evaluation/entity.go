package evaluation

import (
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/shopspring/decimal"
)

// WorkflowState は評価の入力がどこまで進んだかを表します。
type WorkflowState string

const (
	WorkflowOpen            WorkflowState = "open"
	WorkflowAwaitingManager WorkflowState = "awaiting_manager"
	WorkflowCompleted       WorkflowState = "completed"
)

// Evaluation は社員の試用期間評価です。
type Evaluation struct {
	ID              string
	EmployeeID      string
	WorkflowState   WorkflowState
	DocStatus       probation.DocStatus
	Verdict         probation.Verdict
	ScorePercent    *decimal.Decimal
	SelfRatings     *probation.Criteria
	ManagerRatings  *probation.Criteria
	ExtensionDays   *int
	ExtensionReason *string
	FinalizedAt     *time.Time
	FinalizedBy     string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsDraft は評価がまだ変更可能かどうかを返します。
func (e *Evaluation) IsDraft() bool {
	return e.DocStatus == probation.DocStatusDraft
}

// SeparationStatus は退職手続きの状態です。
type SeparationStatus string

const (
	SeparationOpen      SeparationStatus = "open"
	SeparationCancelled SeparationStatus = "cancelled"
)

// Separation は試用期間の不合格時に作成される退職手続きです。
type Separation struct {
	ID               string
	EmployeeID       string
	EvaluationID     string
	Status           SeparationStatus
	BoardingBeginsOn time.Time
	ExitInterview    string
	CreatedAt        time.Time
}
