package handler

import (
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CalculateProbationEndDateRequest struct {
	EmployeeID string `json:"employee_id"`
}

type CalculateProbationEndDateResponse struct {
	EmployeeID string `json:"employee_id"`
	EndDate    string `json:"end_date"`
}

type ExtendProbationRequest struct {
	EvaluationID string `json:"evaluation_id"`
	Days         int    `json:"days"`
	Reason       string `json:"reason"`
}

type ExtendProbationResponse struct {
	EvaluationID    string `json:"evaluation_id"`
	EmployeeID      string `json:"employee_id"`
	PreviousEndDate string `json:"previous_end_date"`
	NewEndDate      string `json:"new_end_date"`
	Verdict         string `json:"verdict"`
}

type ListEligibleEmployeesRequest struct {
	PageSize  int    `json:"page_size"`
	PageToken string `json:"page_token"`
}

type ListEligibleEmployeesResponse struct {
	Employees     []*Employee `json:"employees"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

type CreateEvaluationRequest struct {
	EmployeeID string `json:"employee_id"`
}

type GetEvaluationRequest struct {
	ID string `json:"id"`
}

type ScoreEvaluationRequest struct {
	ID           string          `json:"id"`
	ScorePercent decimal.Decimal `json:"score_percent"`
}

type SubmitRatingsRequest struct {
	ID      string             `json:"id"`
	Ratings probation.Criteria `json:"ratings"`
}

type SubmitEvaluationRequest struct {
	ID string `json:"id"`
}

type EvaluationResponse struct {
	Evaluation *Evaluation `json:"evaluation"`
}

type SubmitEvaluationResponse struct {
	Evaluation   *Evaluation `json:"evaluation"`
	Employee     *Employee   `json:"employee,omitempty"`
	SeparationID string      `json:"separation_id,omitempty"`
}

// Employee は gRPC で返却する社員の表現です。
type Employee struct {
	ID               string `json:"id"`
	EmployeeCode     string `json:"employee_code"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	EmploymentStatus string `json:"employment_status"`
	IsUnderProbation bool   `json:"is_under_probation"`
	ProbationEndDate string `json:"probation_end_date,omitempty"`
	Version          int    `json:"version"`
}

// Evaluation は gRPC で返却する評価の表現です。
type Evaluation struct {
	ID              string              `json:"id"`
	EmployeeID      string              `json:"employee_id"`
	WorkflowState   string              `json:"workflow_state"`
	DocStatus       string              `json:"doc_status"`
	Verdict         string              `json:"verdict"`
	ScorePercent    *decimal.Decimal    `json:"score_percent,omitempty"`
	SelfRatings     *probation.Criteria `json:"self_ratings,omitempty"`
	ManagerRatings  *probation.Criteria `json:"manager_ratings,omitempty"`
	ExtensionDays   *int                `json:"extension_days,omitempty"`
	ExtensionReason *string             `json:"extension_reason,omitempty"`
	FinalizedAt     *time.Time          `json:"finalized_at,omitempty"`
	FinalizedBy     string              `json:"finalized_by,omitempty"`
	Version         int                 `json:"version"`
}

func toEmployeeMessage(e *employee.Employee) *Employee {
	if e == nil {
		return nil
	}
	msg := &Employee{
		ID:               e.ID,
		EmployeeCode:     e.EmployeeCode,
		Name:             e.Name,
		Status:           string(e.Status),
		EmploymentStatus: string(e.EmploymentStatus),
		IsUnderProbation: e.IsUnderProbation,
		Version:          e.Version,
	}
	if e.ProbationEndDate != nil {
		msg.ProbationEndDate = e.ProbationEndDate.Format(dateLayout)
	}
	return msg
}

func toEvaluationMessage(e *evaluation.Evaluation) *Evaluation {
	if e == nil {
		return nil
	}
	return &Evaluation{
		ID:              e.ID,
		EmployeeID:      e.EmployeeID,
		WorkflowState:   string(e.WorkflowState),
		DocStatus:       string(e.DocStatus),
		Verdict:         string(e.Verdict),
		ScorePercent:    e.ScorePercent,
		SelfRatings:     e.SelfRatings,
		ManagerRatings:  e.ManagerRatings,
		ExtensionDays:   e.ExtensionDays,
		ExtensionReason: e.ExtensionReason,
		FinalizedAt:     e.FinalizedAt,
		FinalizedBy:     e.FinalizedBy,
		Version:         e.Version,
	}
}
