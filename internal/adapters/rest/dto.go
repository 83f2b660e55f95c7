package rest

import (
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	"github.com/ogurasousui/probation-workflow/internal/core/note"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// EmployeeDTO は社員の JSON 表現です。
type EmployeeDTO struct {
	ID               string  `json:"id"`
	EmployeeCode     string  `json:"employee_code"`
	Name             string  `json:"name"`
	UserID           string  `json:"user_id,omitempty"`
	ReportsTo        string  `json:"reports_to,omitempty"`
	Status           string  `json:"status"`
	EmploymentStatus string  `json:"employment_status"`
	IsUnderProbation bool    `json:"is_under_probation"`
	HiredAt          *string `json:"hired_at,omitempty"`
	ProbationPeriod  string  `json:"probation_period,omitempty"`
	ProbationEndDate *string `json:"probation_end_date,omitempty"`
	ConfirmedAt      *string `json:"confirmed_at,omitempty"`
	Version          int     `json:"version"`
}

type CreateEmployeeRequest struct {
	EmployeeCode     string  `json:"employee_code"`
	Name             string  `json:"name"`
	UserID           string  `json:"user_id"`
	ReportsTo        string  `json:"reports_to"`
	Status           *string `json:"status"`
	EmploymentStatus *string `json:"employment_status"`
	IsUnderProbation bool    `json:"is_under_probation"`
	HiredAt          string  `json:"hired_at"`
	ProbationPeriod  string  `json:"probation_period"`
}

// UpdateEmployeeRequest は部分更新の入力です。日付に空文字列を指定するとクリアします。
type UpdateEmployeeRequest struct {
	EmployeeCode     *string `json:"employee_code"`
	Name             *string `json:"name"`
	UserID           *string `json:"user_id"`
	ReportsTo        *string `json:"reports_to"`
	Status           *string `json:"status"`
	EmploymentStatus *string `json:"employment_status"`
	IsUnderProbation *bool   `json:"is_under_probation"`
	HiredAt          *string `json:"hired_at"`
	ProbationPeriod  *string `json:"probation_period"`
	ProbationEndDate *string `json:"probation_end_date"`
	Version          int     `json:"version"`
}

type ListEmployeesResponse struct {
	Employees     []EmployeeDTO `json:"employees"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type ProbationEndDateResponse struct {
	EmployeeID string `json:"employee_id"`
	EndDate    string `json:"end_date"`
}

type AddNoteRequest struct {
	Body string `json:"body"`
}

type NoteDTO struct {
	ID            string    `json:"id"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   string    `json:"reference_id"`
	Author        string    `json:"author"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

// EvaluationDTO は評価の JSON 表現です。
type EvaluationDTO struct {
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
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type CreateEvaluationRequest struct {
	EmployeeID string `json:"employee_id"`
}

type ListEvaluationsResponse struct {
	Evaluations   []EvaluationDTO `json:"evaluations"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

type ScoreEvaluationRequest struct {
	ScorePercent *decimal.Decimal `json:"score_percent"`
}

type SubmitEvaluationResponse struct {
	Evaluation   EvaluationDTO `json:"evaluation"`
	Employee     *EmployeeDTO  `json:"employee,omitempty"`
	SeparationID string        `json:"separation_id,omitempty"`
}

type ExtendProbationRequest struct {
	Days   int    `json:"days"`
	Reason string `json:"reason"`
}

type ExtendProbationResponse struct {
	EvaluationID    string `json:"evaluation_id"`
	EmployeeID      string `json:"employee_id"`
	PreviousEndDate string `json:"previous_end_date"`
	NewEndDate      string `json:"new_end_date"`
	Verdict         string `json:"verdict"`
}

func toEmployeeDTO(e *employee.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:               e.ID,
		EmployeeCode:     e.EmployeeCode,
		Name:             e.Name,
		UserID:           e.UserID,
		ReportsTo:        e.ReportsTo,
		Status:           string(e.Status),
		EmploymentStatus: string(e.EmploymentStatus),
		IsUnderProbation: e.IsUnderProbation,
		HiredAt:          formatDate(e.HiredAt),
		ProbationPeriod:  e.ProbationPeriod,
		ProbationEndDate: formatDate(e.ProbationEndDate),
		ConfirmedAt:      formatDate(e.ConfirmedAt),
		Version:          e.Version,
	}
}

func toEmployeeDTOs(employees []*employee.Employee) []EmployeeDTO {
	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	return dtos
}

func toNoteDTO(n *note.Note) NoteDTO {
	return NoteDTO{
		ID:            n.ID,
		ReferenceType: string(n.ReferenceType),
		ReferenceID:   n.ReferenceID,
		Author:        n.Author,
		Body:          n.Body,
		CreatedAt:     n.CreatedAt,
	}
}

func toEvaluationDTO(e *evaluation.Evaluation) EvaluationDTO {
	return EvaluationDTO{
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
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return &t, nil
}
