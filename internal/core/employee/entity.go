package employee

import (
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/probation"
)

// Status は社員の状態を表します。
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusLeft     Status = "left"
)

// Employee は社員エンティティです。
type Employee struct {
	ID               string
	EmployeeCode     string
	Name             string
	UserID           string
	ReportsTo        string
	Status           Status
	EmploymentStatus probation.EmploymentStatus
	IsUnderProbation bool
	HiredAt          *time.Time
	ProbationPeriod  string
	ProbationEndDate *time.Time
	ConfirmedAt      *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Subject は試用期間の判定に用いる社員情報を返します。
func (e *Employee) Subject() probation.Subject {
	return probation.Subject{
		IsUnderProbation: e.IsUnderProbation,
		EmploymentStatus: e.EmploymentStatus,
		StartDate:        cloneTime(e.HiredAt),
		Period:           e.ProbationPeriod,
		ProbationEndDate: cloneTime(e.ProbationEndDate),
	}
}

// IsEligibleForEvaluation は新しい試用期間評価を作成できるかどうかを返します。
func (e *Employee) IsEligibleForEvaluation() bool {
	return e.IsUnderProbation && e.Status == StatusActive
}
