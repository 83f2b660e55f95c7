package probation

import "time"

// Verdict は試用期間評価の判定結果です。
type Verdict string

const (
	VerdictPending  Verdict = "Pending"
	VerdictPassed   Verdict = "Passed"
	VerdictFailed   Verdict = "Failed"
	VerdictExtended Verdict = "Extended"
)

// DocStatus は評価レコードのライフサイクル上の状態です。
type DocStatus string

const (
	DocStatusDraft     DocStatus = "Draft"
	DocStatusFinalized DocStatus = "Finalized"
	DocStatusCancelled DocStatus = "Cancelled"
)

// EmploymentStatus は社員の雇用区分です。
type EmploymentStatus string

const (
	EmploymentStatusProbation EmploymentStatus = "Probation"
	EmploymentStatusConfirmed EmploymentStatus = "Confirmed"
	EmploymentStatusSeparated EmploymentStatus = "Separated"
)

// IsValid は s が既知の雇用区分かどうかを返します。
func (s EmploymentStatus) IsValid() bool {
	switch s {
	case EmploymentStatusProbation, EmploymentStatusConfirmed, EmploymentStatusSeparated:
		return true
	default:
		return false
	}
}

// Subject は試用期間の判定に用いる社員の情報です。
type Subject struct {
	IsUnderProbation bool
	EmploymentStatus EmploymentStatus
	StartDate        *time.Time
	Period           string
	ProbationEndDate *time.Time
}

// Actor は操作の実行者を表します。
type Actor struct {
	UserID string
	Admin  bool
}

// Name は監査ノートに記録する識別子を返します。
func (a Actor) Name() string {
	if a.UserID == "" && a.Admin {
		return "admin"
	}
	return a.UserID
}

// DateOnly は t を UTC の 0 時に切り詰めます。
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
