package probation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinExtensionDays      = 1
	MaxExtensionDays      = 30
	MinExtensionReasonLen = 20
)

// ExtensionRequest は延長ルールの判定に必要な情報です。
type ExtensionRequest struct {
	DocStatus DocStatus
	Subject   Subject
	Days      int
	Reason    string
}

// Extension は受理された延長の結果です。
type Extension struct {
	Days            int
	Reason          string
	PreviousEndDate time.Time
	NewEndDate      time.Time
}

// Extend は req を検証し、延長後の終了日を算出します。副作用はなく、永続化は呼び出し側が行います。
// 判定は固定の順序で行い、最初に失敗したルールのエラーを返します。
func Extend(req ExtensionRequest) (Extension, error) {
	if req.DocStatus != DocStatusDraft {
		return Extension{}, ErrAlreadyFinalized
	}
	if req.Days < MinExtensionDays || req.Days > MaxExtensionDays {
		return Extension{}, ErrExtensionDaysOutOfRange
	}

	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) < MinExtensionReasonLen {
		return Extension{}, ErrReasonTooShort
	}

	if !req.Subject.IsUnderProbation {
		return Extension{}, ErrNotUnderProbation
	}
	if req.Subject.ProbationEndDate == nil {
		return Extension{}, ErrMissingProbationEndDate
	}

	previous := DateOnly(*req.Subject.ProbationEndDate)
	return Extension{
		Days:            req.Days,
		Reason:          reason,
		PreviousEndDate: previous,
		NewEndDate:      previous.AddDate(0, 0, req.Days),
	}, nil
}

// AuditMessage は延長時に記録する監査ノートの本文を返します。
func (e Extension) AuditMessage(by string, on time.Time) string {
	return fmt.Sprintf("Probation extended by %d days (from %s to %s). Reason: %s. By: %s on %s",
		e.Days,
		e.PreviousEndDate.Format(dateLayout),
		e.NewEndDate.Format(dateLayout),
		e.Reason,
		by,
		DateOnly(on).Format(dateLayout),
	)
}
