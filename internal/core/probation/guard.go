package probation

import (
	"regexp"
	"time"
)

// ValidateStatusChange は試用期間中にもかかわらず雇用区分が Probation 以外の保存を拒否します。
func ValidateStatusChange(s Subject) error {
	if s.IsUnderProbation && s.EmploymentStatus != EmploymentStatusProbation {
		return ErrStatusChangeBlocked
	}
	return nil
}

// ValidateEarlyEnd は承認なしに終了日より前に試用期間を終えることを拒否します。
// 試用期間フラグを外すか、雇用区分を Confirmed に変更した場合を終了とみなします。
func ValidateEarlyEnd(before, after Subject, today time.Time, approved bool) error {
	if before.ProbationEndDate == nil {
		return nil
	}
	if !DateOnly(today).Before(DateOnly(*before.ProbationEndDate)) {
		return nil
	}

	flagCleared := before.IsUnderProbation && !after.IsUnderProbation
	confirmed := after.EmploymentStatus == EmploymentStatusConfirmed &&
		before.EmploymentStatus != EmploymentStatusConfirmed

	if (flagCleared || confirmed) && !approved {
		return ErrEarlyEndNotApproved
	}
	return nil
}

var earlyEndKeywords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bend\b`),
	regexp.MustCompile(`(?i)\bprobation\b`),
	regexp.MustCompile(`(?i)\bearly\b`),
}

// IsEarlyEndApproval は text が end、probation、early の各単語を含むかどうかを返します。
func IsEarlyEndApproval(text string) bool {
	for _, kw := range earlyEndKeywords {
		if !kw.MatchString(text) {
			return false
		}
	}
	return true
}
