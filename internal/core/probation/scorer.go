package probation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// PassThreshold は Passed と判定される最小の割合です (境界値を含む)。
	PassThreshold = decimal.NewFromInt(70)

	minScore = decimal.Zero
	maxScore = decimal.NewFromInt(100)
)

const (
	minRating = 1
	maxRating = 10
)

// Score は割合から判定結果を求めます。[0, 100] の範囲外は拒否します。
func Score(percent decimal.Decimal) (Verdict, error) {
	if percent.LessThan(minScore) || percent.GreaterThan(maxScore) {
		return "", fmt.Errorf("%w: got %s", ErrScoreOutOfRange, percent.String())
	}
	if percent.GreaterThanOrEqual(PassThreshold) {
		return VerdictPassed, nil
	}
	return VerdictFailed, nil
}

// Criteria は評価者一人分の評点です。各項目は 1 から 10 です。
type Criteria struct {
	Theoretical       int `json:"theoretical"`
	Practical         int `json:"practical"`
	QualityOfWork     int `json:"quality_of_work"`
	TeamWork          int `json:"team_work"`
	Interpersonal     int `json:"interpersonal"`
	CapacityToDevelop int `json:"capacity_to_develop"`
}

func (c Criteria) fields() []struct {
	name  string
	value int
} {
	return []struct {
		name  string
		value int
	}{
		{"theoretical", c.Theoretical},
		{"practical", c.Practical},
		{"quality_of_work", c.QualityOfWork},
		{"team_work", c.TeamWork},
		{"interpersonal", c.Interpersonal},
		{"capacity_to_develop", c.CapacityToDevelop},
	}
}

// Validate は全項目が範囲内か検証し、範囲外の項目名をエラーに含めます。
func (c Criteria) Validate() error {
	var bad []string
	for _, f := range c.fields() {
		if f.value < minRating || f.value > maxRating {
			bad = append(bad, f.name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrRatingOutOfRange, strings.Join(bad, ", "))
	}
	return nil
}

func (c Criteria) sum() int {
	total := 0
	for _, f := range c.fields() {
		total += f.value
	}
	return total
}

// RatingPercent は本人と上長の評点を合算し、小数第 2 位に丸めた割合を返します。
func RatingPercent(self, manager Criteria) (decimal.Decimal, error) {
	if err := self.Validate(); err != nil {
		return decimal.Zero, fmt.Errorf("self: %w", err)
	}
	if err := manager.Validate(); err != nil {
		return decimal.Zero, fmt.Errorf("manager: %w", err)
	}

	count := len(self.fields()) + len(manager.fields())
	total := decimal.NewFromInt(int64(self.sum() + manager.sum()))
	ceiling := decimal.NewFromInt(int64(count * maxRating))

	return total.Div(ceiling).Mul(maxScore).Round(2), nil
}
