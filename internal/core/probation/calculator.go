package probation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// PeriodUnit は試用期間の単位です。
type PeriodUnit int

const (
	PeriodUnknown PeriodUnit = iota
	PeriodDays
	PeriodMonths
	PeriodFixedDate
)

// Period は試用期間のポリシーです。日数、月数、または固定の終了日で表します。
type Period struct {
	Unit   PeriodUnit
	Amount int
	Until  time.Time
}

var periodPattern = regexp.MustCompile(`^(\d+)\s*([a-z]*)$`)

// ParsePeriod は "90"、"90 days"、"90d"、"3 months"、"3mo"、"2024-06-30" の形式を解析します。
func ParsePeriod(raw string) (Period, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Period{}, fmt.Errorf("%w: empty", ErrInvalidPeriod)
	}

	if until, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return Period{Unit: PeriodFixedDate, Until: until}, nil
	}

	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}

	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}

	switch m[2] {
	case "", "d", "day", "days":
		return Period{Unit: PeriodDays, Amount: amount}, nil
	case "m", "mo", "mos", "month", "months":
		return Period{Unit: PeriodMonths, Amount: amount}, nil
	default:
		return Period{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidPeriod, m[2])
	}
}

// String は ParsePeriod が受け付ける形式で p を返します。
func (p Period) String() string {
	switch p.Unit {
	case PeriodDays:
		return fmt.Sprintf("%d days", p.Amount)
	case PeriodMonths:
		return fmt.Sprintf("%d months", p.Amount)
	case PeriodFixedDate:
		return p.Until.Format(dateLayout)
	default:
		return ""
	}
}

// EndDate は start に p を適用します。月単位の加算は対象月の末日に丸めます。
func (p Period) EndDate(start time.Time) time.Time {
	start = DateOnly(start)
	switch p.Unit {
	case PeriodDays:
		return start.AddDate(0, 0, p.Amount)
	case PeriodMonths:
		return addMonths(start, p.Amount)
	case PeriodFixedDate:
		return DateOnly(p.Until)
	default:
		return start
	}
}

// Calculator は開始日と期間ポリシーから試用期間の終了日を算出します。
type Calculator struct {
	defaultPeriod Period
}

// NewCalculator は対象者に期間がない場合 defaultPeriod を用いる Calculator を生成します。
func NewCalculator(defaultPeriod Period) *Calculator {
	return &Calculator{defaultPeriod: defaultPeriod}
}

// DefaultPeriod は設定された既定の期間ポリシーを返します。
func (c *Calculator) DefaultPeriod() Period {
	return c.defaultPeriod
}

// ComputeEndDate は s の試用期間終了日を返します。
func (c *Calculator) ComputeEndDate(s Subject) (time.Time, error) {
	if s.StartDate == nil {
		return time.Time{}, ErrMissingStartDate
	}

	period := c.defaultPeriod
	if strings.TrimSpace(s.Period) != "" {
		parsed, err := ParsePeriod(s.Period)
		if err != nil {
			return time.Time{}, err
		}
		period = parsed
	}

	if period.Unit == PeriodUnknown {
		return time.Time{}, fmt.Errorf("%w: no period configured", ErrInvalidPeriod)
	}

	start := DateOnly(*s.StartDate)
	end := period.EndDate(start)
	if end.Before(start) {
		return time.Time{}, fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidPeriod, end.Format(dateLayout), start.Format(dateLayout))
	}

	return end, nil
}

func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
