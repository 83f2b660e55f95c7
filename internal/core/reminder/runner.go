package reminder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"go.uber.org/zap"
)

const (
	// DefaultLeadDays は終了日の何日前に通知するかの既定値です。
	DefaultLeadDays = 15

	scanPageSize = 100
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Runner は試用期間終了の日次リマインダーを作成します。
type Runner struct {
	employees employee.Repository
	reminders Repository
	leadDays  int
	clock     Clock
	logger    *zap.Logger
}

// Result は一回の実行結果です。
type Result struct {
	DueOn     time.Time
	Employees int
	Created   int
	Skipped   int
}

// NewRunner は Runner を生成します。leadDays が 0 以下の場合は DefaultLeadDays を用います。
func NewRunner(employees employee.Repository, reminders Repository, leadDays int, clock Clock, logger *zap.Logger) *Runner {
	if leadDays <= 0 {
		leadDays = DefaultLeadDays
	}
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		employees: employees,
		reminders: reminders,
		leadDays:  leadDays,
		clock:     clock,
		logger:    logger,
	}
}

// RunDaily は today の leadDays 日後に試用期間が終わる在籍社員について、本人と上長に通知を作成します。
// 同じ日に再実行しても新たな通知は作成しません。
func (r *Runner) RunDaily(ctx context.Context, today time.Time) (*Result, error) {
	dueOn := probation.DateOnly(today).AddDate(0, 0, r.leadDays)
	result := &Result{DueOn: dueOn}

	active := employee.StatusActive
	underProbation := true
	offset := 0

	for {
		batch, next, err := r.employees.List(ctx, employee.ListEmployeesFilter{
			Status:           &active,
			UnderProbation:   &underProbation,
			ProbationEndDate: &dueOn,
			Limit:            scanPageSize,
			Offset:           offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list employees: %w", err)
		}

		for _, emp := range batch {
			result.Employees++
			if err := r.remind(ctx, emp, dueOn, result); err != nil {
				return nil, err
			}
		}

		if next == "" {
			break
		}
		offset, err = strconv.Atoi(next)
		if err != nil {
			return nil, fmt.Errorf("page token %q: %w", next, err)
		}
	}

	r.logger.Info("probation reminders processed",
		zap.String("due_on", dueOn.Format(time.DateOnly)),
		zap.Int("employees", result.Employees),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (r *Runner) remind(ctx context.Context, emp *employee.Employee, dueOn time.Time, result *Result) error {
	recipients, err := r.recipients(ctx, emp)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		r.logger.Warn("probationer has no user to remind", zap.String("employee_id", emp.ID))
		return nil
	}

	message := fmt.Sprintf("Probation of %s (%s) ends on %s.", emp.Name, emp.EmployeeCode, dueOn.Format(time.DateOnly))
	for _, recipient := range recipients {
		created, err := r.reminders.Create(ctx, &Reminder{
			EmployeeID: emp.ID,
			Recipient:  recipient,
			DueOn:      dueOn,
			Message:    message,
			CreatedAt:  r.clock.Now(),
		})
		if err != nil {
			return fmt.Errorf("create reminder for %s: %w", emp.ID, err)
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	return nil
}

func (r *Runner) recipients(ctx context.Context, emp *employee.Employee) ([]string, error) {
	var out []string
	if emp.UserID != "" {
		out = append(out, emp.UserID)
	}
	if emp.ReportsTo == "" {
		return out, nil
	}

	manager, err := r.employees.FindByID(ctx, emp.ReportsTo)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			r.logger.Warn("reporting manager missing", zap.String("employee_id", emp.ID), zap.String("manager_id", emp.ReportsTo))
			return out, nil
		}
		return nil, fmt.Errorf("find manager %s: %w", emp.ReportsTo, err)
	}
	if manager.UserID != "" && manager.UserID != emp.UserID {
		out = append(out, manager.UserID)
	}
	return out, nil
}
