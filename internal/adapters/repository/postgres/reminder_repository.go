package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/reminder"
	pgdb "github.com/ogurasousui/probation-workflow/internal/platform/db/postgres"
)

// ReminderRepository は PostgreSQL を利用したリマインダー永続化の実装です。
type ReminderRepository struct {
	pool pgdb.Queryer
}

// NewReminderRepository は ReminderRepository を生成します。
func NewReminderRepository(pool pgdb.Queryer) *ReminderRepository {
	return &ReminderRepository{pool: pool}
}

// Create は同じ社員、宛先、期日の通知が存在しない場合のみ保存します。
func (r *ReminderRepository) Create(ctx context.Context, rem *reminder.Reminder) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        INSERT INTO probation_reminders (employee_id, recipient, due_on, message, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (employee_id, recipient, due_on) DO NOTHING`,
		rem.EmployeeID,
		rem.Recipient,
		nullableDate(&rem.DueOn),
		rem.Message,
		rem.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			return false, employee.ErrEmployeeNotFound
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
