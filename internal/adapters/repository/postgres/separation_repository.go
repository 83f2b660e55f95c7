package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	pgdb "github.com/ogurasousui/probation-workflow/internal/platform/db/postgres"
)

const separationColumns = `id, employee_id, COALESCE(evaluation_id::text, ''), status, boarding_begins_on, exit_interview, created_at`

// SeparationRepository は PostgreSQL を利用した退職手続きの永続化の実装です。
type SeparationRepository struct {
	pool pgdb.Queryer
}

// NewSeparationRepository は SeparationRepository を生成します。
func NewSeparationRepository(pool pgdb.Queryer) *SeparationRepository {
	return &SeparationRepository{pool: pool}
}

// FindActiveByEmployee は取り消されていない退職手続きを取得します。
func (r *SeparationRepository) FindActiveByEmployee(ctx context.Context, employeeID string) (*evaluation.Separation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+separationColumns+`
          FROM employee_separations
         WHERE employee_id = $1 AND status <> $2
         ORDER BY created_at DESC
         LIMIT 1`,
		employeeID,
		string(evaluation.SeparationCancelled),
	)

	found, err := scanSeparation(row)
	if err != nil {
		return nil, translateSeparationPgError(err)
	}
	return found, nil
}

// Create は退職手続きを作成します。
func (r *SeparationRepository) Create(ctx context.Context, s *evaluation.Separation) (*evaluation.Separation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employee_separations (employee_id, evaluation_id, status, boarding_begins_on, exit_interview, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+separationColumns,
		s.EmployeeID,
		nullableString(s.EvaluationID),
		string(s.Status),
		nullableDate(&s.BoardingBeginsOn),
		s.ExitInterview,
		s.CreatedAt,
	)

	created, err := scanSeparation(row)
	if err != nil {
		return nil, translateSeparationPgError(err)
	}
	return created, nil
}

func scanSeparation(row pgx.Row) (*evaluation.Separation, error) {
	var (
		s        evaluation.Separation
		status   string
		beginsOn sql.NullTime
	)

	if err := row.Scan(
		&s.ID,
		&s.EmployeeID,
		&s.EvaluationID,
		&status,
		&beginsOn,
		&s.ExitInterview,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}

	s.Status = evaluation.SeparationStatus(status)
	if d := datePtr(beginsOn); d != nil {
		s.BoardingBeginsOn = *d
	}
	return &s, nil
}

func translateSeparationPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return evaluation.ErrSeparationNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == "employee_separations_employee_id_fkey" {
				return employee.ErrEmployeeNotFound
			}
			return evaluation.ErrEvaluationNotFound
		}
	}
	return err
}
