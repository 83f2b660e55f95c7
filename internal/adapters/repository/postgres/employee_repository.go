package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	pgdb "github.com/ogurasousui/probation-workflow/internal/platform/db/postgres"
)

const (
	uniqueViolationCode           = "23505"
	foreignKeyViolationCode       = "23503"
	checkViolationCode            = "23514"
	invalidTextRepresentationCode = "22P02" // UUID 列に UUID 形式でない ID を渡した場合

	employeeProbationStatusCheck = "employees_probation_status_check"
)

const employeeColumns = `id, employee_code, name, COALESCE(user_id, ''), COALESCE(reports_to::text, ''), status,
               employment_status, is_under_probation, hired_at, COALESCE(probation_period, ''),
               probation_end_date, confirmed_at, version, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (employee_code, name, user_id, reports_to, status, employment_status, is_under_probation,
                               hired_at, probation_period, probation_end_date, confirmed_at, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
        RETURNING `+employeeColumns,
		e.EmployeeCode,
		e.Name,
		nullableString(e.UserID),
		nullableString(e.ReportsTo),
		string(e.Status),
		string(e.EmploymentStatus),
		e.IsUnderProbation,
		nullableDate(e.HiredAt),
		nullableString(e.ProbationPeriod),
		nullableDate(e.ProbationEndDate),
		nullableDate(e.ConfirmedAt),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は保存済みのバージョンが一致する場合に社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET employee_code = $1,
               name = $2,
               user_id = $3,
               reports_to = $4,
               status = $5,
               employment_status = $6,
               is_under_probation = $7,
               hired_at = $8,
               probation_period = $9,
               probation_end_date = $10,
               confirmed_at = $11,
               updated_at = $12,
               version = version + 1
         WHERE id = $13 AND version = $14
        RETURNING `+employeeColumns,
		e.EmployeeCode,
		e.Name,
		nullableString(e.UserID),
		nullableString(e.ReportsTo),
		string(e.Status),
		string(e.EmploymentStatus),
		e.IsUnderProbation,
		nullableDate(e.HiredAt),
		nullableString(e.ProbationPeriod),
		nullableDate(e.ProbationEndDate),
		nullableDate(e.ConfirmedAt),
		e.UpdatedAt,
		e.ID,
		e.Version,
	)

	updated, err := scanEmployee(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, translateEmployeePgError(err)
	}

	exists, existsErr := rowExists(ctx, exec, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, e.ID)
	if existsErr != nil {
		return nil, existsErr
	}
	if exists {
		return nil, employee.ErrVersionConflict
	}
	return nil, employee.ErrEmployeeNotFound
}

// Delete は社員を削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByCode は社員コードで社員を取得します。
func (r *EmployeeRepository) FindByCode(ctx context.Context, employeeCode string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE employee_code = $1`, employeeCode)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は条件に一致する社員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 5)
	conditions := make([]string, 0, 3)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.UnderProbation != nil {
		args = append(args, *filter.UnderProbation)
		conditions = append(conditions, "is_under_probation = $"+strconv.Itoa(len(args)))
	}
	if filter.ProbationEndDate != nil {
		args = append(args, nullableDate(filter.ProbationEndDate))
		conditions = append(conditions, "probation_end_date = $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limitWithBuffer)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateEmployeePgError(err)
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e                employee.Employee
		status           string
		employmentStatus string
		hiredAt          sql.NullTime
		probationEnd     sql.NullTime
		confirmedAt      sql.NullTime
	)

	if err := row.Scan(
		&e.ID,
		&e.EmployeeCode,
		&e.Name,
		&e.UserID,
		&e.ReportsTo,
		&status,
		&employmentStatus,
		&e.IsUnderProbation,
		&hiredAt,
		&e.ProbationPeriod,
		&probationEnd,
		&confirmedAt,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.Status = employee.Status(status)
	e.EmploymentStatus = probation.EmploymentStatus(employmentStatus)
	e.HiredAt = datePtr(hiredAt)
	e.ProbationEndDate = datePtr(probationEnd)
	e.ConfirmedAt = datePtr(confirmedAt)

	return &e, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case invalidTextRepresentationCode:
			return employee.ErrEmployeeNotFound
		case uniqueViolationCode:
			return employee.ErrEmployeeCodeAlreadyExists
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == "employees_reports_to_fkey" {
				return employee.ErrManagerNotFound
			}
			return err
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case employeeProbationStatusCheck:
				return probation.ErrStatusChangeBlocked
			case "employees_employment_status_check":
				return employee.ErrInvalidEmploymentStatus
			default:
				return employee.ErrInvalidStatus
			}
		}
	}

	return err
}

func rowExists(ctx context.Context, exec pgdb.Queryer, query string, args ...any) (bool, error) {
	var exists bool
	if err := exec.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableTimestamp(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func datePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &date
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
