package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var employeeColumnNames = []string{
	"id", "employee_code", "name", "user_id", "reports_to", "status", "employment_status", "is_under_probation",
	"hired_at", "probation_period", "probation_end_date", "confirmed_at", "version", "created_at", "updated_at",
}

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func anyArgs(n int, tail ...any) []any {
	args := make([]any, 0, n+len(tail))
	for i := 0; i < n; i++ {
		args = append(args, pgxmock.AnyArg())
	}
	return append(args, tail...)
}

func probationerRow(now time.Time, version int) []any {
	return []any{
		"emp-1", "E-001", "Yamada Taro", "taro@example.com", "mgr-1",
		string(employee.StatusActive), string(probation.EmploymentStatusProbation), true,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "90 days", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), nil,
		version, now, now,
	}
}

func TestScanEmployee_Success(t *testing.T) {
	t.Parallel()

	hired := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	createdAt := time.Now().UTC()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 15 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "emp-1"
		*(dest[1].(*string)) = "E-001"
		*(dest[2].(*string)) = "Yamada Taro"
		*(dest[3].(*string)) = "taro@example.com"
		*(dest[4].(*string)) = "mgr-1"
		*(dest[5].(*string)) = string(employee.StatusActive)
		*(dest[6].(*string)) = string(probation.EmploymentStatusProbation)
		*(dest[7].(*bool)) = true

		hiredDest := dest[8].(*sql.NullTime)
		hiredDest.Time = hired
		hiredDest.Valid = true

		*(dest[9].(*string)) = "90 days"

		endDest := dest[10].(*sql.NullTime)
		endDest.Time = end
		endDest.Valid = true

		*(dest[12].(*int)) = 3
		*(dest[13].(*time.Time)) = createdAt
		*(dest[14].(*time.Time)) = createdAt
		return nil
	}}

	emp, err := scanEmployee(row)
	if err != nil {
		t.Fatalf("scanEmployee returned error: %v", err)
	}

	if emp.HiredAt == nil || !emp.HiredAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected hired date truncated to day, got %+v", emp.HiredAt)
	}
	if emp.ProbationEndDate == nil || !emp.ProbationEndDate.Equal(end) {
		t.Fatalf("expected end date, got %+v", emp.ProbationEndDate)
	}
	if emp.ConfirmedAt != nil {
		t.Fatalf("expected nil confirmed date, got %+v", emp.ConfirmedAt)
	}
	if emp.EmploymentStatus != probation.EmploymentStatusProbation || emp.Version != 3 || emp.ReportsTo != "mgr-1" {
		t.Fatalf("unexpected employee: %+v", emp)
	}
}

func TestScanEmployee_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanEmployee(row)
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestTranslateEmployeePgError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, employee.ErrEmployeeCodeAlreadyExists},
		{"manager fk", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "employees_reports_to_fkey"}, employee.ErrManagerNotFound},
		{"probation check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: employeeProbationStatusCheck}, probation.ErrStatusChangeBlocked},
		{"employment status check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "employees_employment_status_check"}, employee.ErrInvalidEmploymentStatus},
		{"status check", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "employees_status_check"}, employee.ErrInvalidStatus},
		{"no rows", pgx.ErrNoRows, employee.ErrEmployeeNotFound},
		{"malformed uuid", &pgconn.PgError{Code: invalidTextRepresentationCode}, employee.ErrEmployeeNotFound},
	}

	for _, tt := range tests {
		if got := translateEmployeePgError(tt.err); !errors.Is(got, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}

	other := errors.New("other")
	if translateEmployeePgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestEmployeeRepository_FindByID_MalformedID(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE id = $1")).
		WithArgs("emp-404").
		WillReturnError(&pgconn.PgError{Code: invalidTextRepresentationCode, Message: `invalid input syntax for type uuid: "emp-404"`})

	_, err := repo.FindByID(context.Background(), "emp-404")
	if !errors.Is(err, employee.ErrEmployeeNotFound) || !errors.Is(err, probation.ErrNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_Create(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewEmployeeRepository(mock)
	now := time.Now().UTC()
	hired := time.Date(2024, 1, 1, 15, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WithArgs("E-001", "Yamada Taro", "taro@example.com", "mgr-1", "active", "Probation", true,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "90 days", end, nil, now, now).
		WillReturnRows(pgxmock.NewRows(employeeColumnNames).AddRow(probationerRow(now, 1)...))

	created, err := repo.Create(context.Background(), &employee.Employee{
		EmployeeCode:     "E-001",
		Name:             "Yamada Taro",
		UserID:           "taro@example.com",
		ReportsTo:        "mgr-1",
		Status:           employee.StatusActive,
		EmploymentStatus: probation.EmploymentStatusProbation,
		IsUnderProbation: true,
		HiredAt:          &hired,
		ProbationPeriod:  "90 days",
		ProbationEndDate: &end,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "emp-1" || created.Version != 1 {
		t.Fatalf("unexpected created employee: %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_Create_Duplicate(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WithArgs(anyArgs(13)...).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	_, err := repo.Create(context.Background(), &employee.Employee{EmployeeCode: "E-001", Name: "dup"})
	if !errors.Is(err, employee.ErrEmployeeCodeAlreadyExists) {
		t.Fatalf("expected ErrEmployeeCodeAlreadyExists, got %v", err)
	}
}

func TestEmployeeRepository_Update_VersionChecked(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewEmployeeRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $13 AND version = $14")).
		WithArgs(anyArgs(12, "emp-1", 1)...).
		WillReturnRows(pgxmock.NewRows(employeeColumnNames).AddRow(probationerRow(now, 2)...))

	emp := &employee.Employee{ID: "emp-1", Version: 1, UpdatedAt: now}
	updated, err := repo.Update(context.Background(), emp)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_Update_ConflictAndNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{"stale version", true, employee.ErrVersionConflict},
		{"missing row", false, employee.ErrEmployeeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := newMockPool(t)
			repo := NewEmployeeRepository(mock)

			mock.ExpectQuery(regexp.QuoteMeta("UPDATE employees")).
				WithArgs(anyArgs(14)...).
				WillReturnRows(pgxmock.NewRows(employeeColumnNames))
			mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)")).
				WithArgs("emp-1").
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			_, err := repo.Update(context.Background(), &employee.Employee{ID: "emp-1", Version: 1})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestEmployeeRepository_List_WithFilters(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewEmployeeRepository(mock)
	status := employee.StatusActive
	underProbation := true
	due := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	first := probationerRow(now, 1)
	second := probationerRow(now, 1)
	second[0], second[1] = "emp-2", "E-002"
	third := probationerRow(now, 1)
	third[0], third[1] = "emp-3", "E-003"

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE status = $1 AND is_under_probation = $2 AND probation_end_date = $3")).
		WithArgs("active", true, due, 3, 0).
		WillReturnRows(pgxmock.NewRows(employeeColumnNames).AddRow(first...).AddRow(second...).AddRow(third...))

	employees, next, err := repo.List(context.Background(), employee.ListEmployeesFilter{
		Status:           &status,
		UnderProbation:   &underProbation,
		ProbationEndDate: &due,
		Limit:            2,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(employees) != 2 || next != "2" {
		t.Fatalf("expected 2 employees and next token 2, got %d and %q", len(employees), next)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_List_InvalidPaging(t *testing.T) {
	t.Parallel()

	repo := NewEmployeeRepository(newMockPool(t))

	if _, _, err := repo.List(context.Background(), employee.ListEmployeesFilter{}); !errors.Is(err, employee.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, _, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 1, Offset: -1}); !errors.Is(err, employee.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestEmployeeRepository_Delete(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees WHERE id = $1")).
		WithArgs("emp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "emp-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
