package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/reminder"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestReminderRepository_Create(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewReminderRepository(mock)
	now := time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	rem := &reminder.Reminder{
		EmployeeID: "emp-1",
		Recipient:  "taro@example.com",
		DueOn:      due,
		Message:    "Probation of Taro (E001) ends on 2024-03-31.",
		CreatedAt:  now,
	}

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (employee_id, recipient, due_on) DO NOTHING")).
		WithArgs("emp-1", "taro@example.com", due, rem.Message, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (employee_id, recipient, due_on) DO NOTHING")).
		WithArgs("emp-1", "taro@example.com", due, rem.Message, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.Create(context.Background(), rem)
	if err != nil || !created {
		t.Fatalf("expected first insert to be written, got %v %v", created, err)
	}

	created, err = repo.Create(context.Background(), rem)
	if err != nil || created {
		t.Fatalf("expected duplicate to be skipped, got %v %v", created, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReminderRepository_Create_UnknownEmployee(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewReminderRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO probation_reminders")).
		WithArgs(anyArgs(5)...).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})

	if _, err := repo.Create(context.Background(), &reminder.Reminder{EmployeeID: "missing"}); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}
