package reminder

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeEmployeeRepo struct {
	employees []*employee.Employee
	listErr   error
	filters   []employee.ListEmployeesFilter
}

func (r *fakeEmployeeRepo) Create(context.Context, *employee.Employee) (*employee.Employee, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeEmployeeRepo) Update(context.Context, *employee.Employee) (*employee.Employee, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeEmployeeRepo) Delete(context.Context, string) error {
	return errors.New("not implemented")
}

func (r *fakeEmployeeRepo) FindByCode(context.Context, string) (*employee.Employee, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	for _, e := range r.employees {
		if e.ID == id {
			clone := *e
			return &clone, nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	r.filters = append(r.filters, filter)
	if r.listErr != nil {
		return nil, "", r.listErr
	}

	var matched []*employee.Employee
	for _, e := range r.employees {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.UnderProbation != nil && e.IsUnderProbation != *filter.UnderProbation {
			continue
		}
		if filter.ProbationEndDate != nil && (e.ProbationEndDate == nil || !e.ProbationEndDate.Equal(*filter.ProbationEndDate)) {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}

	if filter.Offset > len(matched) {
		return nil, "", nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	next := ""
	if end < len(matched) {
		next = strconv.Itoa(end)
	}
	return matched[filter.Offset:end], next, nil
}

type reminderKey struct {
	employeeID string
	recipient  string
	dueOn      time.Time
}

type fakeReminderRepo struct {
	stored map[reminderKey]*Reminder
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{stored: make(map[reminderKey]*Reminder)}
}

func (r *fakeReminderRepo) Create(_ context.Context, rem *Reminder) (bool, error) {
	key := reminderKey{employeeID: rem.EmployeeID, recipient: rem.Recipient, dueOn: rem.DueOn}
	if _, ok := r.stored[key]; ok {
		return false, nil
	}
	clone := *rem
	r.stored[key] = &clone
	return true, nil
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func roster() []*employee.Employee {
	return []*employee.Employee{
		{ID: "mgr", UserID: "mgr@example.com", Status: employee.StatusActive},
		{ID: "due", Name: "Due", EmployeeCode: "E-1", UserID: "due@example.com", ReportsTo: "mgr", Status: employee.StatusActive, IsUnderProbation: true, ProbationEndDate: date(2024, time.March, 31)},
		{ID: "later", UserID: "later@example.com", ReportsTo: "mgr", Status: employee.StatusActive, IsUnderProbation: true, ProbationEndDate: date(2024, time.April, 1)},
		{ID: "inactive", UserID: "inactive@example.com", ReportsTo: "mgr", Status: employee.StatusInactive, IsUnderProbation: true, ProbationEndDate: date(2024, time.March, 31)},
		{ID: "nouser", ReportsTo: "mgr", Status: employee.StatusActive, IsUnderProbation: true, ProbationEndDate: date(2024, time.March, 31)},
	}
}

func TestRunner_RunDaily(t *testing.T) {
	t.Parallel()

	employees := &fakeEmployeeRepo{employees: roster()}
	reminders := newFakeReminderRepo()
	core, logs := observer.New(zapcore.InfoLevel)
	runner := NewRunner(employees, reminders, 15, stubClock{now: time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC)}, zap.New(core))

	result, err := runner.RunDaily(context.Background(), time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunDaily returned error: %v", err)
	}

	if !result.DueOn.Equal(*date(2024, time.March, 31)) {
		t.Fatalf("expected due date 2024-03-31, got %v", result.DueOn)
	}
	if result.Employees != 2 || result.Created != 3 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	want := map[reminderKey]bool{
		{employeeID: "due", recipient: "due@example.com", dueOn: *date(2024, time.March, 31)}:    true,
		{employeeID: "due", recipient: "mgr@example.com", dueOn: *date(2024, time.March, 31)}:    true,
		{employeeID: "nouser", recipient: "mgr@example.com", dueOn: *date(2024, time.March, 31)}: true,
	}
	for key := range reminders.stored {
		if !want[key] {
			t.Fatalf("unexpected reminder %+v", key)
		}
	}

	msg := reminders.stored[reminderKey{employeeID: "due", recipient: "due@example.com", dueOn: *date(2024, time.March, 31)}].Message
	if msg != "Probation of Due (E-1) ends on 2024-03-31." {
		t.Fatalf("unexpected message %q", msg)
	}

	if logs.FilterMessage("probation reminders processed").Len() != 1 {
		t.Fatalf("expected summary log entry")
	}
}

func TestRunner_RunDaily_Idempotent(t *testing.T) {
	t.Parallel()

	employees := &fakeEmployeeRepo{employees: roster()}
	reminders := newFakeReminderRepo()
	runner := NewRunner(employees, reminders, 0, nil, nil)
	today := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)

	if _, err := runner.RunDaily(context.Background(), today); err != nil {
		t.Fatalf("first run returned error: %v", err)
	}
	result, err := runner.RunDaily(context.Background(), today)
	if err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	if result.Created != 0 || result.Skipped != 3 {
		t.Fatalf("expected everything skipped, got %+v", result)
	}
	if len(reminders.stored) != 3 {
		t.Fatalf("expected 3 reminders, got %d", len(reminders.stored))
	}
}

func TestRunner_RunDaily_Pages(t *testing.T) {
	t.Parallel()

	var list []*employee.Employee
	for i := 0; i < scanPageSize+5; i++ {
		list = append(list, &employee.Employee{
			ID:               "emp-" + strconv.Itoa(i),
			UserID:           "user-" + strconv.Itoa(i),
			Status:           employee.StatusActive,
			IsUnderProbation: true,
			ProbationEndDate: date(2024, time.March, 31),
		})
	}
	employees := &fakeEmployeeRepo{employees: list}
	runner := NewRunner(employees, newFakeReminderRepo(), 15, nil, nil)

	result, err := runner.RunDaily(context.Background(), time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunDaily returned error: %v", err)
	}
	if result.Employees != scanPageSize+5 || result.Created != scanPageSize+5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(employees.filters) != 2 || employees.filters[1].Offset != scanPageSize {
		t.Fatalf("expected two pages, got %+v", employees.filters)
	}
}

func TestRunner_RunDaily_ListError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	runner := NewRunner(&fakeEmployeeRepo{listErr: boom}, newFakeReminderRepo(), 15, nil, nil)

	if _, err := runner.RunDaily(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
}
