package employee

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/note"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200

	// approvalNoteScanLimit は早期終了の承認を探す直近ノートの件数です。
	approvalNoteScanLimit = 10
)

var employeeCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	notes note.Repository
	calc  *probation.Calculator
	clock Clock
	tx    TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	ListEligibleEmployees(ctx context.Context, in ListEligibleEmployeesInput) (*ListEmployeesResult, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
	CalculateProbationEndDate(ctx context.Context, in GetEmployeeInput) (*ProbationEndDateResult, error)
	AddEmployeeNote(ctx context.Context, in AddEmployeeNoteInput) (*note.Note, error)
}

// NewService は Service を生成します。calculator が nil の場合は既定の期間がなく、
// 個別に期間を持つ社員のみ終了日を算出できます。
func NewService(repo Repository, notes note.Repository, calc *probation.Calculator, clock Clock, tx TransactionManager) *Service {
	if calc == nil {
		calc = probation.NewCalculator(probation.Period{})
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, notes: notes, calc: calc, clock: clock, tx: tx}
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	EmployeeCode     string
	Name             string
	UserID           string
	ReportsTo        string
	Status           *Status
	EmploymentStatus *probation.EmploymentStatus
	IsUnderProbation bool
	HiredAt          *time.Time
	ProbationPeriod  string
}

// UpdateEmployeeInput は社員更新時の入力です。nil のフィールドは変更しません。
type UpdateEmployeeInput struct {
	ID                  string
	EmployeeCode        *string
	Name                *string
	UserID              *string
	ReportsTo           *string
	Status              *Status
	EmploymentStatus    *probation.EmploymentStatus
	IsUnderProbation    *bool
	HiredAt             *time.Time
	HiredAtSet          bool
	ProbationPeriod     *string
	ProbationEndDate    *time.Time
	ProbationEndDateSet bool
	// ExpectedVersion が 0 以外で古い場合は更新を拒否します。
	ExpectedVersion int
	// Actor は上長や試用期間の条件を変更できるかの判定に使います。
	Actor probation.Actor
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	ID string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	PageSize       int
	PageToken      string
	Status         *Status
	UnderProbation *bool
}

// ListEligibleEmployeesInput は評価対象社員の一覧取得時の入力です。
type ListEligibleEmployeesInput struct {
	PageSize  int
	PageToken string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// ProbationEndDateResult は算出した試用期間終了日です。
type ProbationEndDateResult struct {
	EmployeeID string
	EndDate    time.Time
}

// AddEmployeeNoteInput は社員へのノート追加時の入力です。
type AddEmployeeNoteInput struct {
	EmployeeID string
	Body       string
	Actor      probation.Actor
}

// CreateEmployee は社員を作成します。試用期間中で入社した社員は終了日を算出し、
// 雇用区分を Probation に設定します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	code, err := normalizeEmployeeCode(in.EmployeeCode)
	if err != nil {
		return nil, err
	}

	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	period, err := normalizePeriod(in.ProbationPeriod)
	if err != nil {
		return nil, err
	}

	status := StatusActive
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status = *in.Status
	}

	emp := &Employee{
		EmployeeCode:     code,
		Name:             name,
		UserID:           strings.TrimSpace(in.UserID),
		ReportsTo:        strings.TrimSpace(in.ReportsTo),
		Status:           status,
		EmploymentStatus: probation.EmploymentStatusConfirmed,
		IsUnderProbation: in.IsUnderProbation,
		HiredAt:          normalizeDate(in.HiredAt),
		ProbationPeriod:  period,
	}

	if in.EmploymentStatus != nil {
		if !in.EmploymentStatus.IsValid() {
			return nil, ErrInvalidEmploymentStatus
		}
		emp.EmploymentStatus = *in.EmploymentStatus
	}

	if emp.IsUnderProbation {
		end, err := s.calc.ComputeEndDate(emp.Subject())
		if err != nil {
			return nil, err
		}
		emp.ProbationEndDate = &end
		emp.EmploymentStatus = probation.EmploymentStatusProbation
	}

	if err := probation.ValidateStatusChange(emp.Subject()); err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmployeeCodeNotExists(txCtx, code); err != nil {
			return err
		}
		if err := s.ensureManagerExists(txCtx, emp.ReportsTo); err != nil {
			return err
		}

		now := s.clock.Now()
		emp.Version = 1
		emp.CreatedAt = now
		emp.UpdatedAt = now

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEmployee は社員情報を更新します。保存のたびに雇用区分のガードを実行し、
// 試用期間の開始時または期間の変更時に終了日を再計算します。終了日より前の終了には承認が必要です。
// 上長や試用期間の条件を変更できるのは管理者だけです。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.ExpectedVersion != 0 && in.ExpectedVersion != existing.Version {
			return ErrVersionConflict
		}

		before := existing.Subject()
		snapshot := *existing

		if err := s.applyUpdate(txCtx, existing, in); err != nil {
			return err
		}

		started := !before.IsUnderProbation && existing.IsUnderProbation
		if started && in.EmploymentStatus == nil {
			existing.EmploymentStatus = probation.EmploymentStatusProbation
		}

		periodChanged := in.HiredAtSet || in.ProbationPeriod != nil
		if existing.IsUnderProbation && (started || periodChanged) && !in.ProbationEndDateSet {
			end, err := s.calc.ComputeEndDate(existing.Subject())
			if err != nil {
				return err
			}
			existing.ProbationEndDate = &end
		}

		if !in.Actor.Admin && probationTermsChanged(&snapshot, existing) {
			return ErrProbationTermsAdminOnly
		}

		if err := probation.ValidateStatusChange(existing.Subject()); err != nil {
			return err
		}

		today := probation.DateOnly(s.clock.Now())
		if err := s.checkEarlyEnd(txCtx, existing, before, today); err != nil {
			return err
		}

		if before.IsUnderProbation && !existing.IsUnderProbation &&
			existing.EmploymentStatus == probation.EmploymentStatusConfirmed && existing.ConfirmedAt == nil {
			existing.ConfirmedAt = &today
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) applyUpdate(ctx context.Context, existing *Employee, in UpdateEmployeeInput) error {
	if in.EmployeeCode != nil {
		code, err := normalizeEmployeeCode(*in.EmployeeCode)
		if err != nil {
			return err
		}
		if code != existing.EmployeeCode {
			if err := s.ensureEmployeeCodeNotExists(ctx, code); err != nil {
				return err
			}
			existing.EmployeeCode = code
		}
	}

	if in.Name != nil {
		name, err := normalizeName(*in.Name)
		if err != nil {
			return err
		}
		existing.Name = name
	}

	if in.UserID != nil {
		existing.UserID = strings.TrimSpace(*in.UserID)
	}

	if in.ReportsTo != nil {
		manager := strings.TrimSpace(*in.ReportsTo)
		if manager == existing.ID {
			return ErrInvalidManager
		}
		if manager != existing.ReportsTo {
			if err := s.ensureManagerExists(ctx, manager); err != nil {
				return err
			}
		}
		existing.ReportsTo = manager
	}

	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return ErrInvalidStatus
		}
		existing.Status = *in.Status
	}

	if in.EmploymentStatus != nil {
		if !in.EmploymentStatus.IsValid() {
			return ErrInvalidEmploymentStatus
		}
		existing.EmploymentStatus = *in.EmploymentStatus
	}

	if in.IsUnderProbation != nil {
		existing.IsUnderProbation = *in.IsUnderProbation
	}

	if in.HiredAtSet {
		existing.HiredAt = normalizeDate(in.HiredAt)
	}

	if in.ProbationPeriod != nil {
		period, err := normalizePeriod(*in.ProbationPeriod)
		if err != nil {
			return err
		}
		existing.ProbationPeriod = period
	}

	if in.ProbationEndDateSet {
		existing.ProbationEndDate = normalizeDate(in.ProbationEndDate)
	}

	return nil
}

func (s *Service) checkEarlyEnd(ctx context.Context, emp *Employee, before probation.Subject, today time.Time) error {
	err := probation.ValidateEarlyEnd(before, emp.Subject(), today, false)
	if !errors.Is(err, probation.ErrEarlyEndNotApproved) {
		return err
	}

	approved, approvalErr := s.hasEarlyEndApproval(ctx, emp)
	if approvalErr != nil {
		return approvalErr
	}
	if approved {
		return nil
	}
	return err
}

// hasEarlyEndApproval は上長または管理者による早期終了承認のノートを直近から探します。
func (s *Service) hasEarlyEndApproval(ctx context.Context, emp *Employee) (bool, error) {
	if s.notes == nil {
		return false, nil
	}

	var managerUserID string
	if emp.ReportsTo != "" {
		manager, err := s.repo.FindByID(ctx, emp.ReportsTo)
		if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
			return false, err
		}
		if manager != nil {
			managerUserID = manager.UserID
		}
	}

	notes, err := s.notes.ListByReference(ctx, note.ListFilter{
		ReferenceType: note.ReferenceEmployee,
		ReferenceID:   emp.ID,
		Limit:         approvalNoteScanLimit,
	})
	if err != nil {
		return false, err
	}

	for _, n := range notes {
		byApprover := n.AuthorAdmin || (managerUserID != "" && n.Author == managerUserID)
		if byApprover && probation.IsEarlyEndApproval(n.Body) {
			return true, nil
		}
	}
	return false, nil
}

// DeleteEmployee は社員を削除します。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, in.ID)
	})
}

// GetEmployee は ID で社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// CalculateProbationEndDate は現在の開始日と期間から試用期間終了日を算出します。永続化は行いません。
func (s *Service) CalculateProbationEndDate(ctx context.Context, in GetEmployeeInput) (*ProbationEndDateResult, error) {
	emp, err := s.GetEmployee(ctx, in)
	if err != nil {
		return nil, err
	}

	end, err := s.calc.ComputeEndDate(emp.Subject())
	if err != nil {
		return nil, err
	}

	return &ProbationEndDateResult{EmployeeID: emp.ID, EndDate: end}, nil
}

// ListEmployees は社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	var statusPtr *Status
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	return s.list(ctx, in.PageSize, in.PageToken, ListEmployeesFilter{
		Status:         statusPtr,
		UnderProbation: in.UnderProbation,
	})
}

// ListEligibleEmployees は試用期間中の在籍社員を一覧します。
func (s *Service) ListEligibleEmployees(ctx context.Context, in ListEligibleEmployeesInput) (*ListEmployeesResult, error) {
	return s.list(ctx, in.PageSize, in.PageToken, EligibleFilter())
}

// EligibleFilter は評価対象社員の絞り込み条件を返します。
func EligibleFilter() ListEmployeesFilter {
	active := StatusActive
	underProbation := true
	return ListEmployeesFilter{Status: &active, UnderProbation: &underProbation}
}

func (s *Service) list(ctx context.Context, pageSize int, pageToken string, filter ListEmployeesFilter) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(pageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(pageToken)
	if err != nil {
		return nil, err
	}

	filter.Limit = limit
	filter.Offset = offset

	var (
		employees []*Employee
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		resultEmployees, token, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		employees = resultEmployees
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// AddEmployeeNote は社員にノートを追加します。
func (s *Service) AddEmployeeNote(ctx context.Context, in AddEmployeeNoteInput) (*note.Note, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, fmt.Errorf("employee_id: %w", ErrInvalidID)
	}
	if s.notes == nil {
		return nil, errors.New("employee: note repository is not configured")
	}

	n := &note.Note{
		ReferenceType: note.ReferenceEmployee,
		ReferenceID:   strings.TrimSpace(in.EmployeeID),
		Author:        in.Actor.Name(),
		AuthorAdmin:   in.Actor.Admin,
		Body:          strings.TrimSpace(in.Body),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}

	var created *note.Note
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, n.ReferenceID); err != nil {
			return err
		}

		n.CreatedAt = s.clock.Now()
		result, err := s.notes.Create(txCtx, n)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

func (s *Service) ensureEmployeeCodeNotExists(ctx context.Context, code string) error {
	emp, err := s.repo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return ErrEmployeeCodeAlreadyExists
	}
	return nil
}

func (s *Service) ensureManagerExists(ctx context.Context, managerID string) error {
	if managerID == "" {
		return nil
	}
	if _, err := s.repo.FindByID(ctx, managerID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return ErrManagerNotFound
		}
		return err
	}
	return nil
}

func normalizeEmployeeCode(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmployeeCode
	}

	lower := strings.ToLower(trimmed)
	if !employeeCodePattern.MatchString(lower) {
		return "", ErrInvalidEmployeeCode
	}
	return lower, nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizePeriod(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if _, err := probation.ParsePeriod(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &normalized
}

// probationTermsChanged は上長・ユーザー ID・雇用区分・試用期間の条件のいずれかが変わったかを返します。
func probationTermsChanged(before, after *Employee) bool {
	return before.UserID != after.UserID ||
		before.ReportsTo != after.ReportsTo ||
		before.EmploymentStatus != after.EmploymentStatus ||
		before.IsUnderProbation != after.IsUnderProbation ||
		before.ProbationPeriod != after.ProbationPeriod ||
		!sameDate(before.HiredAt, after.HiredAt) ||
		!sameDate(before.ProbationEndDate, after.ProbationEndDate)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive, StatusLeft:
		return true
	default:
		return false
	}
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
