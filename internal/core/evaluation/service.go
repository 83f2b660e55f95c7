package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/note"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/shopspring/decimal"
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
)

// Service は試用期間評価のワークフローをまとめます。
type Service struct {
	repo        Repository
	employees   EmployeeRepository
	notes       note.Repository
	separations SeparationRepository
	clock       Clock
	tx          TransactionManager
}

// UseCase は評価ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEvaluation(ctx context.Context, in CreateEvaluationInput) (*Evaluation, error)
	GetEvaluation(ctx context.Context, in GetEvaluationInput) (*Evaluation, error)
	ListEvaluations(ctx context.Context, in ListEvaluationsInput) (*ListEvaluationsResult, error)
	ScoreEvaluation(ctx context.Context, in ScoreEvaluationInput) (*Evaluation, error)
	SubmitSelfRatings(ctx context.Context, in RateEvaluationInput) (*Evaluation, error)
	SubmitManagerRatings(ctx context.Context, in RateEvaluationInput) (*Evaluation, error)
	SubmitEvaluation(ctx context.Context, in SubmitEvaluationInput) (*SubmitEvaluationResult, error)
	ExtendProbation(ctx context.Context, in ExtendProbationInput) (*ExtendProbationResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeRepository, notes note.Repository, separations SeparationRepository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:        repo,
		employees:   employees,
		notes:       notes,
		separations: separations,
		clock:       clock,
		tx:          tx,
	}
}

// CreateEvaluationInput は評価作成時の入力です。
type CreateEvaluationInput struct {
	EmployeeID string
}

// GetEvaluationInput は評価取得時の入力です。
type GetEvaluationInput struct {
	ID string
}

// ListEvaluationsInput は社員の評価履歴を新しい順に取得する際の入力です。
type ListEvaluationsInput struct {
	EmployeeID string
	DocStatus  *probation.DocStatus
	PageSize   int
	PageToken  string
}

// ListEvaluationsResult は一覧取得結果を表します。
type ListEvaluationsResult struct {
	Evaluations   []*Evaluation
	NextPageToken string
}

// ScoreEvaluationInput は評価点の入力です。
type ScoreEvaluationInput struct {
	ID           string
	ScorePercent decimal.Decimal
}

// RateEvaluationInput は評価者一人分の評点の入力です。
type RateEvaluationInput struct {
	ID      string
	Ratings probation.Criteria
}

// SubmitEvaluationInput は評価確定時の入力です。
type SubmitEvaluationInput struct {
	ID    string
	Actor probation.Actor
}

// SubmitEvaluationResult は評価確定の結果です。
type SubmitEvaluationResult struct {
	Evaluation *Evaluation
	Employee   *employee.Employee
	Separation *Separation
}

// ExtendProbationInput は試用期間延長の入力です。
type ExtendProbationInput struct {
	EvaluationID string
	Days         int
	Reason       string
	Actor        probation.Actor
}

// ExtendProbationResult は受理された延長の結果です。
type ExtendProbationResult struct {
	EvaluationID    string
	EmployeeID      string
	PreviousEndDate time.Time
	NewEndDate      time.Time
	Verdict         probation.Verdict
}

// CreateEvaluation は下書きの評価を作成します。社員が評価対象であり、
// 未確定の評価が存在しないことが条件です。
func (s *Service) CreateEvaluation(ctx context.Context, in CreateEvaluationInput) (*Evaluation, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, ErrInvalidEmployeeID
	}

	var created *Evaluation
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}
		if !emp.IsEligibleForEvaluation() {
			return ErrEmployeeNotEligible
		}

		open, err := s.repo.FindOpenByEmployee(txCtx, employeeID)
		if err != nil && !errors.Is(err, ErrEvaluationNotFound) {
			return err
		}
		if open != nil {
			return ErrOpenEvaluationExists
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Evaluation{
			EmployeeID:    employeeID,
			WorkflowState: WorkflowOpen,
			DocStatus:     probation.DocStatusDraft,
			Verdict:       probation.VerdictPending,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
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

// GetEvaluation は ID で評価を取得します。
func (s *Service) GetEvaluation(ctx context.Context, in GetEvaluationInput) (*Evaluation, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Evaluation
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

// ListEvaluations は社員の評価履歴を取得します。
func (s *Service) ListEvaluations(ctx context.Context, in ListEvaluationsInput) (*ListEvaluationsResult, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, ErrInvalidEmployeeID
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		evaluations []*Evaluation
		nextToken   string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListEvaluationsFilter{
			EmployeeID: employeeID,
			DocStatus:  in.DocStatus,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		evaluations = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEvaluationsResult{Evaluations: evaluations, NextPageToken: nextToken}, nil
}

// ScoreEvaluation は評価点から判定結果を求めます。評価は下書きのままです。
func (s *Service) ScoreEvaluation(ctx context.Context, in ScoreEvaluationInput) (*Evaluation, error) {
	verdict, err := probation.Score(in.ScorePercent)
	if err != nil {
		return nil, err
	}

	return s.mutateDraft(ctx, in.ID, func(e *Evaluation) error {
		score := in.ScorePercent
		e.ScorePercent = &score
		e.Verdict = verdict
		return nil
	})
}

// SubmitSelfRatings は本人評価を記録し、上長の評価待ちに進めます。
func (s *Service) SubmitSelfRatings(ctx context.Context, in RateEvaluationInput) (*Evaluation, error) {
	if err := in.Ratings.Validate(); err != nil {
		return nil, fmt.Errorf("self: %w", err)
	}

	return s.mutateDraft(ctx, in.ID, func(e *Evaluation) error {
		if e.WorkflowState != WorkflowOpen {
			return ErrInvalidWorkflowState
		}
		ratings := in.Ratings
		e.SelfRatings = &ratings
		e.WorkflowState = WorkflowAwaitingManager
		return nil
	})
}

// SubmitManagerRatings は上長の評点を記録し、合算した割合から判定結果を求めます。
func (s *Service) SubmitManagerRatings(ctx context.Context, in RateEvaluationInput) (*Evaluation, error) {
	if err := in.Ratings.Validate(); err != nil {
		return nil, fmt.Errorf("manager: %w", err)
	}

	return s.mutateDraft(ctx, in.ID, func(e *Evaluation) error {
		if e.WorkflowState != WorkflowAwaitingManager || e.SelfRatings == nil {
			return ErrInvalidWorkflowState
		}

		percent, err := probation.RatingPercent(*e.SelfRatings, in.Ratings)
		if err != nil {
			return err
		}
		verdict, err := probation.Score(percent)
		if err != nil {
			return err
		}

		ratings := in.Ratings
		e.ManagerRatings = &ratings
		e.ScorePercent = &percent
		e.Verdict = verdict
		e.WorkflowState = WorkflowCompleted
		return nil
	})
}

func (s *Service) mutateDraft(ctx context.Context, id string, mutate func(*Evaluation) error) (*Evaluation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Evaluation
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		eval, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !eval.IsDraft() {
			return probation.ErrAlreadyFinalized
		}

		if err := mutate(eval); err != nil {
			return err
		}
		eval.UpdatedAt = s.clock.Now()

		result, err := s.save(txCtx, eval)
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

// SubmitEvaluation は Passed または Failed の下書きを確定します。Passed の場合は社員を本採用にし、
// Failed の場合は有効な退職手続きがなければ作成します。
func (s *Service) SubmitEvaluation(ctx context.Context, in SubmitEvaluationInput) (*SubmitEvaluationResult, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *SubmitEvaluationResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		eval, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}
		if !eval.IsDraft() {
			return probation.ErrAlreadyFinalized
		}

		emp, err := s.employees.FindByID(txCtx, eval.EmployeeID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		today := probation.DateOnly(now)
		res := &SubmitEvaluationResult{}

		switch eval.Verdict {
		case probation.VerdictPassed:
			emp.IsUnderProbation = false
			emp.EmploymentStatus = probation.EmploymentStatusConfirmed
			emp.ConfirmedAt = &today
			emp.UpdatedAt = now
			updatedEmp, err := s.employees.Update(txCtx, emp)
			if err != nil {
				return err
			}
			res.Employee = updatedEmp
		case probation.VerdictFailed:
			sep, err := s.ensureSeparation(txCtx, eval, today, in.Actor)
			if err != nil {
				return err
			}
			res.Employee = emp
			res.Separation = sep
		default:
			return ErrVerdictPending
		}

		eval.DocStatus = probation.DocStatusFinalized
		eval.WorkflowState = WorkflowCompleted
		eval.FinalizedAt = &now
		eval.FinalizedBy = in.Actor.Name()
		eval.UpdatedAt = now

		saved, err := s.save(txCtx, eval)
		if err != nil {
			return err
		}
		res.Evaluation = saved
		result = res
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) ensureSeparation(ctx context.Context, eval *Evaluation, today time.Time, actor probation.Actor) (*Separation, error) {
	existing, err := s.separations.FindActiveByEmployee(ctx, eval.EmployeeID)
	if err != nil && !errors.Is(err, ErrSeparationNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	sep, err := s.separations.Create(ctx, &Separation{
		EmployeeID:       eval.EmployeeID,
		EvaluationID:     eval.ID,
		Status:           SeparationOpen,
		BoardingBeginsOn: today,
		ExitInterview:    fmt.Sprintf("Auto-initiated on probation failure from evaluation %s.", eval.ID),
		CreatedAt:        s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.notes.Create(ctx, &note.Note{
		ReferenceType: note.ReferenceSeparation,
		ReferenceID:   sep.ID,
		Author:        actor.Name(),
		AuthorAdmin:   actor.Admin,
		Body:          fmt.Sprintf("Created from probation evaluation %s (verdict %s).", eval.ID, probation.VerdictFailed),
		CreatedAt:     s.clock.Now(),
	}); err != nil {
		return nil, err
	}

	return sep, nil
}

// ExtendProbation は試用期間を延長します。社員の終了日、確定した評価、監査ノートは
// 一つのトランザクションで書き込み、失敗時はいずれのレコードも変更しません。
func (s *Service) ExtendProbation(ctx context.Context, in ExtendProbationInput) (*ExtendProbationResult, error) {
	if strings.TrimSpace(in.EvaluationID) == "" {
		return nil, fmt.Errorf("evaluation_id: %w", ErrInvalidID)
	}

	var result *ExtendProbationResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		eval, err := s.repo.FindByIDForUpdate(txCtx, in.EvaluationID)
		if err != nil {
			return err
		}

		emp, err := s.employees.FindByID(txCtx, eval.EmployeeID)
		if err != nil {
			return err
		}

		ext, err := probation.Extend(probation.ExtensionRequest{
			DocStatus: eval.DocStatus,
			Subject:   emp.Subject(),
			Days:      in.Days,
			Reason:    in.Reason,
		})
		if err != nil {
			return err
		}

		if err := s.authorizeExtension(txCtx, emp, in.Actor); err != nil {
			return err
		}

		now := s.clock.Now()
		days := ext.Days
		reason := ext.Reason
		eval.ExtensionDays = &days
		eval.ExtensionReason = &reason
		eval.Verdict = probation.VerdictExtended
		eval.WorkflowState = WorkflowCompleted
		eval.DocStatus = probation.DocStatusFinalized
		eval.FinalizedAt = &now
		eval.FinalizedBy = in.Actor.Name()
		eval.UpdatedAt = now

		saved, err := s.save(txCtx, eval)
		if err != nil {
			return err
		}

		newEnd := ext.NewEndDate
		emp.ProbationEndDate = &newEnd
		emp.UpdatedAt = now
		if _, err := s.employees.Update(txCtx, emp); err != nil {
			return err
		}

		if _, err := s.notes.Create(txCtx, &note.Note{
			ReferenceType: note.ReferenceEmployee,
			ReferenceID:   emp.ID,
			Author:        in.Actor.Name(),
			AuthorAdmin:   in.Actor.Admin,
			Body:          ext.AuditMessage(in.Actor.Name(), now),
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		result = &ExtendProbationResult{
			EvaluationID:    saved.ID,
			EmployeeID:      emp.ID,
			PreviousEndDate: ext.PreviousEndDate,
			NewEndDate:      ext.NewEndDate,
			Verdict:         saved.Verdict,
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// authorizeExtension は管理者と社員の上長のみを許可します。
func (s *Service) authorizeExtension(ctx context.Context, emp *employee.Employee, actor probation.Actor) error {
	if actor.Admin {
		return nil
	}
	if actor.UserID == "" || emp.ReportsTo == "" {
		return probation.ErrExtensionNotPermitted
	}

	manager, err := s.employees.FindByID(ctx, emp.ReportsTo)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return probation.ErrExtensionNotPermitted
		}
		return err
	}
	if manager.UserID == "" || manager.UserID != actor.UserID {
		return probation.ErrExtensionNotPermitted
	}
	return nil
}

// save は楽観ロックで eval を書き込みます。競合相手が評価を確定済みの場合は ErrAlreadyFinalized を返します。
func (s *Service) save(ctx context.Context, eval *Evaluation) (*Evaluation, error) {
	saved, err := s.repo.Update(ctx, eval)
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, ErrVersionConflict) {
		return nil, err
	}

	current, findErr := s.repo.FindByID(ctx, eval.ID)
	if findErr != nil {
		return nil, errors.Join(err, findErr)
	}
	if !current.IsDraft() {
		return nil, probation.ErrAlreadyFinalized
	}
	return nil, err
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
