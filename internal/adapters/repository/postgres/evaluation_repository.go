package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	pgdb "github.com/ogurasousui/probation-workflow/internal/platform/db/postgres"
	"github.com/shopspring/decimal"
)

const evaluationColumns = `id, employee_id, workflow_state, doc_status, verdict, score_percent::text,
               self_ratings, manager_ratings, extension_days, extension_reason, finalized_at,
               finalized_by, version, created_at, updated_at`

// EvaluationRepository は PostgreSQL を利用した試用期間評価の永続化の実装です。
type EvaluationRepository struct {
	pool pgdb.Queryer
}

// NewEvaluationRepository は EvaluationRepository を生成します。
func NewEvaluationRepository(pool pgdb.Queryer) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

// Create は評価を新規作成します。
func (r *EvaluationRepository) Create(ctx context.Context, e *evaluation.Evaluation) (*evaluation.Evaluation, error) {
	args, err := evaluationArgs(e)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO probation_evaluations (employee_id, workflow_state, doc_status, verdict, score_percent,
                                           self_ratings, manager_ratings, extension_days, extension_reason,
                                           finalized_at, finalized_by, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, 1, $12, $13)
        RETURNING `+evaluationColumns,
		append(args, e.CreatedAt, e.UpdatedAt)...,
	)

	created, err := scanEvaluation(row)
	if err != nil {
		return nil, translateEvaluationPgError(err)
	}
	return created, nil
}

// Update は保存済みのバージョンが一致する場合に評価を更新します。
func (r *EvaluationRepository) Update(ctx context.Context, e *evaluation.Evaluation) (*evaluation.Evaluation, error) {
	args, err := evaluationArgs(e)
	if err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE probation_evaluations
           SET employee_id = $1,
               workflow_state = $2,
               doc_status = $3,
               verdict = $4,
               score_percent = $5::numeric,
               self_ratings = $6,
               manager_ratings = $7,
               extension_days = $8,
               extension_reason = $9,
               finalized_at = $10,
               finalized_by = $11,
               updated_at = $12,
               version = version + 1
         WHERE id = $13 AND version = $14
        RETURNING `+evaluationColumns,
		append(args, e.UpdatedAt, e.ID, e.Version)...,
	)

	updated, err := scanEvaluation(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, evaluation.ErrEvaluationNotFound) {
		return nil, translateEvaluationPgError(err)
	}

	exists, existsErr := rowExists(ctx, exec, `SELECT EXISTS (SELECT 1 FROM probation_evaluations WHERE id = $1)`, e.ID)
	if existsErr != nil {
		return nil, existsErr
	}
	if exists {
		return nil, evaluation.ErrVersionConflict
	}
	return nil, evaluation.ErrEvaluationNotFound
}

// FindByID は ID で評価を取得します。
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*evaluation.Evaluation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+evaluationColumns+` FROM probation_evaluations WHERE id = $1`, id)

	found, err := scanEvaluation(row)
	if err != nil {
		return nil, translateEvaluationPgError(err)
	}
	return found, nil
}

// FindByIDForUpdate は評価を取得し、トランザクション終了まで行をロックします。
func (r *EvaluationRepository) FindByIDForUpdate(ctx context.Context, id string) (*evaluation.Evaluation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+evaluationColumns+` FROM probation_evaluations WHERE id = $1 FOR UPDATE`, id)

	found, err := scanEvaluation(row)
	if err != nil {
		return nil, translateEvaluationPgError(err)
	}
	return found, nil
}

// FindOpenByEmployee は社員の未確定の評価を取得します。
func (r *EvaluationRepository) FindOpenByEmployee(ctx context.Context, employeeID string) (*evaluation.Evaluation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+evaluationColumns+`
          FROM probation_evaluations
         WHERE employee_id = $1 AND doc_status = $2
         ORDER BY created_at DESC
         LIMIT 1`,
		employeeID,
		string(probation.DocStatusDraft),
	)

	found, err := scanEvaluation(row)
	if err != nil {
		return nil, translateEvaluationPgError(err)
	}
	return found, nil
}

// List は社員の評価履歴を新しい順に取得します。
func (r *EvaluationRepository) List(ctx context.Context, filter evaluation.ListEvaluationsFilter) ([]*evaluation.Evaluation, string, error) {
	if strings.TrimSpace(filter.EmployeeID) == "" {
		return nil, "", evaluation.ErrInvalidEmployeeID
	}
	if filter.Limit <= 0 {
		return nil, "", evaluation.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", evaluation.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := []any{filter.EmployeeID}
	conditions := []string{"employee_id = $1"}

	if filter.DocStatus != nil {
		args = append(args, string(*filter.DocStatus))
		conditions = append(conditions, "doc_status = $"+strconv.Itoa(len(args)))
	}

	args = append(args, limitWithBuffer)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := `
        SELECT ` + evaluationColumns + `
          FROM probation_evaluations
         WHERE ` + strings.Join(conditions, " AND ") + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateEvaluationPgError(err)
	}
	defer rows.Close()

	evaluations := make([]*evaluation.Evaluation, 0, filter.Limit)
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, "", translateEvaluationPgError(err)
		}
		evaluations = append(evaluations, e)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateEvaluationPgError(err)
	}

	var nextToken string
	if len(evaluations) == limitWithBuffer {
		evaluations = evaluations[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return evaluations, nextToken, nil
}

// evaluationArgs は INSERT と UPDATE に共通する $1 から $11 の引数を返します。
func evaluationArgs(e *evaluation.Evaluation) ([]any, error) {
	selfRatings, err := marshalRatings(e.SelfRatings)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode self ratings: %w", err)
	}
	managerRatings, err := marshalRatings(e.ManagerRatings)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode manager ratings: %w", err)
	}

	var score any
	if e.ScorePercent != nil {
		score = e.ScorePercent.String()
	}

	var extensionDays any
	if e.ExtensionDays != nil {
		extensionDays = *e.ExtensionDays
	}

	var extensionReason any
	if e.ExtensionReason != nil {
		extensionReason = *e.ExtensionReason
	}

	return []any{
		e.EmployeeID,
		string(e.WorkflowState),
		string(e.DocStatus),
		string(e.Verdict),
		score,
		selfRatings,
		managerRatings,
		extensionDays,
		extensionReason,
		nullableTimestamp(e.FinalizedAt),
		e.FinalizedBy,
	}, nil
}

func marshalRatings(c *probation.Criteria) (any, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func unmarshalRatings(raw []byte) (*probation.Criteria, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var c probation.Criteria
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanEvaluation(row pgx.Row) (*evaluation.Evaluation, error) {
	var (
		e               evaluation.Evaluation
		workflowState   string
		docStatus       string
		verdict         string
		score           sql.NullString
		selfRatings     []byte
		managerRatings  []byte
		extensionDays   sql.NullInt32
		extensionReason sql.NullString
		finalizedAt     sql.NullTime
	)

	if err := row.Scan(
		&e.ID,
		&e.EmployeeID,
		&workflowState,
		&docStatus,
		&verdict,
		&score,
		&selfRatings,
		&managerRatings,
		&extensionDays,
		&extensionReason,
		&finalizedAt,
		&e.FinalizedBy,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, evaluation.ErrEvaluationNotFound
		}
		return nil, err
	}

	e.WorkflowState = evaluation.WorkflowState(workflowState)
	e.DocStatus = probation.DocStatus(docStatus)
	e.Verdict = probation.Verdict(verdict)
	e.FinalizedAt = timePtr(finalizedAt)

	if score.Valid {
		d, err := decimal.NewFromString(score.String)
		if err != nil {
			return nil, fmt.Errorf("postgres: decode score %q: %w", score.String, err)
		}
		e.ScorePercent = &d
	}

	var err error
	if e.SelfRatings, err = unmarshalRatings(selfRatings); err != nil {
		return nil, fmt.Errorf("postgres: decode self ratings: %w", err)
	}
	if e.ManagerRatings, err = unmarshalRatings(managerRatings); err != nil {
		return nil, fmt.Errorf("postgres: decode manager ratings: %w", err)
	}

	if extensionDays.Valid {
		days := int(extensionDays.Int32)
		e.ExtensionDays = &days
	}
	if extensionReason.Valid {
		reason := extensionReason.String
		e.ExtensionReason = &reason
	}

	return &e, nil
}

func translateEvaluationPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return evaluation.ErrEvaluationNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case invalidTextRepresentationCode:
			return evaluation.ErrEvaluationNotFound
		case uniqueViolationCode:
			return evaluation.ErrOpenEvaluationExists
		case foreignKeyViolationCode:
			return employee.ErrEmployeeNotFound
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "probation_evaluations_score_check":
				return probation.ErrScoreOutOfRange
			case "probation_evaluations_extension_check":
				return probation.ErrExtensionDaysOutOfRange
			}
		}
	}

	return err
}
