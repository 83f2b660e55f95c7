package evaluation

import (
	"context"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
)

// Repository は評価の永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, evaluation *Evaluation) (*Evaluation, error)
	// Update は保存済みのバージョンが一致する場合に更新し、加算後のバージョンを持つ行を返します。
	// 一致しない場合は ErrVersionConflict を返します。
	Update(ctx context.Context, evaluation *Evaluation) (*Evaluation, error)
	FindByID(ctx context.Context, id string) (*Evaluation, error)
	// FindByIDForUpdate はトランザクション終了まで行をロックします。
	FindByIDForUpdate(ctx context.Context, id string) (*Evaluation, error)
	FindOpenByEmployee(ctx context.Context, employeeID string) (*Evaluation, error)
	List(ctx context.Context, filter ListEvaluationsFilter) ([]*Evaluation, string, error)
}

// ListEvaluationsFilter は評価一覧取得時の絞り込み条件です。
type ListEvaluationsFilter struct {
	EmployeeID string
	DocStatus  *probation.DocStatus
	Limit      int
	Offset     int
}

// SeparationRepository は退職手続きの永続化を行うインターフェースです。
type SeparationRepository interface {
	// FindActiveByEmployee は取り消されていない退職手続きを返します。なければ ErrSeparationNotFound です。
	FindActiveByEmployee(ctx context.Context, employeeID string) (*Separation, error)
	Create(ctx context.Context, separation *Separation) (*Separation, error)
}

// EmployeeRepository はワークフローが利用する社員永続化の操作です。
type EmployeeRepository interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
	Update(ctx context.Context, employee *employee.Employee) (*employee.Employee, error)
}
