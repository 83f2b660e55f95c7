package employee

import (
	"context"
	"time"
)

// Repository は社員エンティティの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	// Update は保存済みのバージョンが employee.Version と一致する場合に更新し、
	// 加算後のバージョンを持つ行を返します。一致しない場合は ErrVersionConflict を返します。
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByCode(ctx context.Context, employeeCode string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, string, error)
}

// ListEmployeesFilter は社員一覧取得時の絞り込み条件です。
type ListEmployeesFilter struct {
	Status           *Status
	UnderProbation   *bool
	ProbationEndDate *time.Time
	Limit            int
	Offset           int
}
