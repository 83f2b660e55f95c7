package note

import (
	"context"
	"strings"
)

// Repository はノートの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, n *Note) (*Note, error)
	ListByReference(ctx context.Context, filter ListFilter) ([]*Note, error)
}

// ListFilter は対象レコードの直近のノートを取得する条件です。
type ListFilter struct {
	ReferenceType ReferenceType
	ReferenceID   string
	Limit         int
}

// Validate は紐づけ先と本文が設定されているか検証します。
func (n *Note) Validate() error {
	switch n.ReferenceType {
	case ReferenceEmployee, ReferenceEvaluation, ReferenceSeparation:
	default:
		return ErrInvalidReference
	}
	if strings.TrimSpace(n.ReferenceID) == "" {
		return ErrInvalidReference
	}
	if strings.TrimSpace(n.Body) == "" {
		return ErrInvalidBody
	}
	return nil
}
