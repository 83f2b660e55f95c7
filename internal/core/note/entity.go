package note

import "time"

// ReferenceType はノートの紐づけ先レコードの種別です。
type ReferenceType string

const (
	ReferenceEmployee   ReferenceType = "employee"
	ReferenceEvaluation ReferenceType = "evaluation"
	ReferenceSeparation ReferenceType = "separation"
)

// Note はレコードに紐づくコメントまたは監査記録です。
type Note struct {
	ID            string
	ReferenceType ReferenceType
	ReferenceID   string
	Author        string
	AuthorAdmin   bool
	Body          string
	CreatedAt     time.Time
}
