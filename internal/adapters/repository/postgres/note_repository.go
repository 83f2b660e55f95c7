package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/probation-workflow/internal/core/note"
	pgdb "github.com/ogurasousui/probation-workflow/internal/platform/db/postgres"
)

const (
	noteColumns = `id, reference_type, reference_id, author, author_admin, body, created_at`

	defaultNoteListLimit = 20
)

// NoteRepository は PostgreSQL を利用したノート永続化の実装です。
type NoteRepository struct {
	pool pgdb.Queryer
}

// NewNoteRepository は NoteRepository を生成します。
func NewNoteRepository(pool pgdb.Queryer) *NoteRepository {
	return &NoteRepository{pool: pool}
}

// Create はノートを追加します。
func (r *NoteRepository) Create(ctx context.Context, n *note.Note) (*note.Note, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO notes (reference_type, reference_id, author, author_admin, body, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+noteColumns,
		string(n.ReferenceType),
		n.ReferenceID,
		n.Author,
		n.AuthorAdmin,
		n.Body,
		n.CreatedAt,
	)

	created, err := scanNote(row)
	if err != nil {
		return nil, translateNotePgError(err)
	}
	return created, nil
}

// ListByReference は対象レコードのノートを新しい順に取得します。
func (r *NoteRepository) ListByReference(ctx context.Context, filter note.ListFilter) ([]*note.Note, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultNoteListLimit
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+noteColumns+`
          FROM notes
         WHERE reference_type = $1 AND reference_id = $2
         ORDER BY created_at DESC, id DESC
         LIMIT $3`,
		string(filter.ReferenceType),
		filter.ReferenceID,
		limit,
	)
	if err != nil {
		return nil, translateNotePgError(err)
	}
	defer rows.Close()

	notes := make([]*note.Note, 0, limit)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, translateNotePgError(err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, translateNotePgError(err)
	}

	return notes, nil
}

func scanNote(row pgx.Row) (*note.Note, error) {
	var (
		n             note.Note
		referenceType string
	)

	if err := row.Scan(
		&n.ID,
		&referenceType,
		&n.ReferenceID,
		&n.Author,
		&n.AuthorAdmin,
		&n.Body,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}

	n.ReferenceType = note.ReferenceType(referenceType)
	return &n, nil
}

func translateNotePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == checkViolationCode {
		if pgErr.ConstraintName == "notes_body_check" {
			return note.ErrInvalidBody
		}
		return note.ErrInvalidReference
	}
	return err
}
