package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"care-team-access/internal/domain/notes"
)

type NotesRepo struct {
	db *sql.DB
}

func NewNotesRepo(db *sql.DB) *NotesRepo {
	return &NotesRepo{db: db}
}

var _ notes.Repository = (*NotesRepo)(nil)

const noteColumns = `
	id, child_id, category,
	author_user_id, author_role,
	title, body,
	occurred_at, recorded_at, status
`

func (r *NotesRepo) Create(ctx context.Context, n notes.Note) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		n.ID,
		n.ChildID,
		string(n.Category),
		n.AuthorID,
		n.AuthorRole,
		n.Title,
		n.Body,
		n.OccurredAt,
		n.RecordedAt,
		string(n.Status),
	)
	return err
}

func (r *NotesRepo) Update(ctx context.Context, n notes.Note) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notes
		SET title = $2, body = $3, status = $4
		WHERE id = $1
	`, n.ID, n.Title, n.Body, string(n.Status))
	if err != nil {
		return err
	}
	cnt, _ := res.RowsAffected()
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotesRepo) GetByID(ctx context.Context, id string) (notes.Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return notes.Note{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE id = $1
	`, id)

	return scanNote(row)
}

func (r *NotesRepo) ListByChild(ctx context.Context, childID string, f notes.ListFilter) ([]notes.Note, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return nil, nil
	}

	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE child_id = $1
	`
	args := []any{childID}

	if len(f.Categories) > 0 {
		cats := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			cats = append(cats, string(c))
		}
		args = append(args, cats)
		query += fmt.Sprintf(" AND category = ANY($%d)", len(args))
	}

	query += " ORDER BY occurred_at DESC"

	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notes.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNote(row rowScanner) (notes.Note, error) {
	var n notes.Note
	var category, status string

	if err := row.Scan(
		&n.ID,
		&n.ChildID,
		&category,
		&n.AuthorID,
		&n.AuthorRole,
		&n.Title,
		&n.Body,
		&n.OccurredAt,
		&n.RecordedAt,
		&status,
	); err != nil {
		if err == sql.ErrNoRows {
			return notes.Note{}, ErrNotFound
		}
		return notes.Note{}, err
	}

	n.Category = notes.Category(category)
	n.Status = notes.NoteStatus(status)
	return n, nil
}
