package postgres

import (
	"context"
	"database/sql"
	"strings"

	"care-team-access/internal/domain/children"
)

type ChildrenRepo struct {
	db *sql.DB
}

func NewChildrenRepo(db *sql.DB) *ChildrenRepo {
	return &ChildrenRepo{db: db}
}

var _ children.Repository = (*ChildrenRepo)(nil)

func (r *ChildrenRepo) Create(ctx context.Context, c children.Child) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO children (
			id, guardian_user_id, name, birth_date, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		c.ID,
		c.GuardianID,
		c.Name,
		toNullTime(c.BirthDate),
		c.Notes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *ChildrenRepo) GetByID(ctx context.Context, id string) (children.Child, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return children.Child{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, guardian_user_id, name, birth_date, notes, created_at, updated_at
		FROM children
		WHERE id = $1
	`, id)

	var c children.Child
	var birthDate sql.NullTime

	if err := row.Scan(
		&c.ID,
		&c.GuardianID,
		&c.Name,
		&birthDate,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return children.Child{}, ErrNotFound
		}
		return children.Child{}, err
	}

	c.BirthDate = fromNullTime(birthDate)
	return c, nil
}

func (r *ChildrenRepo) ListByGuardian(ctx context.Context, guardianID string) ([]children.Child, error) {
	guardianID = strings.TrimSpace(guardianID)
	if guardianID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, guardian_user_id, name, birth_date, notes, created_at, updated_at
		FROM children
		WHERE guardian_user_id = $1
		ORDER BY created_at ASC
	`, guardianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]children.Child, 0)
	for rows.Next() {
		var c children.Child
		var birthDate sql.NullTime

		if err := rows.Scan(
			&c.ID,
			&c.GuardianID,
			&c.Name,
			&birthDate,
			&c.Notes,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}

		c.BirthDate = fromNullTime(birthDate)
		out = append(out, c)
	}

	return out, rows.Err()
}
