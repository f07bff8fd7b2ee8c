package postgres

import (
	"context"
	"database/sql"
	"strings"

	"care-team-access/internal/domain/grants"
)

// Tabla access_grants: unique (child_id, professional_user_id) —
// la restricción respalda el invariante "a lo sumo un grant por par"
// y habilita el ON CONFLICT del accept (ver invitations_repo.go).
type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

var _ grants.Repository = (*GrantsRepo)(nil)

const grantColumns = `
	id, child_id, professional_user_id,
	scopes, is_active,
	granted_at, updated_at, revoked_at
`

func (r *GrantsRepo) Update(ctx context.Context, g grants.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_grants
		SET
			scopes = $2,
			is_active = $3,
			updated_at = $4,
			revoked_at = $5
		WHERE id = $1
	`,
		g.ID,
		scopesToTextArray(g.Scopes),
		g.IsActive,
		g.UpdatedAt,
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GrantsRepo) GetByPair(ctx context.Context, childID, professionalID string) (grants.Grant, error) {
	childID = strings.TrimSpace(childID)
	professionalID = strings.TrimSpace(professionalID)
	if childID == "" || professionalID == "" {
		return grants.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE child_id = $1
		  AND professional_user_id = $2
	`, childID, professionalID)

	return scanGrant(row)
}

func (r *GrantsRepo) GetActive(ctx context.Context, childID, professionalID string) (grants.Grant, error) {
	childID = strings.TrimSpace(childID)
	professionalID = strings.TrimSpace(professionalID)
	if childID == "" || professionalID == "" {
		return grants.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE child_id = $1
		  AND professional_user_id = $2
		  AND is_active
	`, childID, professionalID)

	return scanGrant(row)
}

func (r *GrantsRepo) ListActiveByChild(ctx context.Context, childID string) ([]grants.Grant, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE child_id = $1
		  AND is_active
		ORDER BY granted_at DESC
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

func (r *GrantsRepo) ListByProfessional(ctx context.Context, professionalID string) ([]grants.Grant, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE professional_user_id = $1
		ORDER BY updated_at DESC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectGrants(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (grants.Grant, error) {
	var g grants.Grant
	var scopes []string
	var revokedAt sql.NullTime

	if err := row.Scan(
		&g.ID,
		&g.ChildID,
		&g.ProfessionalID,
		&scopes,
		&g.IsActive,
		&g.GrantedAt,
		&g.UpdatedAt,
		&revokedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return grants.Grant{}, ErrNotFound
		}
		return grants.Grant{}, err
	}

	g.Scopes = textArrayToScopes(scopes)
	g.RevokedAt = fromNullTime(revokedAt)
	return g, nil
}

func collectGrants(rows *sql.Rows) ([]grants.Grant, error) {
	out := make([]grants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// helpers
func scopesToTextArray(in []grants.Scope) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func textArrayToScopes(in []string) []grants.Scope {
	out := make([]grants.Scope, 0, len(in))
	for _, s := range in {
		out = append(out, grants.Scope(s))
	}
	return out
}
