package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"care-team-access/internal/domain/grants"
	"care-team-access/internal/domain/invitations"
)

type InvitationsRepo struct {
	db *sql.DB
}

func NewInvitationsRepo(db *sql.DB) *InvitationsRepo {
	return &InvitationsRepo{db: db}
}

var _ invitations.Repository = (*InvitationsRepo)(nil)

const invitationColumns = `
	id, token, child_id, sender_user_id,
	recipient_email, recipient_user_id,
	scopes, status,
	expires_at, created_at, responded_at
`

func (r *InvitationsRepo) Create(ctx context.Context, inv invitations.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		inv.ID,
		inv.Token,
		inv.ChildID,
		inv.SenderID,
		toNullString(inv.RecipientEmail),
		toNullString(inv.RecipientID),
		scopesToTextArray(inv.Scopes),
		string(inv.Status),
		inv.ExpiresAt,
		inv.CreatedAt,
		toNullTime(inv.RespondedAt),
	)
	return err
}

func (r *InvitationsRepo) GetByToken(ctx context.Context, token string) (invitations.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return invitations.Invitation{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE token = $1
	`, token)

	return scanInvitation(row)
}

func (r *InvitationsRepo) ListByChild(ctx context.Context, childID string) ([]invitations.Invitation, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE child_id = $1
		ORDER BY created_at DESC
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]invitations.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// MarkResponded es un conditional write: el WHERE status = 'pending'
// garantiza a lo sumo una transición; cero filas afectadas significa
// que otro request ya resolvió la invitación.
func (r *InvitationsRepo) MarkResponded(ctx context.Context, invitationID string, status invitations.Status, recipientID string, respondedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET status = $2, recipient_user_id = $3, responded_at = $4
		WHERE id = $1
		  AND status = 'pending'
	`, invitationID, string(status), recipientID, respondedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return invitations.ErrAlreadyResolved
	}
	return nil
}

// AcceptAndGrant: transición condicional + upsert del grant en UNA
// transacción. Si el upsert falla, el rollback deshace también la
// transición — nunca queda una invitación accepted sin grant.
func (r *InvitationsRepo) AcceptAndGrant(ctx context.Context, invitationID string, recipientID string, respondedAt time.Time, proto grants.Grant) (grants.Grant, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return grants.Grant{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE invitations
		SET status = 'accepted', recipient_user_id = $2, responded_at = $3
		WHERE id = $1
		  AND status = 'pending'
	`, invitationID, recipientID, respondedAt)
	if err != nil {
		return grants.Grant{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return grants.Grant{}, invitations.ErrAlreadyResolved
	}

	// Reactivación: si el par ya tiene fila (posiblemente revocada),
	// se sobrescriben scopes y se limpia revoked_at; la identidad de
	// la fila se preserva.
	row := tx.QueryRowContext(ctx, `
		INSERT INTO access_grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (child_id, professional_user_id) DO UPDATE
		SET scopes = EXCLUDED.scopes,
		    is_active = TRUE,
		    granted_at = EXCLUDED.granted_at,
		    updated_at = EXCLUDED.updated_at,
		    revoked_at = NULL
		RETURNING `+grantColumns+`
	`,
		proto.ID,
		proto.ChildID,
		proto.ProfessionalID,
		scopesToTextArray(proto.Scopes),
		proto.IsActive,
		proto.GrantedAt,
		proto.UpdatedAt,
		toNullTime(proto.RevokedAt),
	)

	g, err := scanGrant(row)
	if err != nil {
		return grants.Grant{}, err
	}

	if err := tx.Commit(); err != nil {
		return grants.Grant{}, err
	}
	return g, nil
}

func scanInvitation(row rowScanner) (invitations.Invitation, error) {
	var inv invitations.Invitation
	var status string
	var scopes []string
	var recipientEmail, recipientID sql.NullString
	var respondedAt sql.NullTime

	if err := row.Scan(
		&inv.ID,
		&inv.Token,
		&inv.ChildID,
		&inv.SenderID,
		&recipientEmail,
		&recipientID,
		&scopes,
		&status,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&respondedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return invitations.Invitation{}, ErrNotFound
		}
		return invitations.Invitation{}, err
	}

	inv.Status = invitations.Status(status)
	inv.Scopes = textArrayToScopes(scopes)
	if recipientEmail.Valid {
		inv.RecipientEmail = recipientEmail.String
	}
	if recipientID.Valid {
		inv.RecipientID = recipientID.String
	}
	inv.RespondedAt = fromNullTime(respondedAt)

	return inv, nil
}
