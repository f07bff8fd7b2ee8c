package invitations

import (
	"context"
	"time"

	"care-team-access/internal/domain/grants"
)

type Repository interface {
	Create(ctx context.Context, inv Invitation) error
	GetByToken(ctx context.Context, token string) (Invitation, error)
	ListByChild(ctx context.Context, childID string) ([]Invitation, error)

	// MarkResponded es la transición condicional pending -> status.
	// Si la invitación ya no está pending devuelve ErrAlreadyResolved
	// (perdió la carrera); la fila no se toca.
	MarkResponded(ctx context.Context, invitationID string, status Status, recipientID string, respondedAt time.Time) error

	// AcceptAndGrant ejecuta la transición condicional pending -> accepted
	// y el upsert del grant en UNA unidad atómica: si cualquiera de las
	// dos escrituras falla, ninguna queda aplicada. Si ya existe grant
	// para (ChildID, ProfessionalID) se reactiva esa misma fila
	// sobrescribiendo scopes; si no, se crea con los datos de proto.
	// Devuelve el grant resultante.
	AcceptAndGrant(ctx context.Context, invitationID string, recipientID string, respondedAt time.Time, proto grants.Grant) (grants.Grant, error)
}
