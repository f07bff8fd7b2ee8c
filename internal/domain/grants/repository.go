package grants

import "context"

// Repository no expone Create: los grants nacen únicamente por la
// aceptación de una invitación (ver invitations.Repository.AcceptAndGrant),
// para garantizar que ningún grant saltee el registro de invitación.
type Repository interface {
	Update(ctx context.Context, g Grant) error

	// GetByPair devuelve el grant para (child, professional) sin
	// importar su estado. A lo sumo existe uno.
	GetByPair(ctx context.Context, childID, professionalID string) (Grant, error)

	GetActive(ctx context.Context, childID, professionalID string) (Grant, error)

	// ListActiveByChild ordena por GrantedAt descendente (más reciente primero).
	ListActiveByChild(ctx context.Context, childID string) ([]Grant, error)

	ListByProfessional(ctx context.Context, professionalID string) ([]Grant, error)
}
