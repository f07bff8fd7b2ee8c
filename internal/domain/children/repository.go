package children

import "context"

type Repository interface {
	Create(ctx context.Context, c Child) error
	GetByID(ctx context.Context, id string) (Child, error)
	ListByGuardian(ctx context.Context, guardianID string) ([]Child, error)
}
