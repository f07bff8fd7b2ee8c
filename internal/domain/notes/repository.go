package notes

import "context"

// ListFilter acota el listado. Categories vacío = todas.
type ListFilter struct {
	Categories []Category
	Limit      int
}

type Repository interface {
	Create(ctx context.Context, n Note) error
	Update(ctx context.Context, n Note) error
	GetByID(ctx context.Context, id string) (Note, error)

	// ListByChild ordena por OccurredAt descendente.
	ListByChild(ctx context.Context, childID string, f ListFilter) ([]Note, error)
}
