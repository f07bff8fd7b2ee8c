package memory

import (
	"context"
	"errors"
	"sync"

	"care-team-access/internal/domain/children"
)

var (
	ErrNotFound = errors.New("not found")
)

type childrenRepo struct {
	mu   sync.RWMutex
	byID map[string]children.Child
}

func NewChildrenRepo() children.Repository {
	return &childrenRepo{
		byID: make(map[string]children.Child),
	}
}

func (r *childrenRepo) Create(ctx context.Context, c children.Child) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		return errors.New("child id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("child already exists")
	}
	r.byID[c.ID] = c
	return nil
}

func (r *childrenRepo) GetByID(ctx context.Context, id string) (children.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return children.Child{}, ErrNotFound
	}
	return c, nil
}

func (r *childrenRepo) ListByGuardian(ctx context.Context, guardianID string) ([]children.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]children.Child, 0)
	for _, c := range r.byID {
		if c.GuardianID == guardianID {
			out = append(out, c)
		}
	}
	return out, nil
}
