package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"care-team-access/internal/domain/grants"
)

// GrantsRepo es exportado porque el repo de invitaciones lo necesita
// para el upsert atómico del accept (ver invitations_repo.go).
type GrantsRepo struct {
	mu   sync.RWMutex
	byID map[string]grants.Grant
}

func NewGrantsRepo() *GrantsRepo {
	return &GrantsRepo{
		byID: make(map[string]grants.Grant),
	}
}

var _ grants.Repository = (*GrantsRepo)(nil)

func (r *GrantsRepo) Update(ctx context.Context, g grants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; !exists {
		return ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *GrantsRepo) GetByPair(ctx context.Context, childID, professionalID string) (grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.byID {
		if g.ChildID == childID && g.ProfessionalID == professionalID {
			return g, nil
		}
	}
	return grants.Grant{}, ErrNotFound
}

func (r *GrantsRepo) GetActive(ctx context.Context, childID, professionalID string) (grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.byID {
		if g.ChildID == childID && g.ProfessionalID == professionalID && g.IsActive {
			return g, nil
		}
	}
	return grants.Grant{}, ErrNotFound
}

func (r *GrantsRepo) ListActiveByChild(ctx context.Context, childID string) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.ChildID == childID && g.IsActive {
			out = append(out, g)
		}
	}
	// más recientes primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].GrantedAt.After(out[j].GrantedAt)
	})
	return out, nil
}

func (r *GrantsRepo) ListByProfessional(ctx context.Context, professionalID string) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.ProfessionalID == professionalID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// upsertByPair crea o reactiva el grant de (ChildID, ProfessionalID)
// preservando la identidad de la fila existente. Lo llama únicamente
// el accept de invitaciones.
func (r *GrantsRepo) upsertByPair(proto grants.Grant) grants.Grant {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, g := range r.byID {
		if g.ChildID == proto.ChildID && g.ProfessionalID == proto.ProfessionalID {
			g.Scopes = proto.Scopes
			g.IsActive = true
			g.RevokedAt = nil
			g.GrantedAt = proto.GrantedAt
			g.UpdatedAt = proto.UpdatedAt
			r.byID[id] = g
			return g
		}
	}

	r.byID[proto.ID] = proto
	return proto
}
