package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"care-team-access/internal/domain/notes"
)

type notesRepo struct {
	mu   sync.RWMutex
	byID map[string]notes.Note
}

func NewNotesRepo() notes.Repository {
	return &notesRepo{
		byID: make(map[string]notes.Note),
	}
}

func (r *notesRepo) Create(ctx context.Context, n notes.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		return errors.New("note id required")
	}
	if _, exists := r.byID[n.ID]; exists {
		return errors.New("note already exists")
	}
	r.byID[n.ID] = n
	return nil
}

func (r *notesRepo) Update(ctx context.Context, n notes.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		return errors.New("note id required")
	}
	if _, exists := r.byID[n.ID]; !exists {
		return ErrNotFound
	}
	r.byID[n.ID] = n
	return nil
}

func (r *notesRepo) GetByID(ctx context.Context, id string) (notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byID[id]
	if !ok {
		return notes.Note{}, ErrNotFound
	}
	return n, nil
}

func (r *notesRepo) ListByChild(ctx context.Context, childID string, f notes.ListFilter) ([]notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := map[notes.Category]struct{}{}
	for _, c := range f.Categories {
		wanted[c] = struct{}{}
	}

	out := make([]notes.Note, 0)
	for _, n := range r.byID {
		if n.ChildID != childID {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[n.Category]; !ok {
				continue
			}
		}
		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
