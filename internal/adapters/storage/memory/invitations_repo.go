package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"care-team-access/internal/domain/grants"
	"care-team-access/internal/domain/invitations"
)

type invitationsRepo struct {
	mu      sync.RWMutex
	byID    map[string]invitations.Invitation
	byToken map[string]string // token -> id

	grants *GrantsRepo
}

// NewInvitationsRepo recibe el repo de grants para poder ejecutar
// AcceptAndGrant como una unidad: la transición condicional corre bajo
// el lock de invitaciones, así a lo sumo un accept gana la carrera.
func NewInvitationsRepo(g *GrantsRepo) invitations.Repository {
	return &invitationsRepo{
		byID:    make(map[string]invitations.Invitation),
		byToken: make(map[string]string),
		grants:  g,
	}
}

func (r *invitationsRepo) Create(ctx context.Context, inv invitations.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inv.ID == "" || inv.Token == "" {
		return errors.New("invitation id and token required")
	}
	if _, exists := r.byID[inv.ID]; exists {
		return errors.New("invitation already exists")
	}
	if _, exists := r.byToken[inv.Token]; exists {
		return errors.New("invitation token already exists")
	}

	r.byID[inv.ID] = inv
	r.byToken[inv.Token] = inv.ID
	return nil
}

func (r *invitationsRepo) GetByToken(ctx context.Context, token string) (invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return invitations.Invitation{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *invitationsRepo) ListByChild(ctx context.Context, childID string) ([]invitations.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invitations.Invitation, 0)
	for _, inv := range r.byID {
		if inv.ChildID == childID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *invitationsRepo) MarkResponded(ctx context.Context, invitationID string, status invitations.Status, recipientID string, respondedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.transitionLocked(invitationID, status, recipientID, respondedAt)
	return err
}

func (r *invitationsRepo) AcceptAndGrant(ctx context.Context, invitationID string, recipientID string, respondedAt time.Time, proto grants.Grant) (grants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// La transición condicional decide el ganador; el upsert del grant
	// ocurre solo en el camino ganador, así que nunca queda una
	// invitación accepted sin su grant.
	if _, err := r.transitionLocked(invitationID, invitations.StatusAccepted, recipientID, respondedAt); err != nil {
		return grants.Grant{}, err
	}

	return r.grants.upsertByPair(proto), nil
}

// transitionLocked exige que el caller tenga r.mu.
func (r *invitationsRepo) transitionLocked(invitationID string, status invitations.Status, recipientID string, respondedAt time.Time) (invitations.Invitation, error) {
	inv, ok := r.byID[invitationID]
	if !ok {
		return invitations.Invitation{}, ErrNotFound
	}
	if inv.Status != invitations.StatusPending {
		return invitations.Invitation{}, invitations.ErrAlreadyResolved
	}

	inv.Status = status
	inv.RecipientID = recipientID
	t := respondedAt
	inv.RespondedAt = &t

	r.byID[invitationID] = inv
	return inv, nil
}
