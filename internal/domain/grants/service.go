package grants

import (
	"context"
	"errors"
	"strings"
	"time"

	"care-team-access/internal/domain/audit"
	"care-team-access/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidScope = errors.New("invalid scope")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// ChildGuardianLookup evita importar el paquete children (rompe ciclos).
type ChildGuardianLookup interface {
	GuardianOf(ctx context.Context, childID string) (string, error)
}

type Service struct {
	repo     Repository
	children ChildGuardianLookup
	audit    audit.Recorder
	now      func() time.Time
}

func NewService(repo Repository, children ChildGuardianLookup, rec audit.Recorder) *Service {
	return &Service{
		repo:     repo,
		children: children,
		audit:    rec,
		now:      time.Now,
	}
}

// Revoke desactiva el grant activo de (childID, professionalID).
// Solo el guardián del niño o un admin pueden revocar.
// Revocar mantiene la fila y sus scopes para el historial; un segundo
// revoke sobre un grant ya inactivo falla ErrNotFound (el lookup
// filtra por activo).
func (s *Service) Revoke(ctx context.Context, childID, professionalID string, actor auth.Claims) (Grant, error) {
	childID = strings.TrimSpace(childID)
	professionalID = strings.TrimSpace(professionalID)

	if childID == "" || professionalID == "" || strings.TrimSpace(actor.UserID) == "" {
		return Grant{}, ErrInvalidInput
	}

	guardianID, err := s.children.GuardianOf(ctx, childID)
	if err != nil || strings.TrimSpace(guardianID) == "" {
		return Grant{}, ErrNotFound
	}
	if actor.Role != auth.RoleAdmin && actor.UserID != guardianID {
		return Grant{}, ErrForbidden
	}

	g, err := s.repo.GetActive(ctx, childID, professionalID)
	if err != nil {
		return Grant{}, ErrNotFound
	}

	now := s.now()
	g.IsActive = false
	g.RevokedAt = &now
	g.UpdatedAt = now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.ActionAccessRevoked, actor.UserID, audit.TargetGrant, g.ID, map[string]string{
			"child_id":        g.ChildID,
			"professional_id": g.ProfessionalID,
		})
	}

	return g, nil
}

// ListActiveForChild es la vista de equipo del guardián.
// Más recientes primero (GrantedAt descendente).
func (s *Service) ListActiveForChild(ctx context.Context, childID string) ([]Grant, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveByChild(ctx, childID)
}

// ListForProfessional es la vista de pacientes del profesional.
func (s *Service) ListForProfessional(ctx context.Context, professionalID string) ([]Grant, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByProfessional(ctx, professionalID)
}
