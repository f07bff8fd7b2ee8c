package grants

import (
	"context"
	"strings"

	"care-team-access/internal/ports/auth"
)

// CanAccess es LA función de decisión de autorización. Todo handler de
// recurso protegido (notas, mensajería, video) debe pasar por acá;
// ninguno re-deriva acceso por su cuenta.
//
// Reglas, en orden:
//  1. admin => true
//  2. guardián del niño => true (acceso total a su propio niño)
//  3. grant activo de (childID, actor) que incluya el scope => true
//  4. cualquier otro caso => false
func (s *Service) CanAccess(ctx context.Context, actor auth.Claims, childID string, required Scope) (bool, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" || strings.TrimSpace(actor.UserID) == "" {
		return false, nil
	}

	if actor.Role == auth.RoleAdmin {
		return true, nil
	}

	guardianID, err := s.children.GuardianOf(ctx, childID)
	if err != nil {
		return false, ErrNotFound
	}
	if actor.UserID == guardianID {
		return true, nil
	}

	g, err := s.repo.GetActive(ctx, childID, actor.UserID)
	if err != nil {
		return false, nil
	}
	return g.IsActive && HasScope(g, required), nil
}

// CanView: lectura del perfil del niño. Como el perfil no tiene scope
// propio, alcanza con cualquier grant activo (o ser guardián/admin).
func (s *Service) CanView(ctx context.Context, actor auth.Claims, childID string) (bool, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" || strings.TrimSpace(actor.UserID) == "" {
		return false, nil
	}

	if actor.Role == auth.RoleAdmin {
		return true, nil
	}

	guardianID, err := s.children.GuardianOf(ctx, childID)
	if err != nil {
		return false, ErrNotFound
	}
	if actor.UserID == guardianID {
		return true, nil
	}

	g, err := s.repo.GetActive(ctx, childID, actor.UserID)
	if err != nil {
		return false, nil
	}
	return g.IsActive, nil
}

// CanManage: acciones administrativas sobre el expediente (invitar,
// revocar, ver equipo). Guardián del niño o admin; nunca por grant.
func (s *Service) CanManage(ctx context.Context, actor auth.Claims, childID string) (bool, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" || strings.TrimSpace(actor.UserID) == "" {
		return false, nil
	}

	if actor.Role == auth.RoleAdmin {
		return true, nil
	}

	guardianID, err := s.children.GuardianOf(ctx, childID)
	if err != nil {
		return false, ErrNotFound
	}
	return actor.UserID == guardianID, nil
}
