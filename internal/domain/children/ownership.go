package children

import "context"

// GuardianOf expone el guardianID de un niño.
// Se usa para evitar ciclos de imports entre módulos (children <-> grants).
func (s *Service) GuardianOf(ctx context.Context, childID string) (string, error) {
	c, err := s.GetByID(ctx, childID)
	if err != nil {
		return "", err
	}
	return c.GuardianID, nil
}

// NameOf expone el nombre del niño para previews de invitación.
func (s *Service) NameOf(ctx context.Context, childID string) (string, error) {
	c, err := s.GetByID(ctx, childID)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}
