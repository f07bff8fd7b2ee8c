package grants

import (
	"strings"
	"time"
)

// Scope define el conjunto cerrado de capacidades delegables.
// @Enum medical_notes, support_notes, messages, video_visits
type Scope string

const (
	ScopeMedicalNotes Scope = "medical_notes"
	ScopeSupportNotes Scope = "support_notes"
	ScopeMessages     Scope = "messages"
	ScopeVideoVisits  Scope = "video_visits"
)

// Grant representa el permiso vigente (o revocado) de un profesional
// sobre el expediente de un niño. A lo sumo una fila por
// (ChildID, ProfessionalID): revocar desactiva, nunca borra, y una
// re-aceptación reactiva la misma fila sobrescribiendo scopes.
type Grant struct {
	ID string

	ChildID        string
	ProfessionalID string

	Scopes   []Scope
	IsActive bool

	// Invariante: IsActive == true ⟺ RevokedAt == nil
	GrantedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// HasScope valida si el grant incluye un scope.
func HasScope(g Grant, scope Scope) bool {
	for _, s := range g.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// NormalizeScopes valida estrictamente contra el conjunto cerrado y
// deduplica. Conjunto vacío o tag desconocido => ErrInvalidScope.
func NormalizeScopes(in []Scope) ([]Scope, error) {
	allowed := map[Scope]struct{}{
		ScopeMedicalNotes: {},
		ScopeSupportNotes: {},
		ScopeMessages:     {},
		ScopeVideoVisits:  {},
	}

	seen := map[Scope]struct{}{}
	out := make([]Scope, 0, len(in))

	for _, raw := range in {
		s := Scope(strings.TrimSpace(string(raw)))
		if s == "" {
			continue
		}
		if _, ok := allowed[s]; !ok {
			return nil, ErrInvalidScope
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if len(out) == 0 {
		return nil, ErrInvalidScope
	}
	return out, nil
}
