package children

import "time"

// Child representa el perfil básico de un niño registrado en el sistema.
// El guardián (padre/madre/tutor) es el dueño del expediente.
type Child struct {
	ID         string
	GuardianID string

	Name      string
	BirthDate *time.Time

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
