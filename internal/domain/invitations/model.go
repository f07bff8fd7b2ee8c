package invitations

import (
	"time"

	"care-team-access/internal/domain/grants"
)

// Status es terminal: pending -> accepted | denied, sin vuelta atrás.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDenied   Status = "denied"
)

// Invitation es la oferta de acceso de un guardián a un profesional.
// Se consume exactamente una vez (accept o decline) y nunca se borra:
// la fila queda como rastro de auditoría.
type Invitation struct {
	ID    string
	Token string

	ChildID  string
	SenderID string

	// RecipientEmail vacío = invitación abierta (cualquier profesional
	// con el link puede aceptar). Si está seteado, el email del actor
	// debe coincidir al aceptar.
	RecipientEmail string

	// RecipientID se completa al responder.
	RecipientID string

	Scopes []grants.Scope
	Status Status

	ExpiresAt   time.Time
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// IsExpired evalúa el vencimiento en tiempo de lectura.
// El Status guardado nunca se sobrescribe por vencimiento.
func (i Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
