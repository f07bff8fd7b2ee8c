package audit

import "time"

// Action define las acciones auditables del sistema.
type Action string

const (
	ActionInviteCreated  Action = "invite_created"
	ActionInviteAccepted Action = "invite_accepted"
	ActionInviteDenied   Action = "invite_denied"
	ActionAccessRevoked  Action = "access_revoked"
)

// TargetType identifica el tipo de entidad afectada.
type TargetType string

const (
	TargetInvitation TargetType = "invitation"
	TargetGrant      TargetType = "access_grant"
)

// Entry es un hecho inmutable: se agrega, nunca se actualiza ni borra.
type Entry struct {
	ID string

	Action     Action
	ActorID    string
	TargetType TargetType
	TargetID   string

	Metadata map[string]string

	OccurredAt time.Time
}
