package notify

import (
	"context"
	"time"
)

// InviteMail es el contenido mínimo para notificar una invitación.
type InviteMail struct {
	To        string
	ChildName string
	Token     string
	ExpiresAt time.Time
}

// InviteMailer envía la notificación de invitación.
// El envío es best-effort: un fallo no debe abortar la creación.
type InviteMailer interface {
	SendInvite(ctx context.Context, m InviteMail) error
}
