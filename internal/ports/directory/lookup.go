package directory

import "context"

// UserInfo es el subconjunto del perfil que necesitamos para previews.
type UserInfo struct {
	UserID      string
	DisplayName string
	Email       string
}

// UserLookup resuelve datos básicos de un usuario (nombre para mostrar).
// Lo implementa el adapter de identidad; en dev se usa un stub.
type UserLookup interface {
	Lookup(ctx context.Context, userID string) (UserInfo, error)
}
