package auth

import "strings"

// Role define el conjunto cerrado de roles del sistema.
type Role string

const (
	RoleGuardian     Role = "guardian"
	RoleProfessional Role = "professional"
	RoleAdmin        Role = "admin"
)

// ParseRole normaliza un rol recibido como texto.
// Devuelve "" si el valor no pertenece al conjunto.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleGuardian:
		return RoleGuardian
	case RoleProfessional:
		return RoleProfessional
	case RoleAdmin:
		return RoleAdmin
	default:
		return ""
	}
}

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}
