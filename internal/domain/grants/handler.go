package grants

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"care-team-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Vista de equipo del guardián, scoped por niño
	r.Route("/children/{childID}/team", func(tr chi.Router) {
		tr.Get("/", listTeamHandler(svc))
		tr.Post("/{professionalID}/revoke", revokeGrantHandler(svc))
	})

	// Profesional: sus propios grants (activos e históricos)
	r.Get("/me/grants", listMyGrantsHandler(svc))
}

type grantResponse struct {
	ID             string     `json:"id"`
	ChildID        string     `json:"child_id"`
	ProfessionalID string     `json:"professional_id"`
	Scopes         []Scope    `json:"scopes"`
	IsActive       bool       `json:"is_active"`
	GrantedAt      time.Time  `json:"granted_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
}

// listTeamHandler godoc
// @Summary Equipo de cuidado de un niño
// @Description Grants activos del niño, más recientes primero. Solo guardián o admin.
// @Tags grants
// @Produce json
// @Param childID path string true "ID del niño"
// @Success 200 {array} grantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "child not found"
// @Router /children/{childID}/team [get]
func listTeamHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		childID := chi.URLParam(r, "childID")

		allowed, err := svc.CanManage(r.Context(), claims, childID)
		if err != nil {
			http.Error(w, "child not found", http.StatusNotFound)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListActiveForChild(r.Context(), childID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGrantResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// revokeGrantHandler godoc
// @Summary Revocar acceso de un profesional
// @Description Desactiva el grant activo. La fila persiste con sus scopes para el historial.
// @Tags grants
// @Produce json
// @Param childID path string true "ID del niño"
// @Param professionalID path string true "ID del profesional"
// @Success 200 {object} grantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /children/{childID}/team/{professionalID}/revoke [post]
func revokeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		childID := chi.URLParam(r, "childID")
		professionalID := chi.URLParam(r, "professionalID")

		g, err := svc.Revoke(r.Context(), childID, professionalID, claims)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			case ErrNotFound:
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func listMyGrantsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// active=true (opcional) filtra solo vigentes
		onlyActive := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("active")), "true")

		items, err := svc.ListForProfessional(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			if onlyActive && !g.IsActive {
				continue
			}
			out = append(out, toGrantResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		ID:             g.ID,
		ChildID:        g.ChildID,
		ProfessionalID: g.ProfessionalID,
		Scopes:         g.Scopes,
		IsActive:       g.IsActive,
		GrantedAt:      g.GrantedAt,
		UpdatedAt:      g.UpdatedAt,
		RevokedAt:      g.RevokedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
