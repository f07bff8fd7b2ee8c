package invitations

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"care-team-access/internal/domain/grants"
	"care-team-access/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Guardián: crear y listar invitaciones de su niño
	r.Route("/children/{childID}/invitations", func(ir chi.Router) {
		ir.Post("/", createInvitationHandler(svc))
		ir.Get("/", listInvitationsHandler(svc))
	})

	// Destinatario: preview y respuesta, scoped por token
	r.Route("/invitations/{token}", func(ir chi.Router) {
		ir.Get("/", resolveInvitationHandler(svc))
		ir.Post("/accept", acceptInvitationHandler(svc))
		ir.Post("/decline", declineInvitationHandler(svc))
	})
}

type createInvitationRequest struct {
	RecipientEmail string         `json:"recipient_email"`
	Scopes         []grants.Scope `json:"scopes"`
}

type invitationResponse struct {
	ID             string         `json:"id"`
	Token          string         `json:"token"`
	ChildID        string         `json:"child_id"`
	SenderID       string         `json:"sender_id"`
	RecipientEmail string         `json:"recipient_email,omitempty"`
	RecipientID    string         `json:"recipient_id,omitempty"`
	Scopes         []grants.Scope `json:"scopes"`
	Status         Status         `json:"status"`
	ExpiresAt      time.Time      `json:"expires_at"`
	CreatedAt      time.Time      `json:"created_at"`
	RespondedAt    *time.Time     `json:"responded_at,omitempty"`
}

type invitationViewResponse struct {
	ChildID    string         `json:"child_id"`
	ChildName  string         `json:"child_name"`
	SenderID   string         `json:"sender_id"`
	SenderName string         `json:"sender_name,omitempty"`
	Scopes     []grants.Scope `json:"scopes"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// createInvitationHandler godoc
// @Summary Invitar a un profesional
// @Description El guardián ofrece un conjunto de scopes sobre el expediente de su niño. Genera token con vencimiento; no crea grant.
// @Tags invitations
// @Accept json
// @Produce json
// @Param childID path string true "ID del niño"
// @Param payload body createInvitationRequest true "Email opcional del destinatario + scopes"
// @Success 201 {object} invitationResponse
// @Failure 400 {string} string "invalid json / scope inválido / email inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "child not found"
// @Router /children/{childID}/invitations [post]
func createInvitationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		childID := chi.URLParam(r, "childID")

		var req createInvitationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		inv, err := svc.Create(r.Context(), claims, CreateInput{
			ChildID:        childID,
			RecipientEmail: req.RecipientEmail,
			Scopes:         req.Scopes,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput, ErrInvalidScope:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			case ErrNotFound:
				http.Error(w, "child not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toInvitationResponse(inv))
	}
}

func listInvitationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		childID := chi.URLParam(r, "childID")

		items, err := svc.ListByChild(r.Context(), childID, claims)
		if err != nil {
			switch err {
			case ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			case ErrNotFound:
				http.Error(w, "child not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := make([]invitationResponse, 0, len(items))
		for _, inv := range items {
			out = append(out, toInvitationResponse(inv))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// resolveInvitationHandler godoc
// @Summary Preview de una invitación
// @Description Lectura sin efectos, usable antes de autenticarse. Los fallos no distinguen si el email tiene cuenta (anti-enumeración).
// @Tags invitations
// @Produce json
// @Param token path string true "Token de la invitación"
// @Success 200 {object} invitationViewResponse
// @Failure 404 {string} string "invitation not found"
// @Failure 409 {string} string "invitation already resolved"
// @Failure 410 {string} string "invitation expired"
// @Router /invitations/{token} [get]
func resolveInvitationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		v, err := svc.Resolve(r.Context(), token)
		if err != nil {
			writeInvitationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, invitationViewResponse{
			ChildID:    v.ChildID,
			ChildName:  v.ChildName,
			SenderID:   v.SenderID,
			SenderName: v.SenderName,
			Scopes:     v.Scopes,
			ExpiresAt:  v.ExpiresAt,
		})
	}
}

// acceptInvitationHandler godoc
// @Summary Aceptar una invitación
// @Description Transición atómica: invitación accepted + grant creado o reactivado. Exactamente un accept gana ante concurrencia.
// @Tags invitations
// @Produce json
// @Param token path string true "Token de la invitación"
// @Success 200 {object} map[string]any
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "invitation not found"
// @Failure 409 {string} string "invitation already resolved"
// @Failure 410 {string} string "invitation expired"
// @Router /invitations/{token}/accept [post]
func acceptInvitationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		token := chi.URLParam(r, "token")

		g, err := svc.Accept(r.Context(), token, claims)
		if err != nil {
			writeInvitationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"grant_id":        g.ID,
			"child_id":        g.ChildID,
			"professional_id": g.ProfessionalID,
			"scopes":          g.Scopes,
			"is_active":       g.IsActive,
			"granted_at":      g.GrantedAt,
		})
	}
}

func declineInvitationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		token := chi.URLParam(r, "token")

		if err := svc.Decline(r.Context(), token, claims); err != nil {
			writeInvitationError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// writeInvitationError mapea errores de resolución/respuesta.
// ErrWrongRecipient responde el mismo 404 genérico que un token
// inexistente: un link reenviado no permite sondear a quién estaba
// ligada la invitación (anti-enumeración, ver reset de password).
func writeInvitationError(w http.ResponseWriter, err error) {
	switch err {
	case ErrInvalidInput:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case ErrForbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
	case ErrNotFound, ErrWrongRecipient:
		http.Error(w, "invitation not found", http.StatusNotFound)
	case ErrExpired:
		http.Error(w, "invitation expired", http.StatusGone)
	case ErrAlreadyResolved:
		http.Error(w, "invitation already resolved", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toInvitationResponse(inv Invitation) invitationResponse {
	return invitationResponse{
		ID:             inv.ID,
		Token:          inv.Token,
		ChildID:        inv.ChildID,
		SenderID:       inv.SenderID,
		RecipientEmail: inv.RecipientEmail,
		RecipientID:    inv.RecipientID,
		Scopes:         inv.Scopes,
		Status:         inv.Status,
		ExpiresAt:      inv.ExpiresAt,
		CreatedAt:      inv.CreatedAt,
		RespondedAt:    inv.RespondedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
