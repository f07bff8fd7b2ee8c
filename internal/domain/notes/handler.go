package notes

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"care-team-access/internal/domain/grants"
	"care-team-access/internal/middleware"
	"care-team-access/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, grantsSvc *grants.Service) {
	r.Route("/children/{childID}/notes", func(nr chi.Router) {
		nr.Post("/", createNoteHandler(svc, grantsSvc))
		nr.Get("/", listNotesHandler(svc, grantsSvc))

		nr.Post("/{noteID}/void", voidNoteHandler(svc, grantsSvc))
	})
}

type createNoteRequest struct {
	Category   Category `json:"category" enums:"medical,support"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	OccurredAt string   `json:"occurred_at"` // RFC3339 opcional
}

type noteResponse struct {
	ID         string     `json:"id"`
	ChildID    string     `json:"child_id"`
	Category   Category   `json:"category"`
	AuthorID   string     `json:"author_id"`
	AuthorRole string     `json:"author_role"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	OccurredAt time.Time  `json:"occurred_at"`
	RecordedAt time.Time  `json:"recorded_at"`
	Status     NoteStatus `json:"status"`
}

// createNoteHandler godoc
// @Summary Crear nota del expediente
// @Description Requiere el scope de la categoría (medical_notes o support_notes). Guardián y admin siempre pueden.
// @Tags notes
// @Accept json
// @Produce json
// @Param childID path string true "ID del niño"
// @Param payload body createNoteRequest true "Nota; occurred_at en RFC3339"
// @Success 201 {object} noteResponse
// @Failure 400 {string} string "invalid json / categoría inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "child not found"
// @Router /children/{childID}/notes [post]
func createNoteHandler(svc *Service, grantsSvc *grants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		childID := chi.URLParam(r, "childID")

		var req createNoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		scope, ok := req.Category.RequiredScope()
		if !ok {
			http.Error(w, "category must be medical or support", http.StatusBadRequest)
			return
		}

		// Única vía de decisión de acceso: el guard central.
		allowed, err := grantsSvc.CanAccess(r.Context(), claims, childID, scope)
		if err != nil {
			http.Error(w, "child not found", http.StatusNotFound)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var occurred time.Time
		if strings.TrimSpace(req.OccurredAt) != "" {
			t, err := time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
				return
			}
			occurred = t
		}

		n, err := svc.Create(r.Context(), childID, claims.UserID, string(claims.Role), CreateInput{
			Category:   req.Category,
			Title:      req.Title,
			Body:       req.Body,
			OccurredAt: occurred,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toNoteResponse(n))
	}
}

// listNotesHandler godoc
// @Summary Listar notas del expediente
// @Description Con ?category= exige ese scope. Sin filtro devuelve las categorías que el actor puede ver; sin ninguna => 403.
// @Tags notes
// @Produce json
// @Param childID path string true "ID del niño"
// @Param category query string false "medical | support"
// @Param limit query int false "Máximo de notas (1-200). Por defecto 50"
// @Success 200 {array} noteResponse
// @Failure 400 {string} string "Parámetros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "child not found"
// @Router /children/{childID}/notes [get]
func listNotesHandler(svc *Service, grantsSvc *grants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		childID := chi.URLParam(r, "childID")

		allowed, err := allowedCategories(r, grantsSvc, claims, childID)
		if err != nil {
			http.Error(w, "child not found", http.StatusNotFound)
			return
		}
		if len(allowed) == 0 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.ListByChild(r.Context(), childID, ListFilter{
			Categories: allowed,
			Limit:      limit,
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]noteResponse, 0, len(items))
		for _, n := range items {
			out = append(out, toNoteResponse(n))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func voidNoteHandler(svc *Service, grantsSvc *grants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		childID := chi.URLParam(r, "childID")
		noteID := chi.URLParam(r, "noteID")

		// Nota existe y pertenece al niño (el guard corre antes de
		// revelar existencia: primero chequeamos contra la categoría)
		n, err := svc.GetByID(r.Context(), noteID)
		if err != nil || n.ChildID != childID {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}

		scope, _ := n.Category.RequiredScope()
		allowed, err := grantsSvc.CanAccess(r.Context(), claims, childID, scope)
		if err != nil {
			http.Error(w, "child not found", http.StatusNotFound)
			return
		}
		if !allowed {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		updated, err := svc.Void(r.Context(), noteID)
		if err != nil {
			switch err {
			case ErrNotFound:
				http.Error(w, "note not found", http.StatusNotFound)
			case ErrBadState:
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toNoteResponse(updated))
	}
}

// allowedCategories resuelve qué categorías puede listar el actor.
// Si se pide ?category= explícita, solo esa (y debe estar permitida).
func allowedCategories(r *http.Request, grantsSvc *grants.Service, claims auth.Claims, childID string) ([]Category, error) {
	requested := Category(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category"))))

	candidates := []Category{CategoryMedical, CategorySupport}
	if requested != "" {
		if _, ok := requested.RequiredScope(); !ok {
			return nil, nil
		}
		candidates = []Category{requested}
	}

	out := make([]Category, 0, len(candidates))
	for _, c := range candidates {
		scope, _ := c.RequiredScope()
		ok, err := grantsSvc.CanAccess(r.Context(), claims, childID, scope)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func toNoteResponse(n Note) noteResponse {
	return noteResponse{
		ID:         n.ID,
		ChildID:    n.ChildID,
		Category:   n.Category,
		AuthorID:   n.AuthorID,
		AuthorRole: n.AuthorRole,
		Title:      n.Title,
		Body:       n.Body,
		OccurredAt: n.OccurredAt,
		RecordedAt: n.RecordedAt,
		Status:     n.Status,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
