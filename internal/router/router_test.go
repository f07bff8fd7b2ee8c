package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"care-team-access/internal/domain/grants"
	"care-team-access/internal/router"
)

func TestHTTP_EndToEnd_CareTeamFlow(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	guardian := actor{ID: "guardian-1", Role: "guardian"}
	pro := actor{ID: "pro-1", Role: "professional", Email: "dra.perez@example.org"}
	intruder := actor{ID: "pro-2", Role: "professional", Email: "otra@example.org"}
	admin := actor{ID: "adm-1", Role: "admin"}

	// 1) Guardián registra a su hijo
	childID := createChild(t, ts.URL, guardian, map[string]any{
		"name":  "Lucía",
		"notes": "alergia al maní",
	})

	// 2) Profesional NO puede ver el perfil todavía
	{
		st, _ := doReq(t, ts.URL, "GET", "/children/"+childID, pro, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before grant, got %d", st)
		}
	}

	// 3) Guardián invita al profesional con scopes acotados
	token := createInvitation(t, ts.URL, guardian, childID, map[string]any{
		"recipient_email": "dra.perez@example.org",
		"scopes":          []string{string(grants.ScopeMedicalNotes), string(grants.ScopeMessages)},
	})

	// 4) Preview por token, sin autenticarse
	{
		st, body := doReq(t, ts.URL, "GET", "/invitations/"+token, actor{}, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 preview, got %d body=%s", st, string(body))
		}
		var view struct {
			ChildName string `json:"child_name"`
		}
		_ = json.Unmarshal(body, &view)
		if view.ChildName != "Lucía" {
			t.Fatalf("expected child name in preview, got %q", view.ChildName)
		}
	}

	// 5) Otro profesional (link reenviado) no puede aceptar: 404 genérico
	{
		st, _ := doReq(t, ts.URL, "POST", "/invitations/"+token+"/accept", intruder, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for wrong recipient, got %d", st)
		}
	}

	// 6) El destinatario acepta
	{
		st, body := doReq(t, ts.URL, "POST", "/invitations/"+token+"/accept", pro, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 accept, got %d body=%s", st, string(body))
		}
	}

	// 7) Invitación consumida: segundo accept => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/invitations/"+token+"/accept", pro, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 re-accept, got %d", st)
		}
	}

	// 8) Con el grant: perfil visible y nota médica permitida
	{
		st, body := doReq(t, ts.URL, "GET", "/children/"+childID, pro, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get child with grant, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/children/"+childID+"/notes", pro, map[string]any{
			"category": "medical",
			"title":    "Control anual",
			"body":     "Todo en orden.",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 medical note, got %d body=%s", st, string(body))
		}
	}

	// 9) support_notes no fue delegado: crear y filtrar explícito => 403
	{
		st, _ := doReq(t, ts.URL, "POST", "/children/"+childID+"/notes", pro, map[string]any{
			"category": "support",
			"title":    "Sesión",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 support note without scope, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/children/"+childID+"/notes?category=support", pro, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 listing support without scope, got %d", st)
		}
	}

	// 10) Sin filtro, el listado se acota a lo delegado
	{
		st, body := doReq(t, ts.URL, "GET", "/children/"+childID+"/notes", pro, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list notes, got %d body=%s", st, string(body))
		}
		var items []struct {
			Category string `json:"category"`
		}
		_ = json.Unmarshal(body, &items)
		for _, n := range items {
			if n.Category != "medical" {
				t.Fatalf("professional must not see %s notes", n.Category)
			}
		}
	}

	// 11) Vista de equipo del guardián
	{
		st, body := doReq(t, ts.URL, "GET", "/children/"+childID+"/team", guardian, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 team, got %d body=%s", st, string(body))
		}
		var team []struct {
			ProfessionalID string `json:"professional_id"`
			IsActive       bool   `json:"is_active"`
		}
		_ = json.Unmarshal(body, &team)
		if len(team) != 1 || team[0].ProfessionalID != pro.ID || !team[0].IsActive {
			t.Fatalf("unexpected team: %s", string(body))
		}
	}

	// 12) El profesional ve su acceso
	{
		st, body := doReq(t, ts.URL, "GET", "/me/grants?active=true", pro, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my grants, got %d body=%s", st, string(body))
		}
	}

	// 13) El profesional no administra el equipo ni invita
	{
		st, _ := doReq(t, ts.URL, "GET", "/children/"+childID+"/team", pro, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 team for professional, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/children/"+childID+"/invitations", pro, map[string]any{
			"scopes": []string{string(grants.ScopeMessages)},
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 invite by professional, got %d", st)
		}
	}

	// 14) Revocación: efecto inmediato
	{
		st, body := doReq(t, ts.URL, "POST", "/children/"+childID+"/team/"+pro.ID+"/revoke", guardian, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 revoke, got %d body=%s", st, string(body))
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/children/"+childID, pro, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 get child after revoke, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/children/"+childID+"/notes", pro, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 list notes after revoke, got %d", st)
		}
	}

	// 15) Doble revoke => 404
	{
		st, _ := doReq(t, ts.URL, "POST", "/children/"+childID+"/team/"+pro.ID+"/revoke", guardian, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 double revoke, got %d", st)
		}
	}

	// 16) Auditoría: solo admin, con todo el rastro
	{
		st, _ := doReq(t, ts.URL, "GET", "/audit", guardian, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 audit for guardian, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/audit", admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 audit for admin, got %d body=%s", st, string(body))
		}
		var entries []struct {
			Action string `json:"action"`
		}
		_ = json.Unmarshal(body, &entries)
		seen := map[string]bool{}
		for _, e := range entries {
			seen[e.Action] = true
		}
		for _, want := range []string{"invite_created", "invite_accepted", "access_revoked"} {
			if !seen[want] {
				t.Fatalf("expected %s in audit trail, got %s", want, string(body))
			}
		}
	}
}

func TestHTTP_DeclineInvitation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	guardian := actor{ID: "guardian-1", Role: "guardian"}
	pro := actor{ID: "pro-1", Role: "professional", Email: "pro@example.org"}

	childID := createChild(t, ts.URL, guardian, map[string]any{"name": "Mateo"})
	token := createInvitation(t, ts.URL, guardian, childID, map[string]any{
		"scopes": []string{string(grants.ScopeSupportNotes)},
	})

	{
		st, _ := doReq(t, ts.URL, "POST", "/invitations/"+token+"/decline", pro, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 decline, got %d", st)
		}
	}

	// terminal: ni aceptar ni volver a rechazar
	{
		st, _ := doReq(t, ts.URL, "POST", "/invitations/"+token+"/accept", pro, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 accept after decline, got %d", st)
		}
	}

	// y no hubo grant
	{
		st, _ := doReq(t, ts.URL, "GET", "/children/"+childID, pro, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403, decline must not grant access, got %d", st)
		}
	}
}

func TestHTTP_CreateInvitation_RejectsUnknownScope(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	guardian := actor{ID: "guardian-1", Role: "guardian"}
	childID := createChild(t, ts.URL, guardian, map[string]any{"name": "Lucía"})

	st, _ := doReq(t, ts.URL, "POST", "/children/"+childID+"/invitations", guardian, map[string]any{
		"scopes": []string{"medical_notes", "everything"},
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scope, got %d", st)
	}

	// y sin scopes tampoco: no hay defaults
	st, _ = doReq(t, ts.URL, "POST", "/children/"+childID+"/invitations", guardian, map[string]any{
		"scopes": []string{},
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty scopes, got %d", st)
	}
}

func TestHTTP_UnknownToken_Generic404(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "GET", "/invitations/no-such-token", actor{}, nil)
	if st != http.StatusNotFound {
		t.Fatalf("expected 404 unknown token, got %d", st)
	}
}

// -------------------------
// Helpers
// -------------------------

type actor struct {
	ID    string
	Role  string
	Email string
}

func createChild(t *testing.T, baseURL string, a actor, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/children", a, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create child, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create child: missing id body=%s", string(body))
	}
	return resp.ID
}

func createInvitation(t *testing.T, baseURL string, a actor, childID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/children/"+childID+"/invitations", a, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create invitation, got %d body=%s", st, string(body))
	}

	var resp struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Token == "" {
		t.Fatalf("create invitation: missing token body=%s", string(body))
	}
	return resp.Token
}

func doReq(t *testing.T, baseURL, method, path string, a actor, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.ID != "" {
		req.Header.Set("X-Debug-User-ID", a.ID)
	}
	if a.Role != "" {
		req.Header.Set("X-Debug-Role", a.Role)
	}
	if a.Email != "" {
		req.Header.Set("X-Debug-Email", a.Email)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
