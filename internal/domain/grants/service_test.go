package grants

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"care-team-access/internal/domain/audit"
	"care-team-access/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Grant
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Grant{}}
}

// seed mete un grant directo al mapa; los grants de producción nacen
// solo por aceptar una invitación, pero el test no pasa por ahí.
func (r *testRepo) seed(g Grant) {
	r.byID[g.ID] = g
}

func (r *testRepo) Update(ctx context.Context, g Grant) error {
	if g.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[g.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) GetByPair(ctx context.Context, childID, professionalID string) (Grant, error) {
	for _, g := range r.byID {
		if g.ChildID == childID && g.ProfessionalID == professionalID {
			return g, nil
		}
	}
	return Grant{}, errRepoNotFound
}

func (r *testRepo) GetActive(ctx context.Context, childID, professionalID string) (Grant, error) {
	for _, g := range r.byID {
		if g.ChildID == childID && g.ProfessionalID == professionalID && g.IsActive {
			return g, nil
		}
	}
	return Grant{}, errRepoNotFound
}

func (r *testRepo) ListActiveByChild(ctx context.Context, childID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.ChildID == childID && g.IsActive {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.After(out[j].GrantedAt) })
	return out, nil
}

func (r *testRepo) ListByProfessional(ctx context.Context, professionalID string) ([]Grant, error) {
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.ProfessionalID == professionalID {
			out = append(out, g)
		}
	}
	return out, nil
}

// -------------------------
// Fakes auxiliares
// -------------------------

type testChildren struct {
	guardians map[string]string // childID -> guardianID
}

func (c *testChildren) GuardianOf(ctx context.Context, childID string) (string, error) {
	g, ok := c.guardians[childID]
	if !ok {
		return "", errRepoNotFound
	}
	return g, nil
}

type testRecorder struct {
	entries []audit.Action
}

func (r *testRecorder) Record(ctx context.Context, action audit.Action, actorID string, targetType audit.TargetType, targetID string, metadata map[string]string) error {
	r.entries = append(r.entries, action)
	return nil
}

func newTestService(repo *testRepo) (*Service, *testRecorder) {
	rec := &testRecorder{}
	svc := NewService(repo, &testChildren{guardians: map[string]string{
		"child-1": "guardian-1",
		"child-2": "guardian-2",
	}}, rec)
	return svc, rec
}

func guardian(id string) auth.Claims {
	return auth.Claims{UserID: id, Role: auth.RoleGuardian}
}

func professional(id string) auth.Claims {
	return auth.Claims{UserID: id, Role: auth.RoleProfessional}
}

func admin(id string) auth.Claims {
	return auth.Claims{UserID: id, Role: auth.RoleAdmin}
}

// -------------------------
// Tests
// -------------------------

func TestCanAccess_Matrix(t *testing.T) {
	repo := newTestRepo()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	repo.seed(Grant{
		ID:             "g-active",
		ChildID:        "child-1",
		ProfessionalID: "pro-1",
		Scopes:         []Scope{ScopeMedicalNotes, ScopeMessages},
		IsActive:       true,
		GrantedAt:      now,
		UpdatedAt:      now,
	})
	revokedAt := now.Add(time.Hour)
	repo.seed(Grant{
		ID:             "g-revoked",
		ChildID:        "child-2",
		ProfessionalID: "pro-1",
		Scopes:         []Scope{ScopeMedicalNotes},
		IsActive:       false,
		GrantedAt:      now,
		UpdatedAt:      revokedAt,
		RevokedAt:      &revokedAt,
	})

	svc, _ := newTestService(repo)
	ctx := context.Background()

	cases := []struct {
		name    string
		actor   auth.Claims
		childID string
		scope   Scope
		want    bool
	}{
		{"admin siempre", admin("adm-1"), "child-1", ScopeVideoVisits, true},
		{"guardián de su hijo", guardian("guardian-1"), "child-1", ScopeSupportNotes, true},
		{"guardián de otro hijo", guardian("guardian-1"), "child-2", ScopeMedicalNotes, false},
		{"profesional con scope", professional("pro-1"), "child-1", ScopeMedicalNotes, true},
		{"profesional sin el scope", professional("pro-1"), "child-1", ScopeVideoVisits, false},
		{"grant revocado", professional("pro-1"), "child-2", ScopeMedicalNotes, false},
		{"profesional sin grant", professional("pro-2"), "child-1", ScopeMedicalNotes, false},
		{"actor vacío", auth.Claims{}, "child-1", ScopeMedicalNotes, false},
	}

	for _, tc := range cases {
		got, err := svc.CanAccess(ctx, tc.actor, tc.childID, tc.scope)
		if err != nil {
			t.Fatalf("%s: CanAccess error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: CanAccess = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanView_AnyActiveGrant(t *testing.T) {
	repo := newTestRepo()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo.seed(Grant{
		ID:             "g1",
		ChildID:        "child-1",
		ProfessionalID: "pro-1",
		Scopes:         []Scope{ScopeMessages},
		IsActive:       true,
		GrantedAt:      now,
		UpdatedAt:      now,
	})

	svc, _ := newTestService(repo)
	ctx := context.Background()

	ok, err := svc.CanView(ctx, professional("pro-1"), "child-1")
	if err != nil || !ok {
		t.Fatalf("CanView con grant activo = %v, %v; want true", ok, err)
	}

	ok, err = svc.CanView(ctx, professional("pro-2"), "child-1")
	if err != nil || ok {
		t.Fatalf("CanView sin grant = %v, %v; want false", ok, err)
	}
}

func TestCanManage_NeverViaGrant(t *testing.T) {
	repo := newTestRepo()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo.seed(Grant{
		ID:             "g1",
		ChildID:        "child-1",
		ProfessionalID: "pro-1",
		Scopes:         []Scope{ScopeMedicalNotes, ScopeSupportNotes, ScopeMessages, ScopeVideoVisits},
		IsActive:       true,
		GrantedAt:      now,
		UpdatedAt:      now,
	})

	svc, _ := newTestService(repo)
	ctx := context.Background()

	// ni con todos los scopes un profesional administra
	ok, err := svc.CanManage(ctx, professional("pro-1"), "child-1")
	if err != nil || ok {
		t.Fatalf("CanManage profesional = %v, %v; want false", ok, err)
	}

	ok, err = svc.CanManage(ctx, guardian("guardian-1"), "child-1")
	if err != nil || !ok {
		t.Fatalf("CanManage guardián = %v, %v; want true", ok, err)
	}

	ok, err = svc.CanManage(ctx, admin("adm-1"), "child-1")
	if err != nil || !ok {
		t.Fatalf("CanManage admin = %v, %v; want true", ok, err)
	}
}

func TestRevoke_KeepsRowAndScopes(t *testing.T) {
	repo := newTestRepo()
	granted := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo.seed(Grant{
		ID:             "g1",
		ChildID:        "child-1",
		ProfessionalID: "pro-1",
		Scopes:         []Scope{ScopeMedicalNotes},
		IsActive:       true,
		GrantedAt:      granted,
		UpdatedAt:      granted,
	})

	svc, rec := newTestService(repo)
	now := granted.Add(48 * time.Hour)
	svc.now = func() time.Time { return now }

	g, err := svc.Revoke(context.Background(), "child-1", "pro-1", guardian("guardian-1"))
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if g.IsActive {
		t.Fatalf("expected inactive after revoke")
	}
	if g.RevokedAt == nil || !g.RevokedAt.Equal(now) {
		t.Fatalf("expected RevokedAt = now, got %v", g.RevokedAt)
	}
	// la fila y sus scopes quedan para el historial
	kept, err := repo.GetByPair(context.Background(), "child-1", "pro-1")
	if err != nil {
		t.Fatalf("GetByPair after revoke: %v", err)
	}
	if kept.ID != "g1" || !HasScope(kept, ScopeMedicalNotes) {
		t.Fatalf("expected row retained with scopes, got %#v", kept)
	}

	if len(rec.entries) != 1 || rec.entries[0] != audit.ActionAccessRevoked {
		t.Fatalf("expected one access_revoked audit entry, got %#v", rec.entries)
	}
}

func TestRevoke_SecondTimeNotFound(t *testing.T) {
	repo := newTestRepo()
	granted := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo.seed(Grant{
		ID:             "g1",
		ChildID:        "child-1",
		ProfessionalID: "pro-1",
		Scopes:         []Scope{ScopeMessages},
		IsActive:       true,
		GrantedAt:      granted,
		UpdatedAt:      granted,
	})

	svc, _ := newTestService(repo)

	if _, err := svc.Revoke(context.Background(), "child-1", "pro-1", guardian("guardian-1")); err != nil {
		t.Fatalf("Revoke #1 error: %v", err)
	}
	if _, err := svc.Revoke(context.Background(), "child-1", "pro-1", guardian("guardian-1")); err != ErrNotFound {
		t.Fatalf("Revoke #2: expected ErrNotFound, got %v", err)
	}
}

func TestRevoke_OnlyGuardianOrAdmin(t *testing.T) {
	repo := newTestRepo()
	granted := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo.seed(Grant{
		ID:             "g1",
		ChildID:        "child-1",
		ProfessionalID: "pro-1",
		Scopes:         []Scope{ScopeMessages},
		IsActive:       true,
		GrantedAt:      granted,
		UpdatedAt:      granted,
	})

	svc, _ := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Revoke(ctx, "child-1", "pro-1", professional("pro-1")); err != ErrForbidden {
		t.Fatalf("self-revoke profesional: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Revoke(ctx, "child-1", "pro-1", guardian("guardian-2")); err != ErrForbidden {
		t.Fatalf("guardián ajeno: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Revoke(ctx, "child-1", "pro-1", admin("adm-1")); err != nil {
		t.Fatalf("admin revoke error: %v", err)
	}
}

func TestListActiveForChild_MostRecentFirst(t *testing.T) {
	repo := newTestRepo()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	repo.seed(Grant{ID: "g-old", ChildID: "child-1", ProfessionalID: "pro-1", Scopes: []Scope{ScopeMessages}, IsActive: true, GrantedAt: base, UpdatedAt: base})
	repo.seed(Grant{ID: "g-new", ChildID: "child-1", ProfessionalID: "pro-2", Scopes: []Scope{ScopeMessages}, IsActive: true, GrantedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)})
	revoked := base.Add(2 * time.Hour)
	repo.seed(Grant{ID: "g-off", ChildID: "child-1", ProfessionalID: "pro-3", Scopes: []Scope{ScopeMessages}, IsActive: false, GrantedAt: base, UpdatedAt: revoked, RevokedAt: &revoked})

	svc, _ := newTestService(repo)

	list, err := svc.ListActiveForChild(context.Background(), "child-1")
	if err != nil {
		t.Fatalf("ListActiveForChild error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 active grants, got %d", len(list))
	}
	if list[0].ID != "g-new" || list[1].ID != "g-old" {
		t.Fatalf("expected most recent first, got %s, %s", list[0].ID, list[1].ID)
	}
}

func TestNormalizeScopes(t *testing.T) {
	out, err := NormalizeScopes([]Scope{ScopeMedicalNotes, ScopeMedicalNotes, " messages "})
	if err != nil {
		t.Fatalf("NormalizeScopes error: %v", err)
	}
	if len(out) != 2 || out[0] != ScopeMedicalNotes || out[1] != ScopeMessages {
		t.Fatalf("expected dedup + trim, got %#v", out)
	}

	if _, err := NormalizeScopes(nil); err != ErrInvalidScope {
		t.Fatalf("empty: expected ErrInvalidScope, got %v", err)
	}
	if _, err := NormalizeScopes([]Scope{"everything"}); err != ErrInvalidScope {
		t.Fatalf("unknown: expected ErrInvalidScope, got %v", err)
	}
}
