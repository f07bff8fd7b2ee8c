package notes

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"care-team-access/internal/domain/grants"
)

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Note
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Note{}}
}

func (r *testRepo) Create(ctx context.Context, n Note) error {
	if n.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[n.ID] = n
	return nil
}

func (r *testRepo) Update(ctx context.Context, n Note) error {
	if _, ok := r.byID[n.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[n.ID] = n
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Note, error) {
	n, ok := r.byID[id]
	if !ok {
		return Note{}, errRepoNotFound
	}
	return n, nil
}

func (r *testRepo) ListByChild(ctx context.Context, childID string, f ListFilter) ([]Note, error) {
	out := make([]Note, 0)
	for _, n := range r.byID {
		if n.ChildID != childID {
			continue
		}
		if len(f.Categories) > 0 {
			match := false
			for _, c := range f.Categories {
				if n.Category == c {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func TestCategoryRequiredScope(t *testing.T) {
	if s, ok := CategoryMedical.RequiredScope(); !ok || s != grants.ScopeMedicalNotes {
		t.Fatalf("medical: got %v, %v", s, ok)
	}
	if s, ok := CategorySupport.RequiredScope(); !ok || s != grants.ScopeSupportNotes {
		t.Fatalf("support: got %v, %v", s, ok)
	}
	if _, ok := Category("chat").RequiredScope(); ok {
		t.Fatalf("unknown category must not map to a scope")
	}
}

func TestCreate_DefaultsOccurredAt(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2026, 5, 2, 16, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	n, err := svc.Create(context.Background(), "child-1", "pro-1", "professional", CreateInput{
		Category: CategoryMedical,
		Title:    "Control anual",
		Body:     "Todo en orden.",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if n.OccurredAt != now || n.RecordedAt != now {
		t.Fatalf("expected OccurredAt defaulted to now")
	}
	if n.Status != NoteStatusActive {
		t.Fatalf("expected active, got %s", n.Status)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "child-1", "pro-1", "professional", CreateInput{Category: "chat", Title: "x"}); err != ErrInvalidInput {
		t.Fatalf("bad category: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Create(ctx, "child-1", "pro-1", "professional", CreateInput{Category: CategoryMedical, Title: "  "}); err != ErrInvalidInput {
		t.Fatalf("empty title: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Create(ctx, "", "pro-1", "professional", CreateInput{Category: CategoryMedical, Title: "x"}); err != ErrInvalidInput {
		t.Fatalf("empty child: expected ErrInvalidInput, got %v", err)
	}
}

func TestVoid_KeepsNote(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	n, err := svc.Create(context.Background(), "child-1", "guardian-1", "guardian", CreateInput{
		Category: CategorySupport,
		Title:    "Sesión semanal",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	voided, err := svc.Void(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("Void error: %v", err)
	}
	if voided.Status != NoteStatusVoided {
		t.Fatalf("expected voided, got %s", voided.Status)
	}
	// anulada pero no borrada
	if _, err := svc.GetByID(context.Background(), n.ID); err != nil {
		t.Fatalf("voided note must remain readable: %v", err)
	}

	if _, err := svc.Void(context.Background(), n.ID); err != ErrBadState {
		t.Fatalf("double void: expected ErrBadState, got %v", err)
	}
}

func TestListByChild_FilterAndOrder(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	mk := func(cat Category, title string, at time.Time) {
		if _, err := svc.Create(context.Background(), "child-1", "pro-1", "professional", CreateInput{
			Category:   cat,
			Title:      title,
			OccurredAt: at,
		}); err != nil {
			t.Fatalf("Create %s error: %v", title, err)
		}
	}
	mk(CategoryMedical, "vieja", base)
	mk(CategoryMedical, "nueva", base.Add(2*time.Hour))
	mk(CategorySupport, "apoyo", base.Add(time.Hour))

	all, err := svc.ListByChild(context.Background(), "child-1", ListFilter{})
	if err != nil {
		t.Fatalf("ListByChild error: %v", err)
	}
	if len(all) != 3 || all[0].Title != "nueva" || all[2].Title != "vieja" {
		t.Fatalf("expected 3 notes most recent first, got %#v", all)
	}

	med, err := svc.ListByChild(context.Background(), "child-1", ListFilter{Categories: []Category{CategoryMedical}})
	if err != nil {
		t.Fatalf("ListByChild medical error: %v", err)
	}
	if len(med) != 2 {
		t.Fatalf("expected 2 medical notes, got %d", len(med))
	}
}
