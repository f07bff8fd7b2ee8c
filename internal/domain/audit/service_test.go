package audit

import (
	"context"
	"testing"
	"time"
)

type testRepo struct {
	entries []Entry
}

func (r *testRepo) Append(ctx context.Context, e Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *testRepo) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	out := make([]Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func TestRecord_AppendsImmutableEntry(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo)

	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	err := svc.Record(context.Background(), ActionInviteCreated, "guardian-1", TargetInvitation, "inv-1", map[string]string{
		"child_id": "child-1",
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" || e.OccurredAt != now || e.Action != ActionInviteCreated {
		t.Fatalf("unexpected entry %#v", e)
	}
}

func TestRecord_RejectsIncomplete(t *testing.T) {
	svc := NewService(&testRepo{})
	ctx := context.Background()

	if err := svc.Record(ctx, "", "guardian-1", TargetInvitation, "inv-1", nil); err != ErrInvalidInput {
		t.Fatalf("empty action: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Record(ctx, ActionInviteDenied, "  ", TargetInvitation, "inv-1", nil); err != ErrInvalidInput {
		t.Fatalf("empty actor: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Record(ctx, ActionInviteDenied, "pro-1", TargetInvitation, "", nil); err != ErrInvalidInput {
		t.Fatalf("empty target: expected ErrInvalidInput, got %v", err)
	}
}

func TestListRecent_ClampsLimit(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo)

	for i := 0; i < 60; i++ {
		if err := svc.Record(context.Background(), ActionAccessRevoked, "adm-1", TargetGrant, "g-1", nil); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	got, err := svc.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("expected default limit 50, got %d", len(got))
	}

	got, err = svc.ListRecent(context.Background(), 10000)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(got) != 60 {
		t.Fatalf("expected all 60 under max cap, got %d", len(got))
	}
}
