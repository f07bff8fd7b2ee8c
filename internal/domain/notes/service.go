package notes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Category   Category
	Title      string
	Body       string
	OccurredAt time.Time
}

func (s *Service) Create(ctx context.Context, childID, authorID, authorRole string, in CreateInput) (Note, error) {
	if strings.TrimSpace(childID) == "" || strings.TrimSpace(authorID) == "" {
		return Note{}, ErrInvalidInput
	}
	if _, ok := in.Category.RequiredScope(); !ok {
		return Note{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Title) == "" {
		return Note{}, ErrInvalidInput
	}

	now := s.now()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	n := Note{
		ID:         uuid.NewString(),
		ChildID:    childID,
		Category:   in.Category,
		AuthorID:   authorID,
		AuthorRole: authorRole,
		Title:      strings.TrimSpace(in.Title),
		Body:       strings.TrimSpace(in.Body),
		OccurredAt: occurred,
		RecordedAt: now,
		Status:     NoteStatusActive,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Note, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Note{}, ErrInvalidInput
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Note{}, ErrNotFound
	}
	return n, nil
}

func (s *Service) ListByChild(ctx context.Context, childID string, f ListFilter) ([]Note, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByChild(ctx, childID, f)
}

// Void anula una nota sin borrarla (el expediente no pierde historia).
func (s *Service) Void(ctx context.Context, id string) (Note, error) {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if n.Status == NoteStatusVoided {
		return Note{}, ErrBadState
	}

	n.Status = NoteStatusVoided
	if err := s.repo.Update(ctx, n); err != nil {
		return Note{}, err
	}
	return n, nil
}
