package children

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
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
	Name      string
	BirthDate *time.Time
	Notes     string
}

func (s *Service) Create(ctx context.Context, guardianID string, in CreateInput) (Child, error) {
	if strings.TrimSpace(guardianID) == "" {
		return Child{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Child{}, ErrInvalidInput
	}

	now := s.now()
	c := Child{
		ID:         uuid.NewString(),
		GuardianID: guardianID,
		Name:       strings.TrimSpace(in.Name),
		BirthDate:  in.BirthDate,
		Notes:      strings.TrimSpace(in.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Child{}, err
	}
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Child, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByGuardian(ctx context.Context, guardianID string) ([]Child, error) {
	return s.repo.ListByGuardian(ctx, guardianID)
}
