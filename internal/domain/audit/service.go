package audit

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

// Recorder es la interfaz que consumen los otros módulos para auditar.
// Solo escribe: este módulo nunca lee sus propias entradas para decidir.
type Recorder interface {
	Record(ctx context.Context, action Action, actorID string, targetType TargetType, targetID string, metadata map[string]string) error
}

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

func (s *Service) Record(ctx context.Context, action Action, actorID string, targetType TargetType, targetID string, metadata map[string]string) error {
	actorID = strings.TrimSpace(actorID)
	targetID = strings.TrimSpace(targetID)

	if action == "" || actorID == "" || targetType == "" || targetID == "" {
		return ErrInvalidInput
	}

	return s.repo.Append(ctx, Entry{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
		OccurredAt: s.now(),
	})
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListRecent para la vista de monitoreo (admin). Más recientes primero.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
