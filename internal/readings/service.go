package readings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/divination-engine/arcana/internal/cards"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new reading. A nil userID records the reading as anonymous;
// an authenticated caller may claim it later through interpretation.
func (s *Service) Create(ctx context.Context, userID *uuid.UUID, question, spreadType string, drawn []cards.DrawnCard) (*Reading, error) {
	now := time.Now()
	reading := &Reading{
		ID:         uuid.New(),
		UserID:     userID,
		Question:   question,
		SpreadType: spreadType,
		Cards:      drawn,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, reading); err != nil {
		return nil, err
	}
	return reading, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Reading, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]Reading, int64, error) {
	return s.repo.ListByUser(ctx, userID, params)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
