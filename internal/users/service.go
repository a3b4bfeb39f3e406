package users

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/divination-engine/arcana/internal/entitlement"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new user on the FREE tier.
func (s *Service) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	now := time.Now()
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Tier:         entitlement.TierFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, email)
}

// ChangeTier moves a user to a new subscription tier. Only tiers from the
// closed set are accepted.
func (s *Service) ChangeTier(ctx context.Context, id uuid.UUID, tier entitlement.Tier) error {
	if !entitlement.Known(tier) {
		return ErrUnknownTier
	}
	return s.repo.UpdateTier(ctx, id, tier)
}
