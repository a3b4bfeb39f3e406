package cards

import (
	"context"
	"fmt"
	"math/rand/v2"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Card, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int) (*Card, error) {
	return s.repo.GetByID(ctx, id)
}

// Draw selects count unique random cards with random orientation. Selection
// is application-side (random unique IDs, one batched query, then a shuffle)
// rather than ORDER BY random() in SQL.
func (s *Service) Draw(ctx context.Context, count int) ([]Card, []bool, error) {
	if count <= 0 {
		return nil, nil, fmt.Errorf("count must be a positive integer")
	}
	if count > DeckSize {
		return nil, nil, fmt.Errorf("count cannot exceed %d cards", DeckSize)
	}

	selected := make(map[int]struct{}, count)
	ids := make([]int, 0, count)
	for len(ids) < count {
		id := rand.IntN(DeckSize) + 1
		if _, ok := selected[id]; ok {
			continue
		}
		selected[id] = struct{}{}
		ids = append(ids, id)
	}

	drawn, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	rand.Shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})

	reversed := make([]bool, len(drawn))
	for i := range reversed {
		reversed[i] = rand.IntN(2) == 1
	}

	return drawn, reversed, nil
}
