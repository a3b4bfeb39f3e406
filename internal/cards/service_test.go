package cards

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository serves a full deck from memory.
type fakeRepository struct{}

func (fakeRepository) List(context.Context) ([]Card, error) {
	deck := make([]Card, DeckSize)
	for i := range deck {
		deck[i] = Card{ID: i + 1, Name: fmt.Sprintf("card %d", i+1)}
	}
	return deck, nil
}

func (r fakeRepository) GetByID(ctx context.Context, id int) (*Card, error) {
	if id < 1 || id > DeckSize {
		return nil, fmt.Errorf("card %d not found", id)
	}
	return &Card{ID: id, Name: fmt.Sprintf("card %d", id)}, nil
}

func (r fakeRepository) GetByIDs(ctx context.Context, ids []int) ([]Card, error) {
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func TestService_Draw(t *testing.T) {
	svc := NewService(fakeRepository{})
	ctx := context.Background()

	for _, count := range []int{1, 3, 10} {
		drawn, reversed, err := svc.Draw(ctx, count)
		require.NoError(t, err)
		require.Len(t, drawn, count)
		require.Len(t, reversed, count)

		// Every card must be distinct.
		seen := map[int]bool{}
		for _, c := range drawn {
			assert.False(t, seen[c.ID], "card %d drawn twice", c.ID)
			seen[c.ID] = true
		}
	}
}

func TestService_DrawFullDeck(t *testing.T) {
	svc := NewService(fakeRepository{})

	drawn, _, err := svc.Draw(context.Background(), DeckSize)
	require.NoError(t, err)
	assert.Len(t, drawn, DeckSize)
}

func TestService_DrawInvalidCount(t *testing.T) {
	svc := NewService(fakeRepository{})
	ctx := context.Background()

	_, _, err := svc.Draw(ctx, 0)
	assert.Error(t, err)

	_, _, err = svc.Draw(ctx, -1)
	assert.Error(t, err)

	_, _, err = svc.Draw(ctx, DeckSize+1)
	assert.Error(t, err)
}
