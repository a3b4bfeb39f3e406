package tarot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divination-engine/arcana/internal/api"
	"github.com/divination-engine/arcana/internal/cards"
	"github.com/divination-engine/arcana/internal/entitlement"
	"github.com/divination-engine/arcana/internal/readings"
)

type fakeReadingRepo struct {
	byID    map[uuid.UUID]*readings.Reading
	claimed map[uuid.UUID]uuid.UUID
	saved   map[uuid.UUID]string
}

func newFakeReadingRepo() *fakeReadingRepo {
	return &fakeReadingRepo{
		byID:    map[uuid.UUID]*readings.Reading{},
		claimed: map[uuid.UUID]uuid.UUID{},
		saved:   map[uuid.UUID]string{},
	}
}

func (f *fakeReadingRepo) Create(ctx context.Context, r *readings.Reading) error {
	f.byID[r.ID] = r
	return nil
}

func (f *fakeReadingRepo) GetByID(ctx context.Context, id uuid.UUID) (*readings.Reading, error) {
	return f.byID[id], nil
}

func (f *fakeReadingRepo) ListByUser(ctx context.Context, userID uuid.UUID, params readings.ListParams) ([]readings.Reading, int64, error) {
	return nil, 0, nil
}

func (f *fakeReadingRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeReadingRepo) SetUser(ctx context.Context, id, userID uuid.UUID) error {
	f.claimed[id] = userID
	return nil
}

func (f *fakeReadingRepo) SaveInterpretation(ctx context.Context, id uuid.UUID, text string) error {
	f.saved[id] = text
	return nil
}

type fakeCardRepo struct{}

func (fakeCardRepo) List(context.Context) ([]cards.Card, error) { return nil, nil }

func (fakeCardRepo) GetByID(ctx context.Context, id int) (*cards.Card, error) {
	return &cards.Card{ID: id}, nil
}

func (fakeCardRepo) GetByIDs(ctx context.Context, ids []int) ([]cards.Card, error) {
	out := make([]cards.Card, len(ids))
	for i, id := range ids {
		out[i] = cards.Card{
			ID:         id,
			Name:       fmt.Sprintf("card %d", id),
			MeaningUp:  "upright meaning",
			MeaningRev: "reversed meaning",
		}
	}
	return out, nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (g fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.text, g.err
}

func seedReading(repo *fakeReadingRepo, owner *uuid.UUID) uuid.UUID {
	id := uuid.New()
	repo.byID[id] = &readings.Reading{
		ID:         id,
		UserID:     owner,
		Question:   "What lies ahead?",
		SpreadType: readings.SpreadThreeCard,
		Cards: []cards.DrawnCard{
			{CardID: 1, Name: "card 1", Position: 1},
			{CardID: 2, Name: "card 2", Position: 2, Reversed: true},
			{CardID: 3, Name: "card 3", Position: 3},
		},
	}
	return id
}

func TestService_Interpret(t *testing.T) {
	repo := newFakeReadingRepo()
	userID := uuid.New()
	readingID := seedReading(repo, &userID)

	svc := NewService(repo, fakeCardRepo{}, fakeGenerator{text: "the cards speak"}, nil, slog.Default())

	result, err := svc.Interpret(context.Background(), userID, readingID, entitlement.TierFree, "")
	require.NoError(t, err)
	assert.Equal(t, "the cards speak", result.Text)
	assert.Equal(t, readings.SpreadThreeCard, result.SpreadType)
	assert.Equal(t, "the cards speak", repo.saved[readingID])
}

func TestService_Interpret_ClaimsAnonymousReading(t *testing.T) {
	repo := newFakeReadingRepo()
	readingID := seedReading(repo, nil)
	userID := uuid.New()

	svc := NewService(repo, fakeCardRepo{}, fakeGenerator{text: "ok"}, nil, slog.Default())

	_, err := svc.Interpret(context.Background(), userID, readingID, entitlement.TierFree, "")
	require.NoError(t, err)
	assert.Equal(t, userID, repo.claimed[readingID])
}

func TestService_Interpret_RejectsForeignReading(t *testing.T) {
	repo := newFakeReadingRepo()
	owner := uuid.New()
	readingID := seedReading(repo, &owner)

	svc := NewService(repo, fakeCardRepo{}, fakeGenerator{text: "ok"}, nil, slog.Default())

	_, err := svc.Interpret(context.Background(), uuid.New(), readingID, entitlement.TierFree, "")
	assert.ErrorIs(t, err, api.ErrNotReadingOwner)
	assert.Empty(t, repo.saved)
}

func TestService_Interpret_ReadingNotFound(t *testing.T) {
	repo := newFakeReadingRepo()
	svc := NewService(repo, fakeCardRepo{}, fakeGenerator{text: "ok"}, nil, slog.Default())

	_, err := svc.Interpret(context.Background(), uuid.New(), uuid.New(), entitlement.TierFree, "")

	var appErr *api.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Code)
}

func TestService_Interpret_BackendDown(t *testing.T) {
	repo := newFakeReadingRepo()
	userID := uuid.New()
	readingID := seedReading(repo, &userID)

	gen := fakeGenerator{err: fmt.Errorf("%w: timeout", ErrLLMUnavailable)}
	svc := NewService(repo, fakeCardRepo{}, gen, nil, slog.Default())

	_, err := svc.Interpret(context.Background(), userID, readingID, entitlement.TierFree, "")

	var appErr *api.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 503, appErr.Code)
	assert.Empty(t, repo.saved)
}
