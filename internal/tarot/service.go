package tarot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/divination-engine/arcana/internal/api"
	"github.com/divination-engine/arcana/internal/cards"
	"github.com/divination-engine/arcana/internal/entitlement"
	"github.com/divination-engine/arcana/internal/events"
	"github.com/divination-engine/arcana/internal/metrics"
	"github.com/divination-engine/arcana/internal/readings"
)

// Interpretation is the result of a completed interpretation request.
type Interpretation struct {
	ReadingID  uuid.UUID
	SpreadType string
	Text       string
}

// Service generates interpretations for readings.
type Service struct {
	readings  readings.Repository
	cards     cards.Repository
	generator Generator
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewService(readingRepo readings.Repository, cardRepo cards.Repository, generator Generator, publisher *events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		readings:  readingRepo,
		cards:     cardRepo,
		generator: generator,
		publisher: publisher,
		logger:    logger,
	}
}

// Interpret loads a reading, verifies ownership, and generates an
// interpretation for it. Readings with no owner are claimed by the caller.
func (s *Service) Interpret(ctx context.Context, userID, readingID uuid.UUID, tier entitlement.Tier, userContext string) (*Interpretation, error) {
	reading, err := s.readings.GetByID(ctx, readingID)
	if err != nil {
		return nil, fmt.Errorf("loading reading %s: %w", readingID, err)
	}
	if reading == nil {
		return nil, api.NewNotFoundError("reading not found")
	}

	switch {
	case reading.UserID == nil:
		if err := s.readings.SetUser(ctx, readingID, userID); err != nil {
			return nil, fmt.Errorf("claiming reading %s: %w", readingID, err)
		}
	case *reading.UserID != userID:
		return nil, api.ErrNotReadingOwner
	}

	promptCards, err := s.promptCards(ctx, reading.Cards)
	if err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(reading.SpreadType, reading.Question, userContext, promptCards)
	if err != nil {
		return nil, api.NewBadRequestError(err.Error())
	}

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrLLMUnavailable) {
			s.logger.Error("interpretation generation failed", "reading_id", readingID, "error", err)
			return nil, &api.AppError{Code: http.StatusServiceUnavailable, Message: "interpretation service temporarily unavailable"}
		}
		return nil, err
	}

	if err := s.readings.SaveInterpretation(ctx, readingID, text); err != nil {
		// The querent still gets their interpretation; persistence is retried
		// on the next request if they ask again.
		s.logger.Error("saving interpretation failed", "reading_id", readingID, "error", err)
	}

	metrics.InterpretationsTotal.WithLabelValues(reading.SpreadType).Inc()
	if s.publisher != nil {
		s.publisher.PublishUsageEventAsync(events.UsageEvent{
			UserID:    userID.String(),
			EventType: events.EventInterpretationGenerated,
			Tier:      string(tier),
			ReadingID: readingID.String(),
			Details:   reading.SpreadType,
		})
	}

	return &Interpretation{
		ReadingID:  readingID,
		SpreadType: reading.SpreadType,
		Text:       text,
	}, nil
}

// promptCards joins drawn cards with their meanings from the deck.
func (s *Service) promptCards(ctx context.Context, drawn []cards.DrawnCard) ([]PromptCard, error) {
	ids := make([]int, len(drawn))
	for i, d := range drawn {
		ids[i] = d.CardID
	}
	deck, err := s.cards.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading card meanings: %w", err)
	}
	byID := make(map[int]cards.Card, len(deck))
	for _, c := range deck {
		byID[c.ID] = c
	}

	out := make([]PromptCard, len(drawn))
	for i, d := range drawn {
		card, ok := byID[d.CardID]
		if !ok {
			return nil, fmt.Errorf("reading references unknown card %d", d.CardID)
		}
		meaning := card.MeaningUp
		if d.Reversed {
			meaning = card.MeaningRev
		}
		out[i] = PromptCard{
			Name:     card.Name,
			Reversed: d.Reversed,
			Meaning:  meaning,
			Position: d.Position,
		}
	}
	return out, nil
}
