package readings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divination-engine/arcana/internal/cards"
)

type Repository interface {
	Create(ctx context.Context, reading *Reading) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reading, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]Reading, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetUser(ctx context.Context, id, userID uuid.UUID) error
	SaveInterpretation(ctx context.Context, id uuid.UUID, interpretation string) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, reading *Reading) error {
	cardsJSON, err := json.Marshal(reading.Cards)
	if err != nil {
		return fmt.Errorf("marshaling reading cards: %w", err)
	}

	query := `
		INSERT INTO readings (id, user_id, question, spread_type, cards, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, query,
		reading.ID, reading.UserID, reading.Question, reading.SpreadType, cardsJSON,
		reading.CreatedAt, reading.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Reading, error) {
	query := `
		SELECT id, user_id, question, spread_type, cards, interpretation, created_at, updated_at
		FROM readings WHERE id = $1`

	reading := &Reading{}
	var cardsJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&reading.ID, &reading.UserID, &reading.Question, &reading.SpreadType,
		&cardsJSON, &reading.Interpretation, &reading.CreatedAt, &reading.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying reading: %w", err)
	}

	if err := json.Unmarshal(cardsJSON, &reading.Cards); err != nil {
		return nil, fmt.Errorf("unmarshaling reading cards: %w", err)
	}
	return reading, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]Reading, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM readings WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting readings: %w", err)
	}

	query := `
		SELECT id, user_id, question, spread_type, cards, interpretation, created_at, updated_at
		FROM readings WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, params.PageSize, (params.Page-1)*params.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("listing readings: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var reading Reading
		var cardsJSON []byte
		if err := rows.Scan(
			&reading.ID, &reading.UserID, &reading.Question, &reading.SpreadType,
			&cardsJSON, &reading.Interpretation, &reading.CreatedAt, &reading.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning reading: %w", err)
		}
		if err := json.Unmarshal(cardsJSON, &reading.Cards); err != nil {
			reading.Cards = []cards.DrawnCard{}
		}
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating readings: %w", err)
	}

	return out, total, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM readings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting reading: %w", err)
	}
	return nil
}

func (r *postgresRepository) SetUser(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE readings SET user_id = $2, updated_at = now() WHERE id = $1 AND user_id IS NULL`,
		id, userID)
	if err != nil {
		return fmt.Errorf("claiming reading: %w", err)
	}
	return nil
}

func (r *postgresRepository) SaveInterpretation(ctx context.Context, id uuid.UUID, interpretation string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE readings SET interpretation = $2, updated_at = now() WHERE id = $1`,
		id, interpretation)
	if err != nil {
		return fmt.Errorf("saving interpretation: %w", err)
	}
	return nil
}
