package cards

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	List(ctx context.Context) ([]Card, error)
	GetByID(ctx context.Context, id int) (*Card, error)
	GetByIDs(ctx context.Context, ids []int) ([]Card, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const cardColumns = `id, name, arcana, suit, meaning_up, meaning_rev`

func (r *postgresRepository) List(ctx context.Context) ([]Card, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

func (r *postgresRepository) GetByID(ctx context.Context, id int) (*Card, error) {
	card := &Card{}
	err := r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id).
		Scan(&card.ID, &card.Name, &card.Arcana, &card.Suit, &card.MeaningUp, &card.MeaningRev)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying card %d: %w", id, err)
	}
	return card, nil
}

func (r *postgresRepository) GetByIDs(ctx context.Context, ids []int) ([]Card, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying cards by ids: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

func scanCards(rows pgx.Rows) ([]Card, error) {
	var out []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Arcana, &c.Suit, &c.MeaningUp, &c.MeaningRev); err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cards: %w", err)
	}
	return out, nil
}
