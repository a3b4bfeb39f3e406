package readings

import (
	"time"

	"github.com/google/uuid"

	"github.com/divination-engine/arcana/internal/cards"
)

// Spread types accepted for readings and interpretations.
const (
	SpreadOneCard     = "one-card"
	SpreadThreeCard   = "three-card"
	SpreadCelticCross = "celtic-cross"
)

// ValidSpread reports whether s names a supported spread layout.
func ValidSpread(s string) bool {
	switch s {
	case SpreadOneCard, SpreadThreeCard, SpreadCelticCross:
		return true
	}
	return false
}

// Reading matches the readings table schema. UserID is nil for readings
// created before the client authenticated; the first interpretation claims
// them.
type Reading struct {
	ID             uuid.UUID         `json:"id"`
	UserID         *uuid.UUID        `json:"user_id,omitempty"`
	Question       string            `json:"question"`
	SpreadType     string            `json:"spread_type"`
	Cards          []cards.DrawnCard `json:"cards"`
	Interpretation *string           `json:"interpretation,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ListParams holds pagination parameters.
type ListParams struct {
	Page     int
	PageSize int
}

// DefaultListParams returns sensible defaults.
func DefaultListParams() ListParams {
	return ListParams{Page: 1, PageSize: 20}
}
