package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/divination-engine/arcana/internal/entitlement"
)

// User matches the users table schema.
type User struct {
	ID           uuid.UUID        `json:"id"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	Tier         entitlement.Tier `json:"tier"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Authorities returns the tier-bearing authority strings embedded in access
// tokens for this user.
func (u *User) Authorities() []string {
	return []string{entitlement.AuthorityPrefix + string(u.Tier)}
}
