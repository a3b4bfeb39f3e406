package users

import "errors"

// ErrUnknownTier is returned when a tier change names a tier outside the
// closed set.
var ErrUnknownTier = errors.New("users: unknown tier")
