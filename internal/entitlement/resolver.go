package entitlement

import (
	"errors"
	"slices"
	"strings"
)

// AuthorityPrefix marks tier-bearing authorities ("ROLE_PREMIUM" → PREMIUM).
const AuthorityPrefix = "ROLE_"

// ErrTierNotResolvable is returned by Resolve when the authority set carries
// no tier information at all. Callers surface it as a forbidden condition.
var ErrTierNotResolvable = errors.New("entitlement: no tier-bearing authority present")

// tierPrecedence is scanned highest entitlement first, so an identity holding
// both BASIC and PREMIUM resolves to PREMIUM regardless of slice order.
var tierPrecedence = []string{
	AuthorityPrefix + "PREMIUM",
	AuthorityPrefix + "PRO",
	AuthorityPrefix + "BASIC",
	AuthorityPrefix + "FREE",
	AuthorityPrefix + "USER",
}

// Resolve selects exactly one tier from an authority set. Precedence order
// wins over slice order; if nothing from the precedence list matches, the
// first ROLE_-prefixed authority in slice order is used as a fallback.
func Resolve(authorities []string) (Tier, error) {
	for _, want := range tierPrecedence {
		if slices.Contains(authorities, want) {
			return Tier(strings.TrimPrefix(want, AuthorityPrefix)), nil
		}
	}

	for _, a := range authorities {
		if strings.HasPrefix(a, AuthorityPrefix) {
			return Tier(strings.TrimPrefix(a, AuthorityPrefix)), nil
		}
	}

	return "", ErrTierNotResolvable
}

// ResolveOrFree resolves a tier, degrading to FREE when none can be
// determined. The quota gate uses this: throttling at the most restrictive
// tier is a safer default than rejecting the request at a layer that should
// only throttle, not authorize.
func ResolveOrFree(authorities []string) Tier {
	tier, err := Resolve(authorities)
	if err != nil {
		return TierFree
	}
	return tier
}
