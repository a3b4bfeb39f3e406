// Package entitlement maps authenticated identities to subscription tiers
// and the per-tier usage policy.
package entitlement

// Tier is a subscription level. The zero value is not meaningful; callers
// obtain tiers from Resolve or ParseTier.
type Tier string

const (
	TierFree    Tier = "FREE"
	TierBasic   Tier = "BASIC"
	TierPremium Tier = "PREMIUM"
	TierPro     Tier = "PRO"
)

// Unlimited marks a tier with no daily cap.
const Unlimited = -1

// Policy is the usage policy attached to a tier.
type Policy struct {
	DailyLimit  int
	UpgradeHint string
}

var tierPolicies = map[Tier]Policy{
	TierFree:    {DailyLimit: 3, UpgradeHint: "Upgrade to BASIC for 20 interpretations per day"},
	TierBasic:   {DailyLimit: 20, UpgradeHint: "Upgrade to PREMIUM for unlimited interpretations"},
	TierPremium: {DailyLimit: Unlimited, UpgradeHint: "You already have unlimited access"},
	TierPro:     {DailyLimit: Unlimited, UpgradeHint: "You already have unlimited access"},
}

// unknownPolicy applies to any tier string outside the closed set. It mirrors
// FREE limits so an unrecognized tier is throttled, not trusted.
var unknownPolicy = Policy{
	DailyLimit:  3,
	UpgradeHint: "Consider upgrading your plan for higher limits",
}

// PolicyFor returns the usage policy for a tier. Unrecognized tiers get the
// most restrictive limits.
func PolicyFor(t Tier) Policy {
	if p, ok := tierPolicies[t]; ok {
		return p
	}
	return unknownPolicy
}

// Known reports whether t is one of the closed tier set.
func Known(t Tier) bool {
	_, ok := tierPolicies[t]
	return ok
}
