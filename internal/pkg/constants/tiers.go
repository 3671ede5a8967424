package constants

const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

const SubscriptionActive = "active"

// IsPaidTier reports whether tier is billed.
func IsPaidTier(tier string) bool {
	return tier == TierPro || tier == TierEnterprise
}
