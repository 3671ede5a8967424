// Package quota maps a subscription tier to its resource limits.
package quota

import (
	"axis-backend/internal/pkg/apperr"
	"axis-backend/internal/pkg/constants"
)

// Limits are the per-organisation resource caps for a tier.
type Limits struct {
	MaxDepartments int64 `json:"maxDepartments"`
	MaxEmployees   int64 `json:"maxEmployees"`
}

// Unbounded is the enterprise cap for both resources.
const Unbounded = 999999

var table = map[string]Limits{
	constants.TierFree:       {MaxDepartments: 1, MaxEmployees: 10},
	constants.TierPro:        {MaxDepartments: 20, MaxEmployees: 50},
	constants.TierEnterprise: {MaxDepartments: Unbounded, MaxEmployees: Unbounded},
}

// ErrInvalidTier is returned for a tier outside the limits table.
var ErrInvalidTier = apperr.Validation("invalid_tier", "Invalid subscription tier")

// For returns the limits for tier, or ErrInvalidTier.
func For(tier string) (Limits, error) {
	l, ok := table[tier]
	if !ok {
		return Limits{}, ErrInvalidTier
	}
	return l, nil
}
