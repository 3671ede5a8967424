package invitations

import "axis-backend/internal/pkg/validation"

func equalFold(a, b string) bool {
	return validation.NormalizeEmail(a) == validation.NormalizeEmail(b)
}
