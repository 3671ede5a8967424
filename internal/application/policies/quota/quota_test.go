package quota

import (
	"testing"

	"axis-backend/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_KnownTiers(t *testing.T) {
	cases := []struct {
		tier       string
		dept, emps int64
	}{
		{"free", 1, 10},
		{"pro", 20, 50},
		{"enterprise", 999999, 999999},
	}
	for _, tc := range cases {
		l, err := For(tc.tier)
		require.NoError(t, err, tc.tier)
		assert.Equal(t, tc.dept, l.MaxDepartments, tc.tier)
		assert.Equal(t, tc.emps, l.MaxEmployees, tc.tier)

		again, _ := For(tc.tier)
		assert.Equal(t, l, again)
	}
}

func TestFor_UnknownTier(t *testing.T) {
	for _, tier := range []string{"", "Free", "gold"} {
		_, err := For(tier)
		assert.ErrorIs(t, err, ErrInvalidTier)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}
