package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesKindAndCodeIgnoringDetails(t *testing.T) {
	sentinel := New(KindConflict, "duplicate_slug", "Organisation with this name already exists")
	err := sentinel.WithDetails(map[string]interface{}{"slug": "acme-inc"})

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, New(KindConflict, "other", "x")))
	assert.Nil(t, sentinel.Details)
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("create: %w", NotFound("Organisation"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestQuotaExceeded_Details(t *testing.T) {
	err := QuotaExceeded("employees", 10, 10, "free")
	require.Equal(t, KindQuotaExceeded, err.Kind)
	assert.Contains(t, err.Message, "10 employees")
	assert.Contains(t, err.Message, "free plan")
	assert.Equal(t, int64(10), err.Details["limit"])
	assert.Equal(t, int64(10), err.Details["current"])
	assert.Equal(t, "free", err.Details["tier"])
}

func TestNotFound_CodeIsPerResource(t *testing.T) {
	assert.Equal(t, "organisation_not_found", NotFound("Organisation").Code)
	assert.False(t, errors.Is(NotFound("Employee"), NotFound("Organisation")))
	assert.True(t, errors.Is(NotFound("Employee"), NotFound("Employee")))
}
