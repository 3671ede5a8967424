package membership

import (
	"testing"

	"axis-backend/internal/domain"
	"axis-backend/internal/pkg/constants"

	"github.com/stretchr/testify/assert"
)

func TestValidateRoleAssignment(t *testing.T) {
	member := &domain.Employee{Role: constants.Member}
	owner := &domain.Employee{Role: constants.Owner}

	assert.NoError(t, ValidateRoleAssignment(member, constants.Admin))
	assert.NoError(t, ValidateRoleAssignment(nil, constants.Manager))
	assert.ErrorIs(t, ValidateRoleAssignment(member, constants.Owner), ErrInvalidRole)
	assert.ErrorIs(t, ValidateRoleAssignment(member, "superuser"), ErrInvalidRole)
	assert.ErrorIs(t, ValidateRoleAssignment(owner, constants.Admin), ErrCannotChangeOwner)
}

func TestValidateRemoval(t *testing.T) {
	assert.ErrorIs(t, ValidateRemoval(&domain.Employee{Role: constants.Owner}), ErrCannotRemoveOwner)
	assert.NoError(t, ValidateRemoval(&domain.Employee{Role: constants.Admin}))
}
