package authz

import (
	"testing"

	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizer_EntityCreation(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	cases := []struct {
		role    domain.UserRole
		kind    domain.EntityKind
		allowed bool
	}{
		{domain.RoleSportelloLavoro, domain.KindCompany, true},
		{domain.RoleResponsabileTerritoriale, domain.KindCompany, true},
		{domain.RoleSegnalatori, domain.KindCompany, false},
		{domain.RoleSportelloLavoro, domain.KindSportello, false},
		{domain.RoleResponsabileTerritoriale, domain.KindSportello, true},
		{domain.RoleSportelloLavoro, domain.KindAgente, false},
		{domain.RoleSportelloLavoro, domain.KindSegnalatore, true},
		{domain.RoleSegnalatori, domain.KindSupplier, true},
		{domain.RoleAdmin, domain.KindAgente, true},
		{domain.RoleSuperAdmin, domain.KindSportello, true},
	}
	for _, tc := range cases {
		err := a.Authorize(tc.role, EntityObject(tc.kind), ActionCreate)
		if tc.allowed {
			assert.NoError(t, err, "%s create %s", tc.role, tc.kind)
		} else {
			assert.ErrorIs(t, err, apperrors.ErrForbidden, "%s create %s", tc.role, tc.kind)
		}
	}
}

// The policies must agree with the schemas the approval state machine uses.
func TestAuthorizer_MatchesSchemas(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	for _, kind := range domain.EntityKinds() {
		schema, _ := domain.SchemaFor(kind)
		for _, role := range domain.AllUserRoles() {
			err := a.Authorize(role, EntityObject(kind), ActionCreate)
			assert.Equal(t, schema.CanCreate(role), err == nil, "%s create %s", role, kind)
		}
	}
}

func TestAuthorizer_PrivilegedOnly(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	for _, role := range domain.AllUserRoles() {
		err := a.Authorize(role, ObjectApproval, ActionDecide)
		assert.Equal(t, role.IsPrivileged(), err == nil, role)
		err = a.Authorize(role, ObjectConto, ActionWrite)
		assert.Equal(t, role.IsPrivileged(), err == nil, role)
	}
	assert.NoError(t, a.Authorize(domain.RoleSegnalatori, ObjectConto, ActionRead))
	assert.Error(t, a.Authorize(domain.UserRole("guest"), ObjectConto, ActionRead))
}
