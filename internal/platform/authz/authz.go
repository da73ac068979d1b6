// Package authz answers role permission questions with a casbin RBAC model.
// Roles inherit the permissions of every role below them.
package authz

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/impresahub/impresa_backend/internal/apperrors"
	"github.com/impresahub/impresa_backend/internal/core/domain"
	portssvc "github.com/impresahub/impresa_backend/internal/core/ports/services"
)

// Objects and actions checked by the services.
const (
	ObjectApproval = "approval"
	ObjectUser     = "user"
	ObjectConto    = "conto"
	ObjectTemplate = "template"
	ObjectMessage  = "message"

	ActionCreate      = "create"
	ActionRead        = "read"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionDecide      = "decide"
	ActionWrite       = "write"
	ActionInstantiate = "instantiate"
	ActionSend        = "send"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// Authorizer implements portssvc.PermissionChecker.
type Authorizer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

var _ portssvc.PermissionChecker = (*Authorizer)(nil)

// EntityObject is the casbin object of an entity kind.
func EntityObject(kind domain.EntityKind) string {
	return "entity:" + string(kind)
}

// NewAuthorizer builds the enforcer with the role hierarchy and the policies derived from the entity schemas.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}

	roles := domain.AllUserRoles()
	for i := 1; i < len(roles); i++ {
		if _, err := enf.AddGroupingPolicy(string(roles[i]), string(roles[i-1])); err != nil {
			return nil, fmt.Errorf("authz: failed to add role %s: %w", roles[i], err)
		}
	}

	base := string(domain.RoleSegnalatori)
	policies := [][]string{
		{string(domain.RoleAdmin), "*", "*"},
		{base, ObjectConto, ActionRead},
		{base, ObjectTemplate, ActionRead},
		{base, ObjectMessage, ActionSend},
		{base, ObjectMessage, ActionRead},
		{base, ObjectUser, ActionRead},
		{base, ObjectUser, ActionUpdate},
		{string(domain.RoleSportelloLavoro), ObjectTemplate, ActionInstantiate},
	}
	for _, role := range domain.UserApprovalRequiredRoles {
		policies = append(policies, []string{string(role), ObjectUser, ActionCreate})
	}
	for _, kind := range domain.EntityKinds() {
		schema, _ := domain.SchemaFor(kind)
		obj := EntityObject(kind)
		for _, act := range []string{ActionRead, ActionUpdate, ActionDelete} {
			policies = append(policies, []string{base, obj, act})
		}
		if !schema.Approvable {
			policies = append(policies, []string{base, obj, ActionCreate})
			continue
		}
		for _, role := range schema.ApprovalRequiredRoles {
			policies = append(policies, []string{string(role), obj, ActionCreate})
		}
	}
	for _, p := range policies {
		if _, err := enf.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("authz: failed to add policy %v: %w", p, err)
		}
	}

	return &Authorizer{enforcer: enf}, nil
}

// Authorize returns a forbidden error when role may not perform action on object.
func (a *Authorizer) Authorize(role domain.UserRole, object, action string) error {
	if !role.IsValid() {
		return apperrors.NewForbiddenError("unknown role")
	}
	a.mu.RLock()
	allowed, err := a.enforcer.Enforce(string(role), object, action)
	a.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("authz: enforce failed: %w", err)
	}
	if !allowed {
		return apperrors.NewForbiddenError(fmt.Sprintf("role %s may not %s %s", role, action, object))
	}
	return nil
}
