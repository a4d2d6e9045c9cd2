// Package auth holds the declarative permission table consulted by every
// role-gated operation. One table instead of ad hoc role arrays per endpoint.
package auth

import (
	"receivingapi/internal/apperr"
	"receivingapi/internal/model"
)

// Operation names a role-gated engine operation.
type Operation string

const (
	OpReassign       Operation = "receiving.reassign"
	OpDeleteDocument Operation = "receiving.delete"
	OpUploadPhoto    Operation = "receiving.photo.upload"
)

// permissions maps each gated operation to its allowed role set.
// Roles are normalized (lowercase) before lookup. OpUploadPhoto lists the
// roles that may ever upload; magacioner is additionally gated by assignment
// and document status in the photo governor.
var permissions = map[Operation][]model.Role{
	OpReassign:       {model.RoleAdmin, model.RoleMenadzer, model.RoleSef},
	OpDeleteDocument: {model.RoleAdmin, model.RoleMenadzer, model.RoleSef},
	OpUploadPhoto:    {model.RoleAdmin, model.RoleMenadzer, model.RoleSef, model.RoleMagacioner},
}

// Allowed reports whether the role may perform the operation.
func Allowed(op Operation, role model.Role) bool {
	norm := model.NormalizeRole(string(role))
	for _, r := range permissions[op] {
		if r == norm {
			return true
		}
	}
	return false
}

// AllowedRoles returns the role set of an operation, for error details.
func AllowedRoles(op Operation) []model.Role {
	roles := permissions[op]
	out := make([]model.Role, len(roles))
	copy(out, roles)
	return out
}

// Require returns a ForbiddenError naming the required roles when the actor's
// role is not in the operation's set, nil otherwise.
func Require(op Operation, actor model.Actor) error {
	if Allowed(op, actor.Role) {
		return nil
	}
	return apperr.Forbidden("role %q is not permitted to perform %s", actor.Role, op).
		WithDetail("required_roles", AllowedRoles(op))
}
