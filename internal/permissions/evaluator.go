package permissions

import "fmt"

// Actor is the identity an authorization decision is made for.
type Actor struct {
	UserID          string
	IsSystemAccount bool
	Role            *Role
}

// Requirement describes what an operation demands of its caller. OwnerUserID,
// when set, is an additional allow-path: the owner may act without holding
// the listed permissions.
type Requirement struct {
	Permissions []Permission
	OwnerUserID string
}

// Require builds a Requirement from permission codes.
func Require(codes ...string) Requirement {
	perms := make([]Permission, len(codes))
	for i, c := range codes {
		perms[i] = Permission{Code: c}
	}
	return Requirement{Permissions: perms}
}

// WithOwner returns a copy of the requirement carrying the ownership
// allow-path.
func (r Requirement) WithOwner(userID string) Requirement {
	r.OwnerUserID = userID
	return r
}

// AuthorizationError reports a denied operation and the first missing grant.
type AuthorizationError struct {
	Missing Permission
}

func (e *AuthorizationError) Error() string {
	if e.Missing.Code == "" {
		return "authorization denied"
	}
	return fmt.Sprintf("authorization denied: missing permission %s", e.Missing.Code)
}

// Evaluator decides allow/deny. The zero value is ready to use.
type Evaluator struct{}

// Authorize denies by default: a system account bypasses all checks, a
// matching owner bypasses the permission set, and otherwise the actor's role
// must grant every required permission.
func (Evaluator) Authorize(actor Actor, req Requirement) error {
	if actor.IsSystemAccount {
		return nil
	}
	if req.OwnerUserID != "" && actor.UserID != "" && actor.UserID == req.OwnerUserID {
		return nil
	}
	for _, p := range req.Permissions {
		if !actor.Role.Has(p.Code) {
			return &AuthorizationError{Missing: p}
		}
	}
	if len(req.Permissions) == 0 && actor.Role == nil {
		// Operations with an empty requirement still demand an identity
		// with a role; anonymous callers are denied.
		return &AuthorizationError{}
	}
	return nil
}
