package permissions

// Role groups permissions for a user area. Roles are immutable once built;
// the permission set is only readable through Has.
type Role struct {
	ID           string
	Code         string
	Title        string
	UserAreaCode string

	granted map[string]struct{}
}

// NewRole constructs a role with the given permission grants.
func NewRole(id, code, title, userAreaCode string, perms []Permission) *Role {
	granted := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		granted[p.Code] = struct{}{}
	}
	return &Role{
		ID:           id,
		Code:         code,
		Title:        title,
		UserAreaCode: userAreaCode,
		granted:      granted,
	}
}

// Has reports whether the role grants the permission code.
func (r *Role) Has(code string) bool {
	if r == nil {
		return false
	}
	_, ok := r.granted[code]
	return ok
}

// PermissionCodes returns the granted codes, order unspecified.
func (r *Role) PermissionCodes() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.granted))
	for code := range r.granted {
		out = append(out, code)
	}
	return out
}

// SuperAdminRoleCode identifies the role that carries every built-in grant.
const SuperAdminRoleCode = "SUP"

// SuperAdminRole builds the full-grant role for the given user area.
func SuperAdminRole(id, userAreaCode string) *Role {
	return NewRole(id, SuperAdminRoleCode, "Super Administrator", userAreaCode, Builtin)
}
