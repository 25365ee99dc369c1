package permissions

// Permission is a fine-grained capability identified by a stable key.
type Permission struct {
	Code        string
	Description string
}

// Built-in permission codes.
const (
	PermUsersRead         = "users.read"
	PermUsersCreate       = "users.create"
	PermUsersUpdate       = "users.update"
	PermUsersDelete       = "users.delete"
	PermCurrentUserUpdate = "currentuser.update"
	PermSettingsRead      = "settings.read"
	PermSettingsUpdate    = "settings.update"
)

// Builtin is the catalog of permissions known to the domain layer.
var Builtin = []Permission{
	{Code: PermUsersRead, Description: "Read user accounts"},
	{Code: PermUsersCreate, Description: "Create user accounts"},
	{Code: PermUsersUpdate, Description: "Update user accounts"},
	{Code: PermUsersDelete, Description: "Delete user accounts"},
	{Code: PermCurrentUserUpdate, Description: "Update the signed-in user's own account"},
	{Code: PermSettingsRead, Description: "Read site settings"},
	{Code: PermSettingsUpdate, Description: "Update site settings"},
}
