package users

import (
	"lumacms.org/internal/validation"
)

// AddUserCommand creates a user in any user area. The password is required
// when the area allows password login; the email doubles as the username
// when the area is configured that way. Exactly one of RoleID or RoleCode
// selects the role.
type AddUserCommand struct {
	FirstName             string
	LastName              string
	Email                 string
	Username              string
	Password              string
	RequirePasswordChange bool
	UserAreaCode          string
	RoleID                string
	RoleCode              string

	// OutputUserID is set by the handler after execution.
	OutputUserID string
}

// ExcludeFromLogs keeps the credential-bearing payload out of audit logs.
func (c *AddUserCommand) ExcludeFromLogs() {}

func (c *AddUserCommand) ValidationRules() []validation.Rule {
	return []validation.Rule{
		validation.MaxLength("FirstName", c.FirstName, 32),
		validation.MaxLength("LastName", c.LastName, 32),
		validation.StringLength("Password", c.Password, 8, 300),
		validation.MaxLength("Email", c.Email, 150),
		validation.Email("Email", c.Email),
		validation.MaxLength("Username", c.Username, 150),
		validation.Required("UserAreaCode", c.UserAreaCode),
		validation.FixedLength("UserAreaCode", c.UserAreaCode, AreaCodeLength),
		validation.MaxLength("RoleCode", c.RoleCode, 3),
	}
}

func (c *AddUserCommand) ObjectRules() []validation.ObjectRule {
	return []validation.ObjectRule{
		{
			DependsOn: []string{"RoleCode"},
			Check: func() []validation.Error {
				if c.RoleID == "" && c.RoleCode == "" {
					return []validation.Error{{
						Code:       "role-required",
						Message:    "Either a role id or role code must be defined.",
						Properties: []string{"RoleID"},
					}}
				}
				if c.RoleID != "" && c.RoleCode != "" {
					return []validation.Error{{
						Code:       "role-ambiguous",
						Message:    "Either a role id or role code must be defined, not both.",
						Properties: []string{"RoleID"},
					}}
				}
				return nil
			},
		},
	}
}

// AddSuperAdminUserCommand creates a user in the administrative area holding
// the super admin role, creating the role if it does not exist yet. It is a
// bootstrap command exempt from permission checks.
type AddSuperAdminUserCommand struct {
	Email                 string
	FirstName             string
	LastName              string
	Password              string
	RequirePasswordChange bool

	// OutputUserID is set by the handler after execution.
	OutputUserID string
}

func (c *AddSuperAdminUserCommand) ExcludeFromLogs() {}

func (c *AddSuperAdminUserCommand) ValidationRules() []validation.Rule {
	return []validation.Rule{
		validation.Required("Email", c.Email),
		validation.Email("Email", c.Email),
		validation.Required("Password", c.Password),
		validation.StringLength("Password", c.Password, 8, 300),
		validation.MaxLength("FirstName", c.FirstName, 32),
		validation.MaxLength("LastName", c.LastName, 32),
	}
}

// UpdateCurrentUserPasswordCommand changes the signed-in user's password
// after re-verifying the old one.
type UpdateCurrentUserPasswordCommand struct {
	OldPassword string
	NewPassword string
}

func (c *UpdateCurrentUserPasswordCommand) ExcludeFromLogs() {}

func (c *UpdateCurrentUserPasswordCommand) ValidationRules() []validation.Rule {
	return []validation.Rule{
		validation.Required("OldPassword", c.OldPassword),
		validation.Required("NewPassword", c.NewPassword),
	}
}
