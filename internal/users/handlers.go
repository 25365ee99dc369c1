package users

import (
	"context"
	"strings"

	"lumacms.org/internal/cache"
	"lumacms.org/internal/cqs"
	"lumacms.org/internal/ids"
	"lumacms.org/internal/passwords"
	"lumacms.org/internal/permissions"
	"lumacms.org/internal/validation"
)

// AddUserHandler creates users in any area, enforcing the area's credential
// configuration on top of the command's declared rules.
type AddUserHandler struct {
	users    Store
	roles    RoleStore
	areas    *AreaRegistry
	verifier CredentialVerifier
	policy   *passwords.Policy
	cache    *cache.Cache
}

func NewAddUserHandler(users Store, roles RoleStore, areas *AreaRegistry, verifier CredentialVerifier, policy *passwords.Policy, c *cache.Cache) *AddUserHandler {
	return &AddUserHandler{users: users, roles: roles, areas: areas, verifier: verifier, policy: policy, cache: c}
}

func (h *AddUserHandler) RequiredPermissions(cmd *AddUserCommand) permissions.Requirement {
	return permissions.Require(permissions.PermUsersCreate)
}

func (h *AddUserHandler) Execute(ctx context.Context, cmd *AddUserCommand, ec cqs.ExecutionContext) error {
	area, err := h.areas.Get(cmd.UserAreaCode)
	if err != nil {
		return err
	}
	if errs := h.validateForArea(cmd, area); len(errs) > 0 {
		return &validation.FailedError{Errors: errs}
	}

	role, err := h.resolveRole(ctx, cmd)
	if err != nil {
		return err
	}
	if role.UserAreaCode != area.Code {
		return &validation.FailedError{Errors: []validation.Error{{
			Code:       "role-not-in-area",
			Message:    "The role does not belong to the user's area.",
			Properties: []string{"RoleID"},
		}}}
	}

	username := strings.TrimSpace(cmd.Username)
	if area.UseEmailAsUsername {
		username = normalizeUsername(cmd.Email)
	} else {
		username = normalizeUsername(username)
	}
	existing, err := h.users.FindByUsername(ctx, area.Code, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return &validation.FailedError{Errors: []validation.Error{{
			Code:       "username-not-unique",
			Message:    "This username is already registered.",
			Properties: []string{"Username"},
		}}}
	}

	user := &User{
		ID:                    ids.New(),
		UserAreaCode:          area.Code,
		RoleID:                role.ID,
		Email:                 strings.TrimSpace(strings.ToLower(cmd.Email)),
		Username:              username,
		FirstName:             strings.TrimSpace(cmd.FirstName),
		LastName:              strings.TrimSpace(cmd.LastName),
		RequirePasswordChange: cmd.RequirePasswordChange,
		CreatedAt:             ec.ExecutionDate,
	}
	if area.AllowPasswordLogin {
		hash, err := h.verifier.Hash(cmd.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.LastPasswordChangeDate = ec.ExecutionDate
	}
	if err := h.users.Create(ctx, user); err != nil {
		return err
	}
	cmd.OutputUserID = user.ID
	h.cache.Clear(ctx, CacheNamespace)
	return nil
}

func (h *AddUserHandler) validateForArea(cmd *AddUserCommand, area AreaDefinition) []validation.Error {
	var errs []validation.Error
	if area.AllowPasswordLogin {
		if cmd.Password == "" {
			errs = append(errs, validation.Error{
				Code:       "required",
				Message:    "Password is required.",
				Properties: []string{"Password"},
			})
		} else if violations := h.policy.Validate(passwords.NewPasswordContext{Password: cmd.Password, PropertyName: "Password"}); len(violations) > 0 {
			errs = append(errs, violations...)
		}
	} else if cmd.Password != "" {
		errs = append(errs, validation.Error{
			Code:       "password-not-allowed",
			Message:    "The user area does not allow password login.",
			Properties: []string{"Password"},
		})
	}
	if area.UseEmailAsUsername {
		if cmd.Email == "" {
			errs = append(errs, validation.Error{
				Code:       "required",
				Message:    "Email is required.",
				Properties: []string{"Email"},
			})
		}
		if cmd.Username != "" {
			errs = append(errs, validation.Error{
				Code:       "username-not-allowed",
				Message:    "The email address is used as the username.",
				Properties: []string{"Username"},
			})
		}
	} else if cmd.Username == "" {
		errs = append(errs, validation.Error{
			Code:       "required",
			Message:    "Username is required.",
			Properties: []string{"Username"},
		})
	}
	return errs
}

func (h *AddUserHandler) resolveRole(ctx context.Context, cmd *AddUserCommand) (*permissions.Role, error) {
	if cmd.RoleID != "" {
		role, err := h.roles.Find(ctx, cmd.RoleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, cqs.NewNotFoundError("role", cmd.RoleID)
		}
		return role, nil
	}
	role, err := h.roles.FindByCode(ctx, cmd.UserAreaCode, cmd.RoleCode)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, cqs.NewNotFoundError("role", cmd.RoleCode)
	}
	return role, nil
}

// AddSuperAdminUserHandler bootstraps the administrative area: it ensures the
// super admin role exists and nests AddUserCommand under a system identity.
type AddSuperAdminUserHandler struct {
	executor *cqs.Executor
	roles    RoleStore
}

func NewAddSuperAdminUserHandler(executor *cqs.Executor, roles RoleStore) *AddSuperAdminUserHandler {
	return &AddSuperAdminUserHandler{executor: executor, roles: roles}
}

func (h *AddSuperAdminUserHandler) IgnorePermissionCheck() {}

func (h *AddSuperAdminUserHandler) Execute(ctx context.Context, cmd *AddSuperAdminUserCommand, ec cqs.ExecutionContext) error {
	role, err := h.roles.FindByCode(ctx, AdminAreaCode, permissions.SuperAdminRoleCode)
	if err != nil {
		return err
	}
	if role == nil {
		role = permissions.SuperAdminRole(ids.New(), AdminAreaCode)
		if err := h.roles.Create(ctx, role); err != nil {
			return err
		}
	}

	nested := AddUserCommand{
		FirstName:             cmd.FirstName,
		LastName:              cmd.LastName,
		Email:                 cmd.Email,
		Password:              cmd.Password,
		RequirePasswordChange: cmd.RequirePasswordChange,
		UserAreaCode:          AdminAreaCode,
		RoleID:                role.ID,
	}
	elevated := cqs.ExecutionContext{
		ExecutionDate: ec.ExecutionDate,
		UserContext:   cqs.SystemUserContext(),
	}
	if err := h.executor.ExecuteAs(ctx, &nested, elevated); err != nil {
		return err
	}
	cmd.OutputUserID = nested.OutputUserID
	return nil
}

// UpdateCurrentUserPasswordHandler changes the acting user's own password.
type UpdateCurrentUserPasswordHandler struct {
	users    Store
	verifier CredentialVerifier
	policy   *passwords.Policy
	cache    *cache.Cache
}

func NewUpdateCurrentUserPasswordHandler(users Store, verifier CredentialVerifier, policy *passwords.Policy, c *cache.Cache) *UpdateCurrentUserPasswordHandler {
	return &UpdateCurrentUserPasswordHandler{users: users, verifier: verifier, policy: policy, cache: c}
}

func (h *UpdateCurrentUserPasswordHandler) RequiredPermissions(cmd *UpdateCurrentUserPasswordCommand) permissions.Requirement {
	return permissions.Require(permissions.PermCurrentUserUpdate)
}

func (h *UpdateCurrentUserPasswordHandler) Execute(ctx context.Context, cmd *UpdateCurrentUserPasswordCommand, ec cqs.ExecutionContext) error {
	userID := ec.UserContext.UserID
	if userID == "" {
		return &permissions.AuthorizationError{}
	}
	user, err := h.users.Find(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return cqs.NewNotFoundError("user", userID)
	}
	if !h.verifier.Verify(cmd.OldPassword, user.PasswordHash) {
		return &cqs.InvalidCredentialsError{Property: "OldPassword"}
	}

	violations := h.policy.Validate(passwords.NewPasswordContext{
		Password:     cmd.NewPassword,
		PropertyName: "NewPassword",
		CurrentHash:  user.PasswordHash,
		Verify:       h.verifier.Verify,
	})
	if len(violations) > 0 {
		return &validation.FailedError{Errors: violations}
	}

	hash, err := h.verifier.Hash(cmd.NewPassword)
	if err != nil {
		return err
	}
	if err := h.users.UpdatePassword(ctx, user.ID, hash, ec.ExecutionDate, false); err != nil {
		return err
	}
	h.cache.Clear(ctx, CacheNamespace)
	return nil
}

func normalizeUsername(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
