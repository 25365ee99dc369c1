package setup

import (
	"context"

	"lumacms.org/internal/cache"
	"lumacms.org/internal/cqs"
	"lumacms.org/internal/settings"
	"lumacms.org/internal/users"
	"lumacms.org/internal/validation"
)

// SetupSiteCommand runs first-time installation: it creates the super admin
// user, applies the initial site settings under that admin's identity and
// marks the site as set up, all in one transaction.
type SetupSiteCommand struct {
	ApplicationName       string
	Email                 string
	FirstName             string
	LastName              string
	Password              string
	RequirePasswordChange bool

	// OutputAdminUserID is set by the handler after execution.
	OutputAdminUserID string
}

func (c *SetupSiteCommand) ExcludeFromLogs() {}

func (c *SetupSiteCommand) ValidationRules() []validation.Rule {
	return []validation.Rule{
		validation.Required("ApplicationName", c.ApplicationName),
		validation.MaxLength("ApplicationName", c.ApplicationName, 50),
		validation.Required("Email", c.Email),
		validation.Email("Email", c.Email),
		validation.Required("Password", c.Password),
	}
}

// SetupSiteHandler is exempt from permission checks: it runs before any
// identity exists.
type SetupSiteHandler struct {
	executor *cqs.Executor
	login    *users.LoginService
	cache    *cache.Cache
}

func NewSetupSiteHandler(executor *cqs.Executor, login *users.LoginService, c *cache.Cache) *SetupSiteHandler {
	return &SetupSiteHandler{executor: executor, login: login, cache: c}
}

func (h *SetupSiteHandler) IgnorePermissionCheck() {}

func (h *SetupSiteHandler) Execute(ctx context.Context, cmd *SetupSiteCommand, ec cqs.ExecutionContext) error {
	current, err := cqs.ExecuteQueryAs[settings.SiteSettings](ctx, h.executor, &settings.GetSiteSettingsQuery{}, ec)
	if err != nil {
		return err
	}
	if current.IsSetUp {
		return &cqs.InvalidStateError{Reason: "site is already set up"}
	}

	admin := users.AddSuperAdminUserCommand{
		Email:                 cmd.Email,
		FirstName:             cmd.FirstName,
		LastName:              cmd.LastName,
		Password:              cmd.Password,
		RequirePasswordChange: cmd.RequirePasswordChange,
	}
	if err := h.executor.Execute(ctx, &admin); err != nil {
		return err
	}

	// The remaining setup work runs as the admin that was just created,
	// not as the anonymous bootstrap caller.
	adminContext, err := h.login.ImpersonateUserContext(ctx, users.AdminAreaCode, admin.OutputUserID)
	if err != nil {
		return err
	}
	impersonated := cqs.ExecutionContext{
		ExecutionDate: ec.ExecutionDate,
		UserContext:   adminContext,
	}

	settingsCmd := settings.UpdateSiteSettingsCommand{ApplicationName: cmd.ApplicationName}
	if err := h.executor.ExecuteAs(ctx, &settingsCmd, impersonated); err != nil {
		return err
	}

	// Break the whole cache in case install scripts ran since process start.
	h.cache.ClearAll(ctx)

	if err := h.executor.ExecuteAs(ctx, &settings.MarkAsSetUpCommand{}, impersonated); err != nil {
		return err
	}

	cmd.OutputAdminUserID = admin.OutputUserID
	return nil
}

// Register wires the setup command into the executor.
func Register(e *cqs.Executor, login *users.LoginService, c *cache.Cache) error {
	return cqs.RegisterCommand(e, NewSetupSiteHandler(e, login, c))
}
