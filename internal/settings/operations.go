package settings

import (
	"context"

	"lumacms.org/internal/cache"
	"lumacms.org/internal/cqs"
	"lumacms.org/internal/permissions"
	"lumacms.org/internal/validation"
)

// GetSiteSettingsQuery reads the cached site settings. It is exempt from
// permission checks because bootstrap flows consult it before any identity
// exists.
type GetSiteSettingsQuery struct{}

type GetSiteSettingsHandler struct {
	store Store
	cache *cache.Cache
}

func NewGetSiteSettingsHandler(store Store, c *cache.Cache) *GetSiteSettingsHandler {
	return &GetSiteSettingsHandler{store: store, cache: c}
}

func (h *GetSiteSettingsHandler) IgnorePermissionCheck() {}

func (h *GetSiteSettingsHandler) Execute(ctx context.Context, qry *GetSiteSettingsQuery, ec cqs.ExecutionContext) (SiteSettings, error) {
	if v, ok := h.cache.Get(CacheNamespace, cacheKey); ok {
		if s, ok := v.(SiteSettings); ok {
			return s, nil
		}
	}
	s, err := h.store.Get(ctx)
	if err != nil {
		return SiteSettings{}, err
	}
	h.cache.Set(CacheNamespace, cacheKey, s)
	return s, nil
}

// UpdateSiteSettingsCommand updates the general site settings.
type UpdateSiteSettingsCommand struct {
	ApplicationName string
}

func (c *UpdateSiteSettingsCommand) ValidationRules() []validation.Rule {
	return []validation.Rule{
		validation.Required("ApplicationName", c.ApplicationName),
		validation.MaxLength("ApplicationName", c.ApplicationName, 50),
	}
}

type UpdateSiteSettingsHandler struct {
	store Store
	cache *cache.Cache
}

func NewUpdateSiteSettingsHandler(store Store, c *cache.Cache) *UpdateSiteSettingsHandler {
	return &UpdateSiteSettingsHandler{store: store, cache: c}
}

func (h *UpdateSiteSettingsHandler) RequiredPermissions(cmd *UpdateSiteSettingsCommand) permissions.Requirement {
	return permissions.Require(permissions.PermSettingsUpdate)
}

func (h *UpdateSiteSettingsHandler) Execute(ctx context.Context, cmd *UpdateSiteSettingsCommand, ec cqs.ExecutionContext) error {
	current, err := h.store.Get(ctx)
	if err != nil {
		return err
	}
	current.ApplicationName = cmd.ApplicationName
	if err := h.store.Update(ctx, current); err != nil {
		return err
	}
	h.cache.Clear(ctx, CacheNamespace)
	return nil
}

// MarkAsSetUpCommand flips the installation's set-up flag. Bootstrap only.
type MarkAsSetUpCommand struct{}

type MarkAsSetUpHandler struct {
	store Store
	cache *cache.Cache
}

func NewMarkAsSetUpHandler(store Store, c *cache.Cache) *MarkAsSetUpHandler {
	return &MarkAsSetUpHandler{store: store, cache: c}
}

func (h *MarkAsSetUpHandler) IgnorePermissionCheck() {}

func (h *MarkAsSetUpHandler) Execute(ctx context.Context, cmd *MarkAsSetUpCommand, ec cqs.ExecutionContext) error {
	current, err := h.store.Get(ctx)
	if err != nil {
		return err
	}
	current.IsSetUp = true
	if err := h.store.Update(ctx, current); err != nil {
		return err
	}
	h.cache.Clear(ctx, CacheNamespace)
	return nil
}

// Register wires every settings operation into the executor.
func Register(e *cqs.Executor, store Store, c *cache.Cache) error {
	if err := cqs.RegisterQuery(e, NewGetSiteSettingsHandler(store, c)); err != nil {
		return err
	}
	if err := cqs.RegisterCommand(e, NewUpdateSiteSettingsHandler(store, c)); err != nil {
		return err
	}
	return cqs.RegisterCommand(e, NewMarkAsSetUpHandler(store, c))
}
