package settings

import "context"

// CacheNamespace is the cache region invalidated by settings mutations.
const CacheNamespace = "settings"

const cacheKey = "site"

// SiteSettings are the process-wide typed settings of one installation.
type SiteSettings struct {
	ApplicationName string
	IsSetUp         bool
}

// Store reads and updates the persisted settings record.
type Store interface {
	Get(ctx context.Context) (SiteSettings, error)
	Update(ctx context.Context, s SiteSettings) error
}
