package pg

import (
	"context"
	"database/sql"
	"errors"

	"lumacms.org/internal/db"
	"lumacms.org/internal/settings"
)

// SettingsStore implements settings.Store. One row holds the installation's
// settings; a missing row reads as the zero value.
type SettingsStore struct {
	store *Store
}

var _ settings.Store = (*SettingsStore)(nil)

func NewSettingsStore(s *Store) *SettingsStore { return &SettingsStore{store: s} }

func (s *SettingsStore) Get(ctx context.Context) (settings.SiteSettings, error) {
	q := db.QuerierFrom(ctx, s.store.db)
	var out settings.SiteSettings
	err := q.QueryRowContext(ctx, `
		select application_name, is_set_up from site_settings where id = 1
	`).Scan(&out.ApplicationName, &out.IsSetUp)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.SiteSettings{}, nil
	}
	if err != nil {
		return settings.SiteSettings{}, err
	}
	return out, nil
}

func (s *SettingsStore) Update(ctx context.Context, v settings.SiteSettings) error {
	q := db.QuerierFrom(ctx, s.store.db)
	_, err := q.ExecContext(ctx, `
		insert into site_settings (id, application_name, is_set_up)
		values (1, $1, $2)
		on conflict (id) do update
		set application_name = excluded.application_name, is_set_up = excluded.is_set_up
	`, v.ApplicationName, v.IsSetUp)
	return err
}
