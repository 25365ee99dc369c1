package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lumacms.org/internal/cache"
	"lumacms.org/internal/cqs"
	"lumacms.org/internal/db"
	"lumacms.org/internal/permissions"
	"lumacms.org/internal/settings"
	"lumacms.org/internal/store/memory"
)

// countingStore wraps a settings store and counts reads.
type countingStore struct {
	settings.Store
	reads int
}

func (s *countingStore) Get(ctx context.Context) (settings.SiteSettings, error) {
	s.reads++
	return s.Store.Get(ctx)
}

type settingsEnv struct {
	executor *cqs.Executor
	store    *countingStore
}

func newSettingsEnv(t *testing.T) *settingsEnv {
	t.Helper()
	store := &countingStore{Store: memory.NewSettingsStore()}
	executor := cqs.NewExecutor(db.NewScopeManager(nil))
	if err := settings.Register(executor, store, cache.New()); err != nil {
		t.Fatalf("register settings operations: %v", err)
	}
	return &settingsEnv{executor: executor, store: store}
}

func editorContext() cqs.ExecutionContext {
	role := permissions.NewRole("role-editor", "EDT", "Editor", "ADM",
		[]permissions.Permission{{Code: permissions.PermSettingsUpdate}})
	return cqs.ExecutionContext{
		ExecutionDate: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
		UserContext:   cqs.UserContext{UserID: "user-editor", UserAreaCode: "ADM", Role: role},
	}
}

func TestGetSiteSettingsServesFromCache(t *testing.T) {
	env := newSettingsEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cqs.ExecuteQuery[settings.SiteSettings](ctx, env.executor, &settings.GetSiteSettingsQuery{}); err != nil {
			t.Fatalf("query %d: %v", i+1, err)
		}
	}
	if env.store.reads != 1 {
		t.Fatalf("store reads = %d, want 1 (repeat queries served from cache)", env.store.reads)
	}
}

func TestUpdateSiteSettings(t *testing.T) {
	env := newSettingsEnv(t)
	ctx := context.Background()

	cmd := settings.UpdateSiteSettingsCommand{ApplicationName: "Luma Docs"}
	if err := env.executor.ExecuteAs(ctx, &cmd, editorContext()); err != nil {
		t.Fatalf("update: %v", err)
	}

	current, err := cqs.ExecuteQuery[settings.SiteSettings](ctx, env.executor, &settings.GetSiteSettingsQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if current.ApplicationName != "Luma Docs" {
		t.Fatalf("application name = %q, want %q", current.ApplicationName, "Luma Docs")
	}
}

func TestUpdateSiteSettingsInvalidatesCache(t *testing.T) {
	env := newSettingsEnv(t)
	ctx := context.Background()

	if _, err := cqs.ExecuteQuery[settings.SiteSettings](ctx, env.executor, &settings.GetSiteSettingsQuery{}); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	cmd := settings.UpdateSiteSettingsCommand{ApplicationName: "Renamed"}
	if err := env.executor.ExecuteAs(ctx, &cmd, editorContext()); err != nil {
		t.Fatalf("update: %v", err)
	}

	current, err := cqs.ExecuteQuery[settings.SiteSettings](ctx, env.executor, &settings.GetSiteSettingsQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if current.ApplicationName != "Renamed" {
		t.Fatalf("stale cache: application name = %q, want %q", current.ApplicationName, "Renamed")
	}
}

func TestUpdateSiteSettingsDeniedWithoutPermission(t *testing.T) {
	env := newSettingsEnv(t)
	cmd := settings.UpdateSiteSettingsCommand{ApplicationName: "Luma Docs"}
	err := env.executor.Execute(context.Background(), &cmd)
	var authErr *permissions.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if authErr.Missing.Code != permissions.PermSettingsUpdate {
		t.Fatalf("missing permission = %q, want %q", authErr.Missing.Code, permissions.PermSettingsUpdate)
	}
}

func TestMarkAsSetUp(t *testing.T) {
	env := newSettingsEnv(t)
	ctx := context.Background()

	if err := env.executor.Execute(ctx, &settings.MarkAsSetUpCommand{}); err != nil {
		t.Fatalf("mark as set up: %v", err)
	}
	current, err := cqs.ExecuteQuery[settings.SiteSettings](ctx, env.executor, &settings.GetSiteSettingsQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !current.IsSetUp {
		t.Fatal("site should read as set up")
	}
}
