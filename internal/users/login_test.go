package users_test

import (
	"context"
	"testing"
	"time"

	"lumacms.org/internal/ids"
	"lumacms.org/internal/permissions"
	"lumacms.org/internal/sessions"
	"lumacms.org/internal/store/memory"
	"lumacms.org/internal/users"
)

const customerAreaCode = "CUS"

func testAreas(t *testing.T) *users.AreaRegistry {
	t.Helper()
	areas, err := users.NewAreaRegistry(
		users.AdminArea(),
		users.AreaDefinition{
			Code:               customerAreaCode,
			Name:               "Customers",
			AllowPasswordLogin: true,
			SessionScheme:      "lumacms.customers",
		},
		users.AreaDefinition{
			Code:          "PTN",
			Name:          "Partners",
			SessionScheme: "lumacms.partners",
		},
	)
	if err != nil {
		t.Fatalf("build area registry: %v", err)
	}
	return areas
}

type loginEnv struct {
	users    *memory.UserStore
	roles    *memory.RoleStore
	sessions *sessions.MemoryStore
	login    *users.LoginService
}

func newLoginEnv(t *testing.T) *loginEnv {
	t.Helper()
	codec, err := sessions.NewTokenCodec("login-test-secret-0123456789")
	if err != nil {
		t.Fatalf("build token codec: %v", err)
	}
	userStore := memory.NewUserStore()
	roleStore := memory.NewRoleStore()
	sessionStore := sessions.NewMemoryStore()
	return &loginEnv{
		users:    userStore,
		roles:    roleStore,
		sessions: sessionStore,
		login:    users.NewLoginService(userStore, roleStore, testAreas(t), sessionStore, codec),
	}
}

func (e *loginEnv) seedUser(t *testing.T, areaCode, username string) string {
	t.Helper()
	ctx := context.Background()
	role := permissions.NewRole(ids.New(), "STD", "Standard", areaCode, nil)
	if err := e.roles.Create(ctx, role); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	u := &users.User{
		ID:           ids.New(),
		UserAreaCode: areaCode,
		RoleID:       role.ID,
		Username:     username,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.users.Create(ctx, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func TestSignInKeepsAreasIsolated(t *testing.T) {
	env := newLoginEnv(t)
	ctx := context.Background()
	adminID := env.seedUser(t, users.AdminAreaCode, "admin@example.com")
	customerID := env.seedUser(t, customerAreaCode, "customer")

	if err := env.login.SignInAuthenticatedUser(ctx, users.AdminAreaCode, adminID, false); err != nil {
		t.Fatalf("sign in admin: %v", err)
	}
	uc, err := env.login.ResolveUserContext(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if uc.UserID != adminID || uc.UserAreaCode != users.AdminAreaCode {
		t.Fatalf("expected admin identity, got %+v", uc)
	}

	// Signing into a second area moves the ambient identity without touching
	// the first area's session.
	if err := env.login.SignInAuthenticatedUser(ctx, customerAreaCode, customerID, false); err != nil {
		t.Fatalf("sign in customer: %v", err)
	}
	uc, err = env.login.ResolveUserContext(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if uc.UserID != customerID || uc.UserAreaCode != customerAreaCode {
		t.Fatalf("expected customer identity, got %+v", uc)
	}

	if err := env.login.SignOut(ctx, customerAreaCode); err != nil {
		t.Fatalf("sign out customer: %v", err)
	}
	adminToken, err := env.sessions.Get(ctx, users.AdminAreaCode)
	if err != nil {
		t.Fatalf("get admin session: %v", err)
	}
	if adminToken == "" {
		t.Fatal("admin session should survive customer sign-out")
	}
}

func TestTokenFromOneAreaIsRejectedInAnother(t *testing.T) {
	env := newLoginEnv(t)
	ctx := context.Background()
	adminID := env.seedUser(t, users.AdminAreaCode, "admin@example.com")

	if err := env.login.SignInAuthenticatedUser(ctx, users.AdminAreaCode, adminID, false); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	token, err := env.sessions.Get(ctx, users.AdminAreaCode)
	if err != nil || token == "" {
		t.Fatalf("get admin token: %v", err)
	}

	// Replay the admin token under the customer area's session slot.
	if err := env.sessions.Set(ctx, customerAreaCode, token, false); err != nil {
		t.Fatalf("set customer session: %v", err)
	}
	if err := env.sessions.SetCurrentArea(ctx, customerAreaCode); err != nil {
		t.Fatalf("set current area: %v", err)
	}

	uc, err := env.login.ResolveUserContext(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if uc.IsSignedIn() {
		t.Fatalf("cross-area token should resolve to anonymous, got %+v", uc)
	}
}

func TestSignOutIsIdempotent(t *testing.T) {
	env := newLoginEnv(t)
	ctx := context.Background()
	adminID := env.seedUser(t, users.AdminAreaCode, "admin@example.com")

	if err := env.login.SignInAuthenticatedUser(ctx, users.AdminAreaCode, adminID, false); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := env.login.SignOut(ctx, users.AdminAreaCode); err != nil {
			t.Fatalf("sign out attempt %d: %v", i+1, err)
		}
	}
	// Signing out of an area with no session at all is also a no-op.
	if err := env.login.SignOut(ctx, customerAreaCode); err != nil {
		t.Fatalf("sign out of never-used area: %v", err)
	}
}

func TestResolveUserContextWithTamperedToken(t *testing.T) {
	env := newLoginEnv(t)
	ctx := context.Background()

	if err := env.sessions.Set(ctx, users.AdminAreaCode, "not-a-token", false); err != nil {
		t.Fatalf("set session: %v", err)
	}
	if err := env.sessions.SetCurrentArea(ctx, users.AdminAreaCode); err != nil {
		t.Fatalf("set current area: %v", err)
	}

	uc, err := env.login.ResolveUserContext(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if uc.IsSignedIn() {
		t.Fatalf("tampered token should resolve to anonymous, got %+v", uc)
	}
}

func TestSignOutAllUserAreas(t *testing.T) {
	env := newLoginEnv(t)
	ctx := context.Background()
	adminID := env.seedUser(t, users.AdminAreaCode, "admin@example.com")
	customerID := env.seedUser(t, customerAreaCode, "customer")

	if err := env.login.SignInAuthenticatedUser(ctx, users.AdminAreaCode, adminID, false); err != nil {
		t.Fatalf("sign in admin: %v", err)
	}
	if err := env.login.SignInAuthenticatedUser(ctx, customerAreaCode, customerID, false); err != nil {
		t.Fatalf("sign in customer: %v", err)
	}
	if err := env.login.SignOutAllUserAreas(ctx); err != nil {
		t.Fatalf("sign out all: %v", err)
	}
	uc, err := env.login.ResolveUserContext(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if uc.IsSignedIn() {
		t.Fatalf("expected anonymous after global sign-out, got %+v", uc)
	}
}
