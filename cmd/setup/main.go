// Command setup performs first-time installation of a site: it creates the
// super admin account and writes the initial site settings.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"lumacms.org/internal/cache"
	"lumacms.org/internal/cqs"
	"lumacms.org/internal/db"
	"lumacms.org/internal/migrate"
	"lumacms.org/internal/obs"
	"lumacms.org/internal/passwords"
	"lumacms.org/internal/sessions"
	"lumacms.org/internal/settings"
	"lumacms.org/internal/setup"
	"lumacms.org/internal/store/pg"
	"lumacms.org/internal/users"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	log.SetFlags(0)
	var (
		dsn       = flag.String("dsn", os.Getenv("LUMACMS_PG_DSN"), "PostgreSQL DSN")
		secret    = flag.String("session-secret", os.Getenv("LUMACMS_SESSION_SECRET"), "Session token signing secret")
		appName   = flag.String("name", "", "Application name")
		email     = flag.String("email", "", "Admin email address")
		password  = flag.String("password", "", "Admin password")
		firstName = flag.String("first-name", "", "Admin first name")
		lastName  = flag.String("last-name", "", "Admin last name")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or LUMACMS_PG_DSN")
	}
	if *secret == "" {
		log.Fatal("missing session secret: provide via -session-secret or LUMACMS_SESSION_SECRET")
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	if err := migrate.NewManager(store.DB(), migrate.Files()).Up(ctx); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	areas, err := users.NewAreaRegistry(users.AdminArea())
	if err != nil {
		log.Fatalf("user areas: %v", err)
	}
	codec, err := sessions.NewTokenCodec(*secret)
	if err != nil {
		log.Fatalf("session codec: %v", err)
	}

	userStore := pg.NewUserStore(store)
	roleStore := pg.NewRoleStore(store)
	login := users.NewLoginService(userStore, roleStore, areas, sessions.NewMemoryStore(), codec)

	c := cache.New()
	executor := cqs.NewExecutor(db.NewScopeManager(store.DB()), cqs.WithContextResolver(login))
	if err := users.Register(executor, users.Deps{
		Users:    userStore,
		Roles:    roleStore,
		Areas:    areas,
		Verifier: users.NewBcryptVerifier(),
		Policy:   passwords.DefaultPolicy(),
		Cache:    c,
	}); err != nil {
		log.Fatalf("register user operations: %v", err)
	}
	if err := settings.Register(executor, pg.NewSettingsStore(store), c); err != nil {
		log.Fatalf("register settings operations: %v", err)
	}
	if err := setup.Register(executor, login, c); err != nil {
		log.Fatalf("register setup operation: %v", err)
	}

	cmd := setup.SetupSiteCommand{
		ApplicationName: *appName,
		Email:           *email,
		FirstName:       *firstName,
		LastName:        *lastName,
		Password:        *password,
	}
	if err := executor.Execute(ctx, &cmd); err != nil {
		log.Fatalf("setup: %v", err)
	}
	fmt.Printf("site set up; admin user %s\n", cmd.OutputAdminUserID)
}
