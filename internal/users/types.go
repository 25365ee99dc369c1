package users

import (
	"context"
	"time"

	"lumacms.org/internal/permissions"
)

// CacheNamespace is the cache region invalidated by user mutations.
const CacheNamespace = "users"

// User is a member of exactly one user area.
type User struct {
	ID                     string
	UserAreaCode           string
	RoleID                 string
	Email                  string
	Username               string
	FirstName              string
	LastName               string
	PasswordHash           string
	RequirePasswordChange  bool
	LastPasswordChangeDate time.Time
	CreatedAt              time.Time
}

// Store describes user persistence. Find methods return (nil, nil) when no
// row matches; errors are reserved for store failures.
type Store interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, areaCode, username string) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string, changedAt time.Time, requireChange bool) error
}

// RoleStore describes role persistence.
type RoleStore interface {
	Create(ctx context.Context, role *permissions.Role) error
	Find(ctx context.Context, id string) (*permissions.Role, error)
	FindByCode(ctx context.Context, areaCode, code string) (*permissions.Role, error)
}
