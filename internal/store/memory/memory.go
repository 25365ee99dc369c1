// Package memory provides in-process store implementations used by tests and
// by tooling that runs without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"lumacms.org/internal/permissions"
	"lumacms.org/internal/settings"
	"lumacms.org/internal/users"
)

// UserStore implements users.Store with in-process concurrency safety.
type UserStore struct {
	mu    sync.RWMutex
	byID  map[string]users.User
	byKey map[string]string // areaCode + ":" + username -> id
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:  make(map[string]users.User),
		byKey: make(map[string]string),
	}
}

func (s *UserStore) Create(ctx context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = *u
	s.byKey[u.UserAreaCode+":"+u.Username] = u.ID
	return nil
}

func (s *UserStore) Find(ctx context.Context, id string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	copied := u
	return &copied, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, areaCode, username string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[areaCode+":"+username]
	if !ok {
		return nil, nil
	}
	copied := s.byID[id]
	return &copied, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, userID, passwordHash string, changedAt time.Time, requireChange bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil
	}
	u.PasswordHash = passwordHash
	u.LastPasswordChangeDate = changedAt
	u.RequirePasswordChange = requireChange
	s.byID[userID] = u
	return nil
}

// RoleStore implements users.RoleStore. Roles are immutable once built, so
// pointers are shared rather than copied.
type RoleStore struct {
	mu     sync.RWMutex
	byID   map[string]*permissions.Role
	byCode map[string]string // areaCode + ":" + code -> id
}

func NewRoleStore() *RoleStore {
	return &RoleStore{
		byID:   make(map[string]*permissions.Role),
		byCode: make(map[string]string),
	}
}

func (s *RoleStore) Create(ctx context.Context, role *permissions.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[role.ID] = role
	s.byCode[role.UserAreaCode+":"+role.Code] = role.ID
	return nil
}

func (s *RoleStore) Find(ctx context.Context, id string) (*permissions.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id], nil
}

func (s *RoleStore) FindByCode(ctx context.Context, areaCode, code string) (*permissions.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[areaCode+":"+code]
	if !ok {
		return nil, nil
	}
	return s.byID[id], nil
}

// SettingsStore implements settings.Store.
type SettingsStore struct {
	mu      sync.RWMutex
	current settings.SiteSettings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

func (s *SettingsStore) Get(ctx context.Context) (settings.SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *SettingsStore) Update(ctx context.Context, v settings.SiteSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = v
	return nil
}
