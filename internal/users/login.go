package users

import (
	"context"
	"errors"

	"lumacms.org/internal/cqs"
	"lumacms.org/internal/sessions"
)

// LoginService establishes, switches and tears down the ambient identity per
// user area. It performs no credential verification: callers must have
// authenticated the user first, via AuthenticateCredentialsQuery.
type LoginService struct {
	users    Store
	roles    RoleStore
	areas    *AreaRegistry
	sessions sessions.Store
	codec    *sessions.TokenCodec
}

func NewLoginService(users Store, roles RoleStore, areas *AreaRegistry, store sessions.Store, codec *sessions.TokenCodec) *LoginService {
	return &LoginService{
		users:    users,
		roles:    roles,
		areas:    areas,
		sessions: store,
		codec:    codec,
	}
}

// SignInAuthenticatedUser signs a pre-authenticated user into the given area
// and makes that area the ambient one for the remainder of the session
// scope. Other areas' sessions are untouched.
func (s *LoginService) SignInAuthenticatedUser(ctx context.Context, areaCode, userID string, remember bool) error {
	area, err := s.areas.Get(areaCode)
	if err != nil {
		return err
	}
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.UserAreaCode != areaCode {
		return cqs.NewNotFoundError("user", userID)
	}

	token, err := s.codec.Issue(userID, area.SessionScheme, remember)
	if err != nil {
		return err
	}
	if err := s.sessions.Set(ctx, areaCode, token, remember); err != nil {
		return err
	}
	return s.sessions.SetCurrentArea(ctx, areaCode)
}

// SignOut ends the session for exactly one area. Signing out of an area with
// no session is a no-op.
func (s *LoginService) SignOut(ctx context.Context, areaCode string) error {
	if _, err := s.areas.Get(areaCode); err != nil {
		return err
	}
	return s.sessions.Clear(ctx, areaCode)
}

// SignOutAllUserAreas ends every area's session.
func (s *LoginService) SignOutAllUserAreas(ctx context.Context) error {
	return s.sessions.ClearAll(ctx)
}

// ResolveUserContext derives the ambient identity from the current area's
// session. Missing, invalid or expired sessions resolve to anonymous rather
// than failing the execution.
func (s *LoginService) ResolveUserContext(ctx context.Context) (cqs.UserContext, error) {
	current, err := s.sessions.CurrentArea(ctx)
	if err != nil {
		return cqs.UserContext{}, err
	}
	if current == "" {
		return cqs.AnonymousUserContext(), nil
	}
	token, err := s.sessions.Get(ctx, current)
	if err != nil {
		return cqs.UserContext{}, err
	}
	if token == "" {
		return cqs.AnonymousUserContext(), nil
	}
	area, err := s.areas.Get(current)
	if err != nil {
		return cqs.UserContext{}, err
	}
	userID, err := s.codec.Parse(token, area.SessionScheme)
	if err != nil {
		if errors.Is(err, sessions.ErrInvalidToken) {
			return cqs.AnonymousUserContext(), nil
		}
		return cqs.UserContext{}, err
	}
	return s.userContextFor(ctx, area.Code, userID, false)
}

// ImpersonateUserContext builds an identity for a known user, bypassing
// session lookup. Used by bootstrap and system flows.
func (s *LoginService) ImpersonateUserContext(ctx context.Context, areaCode, userID string) (cqs.UserContext, error) {
	if _, err := s.areas.Get(areaCode); err != nil {
		return cqs.UserContext{}, err
	}
	return s.userContextFor(ctx, areaCode, userID, true)
}

func (s *LoginService) userContextFor(ctx context.Context, areaCode, userID string, strict bool) (cqs.UserContext, error) {
	user, err := s.users.Find(ctx, userID)
	if err != nil {
		return cqs.UserContext{}, err
	}
	if user == nil || user.UserAreaCode != areaCode {
		if strict {
			return cqs.UserContext{}, cqs.NewNotFoundError("user", userID)
		}
		return cqs.AnonymousUserContext(), nil
	}
	role, err := s.roles.Find(ctx, user.RoleID)
	if err != nil {
		return cqs.UserContext{}, err
	}
	return cqs.UserContext{
		UserID:       user.ID,
		UserAreaCode: areaCode,
		Role:         role,
	}, nil
}
