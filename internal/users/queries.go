package users

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"lumacms.org/internal/cqs"
	"lumacms.org/internal/permissions"
	"lumacms.org/internal/validation"
)

// LoginInfo is the result of a successful credential check. It carries what
// a caller needs to decide whether to sign the user in.
type LoginInfo struct {
	UserID                 string
	UserAreaCode           string
	RequirePasswordChange  bool
	LastPasswordChangeDate time.Time
}

// AuthenticateCredentialsQuery verifies a username/password pair against one
// user area. It does not establish a session; see LoginService for that.
type AuthenticateCredentialsQuery struct {
	UserAreaCode string
	Username     string
	Password     string
}

func (q *AuthenticateCredentialsQuery) ValidationRules() []validation.Rule {
	return []validation.Rule{
		validation.Required("UserAreaCode", q.UserAreaCode),
		validation.FixedLength("UserAreaCode", q.UserAreaCode, AreaCodeLength),
		validation.Required("Username", q.Username),
		validation.Required("Password", q.Password),
	}
}

// attemptLimiter throttles authentication attempts per area/username pair.
type attemptLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newAttemptLimiter(limit rate.Limit, burst int) *attemptLimiter {
	return &attemptLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *attemptLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim.Allow()
}

// AuthenticateCredentialsHandler is exempt from permission checks: it is the
// anonymous-facing credential gate. Failures are uniform in shape and timing
// so responses never reveal whether a username exists.
type AuthenticateCredentialsHandler struct {
	users    Store
	areas    *AreaRegistry
	verifier CredentialVerifier
	limiter  *attemptLimiter
}

// AuthOption configures an AuthenticateCredentialsHandler.
type AuthOption func(*AuthenticateCredentialsHandler)

// WithAttemptLimit overrides the default throttle of 10 attempts with one
// refill every 10 seconds.
func WithAttemptLimit(limit rate.Limit, burst int) AuthOption {
	return func(h *AuthenticateCredentialsHandler) {
		h.limiter = newAttemptLimiter(limit, burst)
	}
}

func NewAuthenticateCredentialsHandler(users Store, areas *AreaRegistry, verifier CredentialVerifier, opts ...AuthOption) *AuthenticateCredentialsHandler {
	h := &AuthenticateCredentialsHandler{
		users:    users,
		areas:    areas,
		verifier: verifier,
		limiter:  newAttemptLimiter(rate.Every(10*time.Second), 10),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *AuthenticateCredentialsHandler) IgnorePermissionCheck() {}

func (h *AuthenticateCredentialsHandler) Execute(ctx context.Context, qry *AuthenticateCredentialsQuery, ec cqs.ExecutionContext) (LoginInfo, error) {
	area, err := h.areas.Get(qry.UserAreaCode)
	if err != nil {
		return LoginInfo{}, err
	}
	if !area.AllowPasswordLogin {
		return LoginInfo{}, &cqs.InvalidStateError{Reason: "user area does not allow password login"}
	}

	username := normalizeUsername(qry.Username)
	if !h.limiter.allow(area.Code + ":" + username) {
		return LoginInfo{}, &cqs.InvalidCredentialsError{Property: "Password"}
	}

	user, err := h.users.FindByUsername(ctx, area.Code, username)
	if err != nil {
		return LoginInfo{}, err
	}
	if user == nil {
		// Burn a hash comparison so missing accounts respond in the same
		// time as wrong passwords.
		h.verifier.Verify(qry.Password, dummyHash)
		return LoginInfo{}, &cqs.InvalidCredentialsError{Property: "Password"}
	}
	if !h.verifier.Verify(qry.Password, user.PasswordHash) {
		return LoginInfo{}, &cqs.InvalidCredentialsError{Property: "Password"}
	}

	return LoginInfo{
		UserID:                 user.ID,
		UserAreaCode:           user.UserAreaCode,
		RequirePasswordChange:  user.RequirePasswordChange,
		LastPasswordChangeDate: user.LastPasswordChangeDate,
	}, nil
}

// UserSummary is the read model returned by user queries. It never exposes
// the password hash.
type UserSummary struct {
	ID                    string
	UserAreaCode          string
	RoleID                string
	Email                 string
	Username              string
	FirstName             string
	LastName              string
	RequirePasswordChange bool
	CreatedAt             time.Time
}

// GetUserByIDQuery fetches one user. Callers need the users-read permission
// or must be the user themselves.
type GetUserByIDQuery struct {
	UserID       string
	UserAreaCode string
}

func (q *GetUserByIDQuery) ValidationRules() []validation.Rule {
	return []validation.Rule{
		validation.Required("UserID", q.UserID),
		validation.Required("UserAreaCode", q.UserAreaCode),
		validation.FixedLength("UserAreaCode", q.UserAreaCode, AreaCodeLength),
	}
}

type GetUserByIDHandler struct {
	users Store
}

func NewGetUserByIDHandler(users Store) *GetUserByIDHandler {
	return &GetUserByIDHandler{users: users}
}

func (h *GetUserByIDHandler) RequiredPermissions(qry *GetUserByIDQuery) permissions.Requirement {
	return permissions.Require(permissions.PermUsersRead).WithOwner(qry.UserID)
}

func (h *GetUserByIDHandler) Execute(ctx context.Context, qry *GetUserByIDQuery, ec cqs.ExecutionContext) (UserSummary, error) {
	user, err := h.users.Find(ctx, qry.UserID)
	if err != nil {
		return UserSummary{}, err
	}
	if user == nil || user.UserAreaCode != qry.UserAreaCode {
		return UserSummary{}, cqs.NewNotFoundError("user", qry.UserID)
	}
	return UserSummary{
		ID:                    user.ID,
		UserAreaCode:          user.UserAreaCode,
		RoleID:                user.RoleID,
		Email:                 user.Email,
		Username:              user.Username,
		FirstName:             user.FirstName,
		LastName:              user.LastName,
		RequirePasswordChange: user.RequirePasswordChange,
		CreatedAt:             user.CreatedAt,
	}, nil
}
