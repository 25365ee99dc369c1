package cqs

import (
	"context"
	"time"

	"lumacms.org/internal/permissions"
)

// UserContext is the identity an execution runs under: anonymous, system, or
// an authenticated member of a user area. It is derived from session state
// per execution and never mutated in place; elevation builds a new
// ExecutionContext instead.
type UserContext struct {
	UserID          string
	UserAreaCode    string
	Role            *permissions.Role
	IsSystemAccount bool
}

// IsSignedIn reports whether the context represents a real or system identity.
func (uc UserContext) IsSignedIn() bool {
	return uc.UserID != "" || uc.IsSystemAccount
}

// AnonymousUserContext is the identity used when no session is present.
func AnonymousUserContext() UserContext {
	return UserContext{}
}

// SystemUserContext is the elevated identity used by bootstrap and
// system-initiated work. It bypasses permission checks.
func SystemUserContext() UserContext {
	return UserContext{IsSystemAccount: true}
}

// ExecutionContext is an immutable snapshot of who is running an operation
// and when. One is built per execution and shared by nested executions.
type ExecutionContext struct {
	ExecutionDate time.Time
	UserContext   UserContext
}

// ContextResolver supplies the ambient identity for executions that did not
// receive an explicit one.
type ContextResolver interface {
	ResolveUserContext(ctx context.Context) (UserContext, error)
}

type executionContextKey struct{}

func withExecutionContext(ctx context.Context, ec ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey{}, ec)
}

// ExecutionContextFrom returns the in-flight execution context, if any.
// Nested executions inherit it rather than resolving sessions again.
func ExecutionContextFrom(ctx context.Context) (ExecutionContext, bool) {
	ec, ok := ctx.Value(executionContextKey{}).(ExecutionContext)
	return ec, ok
}
