package cqs

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"lumacms.org/internal/audit"
	"lumacms.org/internal/db"
	"lumacms.org/internal/obs"
	"lumacms.org/internal/permissions"
	"lumacms.org/internal/validation"
)

// Executor is the central dispatch pipeline. Every operation goes through the
// same gates in order: execution context resolution, validation,
// authorization, transaction scope (commands only), handler invocation,
// scope completion with deferred cache invalidation, and execution logging.
type Executor struct {
	scopes   *db.ScopeManager
	eval     permissions.Evaluator
	resolver ContextResolver
	now      func() time.Time

	commands map[reflect.Type]*commandEntry
	queries  map[reflect.Type]*queryEntry
	started  atomic.Bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the execution clock. Execution timestamps become
// deterministic and testable.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithContextResolver supplies the ambient identity source, typically the
// login service's session resolution.
func WithContextResolver(r ContextResolver) Option {
	return func(e *Executor) { e.resolver = r }
}

// NewExecutor builds an executor over the given scope manager.
func NewExecutor(scopes *db.ScopeManager, opts ...Option) *Executor {
	e := &Executor{
		scopes:   scopes,
		now:      time.Now,
		commands: make(map[reflect.Type]*commandEntry),
		queries:  make(map[reflect.Type]*queryEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a command under the ambient execution context.
func (e *Executor) Execute(ctx context.Context, cmd any) error {
	ec, err := e.resolveExecutionContext(ctx)
	if err != nil {
		return err
	}
	return e.executeCommand(ctx, cmd, ec)
}

// ExecuteAs runs a command under an explicitly supplied execution context,
// bypassing session resolution (impersonation and system execution).
func (e *Executor) ExecuteAs(ctx context.Context, cmd any, ec ExecutionContext) error {
	if ec.ExecutionDate.IsZero() {
		ec.ExecutionDate = e.now().UTC()
	}
	return e.executeCommand(ctx, cmd, ec)
}

// ExecuteQuery runs a query under the ambient execution context and returns
// its typed result.
func ExecuteQuery[R any](ctx context.Context, e *Executor, qry any) (R, error) {
	var zero R
	ec, err := e.resolveExecutionContext(ctx)
	if err != nil {
		return zero, err
	}
	return ExecuteQueryAs[R](ctx, e, qry, ec)
}

// ExecuteQueryAs runs a query under an explicit execution context.
func ExecuteQueryAs[R any](ctx context.Context, e *Executor, qry any, ec ExecutionContext) (R, error) {
	var zero R
	if ec.ExecutionDate.IsZero() {
		ec.ExecutionDate = e.now().UTC()
	}
	res, err := e.executeQuery(ctx, qry, ec)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	return res.(R), nil
}

func (e *Executor) executeCommand(ctx context.Context, cmd any, ec ExecutionContext) error {
	e.started.Store(true)
	key, err := operationKey(cmd)
	if err != nil {
		return err
	}
	entry, ok := e.commands[key]
	if !ok {
		return fmt.Errorf("cqs: no handler registered for command %s", key.Name())
	}

	start := time.Now()
	status := "error"
	defer func() {
		d := time.Since(start)
		obs.ObserveOperation(entry.name, "command", status, d)
		if !entry.logExcluded {
			_ = audit.LogEvent(audit.WithActorID(ctx, ec.UserContext.UserID), "command.executed", map[string]any{
				"command":     entry.name,
				"status":      status,
				"duration_ms": d.Milliseconds(),
			})
		}
	}()

	// Validation strictly precedes authorization: an invalid request must
	// never reach permission logic.
	if errs := validation.Validate(cmd); len(errs) > 0 {
		status = "validation_failed"
		return &validation.FailedError{Errors: errs}
	}

	if !entry.ignorePermission {
		if err := e.eval.Authorize(actorFrom(ec.UserContext), entry.requirement(cmd)); err != nil {
			status = "unauthorized"
			return err
		}
	}

	ctx, scope, err := e.scopes.Begin(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()
	ctx = withExecutionContext(ctx, ec)

	if err := entry.exec(ctx, cmd, ec); err != nil {
		return err
	}
	if err := scope.Complete(); err != nil {
		return err
	}
	status = "ok"
	return nil
}

func (e *Executor) executeQuery(ctx context.Context, qry any, ec ExecutionContext) (any, error) {
	e.started.Store(true)
	key, err := operationKey(qry)
	if err != nil {
		return nil, err
	}
	entry, ok := e.queries[key]
	if !ok {
		return nil, fmt.Errorf("cqs: no handler registered for query %s", key.Name())
	}

	start := time.Now()
	status := "error"
	defer func() {
		obs.ObserveOperation(entry.name, "query", status, time.Since(start))
	}()

	if errs := validation.Validate(qry); len(errs) > 0 {
		status = "validation_failed"
		return nil, &validation.FailedError{Errors: errs}
	}

	if !entry.ignorePermission {
		if err := e.eval.Authorize(actorFrom(ec.UserContext), entry.requirement(qry)); err != nil {
			status = "unauthorized"
			return nil, err
		}
	}

	// Queries do not open a scope of their own; inside a command they run on
	// the ambient transaction and observe its uncommitted writes.
	res, err := entry.exec(withExecutionContext(ctx, ec), qry, ec)
	if err != nil {
		return nil, err
	}
	status = "ok"
	return res, nil
}

func (e *Executor) resolveExecutionContext(ctx context.Context) (ExecutionContext, error) {
	if ec, ok := ExecutionContextFrom(ctx); ok {
		return ec, nil
	}
	uc := AnonymousUserContext()
	if e.resolver != nil {
		resolved, err := e.resolver.ResolveUserContext(ctx)
		if err != nil {
			return ExecutionContext{}, err
		}
		uc = resolved
	}
	return ExecutionContext{ExecutionDate: e.now().UTC(), UserContext: uc}, nil
}

func actorFrom(uc UserContext) permissions.Actor {
	return permissions.Actor{
		UserID:          uc.UserID,
		IsSystemAccount: uc.IsSystemAccount,
		Role:            uc.Role,
	}
}
