package cqs

import (
	"context"
	"fmt"
	"reflect"

	"lumacms.org/internal/permissions"
)

// CommandHandler executes the business logic for one command type. Handlers
// mutate only the command's output fields and external state through injected
// collaborators, and may re-enter the executor for nested operations.
type CommandHandler[T any] interface {
	Execute(ctx context.Context, cmd *T, ec ExecutionContext) error
}

// QueryHandler executes the read logic for one query type.
type QueryHandler[Q any, R any] interface {
	Execute(ctx context.Context, qry *Q, ec ExecutionContext) (R, error)
}

// PermissionRestricted declares what a handler demands of its caller. The
// requirement may depend on the payload, e.g. an ownership allow-path.
type PermissionRestricted[T any] interface {
	RequiredPermissions(op *T) permissions.Requirement
}

// IgnorePermissionCheck marks a handler as exempt from authorization. Used
// sparingly, for bootstrap-style operations and anonymous-facing queries.
type IgnorePermissionCheck interface {
	IgnorePermissionCheck()
}

// LogExcluded marks an operation whose payload must stay out of audit logs,
// e.g. because it carries credentials.
type LogExcluded interface {
	ExcludeFromLogs()
}

type commandEntry struct {
	name             string
	exec             func(ctx context.Context, cmd any, ec ExecutionContext) error
	requirement      func(cmd any) permissions.Requirement
	ignorePermission bool
	logExcluded      bool
}

type queryEntry struct {
	name             string
	exec             func(ctx context.Context, qry any, ec ExecutionContext) (any, error)
	requirement      func(qry any) permissions.Requirement
	ignorePermission bool
}

// RegisterCommand wires a handler for command type T. Every handler must
// declare its authorization stance: exactly one of PermissionRestricted[T]
// or IgnorePermissionCheck. Registration happens at process start, before
// the first execution.
func RegisterCommand[T any](e *Executor, h CommandHandler[T]) error {
	var zero T
	key := reflect.TypeOf(zero)
	name := key.Name()

	if e.started.Load() {
		return fmt.Errorf("%w: %s registered after first execution", ErrRegistration, name)
	}
	if _, dup := e.commands[key]; dup {
		return fmt.Errorf("%w: duplicate command %s", ErrRegistration, name)
	}

	pr, restricted := any(h).(PermissionRestricted[T])
	_, ignore := any(h).(IgnorePermissionCheck)
	if restricted == ignore {
		return fmt.Errorf("%w: %s handler must declare exactly one of RequiredPermissions or IgnorePermissionCheck", ErrRegistration, name)
	}

	entry := &commandEntry{
		name:             name,
		ignorePermission: ignore,
		exec: func(ctx context.Context, cmd any, ec ExecutionContext) error {
			return h.Execute(ctx, cmd.(*T), ec)
		},
	}
	if restricted {
		entry.requirement = func(cmd any) permissions.Requirement {
			return pr.RequiredPermissions(cmd.(*T))
		}
	}
	var marker *T
	_, entry.logExcluded = any(marker).(LogExcluded)

	e.commands[key] = entry
	return nil
}

// RegisterQuery wires a handler for query type Q returning R. The same
// authorization declaration rules apply as for commands.
func RegisterQuery[Q any, R any](e *Executor, h QueryHandler[Q, R]) error {
	var zero Q
	key := reflect.TypeOf(zero)
	name := key.Name()

	if e.started.Load() {
		return fmt.Errorf("%w: %s registered after first execution", ErrRegistration, name)
	}
	if _, dup := e.queries[key]; dup {
		return fmt.Errorf("%w: duplicate query %s", ErrRegistration, name)
	}

	pr, restricted := any(h).(PermissionRestricted[Q])
	_, ignore := any(h).(IgnorePermissionCheck)
	if restricted == ignore {
		return fmt.Errorf("%w: %s handler must declare exactly one of RequiredPermissions or IgnorePermissionCheck", ErrRegistration, name)
	}

	entry := &queryEntry{
		name:             name,
		ignorePermission: ignore,
		exec: func(ctx context.Context, qry any, ec ExecutionContext) (any, error) {
			return h.Execute(ctx, qry.(*Q), ec)
		},
	}
	if restricted {
		entry.requirement = func(qry any) permissions.Requirement {
			return pr.RequiredPermissions(qry.(*Q))
		}
	}

	e.queries[key] = entry
	return nil
}

// MustRegisterCommand is RegisterCommand that panics, for process-start wiring.
func MustRegisterCommand[T any](e *Executor, h CommandHandler[T]) {
	if err := RegisterCommand(e, h); err != nil {
		panic(err)
	}
}

// MustRegisterQuery is RegisterQuery that panics, for process-start wiring.
func MustRegisterQuery[Q any, R any](e *Executor, h QueryHandler[Q, R]) {
	if err := RegisterQuery(e, h); err != nil {
		panic(err)
	}
}

func operationKey(op any) (reflect.Type, error) {
	t := reflect.TypeOf(op)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("cqs: operations must be passed as pointers, got %T", op)
	}
	return t.Elem(), nil
}
