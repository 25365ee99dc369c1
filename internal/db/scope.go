package db

import (
	"context"
	"database/sql"
	"errors"
)

var (
	// ErrScopeClosed is returned when a scope is completed after it was closed.
	ErrScopeClosed = errors.New("db: transaction scope already closed")

	// ErrInnerScopeFailed is returned by the outermost Complete when any
	// nested scope was closed without completing. First failure wins.
	ErrInnerScopeFailed = errors.New("db: inner transaction scope failed")
)

type scopeContextKey struct{}

// ScopeManager creates nestable transaction scopes over a database. A nil
// database runs scopes without a backing transaction; in-memory stores
// manage their own consistency and post-commit callbacks still fire on
// completion.
type ScopeManager struct {
	db *sql.DB
}

func NewScopeManager(db *sql.DB) *ScopeManager {
	return &ScopeManager{db: db}
}

// rootScope holds the state shared by every scope in one nesting chain.
type rootScope struct {
	tx         *sql.Tx
	failed     bool
	committed  bool
	rolledBack bool
	onCommit   []func()
}

// Scope is one level of a unit-of-work chain. Only the outermost scope
// commits or rolls back the store; inner completions are tracked and
// deferred.
type Scope struct {
	root      *rootScope
	outermost bool
	completed bool
	closed    bool
}

// Begin joins the chain carried by ctx, or starts a new outermost scope.
// The returned context must be used for all work inside the scope so nested
// executions and store reads share the same transaction.
func (m *ScopeManager) Begin(ctx context.Context) (context.Context, *Scope, error) {
	if parent, ok := ScopeFrom(ctx); ok {
		return ctx, &Scope{root: parent.root}, nil
	}
	root := &rootScope{}
	if m.db != nil {
		tx, err := m.db.BeginTx(ctx, nil)
		if err != nil {
			return ctx, nil, err
		}
		root.tx = tx
	}
	scope := &Scope{root: root, outermost: true}
	return context.WithValue(ctx, scopeContextKey{}, scope), scope, nil
}

// ScopeFrom returns the ambient scope, if the context carries one.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeContextKey{}).(*Scope)
	return s, ok
}

// OnCommit registers fn to run after the outermost scope commits. Callbacks
// are dropped on rollback.
func (s *Scope) OnCommit(fn func()) {
	s.root.onCommit = append(s.root.onCommit, fn)
}

// Complete marks this scope's work as successful. Inner scopes defer to the
// outermost one; the outermost commit is refused if any inner scope failed.
func (s *Scope) Complete() error {
	if s.closed {
		return ErrScopeClosed
	}
	s.completed = true
	if !s.outermost {
		return nil
	}
	if s.root.failed {
		s.rollback()
		return ErrInnerScopeFailed
	}
	if s.root.tx != nil {
		if err := s.root.tx.Commit(); err != nil {
			s.root.rolledBack = true
			return err
		}
	}
	s.root.committed = true
	for _, fn := range s.root.onCommit {
		fn()
	}
	return nil
}

// Close releases the scope. Closing without a prior Complete marks the whole
// chain as failed; the outermost close rolls back anything uncommitted.
// Close is idempotent.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.completed {
		s.root.failed = true
	}
	if s.outermost && !s.root.committed {
		return s.rollback()
	}
	return nil
}

func (s *Scope) rollback() error {
	if s.root.rolledBack || s.root.tx == nil {
		s.root.rolledBack = true
		return nil
	}
	s.root.rolledBack = true
	return s.root.tx.Rollback()
}
