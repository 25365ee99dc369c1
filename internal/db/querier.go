package db

import (
	"context"
	"database/sql"
)

// Querier is the subset of database operations stores need. Both *sql.DB and
// *sql.Tx satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QuerierFrom returns the ambient transaction when the context carries an
// open scope, so reads inside a unit of work observe its uncommitted writes.
// Otherwise the bare database is returned.
func QuerierFrom(ctx context.Context, fallback *sql.DB) Querier {
	if s, ok := ScopeFrom(ctx); ok && s.root.tx != nil && !s.root.committed && !s.root.rolledBack {
		return s.root.tx
	}
	return fallback
}
