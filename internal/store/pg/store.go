// Package pg implements the persistence interfaces on PostgreSQL.
package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgErrUniqueViolation = "23505"

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("pg: duplicate row")

// Store owns the connection pool. The user, role and settings stores share it
// and participate in the ambient transaction when the context carries one.
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(15 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: conn}, nil
}

// NewStore wraps an existing pool. Used by tests with sqlmock.
func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
