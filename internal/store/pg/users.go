package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lumacms.org/internal/db"
	"lumacms.org/internal/users"
)

// UserStore implements users.Store on the shared pool.
type UserStore struct {
	store *Store
}

var _ users.Store = (*UserStore)(nil)

func NewUserStore(s *Store) *UserStore { return &UserStore{store: s} }

func (s *UserStore) Create(ctx context.Context, u *users.User) error {
	q := db.QuerierFrom(ctx, s.store.db)
	_, err := q.ExecContext(ctx, `
		insert into users (id, user_area_code, role_id, email, username, first_name, last_name,
			password_hash, require_password_change, last_password_change_at, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, u.ID, u.UserAreaCode, u.RoleID, u.Email, u.Username, u.FirstName, u.LastName,
		u.PasswordHash, u.RequirePasswordChange, u.LastPasswordChangeDate, u.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: user %s", ErrDuplicate, u.Username)
		}
		return err
	}
	return nil
}

func (s *UserStore) Find(ctx context.Context, id string) (*users.User, error) {
	q := db.QuerierFrom(ctx, s.store.db)
	return scanUser(q.QueryRowContext(ctx, `
		select id, user_area_code, role_id, email, username, first_name, last_name,
			password_hash, require_password_change, last_password_change_at, created_at
		from users
		where id = $1
	`, id))
}

func (s *UserStore) FindByUsername(ctx context.Context, areaCode, username string) (*users.User, error) {
	q := db.QuerierFrom(ctx, s.store.db)
	return scanUser(q.QueryRowContext(ctx, `
		select id, user_area_code, role_id, email, username, first_name, last_name,
			password_hash, require_password_change, last_password_change_at, created_at
		from users
		where user_area_code = $1 and username = $2
	`, areaCode, username))
}

func (s *UserStore) UpdatePassword(ctx context.Context, userID, passwordHash string, changedAt time.Time, requireChange bool) error {
	q := db.QuerierFrom(ctx, s.store.db)
	_, err := q.ExecContext(ctx, `
		update users
		set password_hash = $2, last_password_change_at = $3, require_password_change = $4
		where id = $1
	`, userID, passwordHash, changedAt, requireChange)
	return err
}

func scanUser(row *sql.Row) (*users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.UserAreaCode, &u.RoleID, &u.Email, &u.Username, &u.FirstName,
		&u.LastName, &u.PasswordHash, &u.RequirePasswordChange, &u.LastPasswordChangeDate, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
