package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lumacms.org/internal/db"
	"lumacms.org/internal/permissions"
	"lumacms.org/internal/users"
)

// RoleStore implements users.RoleStore. Permission grants live in a child
// table keyed by permission code.
type RoleStore struct {
	store *Store
}

var _ users.RoleStore = (*RoleStore)(nil)

func NewRoleStore(s *Store) *RoleStore { return &RoleStore{store: s} }

func (s *RoleStore) Create(ctx context.Context, role *permissions.Role) error {
	q := db.QuerierFrom(ctx, s.store.db)
	_, err := q.ExecContext(ctx, `
		insert into roles (id, user_area_code, code, title)
		values ($1, $2, $3, $4)
	`, role.ID, role.UserAreaCode, role.Code, role.Title)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: role %s", ErrDuplicate, role.Code)
		}
		return err
	}
	for _, code := range role.PermissionCodes() {
		if _, err := q.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_code)
			values ($1, $2)
		`, role.ID, code); err != nil {
			return err
		}
	}
	return nil
}

func (s *RoleStore) Find(ctx context.Context, id string) (*permissions.Role, error) {
	q := db.QuerierFrom(ctx, s.store.db)
	return s.scanRole(ctx, q, q.QueryRowContext(ctx, `
		select id, user_area_code, code, title
		from roles
		where id = $1
	`, id))
}

func (s *RoleStore) FindByCode(ctx context.Context, areaCode, code string) (*permissions.Role, error) {
	q := db.QuerierFrom(ctx, s.store.db)
	return s.scanRole(ctx, q, q.QueryRowContext(ctx, `
		select id, user_area_code, code, title
		from roles
		where user_area_code = $1 and code = $2
	`, areaCode, code))
}

func (s *RoleStore) scanRole(ctx context.Context, q db.Querier, row *sql.Row) (*permissions.Role, error) {
	var id, areaCode, code, title string
	err := row.Scan(&id, &areaCode, &code, &title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		select permission_code from role_permissions where role_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []permissions.Permission
	for rows.Next() {
		var permCode string
		if err := rows.Scan(&permCode); err != nil {
			return nil, err
		}
		perms = append(perms, permissions.Permission{Code: permCode})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return permissions.NewRole(id, code, title, areaCode, perms), nil
}
