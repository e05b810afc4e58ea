package auth

import (
	"context"
	"database/sql"

	"libris.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users() UserStore { return &pgUsers{db: s.db} }
func (s *PGStore) Roles() RoleStore { return &pgRoles{db: s.db} }

// User store ---------------------------------------------------------------
type pgUsers struct{ db *sql.DB }

func (s *pgUsers) Save(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`insert into users(id, username, password_hash)
		 values($1,$2,$3)
		 on conflict (username) do update set password_hash=excluded.password_hash
		 returning id, created_at`,
		u.ID, u.Username, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from user_roles where user_id=$1`, u.ID); err != nil {
		return err
	}
	for _, role := range u.Roles {
		res, err := tx.ExecContext(ctx,
			`insert into user_roles(user_id, role_id)
			 select $1, id from roles where name=$2`, u.ID, role)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
	}
	return tx.Commit()
}

func (s *pgUsers) FindByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, created_at from users where id=$1`, id)
	return s.scanWithRoles(ctx, row)
}

func (s *pgUsers) FindByUsername(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, created_at from users where username=$1`, username)
	return s.scanWithRoles(ctx, row)
}

func (s *pgUsers) scanWithRoles(ctx context.Context, row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	roles, err := s.rolesFor(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	u.Roles = roles
	return u, nil
}

func (s *pgUsers) rolesFor(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select r.name from roles r
		 join user_roles ur on ur.role_id=r.id
		 where ur.user_id=$1 order by r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

func (s *pgUsers) FindAll(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, username, password_hash, created_at from users order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range users {
		roles, err := s.rolesFor(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Roles = roles
	}
	return users, nil
}

func (s *pgUsers) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `delete from users`)
	return err
}

// Role store ---------------------------------------------------------------
type pgRoles struct{ db *sql.DB }

func (s *pgRoles) Save(ctx context.Context, r *Role) error {
	if r.ID == "" {
		r.ID = ids.New()
	}
	return s.db.QueryRowContext(ctx,
		`insert into roles(id, name) values($1,$2)
		 on conflict (name) do update set name=excluded.name
		 returning id, created_at`,
		r.ID, r.Name,
	).Scan(&r.ID, &r.CreatedAt)
}

func (s *pgRoles) FindByID(ctx context.Context, id string) (Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, created_at from roles where id=$1`, id)
	var r Role
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return r, nil
}

func (s *pgRoles) FindByName(ctx context.Context, name string) (Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, created_at from roles where name=$1`, name)
	var r Role
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return r, nil
}

func (s *pgRoles) FindAll(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, created_at from roles order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
