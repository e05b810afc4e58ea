package auth

import "context"

// UserStore manages user nodes and their role assignments.
//
// Save persists the user together with links to the named roles; the roles
// must already exist. DeleteAll exists for the dev seed only, which wipes
// and repopulates accounts.
type UserStore interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindAll(ctx context.Context) ([]User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	DeleteAll(ctx context.Context) error
}

// RoleStore manages role nodes. Save adopts an existing node when the name
// is already taken, mirroring the author store's uniqueness handling.
type RoleStore interface {
	Save(ctx context.Context, r *Role) error
	FindByID(ctx context.Context, id string) (Role, error)
	FindAll(ctx context.Context) ([]Role, error)
	FindByName(ctx context.Context, name string) (Role, error)
}

// Store aggregates the account repositories.
type Store interface {
	Users() UserStore
	Roles() RoleStore
}
