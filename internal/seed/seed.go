// Package seed provisions the development fixture: two accounts and two
// catalog entries. It is destructive for user accounts and must never run
// against a production database.
package seed

import (
	"context"
	"fmt"

	"libris.org/internal/auth"
	"libris.org/internal/catalog"
	"libris.org/internal/obs"
)

type account struct {
	username string
	password string
	roles    []string
}

type entry struct {
	title  string
	author string
}

var (
	accounts = []account{
		{username: "admin", password: "adminpass", roles: []string{auth.RoleAdmin, auth.RoleUser}},
		{username: "user", password: "userpass", roles: []string{auth.RoleUser}},
	}

	entries = []entry{
		{title: "The Lord of the Rings", author: "J.R.R. Tolkien"},
		{title: "Neuromancer", author: "William Gibson"},
	}
)

// Run wipes existing accounts, recreates the fixture users with their
// roles, and adds the sample books unless their titles already exist.
func Run(ctx context.Context, store auth.Store, library catalog.Service) error {
	for _, name := range []string{auth.RoleAdmin, auth.RoleUser} {
		role := auth.Role{Name: name}
		if err := store.Roles().Save(ctx, &role); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}

	if err := store.Users().DeleteAll(ctx); err != nil {
		return fmt.Errorf("wipe users: %w", err)
	}
	for _, acc := range accounts {
		hash, err := auth.HashPassword(acc.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", acc.username, err)
		}
		u := auth.User{Username: acc.username, PasswordHash: hash, Roles: acc.roles}
		if err := store.Users().Save(ctx, &u); err != nil {
			return fmt.Errorf("seed user %s: %w", acc.username, err)
		}
	}

	books, err := library.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	existing := make(map[string]bool, len(books))
	for _, b := range books {
		existing[b.Title] = true
	}
	for _, e := range entries {
		if existing[e.title] {
			continue
		}
		if _, err := library.AddBook(ctx, e.title, e.author); err != nil {
			return fmt.Errorf("seed book %q: %w", e.title, err)
		}
	}

	obs.Logger().Printf(`{"level":"info","msg":"seed_complete","users":%d,"books":%d}`,
		len(accounts), len(entries))
	return nil
}
