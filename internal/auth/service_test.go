package auth

import (
	"context"
	"errors"
	"testing"
)

func seedGate(t *testing.T) (*Gate, Store) {
	t.Helper()
	store := NewInMemory()
	ctx := context.Background()
	for _, name := range []string{RoleAdmin, RoleUser} {
		role := Role{Name: name}
		if err := store.Roles().Save(ctx, &role); err != nil {
			t.Fatalf("save role %s: %v", name, err)
		}
	}
	hash, err := HashPassword("adminpass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := User{Username: "admin", PasswordHash: hash, Roles: []string{RoleAdmin, RoleUser}}
	if err := store.Users().Save(ctx, &admin); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return NewGate(store), store
}

func TestAuthenticateBasic(t *testing.T) {
	gate, _ := seedGate(t)
	ctx := context.Background()

	p, err := gate.AuthenticateBasic(ctx, "admin", "adminpass")
	if err != nil {
		t.Fatalf("AuthenticateBasic: %v", err)
	}
	if p.Username != "admin" || !p.HasRole(RoleAdmin) || !p.HasRole(RoleUser) {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthenticateBasicRejectsBadCredentials(t *testing.T) {
	gate, _ := seedGate(t)
	ctx := context.Background()

	if _, err := gate.AuthenticateBasic(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := gate.AuthenticateBasic(ctx, "nobody", "adminpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestIssueAndAuthenticateToken(t *testing.T) {
	setSecret(t)
	gate, _ := seedGate(t)
	ctx := context.Background()

	p, err := gate.AuthenticateBasic(ctx, "admin", "adminpass")
	if err != nil {
		t.Fatalf("AuthenticateBasic: %v", err)
	}
	token, expires, err := gate.IssueToken(p)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if expires.IsZero() {
		t.Fatal("expected non-zero expiry")
	}
	got, err := gate.AuthenticateToken(ctx, token)
	if err != nil {
		t.Fatalf("AuthenticateToken: %v", err)
	}
	if got.UserID != p.UserID || got.Username != p.Username {
		t.Fatalf("principal mismatch: got %+v, want %+v", got, p)
	}
	if !got.HasAnyRole(RoleAdmin) {
		t.Fatalf("roles lost in token round trip: %v", got.Roles)
	}
}

func TestAuthorizeRolePolicy(t *testing.T) {
	gate, _ := seedGate(t)

	admin := Principal{UserID: "1", Roles: []string{RoleAdmin}}
	reader := Principal{UserID: "2", Roles: []string{RoleUser}}

	if err := gate.Authorize(admin, RoleAdmin); err != nil {
		t.Fatalf("admin should pass ADMIN check: %v", err)
	}
	if err := gate.Authorize(reader, RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("reader on ADMIN check: err = %v, want ErrForbidden", err)
	}
	if err := gate.Authorize(reader, RoleAdmin, RoleUser); err != nil {
		t.Fatalf("reader should pass ADMIN-or-USER check: %v", err)
	}
	// Flat tags: ADMIN does not imply USER.
	if err := gate.Authorize(admin, RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin on USER-only check: err = %v, want ErrForbidden", err)
	}
	if err := gate.Authorize(reader); err != nil {
		t.Fatalf("empty requirement should allow any principal: %v", err)
	}
}

func TestUserSaveRequiresExistingRoles(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	u := User{Username: "ghost", PasswordHash: "x", Roles: []string{"LIBRARIAN"}}
	if err := store.Users().Save(ctx, &u); err == nil {
		t.Fatal("expected save to fail for unknown role")
	}
}

func TestRoleSaveAdoptsExisting(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	first := Role{Name: RoleAdmin}
	if err := store.Roles().Save(ctx, &first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := Role{Name: RoleAdmin}
	if err := store.Roles().Save(ctx, &second); err != nil {
		t.Fatalf("save again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate role name minted new node: %s vs %s", second.ID, first.ID)
	}
	roles, err := store.Roles().FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("roles = %d, want 1", len(roles))
	}
}

func TestDeleteAllUsersKeepsRoles(t *testing.T) {
	_, store := seedGate(t)
	ctx := context.Background()

	if err := store.Users().DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	users, err := store.Users().FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("users = %d, want 0", len(users))
	}
	roles, err := store.Roles().FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll roles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("roles = %d, want 2", len(roles))
	}
}
