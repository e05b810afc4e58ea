package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"libris.org/internal/ids"
)

var _ Store = (*InMemory)(nil)

// InMemory keeps accounts and roles in process memory. It backs tests and
// the -store=memory mode of the API binary.
type InMemory struct {
	mu            sync.RWMutex
	usersByID     map[string]User
	userIDsByName map[string]string
	rolesByID     map[string]Role
	roleIDsByName map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		usersByID:     make(map[string]User),
		userIDsByName: make(map[string]string),
		rolesByID:     make(map[string]Role),
		roleIDsByName: make(map[string]string),
	}
}

func (m *InMemory) Users() UserStore { return &memUsers{m: m} }
func (m *InMemory) Roles() RoleStore { return &memRoles{m: m} }

type memUsers struct{ m *InMemory }

func (s *memUsers) Save(ctx context.Context, u *User) error {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return errors.New("username is required")
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, role := range u.Roles {
		if _, ok := s.m.roleIDsByName[role]; !ok {
			return fmt.Errorf("role %s: %w", role, ErrNotFound)
		}
	}
	if id, ok := s.m.userIDsByName[username]; ok {
		u.ID = id
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Username = username
	stored := *u
	stored.Roles = append([]string(nil), u.Roles...)
	s.m.usersByID[u.ID] = stored
	s.m.userIDsByName[username] = u.ID
	return nil
}

func (s *memUsers) FindByID(ctx context.Context, id string) (User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	u, ok := s.m.usersByID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.Roles = append([]string(nil), u.Roles...)
	return u, nil
}

func (s *memUsers) FindAll(ctx context.Context) ([]User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]User, 0, len(s.m.usersByID))
	for _, u := range s.m.usersByID {
		u.Roles = append([]string(nil), u.Roles...)
		out = append(out, u)
	}
	return out, nil
}

func (s *memUsers) FindByUsername(ctx context.Context, username string) (User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	id, ok := s.m.userIDsByName[strings.TrimSpace(username)]
	if !ok {
		return User{}, ErrNotFound
	}
	u := s.m.usersByID[id]
	u.Roles = append([]string(nil), u.Roles...)
	return u, nil
}

func (s *memUsers) DeleteAll(ctx context.Context) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.usersByID = make(map[string]User)
	s.m.userIDsByName = make(map[string]string)
	return nil
}

type memRoles struct{ m *InMemory }

func (s *memRoles) Save(ctx context.Context, r *Role) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("role name is required")
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if id, ok := s.m.roleIDsByName[name]; ok {
		*r = s.m.rolesByID[id]
		return nil
	}
	if r.ID == "" {
		r.ID = ids.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Name = name
	s.m.rolesByID[r.ID] = *r
	s.m.roleIDsByName[name] = r.ID
	return nil
}

func (s *memRoles) FindByID(ctx context.Context, id string) (Role, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.rolesByID[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	return r, nil
}

func (s *memRoles) FindAll(ctx context.Context) ([]Role, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]Role, 0, len(s.m.rolesByID))
	for _, r := range s.m.rolesByID {
		out = append(out, r)
	}
	return out, nil
}

func (s *memRoles) FindByName(ctx context.Context, name string) (Role, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	id, ok := s.m.roleIDsByName[strings.TrimSpace(name)]
	if !ok {
		return Role{}, ErrNotFound
	}
	return s.m.rolesByID[id], nil
}
