package auth

import "time"

// Role names are flat capability tags compared by exact match. There is no
// hierarchy: an account holding only ADMIN does not implicitly satisfy USER.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is a stored account. Passwords are kept only as bcrypt hashes.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role is a named capability node.
type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID   string
	Username string
	Roles    []string
}

// HasRole reports whether the principal carries the exact role tag.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal carries at least one of the tags.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
