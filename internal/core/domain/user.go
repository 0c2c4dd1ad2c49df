package domain

import "time"

// Role is the access level of a directory user.
type Role string

const (
	RolePhotographer Role = "photographer"
	RoleAdmin        Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RolePhotographer || r == RoleAdmin
}

// User is a directory record. The ID is issued by the identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal projects the user onto the authenticated caller view.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Principal is the authenticated caller, rebuilt from a verified token on
// every request. It is never persisted.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns reports whether the principal is the user identified by id.
func (p Principal) Owns(id string) bool {
	return p.ID != "" && p.ID == id
}

// Stats holds directory head counts.
type Stats struct {
	Total         int64 `json:"total"`
	Photographers int64 `json:"photographers"`
	Admins        int64 `json:"admins"`
}
