package model

import "time"

// User is an account that can sign in to the application. PasswordHash holds
// a bcrypt hash; plaintext passwords never reach the store.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	Protected    bool // bootstrap admin; cannot be deleted
	CreatedAt    time.Time
}

// Identity is the authenticated principal of a single request. It is passed
// explicitly into use-case functions.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IdentityOf builds the request identity for a stored user.
func IdentityOf(u User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}
