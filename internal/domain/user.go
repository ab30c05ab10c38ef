package domain

import (
	"strings"
	"time"
)

// Role is the access level of an account
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps a requested role onto the two known roles. Anything that
// is not an admin request becomes a regular user.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// User represents an account
type User struct {
	ID           string    `json:"id" db:"id" bson:"_id"`
	Name         string    `json:"name" db:"name" bson:"name"`
	Email        string    `json:"email" db:"email" bson:"email"`
	PasswordHash string    `json:"-" db:"password_hash" bson:"passwordHash"`
	Avatar       string    `json:"avatar" db:"avatar" bson:"avatar"`
	Role         Role      `json:"role" db:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" bson:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile returns the public part of the account
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserProfile is the account shape returned with a session token
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// DefaultAvatar is assigned at registration when no avatar was chosen
func DefaultAvatar(role Role) string {
	if role == RoleAdmin {
		return "avatar-admin"
	}
	return "avatar-user"
}

// Session binds an opaque token to a user. A zero ExpiresAt never expires.
type Session struct {
	Token     string    `json:"token" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Identity is the caller behind a request. The zero value is anonymous.
type Identity struct {
	User *User
}

// Anonymous is the identity of a caller without a valid token
var Anonymous = Identity{}

// Authenticated reports whether a user was resolved
func (i Identity) Authenticated() bool {
	return i.User != nil
}

// UserID returns the resolved user id or "" when anonymous
func (i Identity) UserID() string {
	if i.User == nil {
		return ""
	}
	return i.User.ID
}
