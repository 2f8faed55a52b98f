// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role is the authorization role carried by a user and its access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a registered account. PasswordHash is never exposed outside the
// server. Deactivation is terminal: once IsActive is false it is never
// switched back on.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FullName     *string
	Role         Role
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

// Clone returns a deep copy so that stores can hand out values without
// sharing pointer fields with their internal state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.FullName != nil {
		v := *u.FullName
		c.FullName = &v
	}
	if u.LastLogin != nil {
		v := *u.LastLogin
		c.LastLogin = &v
	}
	return &c
}

// UserPatch lists the mutable fields of a user. Nil fields are left unchanged.
type UserPatch struct {
	Email        *string
	Username     *string
	FullName     *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.Username == nil && p.FullName == nil && p.PasswordHash == nil
}
