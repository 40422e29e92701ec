// Package models holds the records exchanged between the stores, the Mock
// Backend and its repositories.
package models

import (
	"strconv"
	"time"
)

// User is the client-side view of an account: the session user and the rows
// of the admin console.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	Avatar        string    `json:"avatar,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserRecord is a row of the backend's user collection.
type UserRecord struct {
	ID               int64
	Email            string
	Name             string
	Role             Role
	Avatar           string
	PasswordSalt     []byte
	PasswordVerifier []byte
	VerificationCode string
	ResetCode        string
	Verified         bool
	CreatedAt        time.Time
}

// UserID renders a record id the way the client refers to it.
func UserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseUserID is the inverse of UserID.
func ParseUserID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// ToUser projects the record onto the client view. The stored role is kept;
// callers building a session override it.
func (r UserRecord) ToUser() User {
	return User{
		ID:            UserID(r.ID),
		Email:         r.Email,
		Name:          r.Name,
		Role:          r.Role,
		Avatar:        r.Avatar,
		EmailVerified: r.Verified,
		CreatedAt:     r.CreatedAt,
	}
}

// Clone returns a copy that shares no byte slices with r.
func (r UserRecord) Clone() UserRecord {
	c := r
	c.PasswordSalt = append([]byte(nil), r.PasswordSalt...)
	c.PasswordVerifier = append([]byte(nil), r.PasswordVerifier...)
	return c
}

// UserPatch is a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Email            *string
	Name             *string
	Role             *Role
	Avatar           *string
	PasswordSalt     []byte
	PasswordVerifier []byte
	VerificationCode *string
	ResetCode        *string
	Verified         *bool
}

// Apply merges p into r.
func (p UserPatch) Apply(r *UserRecord) {
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Role != nil {
		r.Role = *p.Role
	}
	if p.Avatar != nil {
		r.Avatar = *p.Avatar
	}
	if p.PasswordSalt != nil {
		r.PasswordSalt = append([]byte(nil), p.PasswordSalt...)
	}
	if p.PasswordVerifier != nil {
		r.PasswordVerifier = append([]byte(nil), p.PasswordVerifier...)
	}
	if p.VerificationCode != nil {
		r.VerificationCode = *p.VerificationCode
	}
	if p.ResetCode != nil {
		r.ResetCode = *p.ResetCode
	}
	if p.Verified != nil {
		r.Verified = *p.Verified
	}
}

// Ptr returns a pointer to v; handy when building patches.
func Ptr[T any](v T) *T { return &v }
