package model

import "time"

// Roles understood by the RequireRole middleware.
const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  The email doubles as the username.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – STUDENT or ADMIN.
//	IsActive     – whether the account may log in.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Session models a row in the `sessions` table.  The raw session token is
// never stored, only its SHA-256 hash.  ExpiresAt slides forward on every
// authenticated request.
type Session struct {
	ID        string     // sessions.id (uuid, also the JWT "sid" claim)
	UserID    uint64     // sessions.user_id
	TokenHash string     // sessions.token_hash
	ExpiresAt time.Time  // sessions.expires_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
	CreatedAt time.Time  // sessions.created_at
}

// Active reports whether the session can still authenticate requests at now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
