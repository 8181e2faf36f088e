package models

import "time"

// User represents a learner account in the system
type User struct {
	ID            int64     `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Name          string    `db:"name" json:"name"`
	About         string    `db:"about" json:"about,omitempty"`
	OAuthProvider string    `db:"oauth_provider" json:"oauth_provider,omitempty"`
	OAuthSubject  string    `db:"oauth_subject" json:"-"`
	IsAdmin       bool      `db:"is_admin" json:"is_admin"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Session represents an authenticated session
type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
