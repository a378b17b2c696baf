package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAgencyAdmin UserRole = "AGENCY_ADMIN"
	RoleAgencyUser  UserRole = "AGENCY_USER"
	RoleClientUser  UserRole = "CLIENT_USER"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	AgencyID     uuid.UUID `json:"agency_id" db:"agency_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	FullName     string    `json:"full_name" db:"full_name"`
	Role         UserRole  `json:"role" db:"role"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	UserID      string    `json:"user_id"`
	AgencyID    string    `json:"agency_id"`
	Role        UserRole  `json:"role"`
	IssuedAt    time.Time `json:"issued_at"`
}
