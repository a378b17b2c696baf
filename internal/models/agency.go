package models

import (
	"time"

	"github.com/google/uuid"
)

// Agency is the top-level tenant. DatabaseName is assigned once by
// provisioning and never changes afterwards.
type Agency struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	Active       bool      `json:"active" db:"active"`
	DatabaseName *string   `json:"database_name,omitempty" db:"database_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (a *Agency) IsProvisioned() bool {
	return a.DatabaseName != nil && *a.DatabaseName != ""
}
