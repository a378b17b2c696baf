package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingSignupTTL bounds how long a checkout may stay open before the
// signup is discarded.
const PendingSignupTTL = 24 * time.Hour

// PendingSignup holds signup data between checkout start and checkout
// completion. It is deleted once the agency is created.
type PendingSignup struct {
	ID                uuid.UUID `json:"id" db:"id"`
	CheckoutSessionID string    `json:"checkout_session_id" db:"checkout_session_id"`
	PlanID            uuid.UUID `json:"plan_id" db:"plan_id"`
	AgencyName        string    `json:"agency_name" db:"agency_name"`
	AdminEmail        string    `json:"admin_email" db:"admin_email"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	ExpiresAt         time.Time `json:"expires_at" db:"expires_at"`
}

func NewPendingSignup(sessionID string, planID uuid.UUID, agencyName, email, passwordHash string, now time.Time) *PendingSignup {
	return &PendingSignup{
		ID:                uuid.New(),
		CheckoutSessionID: sessionID,
		PlanID:            planID,
		AgencyName:        agencyName,
		AdminEmail:        email,
		PasswordHash:      passwordHash,
		CreatedAt:         now,
		ExpiresAt:         now.Add(PendingSignupTTL),
	}
}

func (p *PendingSignup) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
