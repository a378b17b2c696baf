package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderPriceRef marks a plan seeded before its provider price exists.
const PlaceholderPriceRef = "CONFIGURE_IN_STRIPE"

type SubscriptionPlan struct {
	ID                  uuid.UUID `json:"id" db:"id" toml:"-"`
	Code                string    `json:"code" db:"code" toml:"code"`
	Name                string    `json:"name" db:"name" toml:"name"`
	PriceRef            string    `json:"-" db:"price_ref" toml:"price_ref"`
	ProductRef          string    `json:"-" db:"product_ref" toml:"product_ref"`
	MaxUsers            int       `json:"max_users" db:"max_users" toml:"max_users"`
	MaxRequestsPerMonth int       `json:"max_requests_per_month" db:"max_requests_per_month" toml:"max_requests_per_month"`
	Active              bool      `json:"active" db:"active" toml:"active"`
	CreatedAt           time.Time `json:"created_at" db:"created_at" toml:"-"`
}

// HasPriceConfigured reports whether checkout can be started for this plan.
func (p *SubscriptionPlan) HasPriceConfigured() bool {
	ref := strings.TrimSpace(p.PriceRef)
	return ref != "" && ref != PlaceholderPriceRef
}
