package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the billing record owned by exactly one agency.
type Subscription struct {
	ID                     uuid.UUID          `json:"id" db:"id"`
	AgencyID               uuid.UUID          `json:"agency_id" db:"agency_id"`
	PlanID                 uuid.UUID          `json:"plan_id" db:"plan_id"`
	ProviderSubscriptionID *string            `json:"-" db:"provider_subscription_id"`
	ProviderCustomerID     *string            `json:"-" db:"provider_customer_id"`
	CheckoutSessionID      *string            `json:"-" db:"checkout_session_id"`
	Status                 SubscriptionStatus `json:"status" db:"status"`
	CurrentPeriodStart     *time.Time         `json:"current_period_start,omitempty" db:"current_period_start"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end,omitempty" db:"current_period_end"`
	CreatedAt              time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at" db:"updated_at"`
}

// TransitionTo moves the subscription to the requested status. An illegal
// move returns *InvalidTransitionError and leaves the record untouched.
func (s *Subscription) TransitionTo(to SubscriptionStatus, now time.Time) error {
	if !s.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{From: s.Status, To: to}
	}
	s.Status = to
	s.UpdatedAt = now
	return nil
}

// ApplyPeriod records the billing window reported by the provider.
// It reports whether anything changed.
func (s *Subscription) ApplyPeriod(start, end *time.Time, now time.Time) bool {
	if sameInstant(s.CurrentPeriodStart, start) && sameInstant(s.CurrentPeriodEnd, end) {
		return false
	}
	if start != nil {
		s.CurrentPeriodStart = start
	}
	if end != nil {
		s.CurrentPeriodEnd = end
	}
	s.UpdatedAt = now
	return true
}

func (s *Subscription) IsActive() bool {
	return s.Status.IsActive()
}

func sameInstant(a, b *time.Time) bool {
	if b == nil {
		return true
	}
	if a == nil {
		return false
	}
	return a.Equal(*b)
}
