package models

import (
	"errors"
	"fmt"
	"strings"

	"reviso/internal/common"
)

type SubscriptionStatus string

const (
	StatusIncomplete        SubscriptionStatus = "INCOMPLETE"
	StatusIncompleteExpired SubscriptionStatus = "INCOMPLETE_EXPIRED"
	StatusTrialing          SubscriptionStatus = "TRIALING"
	StatusTrialExpired      SubscriptionStatus = "TRIAL_EXPIRED"
	StatusActive            SubscriptionStatus = "ACTIVE"
	StatusPastDue           SubscriptionStatus = "PAST_DUE"
	StatusCanceled          SubscriptionStatus = "CANCELED"
	StatusUnpaid            SubscriptionStatus = "UNPAID"
)

// AllStatuses lists every lifecycle state in declaration order.
var AllStatuses = []SubscriptionStatus{
	StatusIncomplete,
	StatusIncompleteExpired,
	StatusTrialing,
	StatusTrialExpired,
	StatusActive,
	StatusPastDue,
	StatusCanceled,
	StatusUnpaid,
}

// transitions is the complete set of legal lifecycle moves. Anything not
// listed here is rejected.
var transitions = map[SubscriptionStatus][]SubscriptionStatus{
	StatusIncomplete:        {StatusActive, StatusIncompleteExpired, StatusCanceled},
	StatusIncompleteExpired: {StatusCanceled},
	StatusTrialing:          {StatusActive, StatusTrialExpired, StatusCanceled},
	StatusTrialExpired:      {StatusActive, StatusCanceled},
	StatusActive:            {StatusPastDue, StatusCanceled, StatusUnpaid},
	StatusPastDue:           {StatusActive, StatusUnpaid, StatusCanceled},
	StatusUnpaid:            {StatusActive, StatusCanceled},
	StatusCanceled:          {},
}

// ErrInvalidTransition matches every *InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid subscription status transition")

type InvalidTransitionError struct {
	From SubscriptionStatus
	To   SubscriptionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition subscription from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func (e *InvalidTransitionError) ErrorKind() common.ErrorKind { return common.KindConflict }

// ParseSubscriptionStatus maps a provider or stored status string onto the
// known set. Matching ignores case and surrounding whitespace.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	candidate := SubscriptionStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := transitions[candidate]; !ok {
		return "", fmt.Errorf("unknown subscription status %q", s)
	}
	return candidate, nil
}

func (s SubscriptionStatus) String() string { return string(s) }

func (s SubscriptionStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s SubscriptionStatus) CanTransitionTo(to SubscriptionStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsActive reports whether the status grants normal product access.
func (s SubscriptionStatus) IsActive() bool {
	return s == StatusActive || s == StatusTrialing
}

// IsTerminal reports whether no further transition is possible.
func (s SubscriptionStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}
