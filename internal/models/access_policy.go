package models

const genericBlockReason = "Access blocked."

var blockReasons = map[SubscriptionStatus]string{
	StatusCanceled:          "Subscription canceled.",
	StatusUnpaid:            "Subscription suspended for non-payment.",
	StatusIncompleteExpired: "Checkout expired. Start a new signup.",
}

// denialReasons explain write denials for statuses that still allow login.
var denialReasons = map[SubscriptionStatus]string{
	StatusTrialExpired: "Trial expired. Upgrade to continue.",
	StatusPastDue:      "Payment pending. Update your payment method to restore full access.",
	StatusIncomplete:   "Checkout not completed yet.",
}

func CanLogin(status SubscriptionStatus) bool {
	return status != StatusCanceled
}

func CanRead(status SubscriptionStatus) bool {
	return status.IsActive() || status == StatusTrialExpired
}

func CanWrite(status SubscriptionStatus) bool {
	return status.IsActive()
}

func CanAccessPremium(status SubscriptionStatus) bool {
	return status == StatusActive
}

func IsBlocked(status SubscriptionStatus) bool {
	_, ok := blockReasons[status]
	return ok
}

// BlockReason is empty unless the status is blocked.
func BlockReason(status SubscriptionStatus) string {
	if !IsBlocked(status) {
		return ""
	}
	if reason := blockReasons[status]; reason != "" {
		return reason
	}
	return genericBlockReason
}

// DenialReason explains why a write was refused. Blocked statuses reuse
// their block reason.
func DenialReason(status SubscriptionStatus) string {
	if CanWrite(status) {
		return ""
	}
	if IsBlocked(status) {
		return BlockReason(status)
	}
	if reason, ok := denialReasons[status]; ok {
		return reason
	}
	return genericBlockReason
}

// Access is the policy evaluation exposed to clients.
type Access struct {
	Status        SubscriptionStatus `json:"status"`
	Active        bool               `json:"active"`
	CanLogin      bool               `json:"can_login"`
	CanRead       bool               `json:"can_read"`
	CanWrite      bool               `json:"can_write"`
	Premium       bool               `json:"premium"`
	Blocked       bool               `json:"blocked"`
	BlockedReason string             `json:"blocked_reason,omitempty"`
}

func AccessFor(status SubscriptionStatus) Access {
	return Access{
		Status:        status,
		Active:        status.IsActive(),
		CanLogin:      CanLogin(status),
		CanRead:       CanRead(status),
		CanWrite:      CanWrite(status),
		Premium:       CanAccessPremium(status),
		Blocked:       IsBlocked(status),
		BlockedReason: BlockReason(status),
	}
}
