package services

import "reviso/internal/common"

var (
	ErrPlanNotFound      = common.NewError(common.KindValidation, "PLAN_NOT_FOUND", "Unknown subscription plan.")
	ErrPlanInactive      = common.NewError(common.KindValidation, "PLAN_INACTIVE", "This plan is not available.")
	ErrPlanNotConfigured = common.NewError(common.KindValidation, "PLAN_NOT_CONFIGURED", "This plan is not available for purchase yet.")
	ErrEmailTaken        = common.NewError(common.KindValidation, "EMAIL_TAKEN", "An account with this email already exists.")
	ErrPaymentProvider   = common.NewError(common.KindUnavailable, "PAYMENT_PROVIDER_UNAVAILABLE", "Payment provider is unavailable. Try again shortly.")

	ErrInvalidSignature      = common.NewError(common.KindUnauthorized, "INVALID_SIGNATURE", "Invalid webhook signature.")
	ErrMalformedEvent        = common.NewError(common.KindValidation, "MALFORMED_EVENT", "Malformed webhook event.")
	ErrPendingSignupNotFound = common.NewError(common.KindInternal, "PENDING_SIGNUP_NOT_FOUND", "Pending signup not found for checkout session.")
	ErrCustomerMismatch      = common.NewError(common.KindInternal, "CUSTOMER_MISMATCH", "Invoice customer does not match the subscription.")
	ErrUnknownProviderStatus = common.NewError(common.KindInternal, "UNKNOWN_PROVIDER_STATUS", "Provider reported an unknown subscription status.")
	ErrWebhookFailed         = common.NewError(common.KindInternal, "WEBHOOK_FAILED", "Webhook processing failed.")

	ErrAlreadyProvisioned = common.NewError(common.KindConflict, "ALREADY_PROVISIONED", "Tenant store already provisioned for this agency.")
	ErrAgencyNotFound     = common.NewError(common.KindNotFound, "AGENCY_NOT_FOUND", "Agency not found.")

	ErrSubscriptionNotFound = common.NewError(common.KindNotFound, "SUBSCRIPTION_NOT_FOUND", "Subscription not found.")
	ErrCheckoutNotFound     = common.NewError(common.KindNotFound, "CHECKOUT_NOT_FOUND", "Checkout session not found.")

	ErrInvalidCredentials = common.NewError(common.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.")
	ErrLoginBlocked       = common.NewError(common.KindForbidden, "LOGIN_BLOCKED", "Access blocked.")
	ErrInvalidToken       = common.NewError(common.KindUnauthorized, "INVALID_TOKEN", "Invalid or expired token.")
)
