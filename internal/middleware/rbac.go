package middleware

import (
	"net/http"

	"reviso/internal/common"
	"reviso/internal/models"
	"reviso/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AccessLevel is the kind of operation a route performs on agency data.
type AccessLevel int

const (
	AccessRead AccessLevel = iota
	AccessWrite
	AccessPremium
)

const subscriptionStatusKey = "subscription_status"

// RequireRole rejects callers whose token role is not listed.
func RequireRole(roles ...models.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := common.GetRoleFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			for _, r := range roles {
				if models.UserRole(role) == r {
					return next(c)
				}
			}
			return common.NewError(common.KindForbidden, "INSUFFICIENT_ROLE", "Insufficient permissions")
		}
	}
}

// AccessMiddleware gates agency routes on the current subscription status.
type AccessMiddleware struct {
	access services.AccessService
}

func NewAccessMiddleware(access services.AccessService) *AccessMiddleware {
	return &AccessMiddleware{access: access}
}

func (m *AccessMiddleware) Require(level AccessLevel) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			agencyID, ok := common.GetAgencyIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Agency not found")
			}

			status, err := m.access.Status(ctx, agencyID)
			if err != nil {
				return err
			}

			if reason, allowed := decide(level, status); !allowed {
				log.Info().
					Str("agency_id", agencyID.String()).
					Str("status", string(status)).
					Int("level", int(level)).
					Msg("subscription access denied")
				return common.NewError(common.KindForbidden, "SUBSCRIPTION_RESTRICTED", reason)
			}

			c.Set(subscriptionStatusKey, status)
			return next(c)
		}
	}
}

func decide(level AccessLevel, status models.SubscriptionStatus) (string, bool) {
	switch level {
	case AccessWrite:
		return models.DenialReason(status), models.CanWrite(status)
	case AccessPremium:
		if models.CanAccessPremium(status) {
			return "", true
		}
		if reason := models.DenialReason(status); reason != "" {
			return reason, false
		}
		return "Available on paid plans only.", false
	default:
		if models.CanRead(status) {
			return "", true
		}
		if reason := models.BlockReason(status); reason != "" {
			return reason, false
		}
		return models.DenialReason(status), false
	}
}

// SubscriptionStatusFromContext returns the status checked by AccessMiddleware.
func SubscriptionStatusFromContext(c echo.Context) (models.SubscriptionStatus, bool) {
	status, ok := c.Get(subscriptionStatusKey).(models.SubscriptionStatus)
	return status, ok
}
