package middleware

import (
	"net/http"
	"time"

	"reviso/internal/common"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuditTrail writes one audit record per mutating request made by an
// authenticated caller. Reads are not recorded.
func AuditTrail(action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead {
				return err
			}

			event := log.Info()
			if err != nil {
				event = log.Warn().Err(err)
			}
			if userID, ok := common.GetUserIDFromContext(req.Context()); ok {
				event = event.Str("user_id", userID.String())
			}
			if agencyID, ok := common.GetAgencyIDFromContext(req.Context()); ok {
				event = event.Str("agency_id", agencyID.String())
			}
			event.
				Str("audit_action", action).
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("resource_id", c.Param("agencyId")).
				Bool("success", err == nil).
				Dur("duration", time.Since(start)).
				Msg("audit")
			return err
		}
	}
}
