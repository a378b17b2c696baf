package handlers

import (
	"net/http"

	"reviso/internal/common"
	"reviso/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers exposes the caller's own subscription.
type SubscriptionHandlers struct {
	billing services.BillingService
}

func NewSubscriptionHandlers(billing services.BillingService) *SubscriptionHandlers {
	return &SubscriptionHandlers{billing: billing}
}

// GetAgencySubscription returns status, plan, period and access flags.
//
//	@Summary	Agency subscription
//	@Tags		subscription
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	services.AgencySubscription
//	@Failure	403	{object}	common.ErrorResponse
//	@Failure	404	{object}	common.ErrorResponse
//	@Router		/v1/agency/subscription [get]
func (h *SubscriptionHandlers) GetAgencySubscription(c echo.Context) error {
	ctx := c.Request().Context()
	agencyID, ok := common.GetAgencyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	sub, err := h.billing.GetAgencySubscription(ctx, agencyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}
