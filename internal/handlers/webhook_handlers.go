package handlers

import (
	"errors"
	"io"
	"net/http"

	"reviso/internal/common"
	"reviso/internal/services"

	"github.com/labstack/echo/v4"
)

const webhookBodyLimit = 1 << 20

const signatureHeader = "Stripe-Signature"

// WebhookHandlers receives billing provider notifications.
type WebhookHandlers struct {
	webhooks services.WebhookService
}

func NewWebhookHandlers(webhooks services.WebhookService) *WebhookHandlers {
	return &WebhookHandlers{webhooks: webhooks}
}

// StripeWebhook verifies and ingests one provider event. Any non-2xx answer
// makes the provider retry the delivery later.
//
//	@Summary	Billing provider webhook
//	@Tags		onboarding
//	@Accept		json
//	@Produce	json
//	@Param		Stripe-Signature	header		string	true	"t=<unix>,v1=<hex hmac>"
//	@Success	200					{object}	services.WebhookResult
//	@Failure	400					{object}	common.ErrorResponse
//	@Failure	401					{object}	common.ErrorResponse
//	@Failure	500					{object}	common.ErrorResponse
//	@Router		/onboarding/webhook/stripe [post]
func (h *WebhookHandlers) StripeWebhook(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, webhookBodyLimit)
	payload, err := io.ReadAll(req.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, common.CreateErrorResponse("PAYLOAD_TOO_LARGE", "Webhook payload too large", nil))
		}
		return common.SendClientError(c, "Failed to read request body")
	}

	result, err := h.webhooks.Process(req.Context(), payload, req.Header.Get(signatureHeader))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
