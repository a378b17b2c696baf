package handlers

import (
	"net/http"
	"strings"

	"reviso/internal/common"
	"reviso/internal/ratelimit"
	"reviso/internal/services"

	"github.com/labstack/echo/v4"
)

// PublicConfig is the billing mode exposed to the signup frontend.
type PublicConfig struct {
	BillingProvider string `json:"billingProvider"`
	TrialDays       int    `json:"trialDays"`
	IsMock          bool   `json:"isMock"`
}

// OnboardingHandlers serves the unauthenticated signup flow.
type OnboardingHandlers struct {
	billing       services.BillingService
	plans         services.PlanService
	signupLimiter *ratelimit.Limiter
	public        PublicConfig
}

func NewOnboardingHandlers(billing services.BillingService, plans services.PlanService, signupLimiter *ratelimit.Limiter, public PublicConfig) *OnboardingHandlers {
	return &OnboardingHandlers{
		billing:       billing,
		plans:         plans,
		signupLimiter: signupLimiter,
		public:        public,
	}
}

// SignupResponse carries the URL the browser is sent to next.
type SignupResponse struct {
	URL string `json:"url"`
}

// Signup starts checkout for a new agency.
//
//	@Summary	Start agency signup
//	@Tags		onboarding
//	@Accept		json
//	@Produce	json
//	@Param		request	body		services.CheckoutRequest	true	"Signup details"
//	@Success	200		{object}	SignupResponse
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	429		{object}	common.ErrorResponse
//	@Failure	502		{object}	common.ErrorResponse
//	@Router		/onboarding/signup [post]
func (h *OnboardingHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	if !h.signupLimiter.Allow(ctx, ratelimit.ClientIP(c.Request())) {
		return h.signupLimiter.Err()
	}

	var req services.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	url, err := h.billing.StartCheckout(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SignupResponse{URL: url})
}

// ListPlans returns the plans open for signup.
//
//	@Summary	List active plans
//	@Tags		onboarding
//	@Produce	json
//	@Success	200	{array}	models.SubscriptionPlan
//	@Router		/onboarding/plans [get]
func (h *OnboardingHandlers) ListPlans(c echo.Context) error {
	plans, err := h.plans.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"plans": plans})
}

// CheckoutStatus reports how far a checkout session has progressed.
//
//	@Summary	Checkout status
//	@Tags		onboarding
//	@Produce	json
//	@Param		session_id	query		string	true	"Checkout session id"
//	@Success	200			{object}	services.CheckoutStatus
//	@Failure	400			{object}	common.ErrorResponse
//	@Failure	404			{object}	common.ErrorResponse
//	@Router		/onboarding/checkout-status [get]
func (h *OnboardingHandlers) CheckoutStatus(c echo.Context) error {
	sessionID := strings.TrimSpace(c.QueryParam("session_id"))
	if sessionID == "" {
		return common.SendValidationError(c, "session_id", "session_id is required")
	}

	status, err := h.billing.GetCheckoutStatus(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// GetPublicConfig exposes the billing mode.
//
//	@Summary	Public billing configuration
//	@Tags		onboarding
//	@Produce	json
//	@Success	200	{object}	PublicConfig
//	@Router		/public/config [get]
func (h *OnboardingHandlers) GetPublicConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.public)
}
