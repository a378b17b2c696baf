package handlers

import (
	"net/http"

	"reviso/internal/common"
	"reviso/internal/models"
	"reviso/internal/ratelimit"
	"reviso/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles login and the caller's profile.
type AuthHandlers struct {
	authService  services.AuthService
	loginLimiter *ratelimit.Limiter
}

func NewAuthHandlers(authService services.AuthService, loginLimiter *ratelimit.Limiter) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges email and password for an access token.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		LoginRequest	true	"Credentials"
//	@Success	200		{object}	models.TokenResponse
//	@Failure	401		{object}	common.ErrorResponse
//	@Failure	403		{object}	common.ErrorResponse
//	@Failure	429		{object}	common.ErrorResponse
//	@Router		/v1/auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	if !h.loginLimiter.Allow(ctx, ratelimit.ClientIP(c.Request())) {
		return h.loginLimiter.Err()
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, token)
}

// MeResponse is the authenticated caller.
type MeResponse struct {
	User *models.User `json:"user"`
}

// Me returns the authenticated user.
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	MeResponse
//	@Failure	401	{object}	common.ErrorResponse
//	@Router		/v1/me [get]
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	user, err := h.authService.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MeResponse{User: user})
}
