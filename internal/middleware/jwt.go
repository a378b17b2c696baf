package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"reviso/internal/common"
	"reviso/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const callerContextKey = "token_caller"

// TokenValidator turns a bearer token into verified claims.
type TokenValidator interface {
	ValidateToken(token string) (*services.TokenClaims, error)
}

// JWKSValidator verifies tokens signed by an external identity provider.
type JWKSValidator struct {
	jwks *keyfunc.JWKS
}

// NewJWKSValidator fetches the key set and refreshes it in the background
// until Close is called.
func NewJWKSValidator(jwksURL string) (*JWKSValidator, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Warn().Err(err).Msg("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return &JWKSValidator{jwks: jwks}, nil
}

func (v *JWKSValidator) ValidateToken(token string) (*services.TokenClaims, error) {
	claims := &services.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.jwks.Keyfunc)
	if err != nil || !parsed.Valid {
		return nil, services.ErrInvalidToken.Wrap(err)
	}
	return claims, nil
}

func (v *JWKSValidator) Close() {
	v.jwks.EndBackground()
}

// JWTMiddleware authenticates the bearer token and stores the caller's
// user, agency and role in the request context.
func JWTMiddleware(validator TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: callerContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := validator.ValidateToken(auth)
			if err != nil {
				return nil, err
			}
			return callerFromClaims(claims)
		},
		SuccessHandler: func(c echo.Context) {
			who := c.Get(callerContextKey).(*caller)
			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, who.userID)
			ctx = context.WithValue(ctx, common.AgencyIDKey, who.agencyID)
			ctx = context.WithValue(ctx, common.RoleKey, who.role)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}
			return services.ErrInvalidToken
		},
	})
}

// caller is the identity carried by a verified token.
type caller struct {
	userID   uuid.UUID
	agencyID uuid.UUID
	role     string
}

// callerFromClaims rejects tokens whose user or agency id is not a UUID.
func callerFromClaims(claims *services.TokenClaims) (*caller, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, services.ErrInvalidToken.Wrap(fmt.Errorf("user id: %w", err))
	}
	agencyID, err := uuid.Parse(claims.AgencyID)
	if err != nil {
		return nil, services.ErrInvalidToken.Wrap(fmt.Errorf("agency id: %w", err))
	}
	if claims.Role == "" {
		return nil, services.ErrInvalidToken.Wrap(errors.New("role missing"))
	}
	return &caller{userID: userID, agencyID: agencyID, role: string(claims.Role)}, nil
}
