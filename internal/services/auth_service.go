package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviso/internal/common"
	"reviso/internal/models"
	"reviso/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "reviso-auth"
	tokenAudience = "reviso-api"
)

// HashPassword hashes with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// TokenClaims are carried by every access token.
type TokenClaims struct {
	UserID   string          `json:"user_id"`
	AgencyID string          `json:"agency_id"`
	Role     models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles password login and JWT issuance.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	GenerateToken(user *models.User) (*models.TokenResponse, error)
	ValidateToken(token string) (*TokenClaims, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type authService struct {
	repos     *repositories.Repositories
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(repos *repositories.Repositories, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repos:     repos,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	email = common.NormalizeEmail(email)
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.Active || !CheckPassword(user.PasswordHash, password) {
		log.Info().Str("email", common.MaskEmail(email)).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	sub, err := s.repos.Subscriptions.GetByAgencyID(ctx, user.AgencyID)
	switch {
	case err == nil:
		if !models.CanLogin(sub.Status) {
			return nil, ErrLoginBlocked.WithMessage(models.BlockReason(sub.Status))
		}
	case errors.Is(err, repositories.ErrNotFound):
		log.Warn().Str("agency_id", user.AgencyID.String()).Msg("user agency has no subscription")
	default:
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	return s.GenerateToken(user)
}

func (s *authService) GenerateToken(user *models.User) (*models.TokenResponse, error) {
	now := s.now()
	claims := TokenClaims{
		UserID:   user.ID.String(),
		AgencyID: user.AgencyID.String(),
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		UserID:      user.ID.String(),
		AgencyID:    user.AgencyID.String(),
		Role:        user.Role,
		IssuedAt:    now,
	}, nil
}

func (s *authService) ValidateToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken.Wrap(err)
	}
	return claims, nil
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, common.NewError(common.KindNotFound, "USER_NOT_FOUND", "User not found.")
	}
	return user, err
}
