package services

import (
	"context"
	"testing"
	"time"

	"reviso/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	store   *memStore
	service *authService
	user    models.User
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.store = newMemStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(suite.T(), err)

	agency, _ := seedAccount(suite.store, models.StatusActive, true)
	suite.user = models.User{
		ID:           uuid.New(),
		AgencyID:     agency.ID,
		Email:        "owner@acme.test",
		PasswordHash: string(hash),
		Role:         models.RoleAgencyAdmin,
		Active:       true,
	}
	suite.store.addUser(suite.user)

	suite.service = NewAuthService(suite.store.Repos(), "test-secret", time.Hour).(*authService)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) TestLogin_Success() {
	token, err := suite.service.Login(context.Background(), " OWNER@acme.test ", "s3cret-pass")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Bearer", token.TokenType)
	assert.Equal(suite.T(), 3600, token.ExpiresIn)
	assert.Equal(suite.T(), models.RoleAgencyAdmin, token.Role)

	claims, err := suite.service.ValidateToken(token.AccessToken)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.user.ID.String(), claims.UserID)
	assert.Equal(suite.T(), suite.user.AgencyID.String(), claims.AgencyID)
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPassword() {
	_, err := suite.service.Login(context.Background(), "owner@acme.test", "nope")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)

	_, err = suite.service.Login(context.Background(), "ghost@acme.test", "s3cret-pass")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLogin_CanceledSubscriptionIsBlocked() {
	for _, sub := range suite.store.snapshot().subs {
		sub.Status = models.StatusCanceled
		suite.store.addSubscription(sub)
	}

	_, err := suite.service.Login(context.Background(), "owner@acme.test", "s3cret-pass")

	assert.ErrorIs(suite.T(), err, ErrLoginBlocked)
	assert.Contains(suite.T(), err.Error(), "Subscription canceled.")
}

func (suite *AuthServiceTestSuite) TestLogin_UnpaidCanStillLogIn() {
	for _, sub := range suite.store.snapshot().subs {
		sub.Status = models.StatusUnpaid
		suite.store.addSubscription(sub)
	}

	_, err := suite.service.Login(context.Background(), "owner@acme.test", "s3cret-pass")
	assert.NoError(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestValidateToken_RejectsExpiredAndForeignTokens() {
	token, err := suite.service.GenerateToken(&suite.user)
	require.NoError(suite.T(), err)

	suite.service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = suite.service.ValidateToken(token.AccessToken)
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("other"))
	require.NoError(suite.T(), err)
	_, err = suite.service.ValidateToken(foreign)
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw-123456")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "pw-123456"))
	assert.False(t, CheckPassword(hash, "pw-654321"))
}
