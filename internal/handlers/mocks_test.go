package handlers

import (
	"context"
	"sync"
	"time"

	"reviso/internal/config"
	"reviso/internal/models"
	"reviso/internal/repositories"
	"reviso/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) Provider() string { return "mock" }

func (m *MockBillingService) StartCheckout(ctx context.Context, req services.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBillingService) ConfirmPayment(ctx context.Context, tx *repositories.Repositories, effects *services.Effects, providerSubscriptionID, customerID string) error {
	return m.Called(ctx, tx, effects, providerSubscriptionID, customerID).Error(0)
}

func (m *MockBillingService) GetCheckoutStatus(ctx context.Context, sessionID string) (*services.CheckoutStatus, error) {
	args := m.Called(ctx, sessionID)
	status, _ := args.Get(0).(*services.CheckoutStatus)
	return status, args.Error(1)
}

func (m *MockBillingService) GetAgencySubscription(ctx context.Context, agencyID uuid.UUID) (*services.AgencySubscription, error) {
	args := m.Called(ctx, agencyID)
	sub, _ := args.Get(0).(*services.AgencySubscription)
	return sub, args.Error(1)
}

type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) ListActive(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]*models.SubscriptionPlan)
	return plans, args.Error(1)
}

func (m *MockPlanService) SeedCatalog(ctx context.Context, catalog *config.PlanCatalog) (int, error) {
	args := m.Called(ctx, catalog)
	return args.Int(0), args.Error(1)
}

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) Process(ctx context.Context, payload []byte, signature string) (*services.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	result, _ := args.Get(0).(*services.WebhookResult)
	return result, args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	token, _ := args.Get(0).(*models.TokenResponse)
	return token, args.Error(1)
}

func (m *MockAuthService) GenerateToken(user *models.User) (*models.TokenResponse, error) {
	args := m.Called(user)
	token, _ := args.Get(0).(*models.TokenResponse)
	return token, args.Error(1)
}

func (m *MockAuthService) ValidateToken(token string) (*services.TokenClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*services.TokenClaims)
	return claims, args.Error(1)
}

func (m *MockAuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type MockProvisioning struct {
	mock.Mock
}

func (m *MockProvisioning) ProvisionTenant(ctx context.Context, agencyID uuid.UUID) (string, error) {
	args := m.Called(ctx, agencyID)
	return args.String(0), args.Error(1)
}

func (m *MockProvisioning) ReconcileUnprovisioned(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type MockOnboarding struct {
	mock.Mock
}

func (m *MockOnboarding) CompleteCheckout(ctx context.Context, tx *repositories.Repositories, effects *services.Effects, in services.CheckoutCompletion) error {
	return m.Called(ctx, tx, effects, in).Error(0)
}

func (m *MockOnboarding) HandlePaymentFailed(ctx context.Context, tx *repositories.Repositories, effects *services.Effects, subID string) error {
	return m.Called(ctx, tx, effects, subID).Error(0)
}

func (m *MockOnboarding) HandleSubscriptionUpdated(ctx context.Context, tx *repositories.Repositories, effects *services.Effects, update services.SubscriptionUpdate) error {
	return m.Called(ctx, tx, effects, update).Error(0)
}

func (m *MockOnboarding) HandleSubscriptionDeleted(ctx context.Context, tx *repositories.Repositories, effects *services.Effects, subID string) error {
	return m.Called(ctx, tx, effects, subID).Error(0)
}

// ledgerStore is a Store holding only the webhook ledger. A failed
// transaction leaves the ledger untouched.
type ledgerStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newLedgerStore() *ledgerStore {
	return &ledgerStore{seen: map[string]bool{}}
}

func (s *ledgerStore) Repos() *repositories.Repositories {
	return &repositories.Repositories{WebhookEvents: &ledgerTx{store: s, pending: map[string]bool{}}}
}

func (s *ledgerStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos *repositories.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &ledgerTx{store: s, pending: map[string]bool{}}
	if err := fn(ctx, &repositories.Repositories{WebhookEvents: tx}); err != nil {
		return err
	}
	for id := range tx.pending {
		s.seen[id] = true
	}
	return nil
}

type ledgerTx struct {
	store   *ledgerStore
	pending map[string]bool
}

func (t *ledgerTx) InsertIfAbsent(_ context.Context, eventID, _ string, _ time.Time) (bool, error) {
	if t.store.seen[eventID] || t.pending[eventID] {
		return false, nil
	}
	t.pending[eventID] = true
	return true, nil
}
