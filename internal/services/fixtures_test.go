package services

import (
	"context"
	"encoding/json"
	"time"

	"reviso/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) ProvisionTenant(ctx context.Context, agencyID uuid.UUID) (string, error) {
	args := m.Called(ctx, agencyID)
	return args.String(0), args.Error(1)
}

func (m *MockProvisioner) ReconcileUnprovisioned(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendWelcome(ctx context.Context, to, agencyName string) error {
	args := m.Called(ctx, to, agencyName)
	return args.Error(0)
}

type MockStatusCache struct {
	mock.Mock
}

func (m *MockStatusCache) InvalidateSubscriptionStatus(ctx context.Context, agencyID uuid.UUID) error {
	args := m.Called(ctx, agencyID)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testPlan() models.SubscriptionPlan {
	return models.SubscriptionPlan{
		ID:       uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"),
		Code:     "studio",
		Name:     "Studio",
		PriceRef: "price_studio",
		MaxUsers: 10,
		Active:   true,
	}
}

// seedAccount stores an agency with a provider-linked subscription.
func seedAccount(store *memStore, status models.SubscriptionStatus, agencyActive bool) (models.Agency, models.Subscription) {
	agency := models.Agency{
		ID:           uuid.New(),
		Name:         "Acme Studio",
		ContactEmail: "owner@acme.test",
		Active:       agencyActive,
		CreatedAt:    fixedNow.Add(-time.Hour),
		UpdatedAt:    fixedNow.Add(-time.Hour),
	}
	subID, customerID, sessionID := "sub_123", "cus_123", "cs_test_123"
	sub := models.Subscription{
		ID:                     uuid.New(),
		AgencyID:               agency.ID,
		PlanID:                 testPlan().ID,
		ProviderSubscriptionID: &subID,
		ProviderCustomerID:     &customerID,
		CheckoutSessionID:      &sessionID,
		Status:                 status,
		CreatedAt:              fixedNow.Add(-time.Hour),
		UpdatedAt:              fixedNow.Add(-time.Hour),
	}
	store.addAgency(agency)
	store.addSubscription(sub)
	return agency, sub
}

func eventPayload(id, eventType string, object map[string]any) []byte {
	b, err := json.Marshal(map[string]any{
		"id":     id,
		"object": "event",
		"type":   eventType,
		"data":   map[string]any{"object": object},
	})
	if err != nil {
		panic(err)
	}
	return b
}

func signPayload(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	}).Header
}
