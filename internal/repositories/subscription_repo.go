package repositories

import (
	"context"

	"reviso/internal/models"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByAgencyID(ctx context.Context, agencyID uuid.UUID) (*models.Subscription, error)
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Subscription, error)
	// GetByProviderIDForUpdate locks the subscription row until the surrounding
	// transaction ends.
	GetByProviderIDForUpdate(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error)
	UpdateState(ctx context.Context, subscription *models.Subscription) error
}

type subscriptionRepo struct {
	db Database
}

func NewSubscriptionRepo(db Database) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, agency_id, plan_id, provider_subscription_id, provider_customer_id, checkout_session_id, status, current_period_start, current_period_end, created_at, updated_at`

func (r *subscriptionRepo) Create(ctx context.Context, s *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, agency_id, plan_id, provider_subscription_id, provider_customer_id, checkout_session_id, status, current_period_start, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`
	_, err := r.db.Exec(ctx, query, s.ID, s.AgencyID, s.PlanID, s.ProviderSubscriptionID, s.ProviderCustomerID, s.CheckoutSessionID, string(s.Status), s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CreatedAt)
	return translate(err)
}

func (r *subscriptionRepo) GetByAgencyID(ctx context.Context, agencyID uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE agency_id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, agencyID))
}

func (r *subscriptionRepo) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE checkout_session_id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, sessionID))
}

func (r *subscriptionRepo) GetByProviderIDForUpdate(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE provider_subscription_id = $1 FOR UPDATE`
	return scanSubscription(r.db.QueryRow(ctx, query, providerSubscriptionID))
}

func (r *subscriptionRepo) UpdateState(ctx context.Context, s *models.Subscription) error {
	query := `
		UPDATE subscriptions
		SET status = $2, current_period_start = $3, current_period_end = $4, provider_customer_id = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, s.ID, string(s.Status), s.CurrentPeriodStart, s.CurrentPeriodEnd, s.ProviderCustomerID, s.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	s := &models.Subscription{}
	var status string
	err := row.Scan(&s.ID, &s.AgencyID, &s.PlanID, &s.ProviderSubscriptionID, &s.ProviderCustomerID, &s.CheckoutSessionID, &status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	s.Status = models.SubscriptionStatus(status)
	return s, nil
}
