package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviso/internal/common"
	"reviso/internal/models"
	"reviso/internal/repositories"

	"github.com/rs/zerolog/log"
)

// CheckoutCompletion is what the provider reports once a checkout is paid
// for or a trial started.
type CheckoutCompletion struct {
	SessionID              string
	ProviderSubscriptionID string
	CustomerID             string
}

// SubscriptionUpdate is the provider's view of a subscription.
type SubscriptionUpdate struct {
	ProviderSubscriptionID string
	Status                 string
	PeriodStart            *time.Time
	PeriodEnd              *time.Time
}

// OnboardingService applies provider events to local state. Every method
// runs inside the caller's transaction and converges on the reported
// state, so a repeated call is a no-op.
type OnboardingService interface {
	CompleteCheckout(ctx context.Context, tx *repositories.Repositories, effects *Effects, in CheckoutCompletion) error
	HandlePaymentFailed(ctx context.Context, tx *repositories.Repositories, effects *Effects, providerSubscriptionID string) error
	HandleSubscriptionUpdated(ctx context.Context, tx *repositories.Repositories, effects *Effects, update SubscriptionUpdate) error
	HandleSubscriptionDeleted(ctx context.Context, tx *repositories.Repositories, effects *Effects, providerSubscriptionID string) error
}

type onboardingService struct {
	*lifecycle
}

func NewOnboardingService(deps Lifecycle) OnboardingService {
	return &onboardingService{lifecycle: newLifecycle(deps)}
}

func (s *onboardingService) CompleteCheckout(ctx context.Context, tx *repositories.Repositories, effects *Effects, in CheckoutCompletion) error {
	signup, err := tx.PendingSignups.GetBySessionIDForUpdate(ctx, in.SessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		existing, lookupErr := tx.Subscriptions.GetByCheckoutSessionID(ctx, in.SessionID)
		if lookupErr == nil {
			log.Info().
				Str("agency_id", existing.AgencyID.String()).
				Str("checkout_session", common.MaskID(in.SessionID)).
				Msg("checkout already completed")
			return nil
		}
		if !errors.Is(lookupErr, repositories.ErrNotFound) {
			return fmt.Errorf("load subscription by checkout session: %w", lookupErr)
		}
		return ErrPendingSignupNotFound
	}
	if err != nil {
		return fmt.Errorf("lock pending signup: %w", err)
	}

	if signup.IsExpired(s.now()) {
		log.Error().
			Str("checkout_session", common.MaskID(in.SessionID)).
			Time("expired_at", signup.ExpiresAt).
			Msg("checkout completed after pending signup expired, not provisioning")
		return nil
	}

	agency, _, err := s.createAccount(ctx, tx, newAccount{
		AgencyName:             signup.AgencyName,
		AdminEmail:             signup.AdminEmail,
		PasswordHash:           signup.PasswordHash,
		PlanID:                 signup.PlanID,
		Status:                 models.StatusIncomplete,
		CheckoutSessionID:      in.SessionID,
		ProviderSubscriptionID: in.ProviderSubscriptionID,
		ProviderCustomerID:     in.CustomerID,
	})
	if err != nil {
		return err
	}
	if err := tx.PendingSignups.Delete(ctx, signup.ID); err != nil {
		return fmt.Errorf("consume pending signup: %w", err)
	}

	log.Info().
		Str("agency_id", agency.ID.String()).
		Str("email", common.MaskEmail(signup.AdminEmail)).
		Msg("agency created from checkout")
	return nil
}

func (s *onboardingService) HandlePaymentFailed(ctx context.Context, tx *repositories.Repositories, effects *Effects, providerSubscriptionID string) error {
	sub, err := s.lockSubscription(ctx, tx, providerSubscriptionID)
	if err != nil {
		return err
	}

	var to models.SubscriptionStatus
	switch sub.Status {
	case models.StatusActive:
		to = models.StatusPastDue
	case models.StatusPastDue:
		to = models.StatusUnpaid
	default:
		log.Info().
			Str("agency_id", sub.AgencyID.String()).
			Str("status", string(sub.Status)).
			Msg("payment failure does not change subscription status")
		return nil
	}
	return s.transition(ctx, tx, effects, sub, to)
}

func (s *onboardingService) HandleSubscriptionUpdated(ctx context.Context, tx *repositories.Repositories, effects *Effects, update SubscriptionUpdate) error {
	status, err := models.ParseSubscriptionStatus(update.Status)
	if err != nil {
		return ErrUnknownProviderStatus.Wrap(err)
	}

	sub, err := s.lockSubscription(ctx, tx, update.ProviderSubscriptionID)
	if err != nil {
		return err
	}

	from := sub.Status
	changed := false
	if sub.Status != status {
		if err := sub.TransitionTo(status, s.now()); err != nil {
			log.Warn().
				Str("agency_id", sub.AgencyID.String()).
				Str("from", string(sub.Status)).
				Str("to", string(status)).
				Msg("skipping out-of-order subscription update")
			return nil
		}
		changed = true
	}
	if sub.ApplyPeriod(update.PeriodStart, update.PeriodEnd, s.now()) {
		changed = true
	}
	if !changed {
		return nil
	}

	if err := tx.Subscriptions.UpdateState(ctx, sub); err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if from != sub.Status {
		s.recordTransition(effects, sub.AgencyID, from, sub.Status)
	}
	return nil
}

func (s *onboardingService) HandleSubscriptionDeleted(ctx context.Context, tx *repositories.Repositories, effects *Effects, providerSubscriptionID string) error {
	sub, err := s.lockSubscription(ctx, tx, providerSubscriptionID)
	if err != nil {
		return err
	}
	if sub.Status == models.StatusCanceled {
		return nil
	}
	return s.transition(ctx, tx, effects, sub, models.StatusCanceled)
}

func (s *onboardingService) lockSubscription(ctx context.Context, tx *repositories.Repositories, providerSubscriptionID string) (*models.Subscription, error) {
	sub, err := tx.Subscriptions.GetByProviderIDForUpdate(ctx, providerSubscriptionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrSubscriptionNotFound.Wrap(fmt.Errorf("provider subscription %s", common.MaskID(providerSubscriptionID)))
	}
	if err != nil {
		return nil, fmt.Errorf("lock subscription: %w", err)
	}
	return sub, nil
}
