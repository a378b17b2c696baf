package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviso/internal/common"
	"reviso/internal/metrics"
	"reviso/internal/models"
	"reviso/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Effects collects work that may only run once the surrounding
// transaction has committed.
type Effects struct {
	fns []func(ctx context.Context)
}

func (e *Effects) Defer(fn func(ctx context.Context)) {
	if e == nil {
		return
	}
	e.fns = append(e.fns, fn)
}

// Run executes the collected work in registration order.
func (e *Effects) Run(ctx context.Context) {
	if e == nil {
		return
	}
	for _, fn := range e.fns {
		fn(ctx)
	}
	e.fns = nil
}

func (e *Effects) Len() int {
	if e == nil {
		return 0
	}
	return len(e.fns)
}

// StatusCache drops cached subscription statuses after a change.
type StatusCache interface {
	InvalidateSubscriptionStatus(ctx context.Context, agencyID uuid.UUID) error
}

// lifecycle holds the subscription and agency mutations shared by the
// billing providers and the webhook handlers.
type lifecycle struct {
	provisioner TenantProvisioningService
	notifier    NotificationService
	cache       StatusCache
	now         func() time.Time
}

// Lifecycle bundles the collaborators invoked when subscriptions change.
// Notifier and Cache are optional.
type Lifecycle struct {
	Provisioner TenantProvisioningService
	Notifier    NotificationService
	Cache       StatusCache
	Now         func() time.Time
}

func newLifecycle(deps Lifecycle) *lifecycle {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &lifecycle{
		provisioner: deps.Provisioner,
		notifier:    deps.Notifier,
		cache:       deps.Cache,
		now:         now,
	}
}

// transition validates and persists a status change on a locked row.
func (l *lifecycle) transition(ctx context.Context, tx *repositories.Repositories, effects *Effects, sub *models.Subscription, to models.SubscriptionStatus) error {
	from := sub.Status
	if err := sub.TransitionTo(to, l.now()); err != nil {
		return err
	}
	if err := tx.Subscriptions.UpdateState(ctx, sub); err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	l.recordTransition(effects, sub.AgencyID, from, to)
	return nil
}

func (l *lifecycle) recordTransition(effects *Effects, agencyID uuid.UUID, from, to models.SubscriptionStatus) {
	log.Info().
		Str("agency_id", agencyID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("subscription status changed")

	effects.Defer(func(ctx context.Context) {
		metrics.SubscriptionTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
		if l.cache == nil {
			return
		}
		if err := l.cache.InvalidateSubscriptionStatus(ctx, agencyID); err != nil {
			log.Warn().Err(err).Str("agency_id", agencyID.String()).Msg("failed to invalidate subscription status cache")
		}
	})
}

// activate flips the agency activation flag. Only the call that flips it
// schedules provisioning and the welcome notification.
func (l *lifecycle) activate(ctx context.Context, tx *repositories.Repositories, effects *Effects, agencyID uuid.UUID) error {
	activated, err := tx.Agencies.Activate(ctx, agencyID)
	if err != nil {
		return fmt.Errorf("activate agency: %w", err)
	}
	if !activated {
		log.Debug().Str("agency_id", agencyID.String()).Msg("agency already active")
		return nil
	}

	agency, err := tx.Agencies.GetByID(ctx, agencyID)
	if err != nil {
		return fmt.Errorf("load agency: %w", err)
	}
	log.Info().Str("agency_id", agencyID.String()).Msg("agency activated")

	effects.Defer(func(ctx context.Context) {
		l.onActivated(ctx, agency)
	})
	return nil
}

func (l *lifecycle) onActivated(ctx context.Context, agency *models.Agency) {
	if l.provisioner != nil {
		if _, err := l.provisioner.ProvisionTenant(ctx, agency.ID); err != nil && !errors.Is(err, ErrAlreadyProvisioned) {
			log.Error().Err(err).
				Str("agency_id", agency.ID.String()).
				Msg("tenant provisioning failed, reconcile job will retry")
		}
	}
	if l.notifier != nil {
		if err := l.notifier.SendWelcome(ctx, agency.ContactEmail, agency.Name); err != nil {
			log.Warn().Err(err).
				Str("agency_id", agency.ID.String()).
				Str("to", common.MaskEmail(agency.ContactEmail)).
				Msg("welcome email failed")
		}
	}
}

type newAccount struct {
	AgencyName             string
	AdminEmail             string
	PasswordHash           string
	PlanID                 uuid.UUID
	Status                 models.SubscriptionStatus
	CheckoutSessionID      string
	ProviderSubscriptionID string
	ProviderCustomerID     string
	PeriodStart            *time.Time
	PeriodEnd              *time.Time
}

// createAccount inserts an inactive agency with its admin user and
// subscription.
func (l *lifecycle) createAccount(ctx context.Context, tx *repositories.Repositories, in newAccount) (*models.Agency, *models.Subscription, error) {
	now := l.now()

	agency := &models.Agency{
		ID:           uuid.New(),
		Name:         in.AgencyName,
		ContactEmail: in.AdminEmail,
		Active:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Agencies.Create(ctx, agency); err != nil {
		return nil, nil, fmt.Errorf("create agency: %w", err)
	}

	admin := &models.User{
		ID:           uuid.New(),
		AgencyID:     agency.ID,
		Email:        in.AdminEmail,
		PasswordHash: in.PasswordHash,
		FullName:     in.AgencyName + " Admin",
		Role:         models.RoleAgencyAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Users.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, nil, ErrEmailTaken.Wrap(err)
		}
		return nil, nil, fmt.Errorf("create admin user: %w", err)
	}

	sub := &models.Subscription{
		ID:                     uuid.New(),
		AgencyID:               agency.ID,
		PlanID:                 in.PlanID,
		ProviderSubscriptionID: optionalString(in.ProviderSubscriptionID),
		ProviderCustomerID:     optionalString(in.ProviderCustomerID),
		CheckoutSessionID:      optionalString(in.CheckoutSessionID),
		Status:                 in.Status,
		CurrentPeriodStart:     in.PeriodStart,
		CurrentPeriodEnd:       in.PeriodEnd,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := tx.Subscriptions.Create(ctx, sub); err != nil {
		return nil, nil, fmt.Errorf("create subscription: %w", err)
	}
	return agency, sub, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
