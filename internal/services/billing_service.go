package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviso/internal/common"
	"reviso/internal/metrics"
	"reviso/internal/models"
	"reviso/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"
	pendingCheckoutStatus      = "PENDING"
	expiredCheckoutStatus      = "EXPIRED"
)

type CheckoutRequest struct {
	PlanID        uuid.UUID `json:"plan_id" validate:"required"`
	AgencyName    string    `json:"agency_name" validate:"required,min=2,max=120"`
	AdminEmail    string    `json:"admin_email" validate:"required,email,max=254"`
	AdminPassword string    `json:"admin_password" validate:"required,min=8,max=72"`
}

type CheckoutStatus struct {
	Status           string     `json:"status"`
	PlanName         string     `json:"plan_name"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	Active           bool       `json:"active"`
}

type AgencySubscription struct {
	Subscription *models.Subscription     `json:"subscription"`
	Plan         *models.SubscriptionPlan `json:"plan"`
	Access       models.Access            `json:"access"`
}

// BillingService is implemented once per billing provider. The provider is
// chosen at startup.
type BillingService interface {
	Provider() string
	// StartCheckout returns the URL the new customer is sent to.
	StartCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	// ConfirmPayment converges a paid subscription to ACTIVE inside tx.
	ConfirmPayment(ctx context.Context, tx *repositories.Repositories, effects *Effects, providerSubscriptionID, customerID string) error
	GetCheckoutStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error)
	GetAgencySubscription(ctx context.Context, agencyID uuid.UUID) (*AgencySubscription, error)
}

// BillingDeps are the collaborators shared by every provider.
type BillingDeps struct {
	Store           repositories.Store
	Lifecycle       Lifecycle
	FrontendBaseURL string
	// HashPassword defaults to bcrypt.
	HashPassword func(password string) (string, error)
}

type billingCore struct {
	*lifecycle
	store           repositories.Store
	hashPassword    func(string) (string, error)
	frontendBaseURL string
}

func newBillingCore(deps BillingDeps) *billingCore {
	hash := deps.HashPassword
	if hash == nil {
		hash = HashPassword
	}
	return &billingCore{
		lifecycle:       newLifecycle(deps.Lifecycle),
		store:           deps.Store,
		hashPassword:    hash,
		frontendBaseURL: strings.TrimRight(deps.FrontendBaseURL, "/"),
	}
}

func (c *billingCore) successURL() string {
	return c.frontendBaseURL + "/onboarding/success?session_id=" + checkoutSessionPlaceholder
}

func (c *billingCore) cancelURL() string {
	return c.frontendBaseURL + "/onboarding/cancel"
}

type signupInput struct {
	plan         *models.SubscriptionPlan
	agencyName   string
	email        string
	passwordHash string
}

// prepareSignup runs the checks shared by every provider and hashes the
// password.
func (c *billingCore) prepareSignup(ctx context.Context, req CheckoutRequest, requirePrice bool) (*signupInput, error) {
	agencyName := strings.TrimSpace(req.AgencyName)
	email := common.NormalizeEmail(req.AdminEmail)
	if agencyName == "" {
		return nil, common.NewError(common.KindValidation, "AGENCY_NAME_REQUIRED", "Agency name is required.")
	}
	if email == "" || req.AdminPassword == "" {
		return nil, common.NewError(common.KindValidation, "CREDENTIALS_REQUIRED", "Admin email and password are required.")
	}

	repos := c.store.Repos()
	plan, err := repos.Plans.GetByID(ctx, req.PlanID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if !plan.Active {
		return nil, ErrPlanInactive
	}
	if requirePrice && !plan.HasPriceConfigured() {
		return nil, ErrPlanNotConfigured
	}

	taken, err := repos.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := c.hashPassword(req.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &signupInput{plan: plan, agencyName: agencyName, email: email, passwordHash: hash}, nil
}

func (c *billingCore) GetCheckoutStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrCheckoutNotFound
	}
	repos := c.store.Repos()

	sub, err := repos.Subscriptions.GetByCheckoutSessionID(ctx, sessionID)
	switch {
	case err == nil:
		plan, err := repos.Plans.GetByID(ctx, sub.PlanID)
		if err != nil {
			return nil, fmt.Errorf("load plan: %w", err)
		}
		return &CheckoutStatus{
			Status:           string(sub.Status),
			PlanName:         plan.Name,
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
			Active:           sub.IsActive(),
		}, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	signup, err := repos.PendingSignups.GetBySessionID(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCheckoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pending signup: %w", err)
	}
	plan, err := repos.Plans.GetByID(ctx, signup.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}

	status := pendingCheckoutStatus
	if signup.IsExpired(c.now()) {
		status = expiredCheckoutStatus
	}
	expiresAt := signup.ExpiresAt
	return &CheckoutStatus{
		Status:    status,
		PlanName:  plan.Name,
		ExpiresAt: &expiresAt,
		Active:    false,
	}, nil
}

func (c *billingCore) GetAgencySubscription(ctx context.Context, agencyID uuid.UUID) (*AgencySubscription, error) {
	repos := c.store.Repos()
	sub, err := repos.Subscriptions.GetByAgencyID(ctx, agencyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	plan, err := repos.Plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	return &AgencySubscription{
		Subscription: sub,
		Plan:         plan,
		Access:       models.AccessFor(sub.Status),
	}, nil
}

type stripeBillingService struct {
	*billingCore
	gateway CheckoutGateway
}

func NewStripeBillingService(deps BillingDeps, gateway CheckoutGateway) BillingService {
	return &stripeBillingService{billingCore: newBillingCore(deps), gateway: gateway}
}

func (s *stripeBillingService) Provider() string { return "stripe" }

func (s *stripeBillingService) StartCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	in, err := s.prepareSignup(ctx, req, true)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(s.Provider(), "rejected").Inc()
		return "", err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutSessionInput{
		PriceRef:      in.plan.PriceRef,
		SuccessURL:    s.successURL(),
		CancelURL:     s.cancelURL(),
		CustomerEmail: in.email,
		Metadata: map[string]string{
			"plan_id":     in.plan.ID.String(),
			"agency_name": in.agencyName,
			"admin_email": in.email,
		},
	})
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(s.Provider(), "provider_error").Inc()
		log.Error().Err(err).
			Str("plan", in.plan.Code).
			Str("email", common.MaskEmail(in.email)).
			Msg("checkout session creation failed")
		return "", ErrPaymentProvider.Wrap(err)
	}

	signup := models.NewPendingSignup(session.ID, in.plan.ID, in.agencyName, in.email, in.passwordHash, s.now())
	if err := s.store.Repos().PendingSignups.Create(ctx, signup); err != nil {
		metrics.CheckoutsTotal.WithLabelValues(s.Provider(), "error").Inc()
		return "", fmt.Errorf("save pending signup: %w", err)
	}

	metrics.CheckoutsTotal.WithLabelValues(s.Provider(), "started").Inc()
	log.Info().
		Str("plan", in.plan.Code).
		Str("email", common.MaskEmail(in.email)).
		Str("checkout_session", common.MaskID(session.ID)).
		Msg("checkout started")
	return session.URL, nil
}

func (s *stripeBillingService) ConfirmPayment(ctx context.Context, tx *repositories.Repositories, effects *Effects, providerSubscriptionID, customerID string) error {
	sub, err := tx.Subscriptions.GetByProviderIDForUpdate(ctx, providerSubscriptionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrSubscriptionNotFound.Wrap(fmt.Errorf("provider subscription %s", common.MaskID(providerSubscriptionID)))
	}
	if err != nil {
		return fmt.Errorf("lock subscription: %w", err)
	}
	if sub.ProviderCustomerID == nil || *sub.ProviderCustomerID != customerID {
		return ErrCustomerMismatch
	}

	if sub.Status != models.StatusActive {
		if !sub.Status.CanTransitionTo(models.StatusActive) {
			log.Warn().
				Str("agency_id", sub.AgencyID.String()).
				Str("status", string(sub.Status)).
				Msg("payment confirmed for subscription that cannot become active, ignoring")
			return nil
		}
		if err := s.transition(ctx, tx, effects, sub, models.StatusActive); err != nil {
			return err
		}
	}
	return s.activate(ctx, tx, effects, sub.AgencyID)
}

type mockBillingService struct {
	*billingCore
	trialDays int
}

// NewMockBillingService signs agencies up immediately on a trial without
// contacting a provider.
func NewMockBillingService(deps BillingDeps, trialDays int) BillingService {
	return &mockBillingService{billingCore: newBillingCore(deps), trialDays: trialDays}
}

func (s *mockBillingService) Provider() string { return "mock" }

func (s *mockBillingService) StartCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	in, err := s.prepareSignup(ctx, req, false)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(s.Provider(), "rejected").Inc()
		return "", err
	}

	sessionID := "mock_" + uuid.NewString()
	start := s.now()
	end := start.AddDate(0, 0, s.trialDays)

	effects := &Effects{}
	var agency *models.Agency
	err = s.store.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		var err error
		agency, _, err = s.createAccount(ctx, tx, newAccount{
			AgencyName:        in.agencyName,
			AdminEmail:        in.email,
			PasswordHash:      in.passwordHash,
			PlanID:            in.plan.ID,
			Status:            models.StatusTrialing,
			CheckoutSessionID: sessionID,
			PeriodStart:       &start,
			PeriodEnd:         &end,
		})
		if err != nil {
			return err
		}
		return s.activate(ctx, tx, effects, agency.ID)
	})
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(s.Provider(), "error").Inc()
		return "", err
	}
	effects.Run(ctx)

	metrics.CheckoutsTotal.WithLabelValues(s.Provider(), "started").Inc()
	log.Info().
		Str("agency_id", agency.ID.String()).
		Str("plan", in.plan.Code).
		Int("trial_days", s.trialDays).
		Msg("trial signup completed")
	return strings.Replace(s.successURL(), checkoutSessionPlaceholder, sessionID, 1), nil
}

// ConfirmPayment is a no-op: trial signups are active from the start.
func (s *mockBillingService) ConfirmPayment(_ context.Context, _ *repositories.Repositories, _ *Effects, providerSubscriptionID, _ string) error {
	log.Debug().Str("subscription", common.MaskID(providerSubscriptionID)).Msg("mock billing ignores payment confirmation")
	return nil
}
