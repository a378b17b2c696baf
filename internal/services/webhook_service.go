package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviso/internal/metrics"
	"reviso/internal/repositories"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type WebhookOutcome string

const (
	OutcomeProcessed WebhookOutcome = "processed"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
)

const (
	eventCheckoutCompleted    = "checkout.session.completed"
	eventInvoicePaid          = "invoice.paid"
	eventInvoicePaymentFailed = "invoice.payment_failed"
	eventSubscriptionUpdated  = "customer.subscription.updated"
	eventSubscriptionDeleted  = "customer.subscription.deleted"
)

// SignatureVerifier authenticates a webhook payload against its
// signature header.
type SignatureVerifier interface {
	Verify(payload []byte, header string) error
}

type stripeSignatureVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewSignatureVerifier checks "t=<unix>,v1=<hex>" headers carrying an
// HMAC-SHA256 of "<t>.<payload>". An empty secret disables verification.
func NewSignatureVerifier(secret string, tolerance time.Duration) SignatureVerifier {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET is empty: webhook signatures will NOT be verified")
	}
	return &stripeSignatureVerifier{secret: secret, tolerance: tolerance}
}

func (v *stripeSignatureVerifier) Verify(payload []byte, header string) error {
	if v.secret == "" {
		log.Warn().Msg("webhook signature verification skipped, no secret configured")
		return nil
	}
	if strings.TrimSpace(header) == "" {
		return ErrInvalidSignature.Wrap(errors.New("missing signature header"))
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, header, v.secret, v.tolerance); err != nil {
		return ErrInvalidSignature.Wrap(err)
	}
	return nil
}

type WebhookResult struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Outcome   WebhookOutcome `json:"outcome"`
}

// WebhookService ingests provider events exactly once.
type WebhookService interface {
	Process(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type webhookService struct {
	verifier   SignatureVerifier
	store      repositories.Store
	billing    BillingService
	onboarding OnboardingService
	now        func() time.Time
}

func NewWebhookService(verifier SignatureVerifier, store repositories.Store, billing BillingService, onboarding OnboardingService) WebhookService {
	return &webhookService{
		verifier:   verifier,
		store:      store,
		billing:    billing,
		onboarding: onboarding,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Process records the event id and dispatches it in one transaction. A
// failed dispatch rolls the ledger row back so the provider's retry is
// processed again, and is always reported as ErrWebhookFailed so the
// provider does retry. Side effects of a committed event run afterwards.
func (s *webhookService) Process(ctx context.Context, payload []byte, signature string) (result *WebhookResult, err error) {
	start := time.Now()
	eventType := "unknown"
	outcome := "failed"
	defer func() {
		metrics.WebhookRequestsTotal.WithLabelValues(eventType, outcome).Inc()
		metrics.WebhookDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	}()

	if err := s.verifier.Verify(payload, signature); err != nil {
		outcome = "invalid_signature"
		log.Warn().Err(err).Str("action", "signature_invalid").Msg("webhook rejected")
		return nil, err
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		outcome = "malformed"
		return nil, ErrMalformedEvent.Wrap(err)
	}
	if event.ID == "" || event.Type == "" {
		outcome = "malformed"
		return nil, ErrMalformedEvent.Wrap(errors.New("event id and type are required"))
	}
	eventType = string(event.Type)
	result = &WebhookResult{EventID: event.ID, EventType: eventType}

	logger := log.With().Str("event_id", event.ID).Str("event_type", eventType).Logger()
	logger.Info().Str("action", "received").Msg("webhook received")

	effects := &Effects{}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		inserted, err := tx.WebhookEvents.InsertIfAbsent(ctx, event.ID, eventType, s.now())
		if err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		if !inserted {
			result.Outcome = OutcomeDuplicate
			return nil
		}
		result.Outcome, err = s.dispatch(ctx, tx, effects, &event)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrMalformedEvent) {
			outcome = "malformed"
		} else {
			err = ErrWebhookFailed.Wrap(err)
		}
		logger.Error().Err(err).
			Str("action", "failed").
			Dur("duration", time.Since(start)).
			Msg("webhook processing failed")
		return result, err
	}

	effects.Run(ctx)

	outcome = string(result.Outcome)
	logger.Info().
		Str("action", outcome).
		Dur("duration", time.Since(start)).
		Msg("webhook handled")
	return result, nil
}

func (s *webhookService) dispatch(ctx context.Context, tx *repositories.Repositories, effects *Effects, event *stripe.Event) (WebhookOutcome, error) {
	switch event.Type {
	case eventCheckoutCompleted:
		var session checkoutSessionObject
		if err := decodeObject(event, &session); err != nil {
			return "", err
		}
		if session.ID == "" {
			return "", ErrMalformedEvent.Wrap(errors.New("checkout session id missing"))
		}
		return OutcomeProcessed, s.onboarding.CompleteCheckout(ctx, tx, effects, CheckoutCompletion{
			SessionID:              session.ID,
			ProviderSubscriptionID: session.Subscription,
			CustomerID:             session.Customer,
		})

	case eventInvoicePaid:
		var invoice invoiceObject
		if err := decodeObject(event, &invoice); err != nil {
			return "", err
		}
		subID := invoice.subscriptionID()
		if subID == "" || invoice.Customer == "" {
			log.Info().Str("event_id", event.ID).Msg("invoice without subscription or customer, ignoring")
			return OutcomeIgnored, nil
		}
		return OutcomeProcessed, s.billing.ConfirmPayment(ctx, tx, effects, subID, invoice.Customer)

	case eventInvoicePaymentFailed:
		var invoice invoiceObject
		if err := decodeObject(event, &invoice); err != nil {
			return "", err
		}
		subID := invoice.subscriptionID()
		if subID == "" {
			log.Info().Str("event_id", event.ID).Msg("failed invoice without subscription, ignoring")
			return OutcomeIgnored, nil
		}
		return OutcomeProcessed, s.onboarding.HandlePaymentFailed(ctx, tx, effects, subID)

	case eventSubscriptionUpdated:
		var sub subscriptionObject
		if err := decodeObject(event, &sub); err != nil {
			return "", err
		}
		if sub.ID == "" {
			return "", ErrMalformedEvent.Wrap(errors.New("subscription id missing"))
		}
		start, end := sub.period()
		return OutcomeProcessed, s.onboarding.HandleSubscriptionUpdated(ctx, tx, effects, SubscriptionUpdate{
			ProviderSubscriptionID: sub.ID,
			Status:                 sub.Status,
			PeriodStart:            start,
			PeriodEnd:              end,
		})

	case eventSubscriptionDeleted:
		var sub subscriptionObject
		if err := decodeObject(event, &sub); err != nil {
			return "", err
		}
		if sub.ID == "" {
			return "", ErrMalformedEvent.Wrap(errors.New("subscription id missing"))
		}
		return OutcomeProcessed, s.onboarding.HandleSubscriptionDeleted(ctx, tx, effects, sub.ID)

	default:
		log.Info().Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("webhook ignored (unhandled type)")
		return OutcomeIgnored, nil
	}
}

func decodeObject(event *stripe.Event, v any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return ErrMalformedEvent.Wrap(errors.New("event data.object missing"))
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return ErrMalformedEvent.Wrap(fmt.Errorf("decode %s: %w", event.Type, err))
	}
	return nil
}

type checkoutSessionObject struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type invoiceObject struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Parent       struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// subscriptionID reads the pre-2025 top-level field first, then the
// invoice parent.
func (i invoiceObject) subscriptionID() string {
	if i.Subscription != "" {
		return i.Subscription
	}
	return i.Parent.SubscriptionDetails.Subscription
}

type subscriptionPeriod struct {
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
}

type subscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	subscriptionPeriod
	Items struct {
		Data []subscriptionPeriod `json:"data"`
	} `json:"items"`
}

// period prefers the subscription-level window and falls back to the
// first item, where newer API versions report it.
func (s subscriptionObject) period() (*time.Time, *time.Time) {
	p := s.subscriptionPeriod
	if p.CurrentPeriodStart == 0 && p.CurrentPeriodEnd == 0 && len(s.Items.Data) > 0 {
		p = s.Items.Data[0]
	}
	return unixTime(p.CurrentPeriodStart), unixTime(p.CurrentPeriodEnd)
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
