package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
)

// CheckoutSessionInput describes a hosted subscription checkout.
type CheckoutSessionInput struct {
	PriceRef      string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

// CheckoutSession is the provider's answer: an opaque id and the URL the
// customer is redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutGateway opens checkout sessions with the billing provider.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
}

type stripeCheckoutGateway struct {
	createCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewStripeCheckoutGateway configures the global stripe client with a
// bounded timeout and no automatic retries.
func NewStripeCheckoutGateway(apiKey string, timeout time.Duration) CheckoutGateway {
	stripe.Key = strings.TrimSpace(apiKey)
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	}))
	return &stripeCheckoutGateway{createCheckoutSession: stripesession.New}
}

func (g *stripeCheckoutGateway) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:    stripe.String(in.SuccessURL),
		CancelURL:     stripe.String(in.CancelURL),
		CustomerEmail: stripe.String(in.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceRef),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: in.Metadata,
	}
	params.Context = ctx

	session, err := g.createCheckoutSession(params)
	if err != nil {
		return nil, err
	}
	if session == nil || strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.URL) == "" {
		return nil, errors.New("checkout session response missing id or url")
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}
