package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func TestStripeCheckoutGateway_BuildsSubscriptionSession(t *testing.T) {
	var got *stripe.CheckoutSessionParams
	gw := &stripeCheckoutGateway{
		createCheckoutSession: func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			got = params
			return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.test/cs_test_123"}, nil
		},
	}

	session, err := gw.CreateCheckoutSession(context.Background(), CheckoutSessionInput{
		PriceRef:      "price_studio",
		SuccessURL:    "https://app.test/onboarding/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "https://app.test/onboarding/cancel",
		CustomerEmail: "owner@acme.test",
		Metadata:      map[string]string{"agency_name": "Acme"},
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_123", session.URL)
	require.NotNil(t, got)
	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *got.Mode)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, "price_studio", *got.LineItems[0].Price)
	assert.Equal(t, int64(1), *got.LineItems[0].Quantity)
	assert.Equal(t, "owner@acme.test", *got.CustomerEmail)
	assert.Equal(t, "Acme", got.Metadata["agency_name"])
}

func TestStripeCheckoutGateway_Errors(t *testing.T) {
	gw := &stripeCheckoutGateway{
		createCheckoutSession: func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			return nil, errors.New("timeout")
		},
	}
	_, err := gw.CreateCheckoutSession(context.Background(), CheckoutSessionInput{PriceRef: "price_1"})
	assert.ErrorContains(t, err, "timeout")

	gw.createCheckoutSession = func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return &stripe.CheckoutSession{ID: "cs_1"}, nil
	}
	_, err = gw.CreateCheckoutSession(context.Background(), CheckoutSessionInput{PriceRef: "price_1"})
	assert.ErrorContains(t, err, "missing id or url")
}
