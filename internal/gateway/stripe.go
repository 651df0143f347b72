package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/romariomartinez/ApiEcommerce/internal/app"
)

var cents = decimal.NewFromInt(100)

// Stripe creates payment intents against the Stripe API. The intent carries
// the order id as metadata so webhook events can be tied back to the order.
type Stripe struct {
	api *client.API
}

func NewStripe(secretKey string) *Stripe {
	return &Stripe{api: client.New(secretKey, nil)}
}

func (s *Stripe) CreateIntent(ctx context.Context, orderID string, amount decimal.Decimal) (app.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.Mul(cents).IntPart()),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.Context = ctx
	params.AddMetadata("order_id", orderID)

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return app.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return app.PaymentIntent{
		TransactionID: intent.ID,
		ClientSecret:  intent.ClientSecret,
	}, nil
}
