package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

var (
	ErrUpstream        = errors.New("payment processor request failed")
	ErrUpstreamTimeout = errors.New("payment processor request timed out")
)

// StatusPaid is the processor's settled payment status.
const StatusPaid = "paid"

type CheckoutItem struct {
	Title       string
	Description string
	Price       float64 // in dollars
}

type Session struct {
	ID  string
	URL string
}

// Processor creates checkout sessions and reports their settlement status.
type Processor interface {
	CreateSession(ctx context.Context, item CheckoutItem, customerEmail string) (Session, error)
	GetSessionStatus(ctx context.Context, sessionID string) (string, error)
}

// StripeProcessor implements Processor against Stripe's hosted checkout.
// Every outbound call carries an explicit timeout since the processor is the
// only unbounded-latency dependency.
type StripeProcessor struct {
	successURL string
	cancelURL  string
	timeout    time.Duration
}

func NewStripeProcessor(apiKey, successURL, cancelURL string, timeout time.Duration) (*StripeProcessor, error) {
	if apiKey == "" {
		return nil, errors.New("stripe api key is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	stripe.Key = apiKey
	return &StripeProcessor{
		successURL: successURL,
		cancelURL:  cancelURL,
		timeout:    timeout,
	}, nil
}

func (s *StripeProcessor) CreateSession(ctx context.Context, item CheckoutItem, customerEmail string) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(item.Title),
	}
	if item.Description != "" {
		productData.Description = stripe.String(item.Description)
	}

	params := &stripe.CheckoutSessionParams{
		Params:        stripe.Params{Context: ctx},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SubmitType:    stripe.String("pay"),
		CustomerEmail: stripe.String(customerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount:  stripe.Int64(toCents(item.Price)),
					ProductData: productData,
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}

	sess, err := session.New(params)
	if err != nil {
		return Session{}, wrapUpstream(ctx, err)
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeProcessor) GetSessionStatus(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	sess, err := session.Get(sessionID, params)
	if err != nil {
		return "", wrapUpstream(ctx, err)
	}
	return string(sess.PaymentStatus), nil
}

func wrapUpstream(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
