package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/marinelli-collision/bodyshop-api/config"
)

// PaymentProcessor wraps the external payment processor: creating intents
// and verifying webhook deliveries. Absence of configuration is decided at
// construction time: InitPaymentProcessor returns an unconfigured variant
// that fails fast with ErrProcessorUnavailable instead of scattering nil
// checks across call sites.
type PaymentProcessor interface {
	// CreateIntent creates a payment intent for the given amount and
	// returns its id plus the client-side confirmation secret.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (intentID, clientSecret string, err error)

	// VerifyWebhook checks the signature on a raw webhook delivery and
	// returns the parsed event. A missing secret fails closed.
	VerifyWebhook(payload []byte, signature string) (*stripe.Event, error)
}

// processorCallTimeout bounds every outbound call to the processor API
const processorCallTimeout = 15 * time.Second

var paymentProcessorInstance PaymentProcessor

// InitPaymentProcessor builds the processor from configuration. With no
// secret key configured it returns the unconfigured variant.
func InitPaymentProcessor(cfg *config.Config) PaymentProcessor {
	if !cfg.StripeConfigured() {
		log.Println("Stripe secret key not configured, payment intents disabled")
		paymentProcessorInstance = &UnconfiguredProcessor{}
		return paymentProcessorInstance
	}

	paymentProcessorInstance = &StripeProcessor{
		client:        stripe.NewClient(cfg.StripeSecretKey, nil),
		webhookSecret: cfg.StripeWebhookSecret,
	}
	log.Println("Stripe payment processor initialized")
	return paymentProcessorInstance
}

// GetPaymentProcessor returns the initialized processor instance
func GetPaymentProcessor() PaymentProcessor {
	return paymentProcessorInstance
}

// SetPaymentProcessor sets the processor instance (primarily for testing)
func SetPaymentProcessor(p PaymentProcessor) {
	paymentProcessorInstance = p
}

// StripeProcessor implements PaymentProcessor against the Stripe API
type StripeProcessor struct {
	client        *stripe.Client
	webhookSecret string
}

// CreateIntent creates a Stripe PaymentIntent
func (p *StripeProcessor) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, processorCallTimeout)
	defer cancel()

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	intent, err := p.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	return intent.ID, intent.ClientSecret, nil
}

// VerifyWebhook verifies the Stripe-Signature header against the configured
// webhook secret. A missing secret is treated the same as a bad signature,
// never as "trust everything".
func (p *StripeProcessor) VerifyWebhook(payload []byte, signature string) (*stripe.Event, error) {
	if p.webhookSecret == "" {
		return nil, ErrInvalidSignature
	}

	// Ignore API version mismatch so a dashboard version bump does not
	// silently drop payments.
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, options)
	if err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		return nil, ErrInvalidSignature
	}
	return &event, nil
}

// UnconfiguredProcessor is the variant used when no Stripe credentials are
// configured. Every operation fails fast without touching local state.
type UnconfiguredProcessor struct{}

// CreateIntent always fails with ErrProcessorUnavailable
func (UnconfiguredProcessor) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (string, string, error) {
	return "", "", ErrProcessorUnavailable
}

// VerifyWebhook fails closed: with no secret there is nothing to verify against
func (UnconfiguredProcessor) VerifyWebhook(payload []byte, signature string) (*stripe.Event, error) {
	return nil, ErrInvalidSignature
}
