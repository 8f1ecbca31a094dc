package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/subscription"

	"github.com/majdjoubi/halqa/internal/events"
	"github.com/majdjoubi/halqa/internal/models"
)

// PaymentService wraps Stripe for donations and recurring subscriptions.
// Stripe calls are server-side only; the client confirms intents with the
// returned client secret.
type PaymentService struct {
	donations models.DonationRepo
	producer  events.Producer
	logger    *slog.Logger
}

func NewPaymentService(donations models.DonationRepo, producer events.Producer, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		donations: donations,
		producer:  producer,
		logger:    logger,
	}
}

// CreateDonationIntent creates a Stripe payment intent for a one-off
// donation and records it. Returns the donation and the client secret the
// checkout UI needs to confirm the payment.
func (ps *PaymentService) CreateDonationIntent(ctx context.Context, donation *models.Donation) (*models.Donation, string, error) {
	if err := models.Validate.Struct(donation); err != nil {
		return nil, "", fmt.Errorf("invalid donation data: %v", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(donation.Amount),
		Currency: stripe.String(strings.ToLower(donation.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("purpose", "donation")
	if donation.DonorID != "" {
		params.AddMetadata("donor_id", donation.DonorID)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create payment intent: %v", err)
	}

	donation.PaymentIntentID = intent.ID
	donation.Status = string(intent.Status)

	recorded, err := ps.donations.RecordDonation(ctx, donation)
	if err != nil {
		// The intent exists at Stripe either way; log and return it so the
		// payment can still complete.
		ps.logger.Error("failed to record donation", "payment_intent", intent.ID, "error", err)
		recorded = donation
	}

	if ps.producer != nil {
		payload := map[string]interface{}{
			"payment_intent_id": intent.ID,
			"amount":            donation.Amount,
			"currency":          donation.Currency,
			"donor_id":          donation.DonorID,
		}
		if err := ps.producer.Publish(ctx, events.KeyDonationMade, payload); err != nil {
			ps.logger.Warn("donation event publish failed", "payment_intent", intent.ID, "error", err)
		}
	}

	return recorded, intent.ClientSecret, nil
}

func (ps *PaymentService) ListDonationsByDonor(ctx context.Context, donorID string) ([]*models.Donation, error) {
	if strings.TrimSpace(donorID) == "" {
		return nil, fmt.Errorf("donor ID is required")
	}
	return ps.donations.ListDonationsByDonor(ctx, donorID)
}

// CreateSubscription subscribes the given email to a recurring price. The
// subscription starts incomplete; the returned client secret confirms the
// first invoice's payment.
func (ps *PaymentService) CreateSubscription(ctx context.Context, email, priceID string) (string, string, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return "", "", fmt.Errorf("invalid email format: %v", err)
	}
	if strings.TrimSpace(priceID) == "" {
		return "", "", fmt.Errorf("price ID is required")
	}

	cus, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(email),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to create customer: %v", err)
	}

	sub, err := subscription.New(&stripe.SubscriptionParams{
		Customer: stripe.String(cus.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
		Expand: []*string{stripe.String("latest_invoice.payment_intent")},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to create subscription: %v", err)
	}

	clientSecret := ""
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		clientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}

	return sub.ID, clientSecret, nil
}

func (ps *PaymentService) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if strings.TrimSpace(subscriptionID) == "" {
		return fmt.Errorf("subscription ID is required")
	}
	if _, err := subscription.Cancel(subscriptionID, nil); err != nil {
		return fmt.Errorf("failed to cancel subscription: %v", err)
	}
	return nil
}
