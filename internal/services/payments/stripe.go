package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/petcove/petcove-api/internal/models"
	"github.com/petcove/petcove-api/internal/services/donations"
	"github.com/petcove/petcove-api/internal/services/wallet"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeService opens checkout sessions and routes inbound webhook events to
// whichever payment flow owns the session: credit purchases first, donations
// as the fallback.
type StripeService struct {
	secretKey     string
	webhookSecret string
	purchases     *wallet.PurchaseService
	donations     *donations.Service
	dedup         *EventDeduper
}

func NewStripeService(cfg models.StripeConfig, purchases *wallet.PurchaseService, donationSvc *donations.Service, dedup *EventDeduper) *StripeService {
	stripe.Key = cfg.SecretKey

	return &StripeService{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		purchases:     purchases,
		donations:     donationSvc,
		dedup:         dedup,
	}
}

// CreatePurchaseCheckout creates the pending purchase and opens a Stripe
// Checkout session priced from the bundle snapshot. Returns the purchase and
// the hosted checkout URL.
func (s *StripeService) CreatePurchaseCheckout(ctx context.Context, userID string, bundleID uint, successURL, cancelURL string) (*models.CreditPurchase, string, error) {
	bundle, err := s.purchases.GetActiveBundle(ctx, bundleID)
	if err != nil {
		return nil, "", err
	}

	purchase, err := s.purchases.CreatePending(ctx, userID, bundle)
	if err != nil {
		return nil, "", err
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(bundle.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(bundle.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"purchase_id": strconv.FormatUint(uint64(purchase.ID), 10),
			"user_id":     userID,
			"wallet_id":   strconv.FormatUint(uint64(purchase.WalletID), 10),
			"credits":     strconv.FormatInt(purchase.Credits, 10),
		},
	}

	sess, err := session.New(sessionParams)
	if err != nil {
		fiberlog.Errorf("Failed to create checkout session for user %s bundle %d: %v", userID, bundleID, err)
		return nil, "", models.NewExternalServiceError("stripe", err)
	}

	if err := s.purchases.AttachSession(ctx, purchase.ID, sess.ID); err != nil {
		return nil, "", err
	}
	purchase.StripeSessionID = &sess.ID

	return purchase, sess.URL, nil
}

// CreateDonationCheckout records a pending donation and opens its checkout
// session. UserID may be empty for anonymous donors.
func (s *StripeService) CreateDonationCheckout(ctx context.Context, userID string, amountCents int64, message, successURL, cancelURL string) (*models.Donation, string, error) {
	donation, err := s.donations.CreatePending(ctx, userID, amountCents, message)
	if err != nil {
		return nil, "", err
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Shelter donation"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"donation_id": strconv.FormatUint(uint64(donation.ID), 10),
			"user_id":     userID,
		},
	}

	sess, err := session.New(sessionParams)
	if err != nil {
		fiberlog.Errorf("Failed to create donation checkout for user %q: %v", userID, err)
		return nil, "", models.NewExternalServiceError("stripe", err)
	}

	if err := s.donations.AttachSession(ctx, donation.ID, sess.ID); err != nil {
		return nil, "", err
	}
	donation.StripeSessionID = &sess.ID

	return donation, sess.URL, nil
}

// HandleWebhook verifies and dispatches a Stripe webhook event. Unknown
// event types are ignored so new provider events never break the endpoint.
func (s *StripeService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return models.NewSignatureError(err)
	}

	if s.dedup != nil {
		seen, err := s.dedup.Seen(ctx, event.ID)
		if err != nil {
			fiberlog.Warnf("Webhook dedup check failed for event %s: %v", event.ID, err)
		} else if seen {
			fiberlog.Infof("Skipping already-processed webhook event %s", event.ID)
			return nil
		}
	}

	switch event.Type {
	case "checkout.session.completed":
		err = s.handleSessionCompleted(ctx, event)
	case "checkout.session.expired":
		err = s.handleSessionExpired(ctx, event)
	default:
		fiberlog.Debugf("Ignoring webhook event type %s", event.Type)
		return nil
	}
	if err != nil {
		// Leave the event unmarked so the provider's retry is processed.
		return err
	}

	if s.dedup != nil {
		if err := s.dedup.MarkProcessed(ctx, event.ID); err != nil {
			fiberlog.Warnf("Failed to record processed webhook event %s: %v", event.ID, err)
		}
	}

	return nil
}

func (s *StripeService) handleSessionCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	if sess.ID == "" {
		fiberlog.Warnf("Webhook event %s has no session id, skipping", event.ID)
		return nil
	}

	var chargeID *string
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		id := sess.PaymentIntent.ID
		chargeID = &id
	}

	_, err := s.purchases.Complete(ctx, sess.ID, chargeID)
	if err == nil {
		return nil
	}
	if appErr, ok := models.AsAppError(err); !ok || appErr.Type != models.ErrorTypeNotFound {
		return fmt.Errorf("failed to complete credit purchase: %w", err)
	}

	_, err = s.donations.MarkPaid(ctx, sess.ID)
	if err == nil {
		return nil
	}
	if appErr, ok := models.AsAppError(err); ok && appErr.Type == models.ErrorTypeNotFound {
		// Respond success anyway so the provider doesn't retry forever.
		fiberlog.Warnf("No purchase or donation matches session %s, skipping", sess.ID)
		return nil
	}

	return fmt.Errorf("failed to mark donation paid: %w", err)
}

func (s *StripeService) handleSessionExpired(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	if sess.ID == "" {
		fiberlog.Warnf("Webhook event %s has no session id, skipping", event.ID)
		return nil
	}

	_, err := s.purchases.Fail(ctx, sess.ID)
	if err == nil {
		return nil
	}
	if appErr, ok := models.AsAppError(err); !ok || appErr.Type != models.ErrorTypeNotFound {
		return fmt.Errorf("failed to fail credit purchase: %w", err)
	}

	_, err = s.donations.MarkFailed(ctx, sess.ID)
	if err == nil {
		return nil
	}
	if appErr, ok := models.AsAppError(err); ok && appErr.Type == models.ErrorTypeNotFound {
		fiberlog.Warnf("No purchase or donation matches expired session %s, skipping", sess.ID)
		return nil
	}

	return fmt.Errorf("failed to mark donation failed: %w", err)
}
