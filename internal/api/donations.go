package api

import (
	"github.com/petcove/petcove-api/internal/services/auth"
	"github.com/petcove/petcove-api/internal/services/donations"
	"github.com/petcove/petcove-api/internal/services/payments"

	"github.com/gofiber/fiber/v2"
)

type DonationsHandler struct {
	stripe    *payments.StripeService
	donations *donations.Service
}

func NewDonationsHandler(stripe *payments.StripeService, donationSvc *donations.Service) *DonationsHandler {
	return &DonationsHandler{
		stripe:    stripe,
		donations: donationSvc,
	}
}

// CreateDonationRequest represents the request body for a shelter donation
type CreateDonationRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Message     string `json:"message"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
}

// CreateDonation opens a checkout session for a one-off donation. The route
// is also mounted outside the authenticated group; without a token the
// donation is recorded anonymously with an empty user id.
func (h *DonationsHandler) CreateDonation(c *fiber.Ctx) error {
	userID, _ := auth.GetUserID(c)

	var req CreateDonationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.AmountCents <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "amount_cents must be greater than 0",
		})
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "success_url and cancel_url are required",
		})
	}

	donation, checkoutURL, err := h.stripe.CreateDonationCheckout(
		c.UserContext(), userID, req.AmountCents, req.Message, req.SuccessURL, req.CancelURL)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"donation":     donation,
		"checkout_url": checkoutURL,
	})
}

// ListDonations returns a page of the current user's donations.
func (h *DonationsHandler) ListDonations(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	limit, offset := pagination(c)

	list, err := h.donations.ListForUser(c.UserContext(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"donations": list,
		"limit":     limit,
		"offset":    offset,
	})
}
