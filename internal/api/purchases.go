package api

import (
	"github.com/petcove/petcove-api/internal/services/auth"
	"github.com/petcove/petcove-api/internal/services/payments"
	"github.com/petcove/petcove-api/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
)

type PurchasesHandler struct {
	stripe    *payments.StripeService
	purchases *wallet.PurchaseService
}

func NewPurchasesHandler(stripe *payments.StripeService, purchases *wallet.PurchaseService) *PurchasesHandler {
	return &PurchasesHandler{
		stripe:    stripe,
		purchases: purchases,
	}
}

// CreatePurchaseRequest represents the request body for opening a checkout
type CreatePurchaseRequest struct {
	CreditBundleID uint   `json:"credit_bundle_id"`
	SuccessURL     string `json:"success_url"`
	CancelURL      string `json:"cancel_url"`
}

// CreatePurchase opens a Stripe Checkout session for a credit bundle and
// returns the pending purchase with the hosted checkout URL.
func (h *PurchasesHandler) CreatePurchase(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.CreditBundleID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "credit_bundle_id is required",
		})
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "success_url and cancel_url are required",
		})
	}

	purchase, checkoutURL, err := h.stripe.CreatePurchaseCheckout(
		c.UserContext(), userID, req.CreditBundleID, req.SuccessURL, req.CancelURL)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"purchase":     purchase,
		"checkout_url": checkoutURL,
	})
}

// ListPurchases returns a page of the current user's purchases.
func (h *PurchasesHandler) ListPurchases(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	limit, offset := pagination(c)

	purchases, err := h.purchases.ListForUser(c.UserContext(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"purchases": purchases,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetPurchase returns a single purchase to its owner only.
func (h *PurchasesHandler) GetPurchase(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	purchaseID, err := c.ParamsInt("id")
	if err != nil || purchaseID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid purchase id",
		})
	}

	purchase, err := h.purchases.GetForUser(c.UserContext(), uint(purchaseID), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"purchase": purchase,
	})
}
