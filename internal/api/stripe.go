package api

import (
	"io"

	"github.com/petcove/petcove-api/internal/models"
	"github.com/petcove/petcove-api/internal/services/payments"

	"github.com/gofiber/fiber/v2"
)

type StripeWebhookHandler struct {
	stripe *payments.StripeService
}

func NewStripeWebhookHandler(stripe *payments.StripeService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		stripe: stripe,
	}
}

// HandleWebhook processes Stripe webhook events
func (h *StripeWebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	payload, err := io.ReadAll(c.Context().RequestBodyStream())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read request body",
		})
	}

	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing Stripe-Signature header",
		})
	}

	if err := h.stripe.HandleWebhook(c.UserContext(), payload, signature); err != nil {
		if appErr, ok := models.AsAppError(err); ok && appErr.Type == models.ErrorTypeSignature {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid webhook signature",
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process webhook",
		})
	}

	// Return 200 OK to acknowledge receipt
	return c.JSON(fiber.Map{
		"received": true,
	})
}
