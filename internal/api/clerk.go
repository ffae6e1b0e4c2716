package api

import (
	"encoding/json"
	"io"

	"github.com/petcove/petcove-api/internal/services/gdpr"
	"github.com/petcove/petcove-api/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	svix "github.com/svix/svix-webhooks/go"
)

type ClerkWebhookHandler struct {
	webhookSecret       string
	welcomeBonusCredits int64
	wallets             *wallet.Service
	gdprWorker          *gdpr.Worker
}

func NewClerkWebhookHandler(webhookSecret string, welcomeBonusCredits int64, wallets *wallet.Service, gdprWorker *gdpr.Worker) *ClerkWebhookHandler {
	return &ClerkWebhookHandler{
		webhookSecret:       webhookSecret,
		welcomeBonusCredits: welcomeBonusCredits,
		wallets:             wallets,
		gdprWorker:          gdprWorker,
	}
}

type ClerkWebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ClerkUserData struct {
	ID string `json:"id"`
}

func (h *ClerkWebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	payload, err := io.ReadAll(c.Context().RequestBodyStream())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read request body",
		})
	}

	headers := make(map[string][]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = []string{string(value)}
	})

	wh, err := svix.NewWebhook(h.webhookSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to initialize webhook verifier",
		})
	}

	if err := wh.Verify(payload, headers); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	var event ClerkWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON payload",
		})
	}

	switch event.Type {
	case "user.created":
		if err := h.handleUserCreated(c, event.Data); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to process user.created event",
			})
		}
	case "user.deleted":
		if err := h.handleUserDeleted(event.Data); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid user.deleted payload",
			})
		}
	default:
		log.Debugf("Ignoring Clerk webhook event type: %s", event.Type)
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}

func (h *ClerkWebhookHandler) handleUserCreated(c *fiber.Ctx, data json.RawMessage) error {
	var user ClerkUserData
	if err := json.Unmarshal(data, &user); err != nil {
		return err
	}
	if user.ID == "" {
		log.Warn("Received user.created event without a user id")
		return nil
	}

	if err := h.wallets.GrantWelcomeBonus(c.UserContext(), user.ID, h.welcomeBonusCredits); err != nil {
		log.Errorf("Failed to grant welcome bonus to user %s: %v", user.ID, err)
		return err
	}

	return nil
}

func (h *ClerkWebhookHandler) handleUserDeleted(data json.RawMessage) error {
	var user ClerkUserData
	if err := json.Unmarshal(data, &user); err != nil {
		return err
	}
	if user.ID == "" {
		log.Warn("Received user.deleted event without a user id")
		return nil
	}

	// Erasure runs asynchronously so the webhook responds within the
	// provider's delivery timeout.
	h.gdprWorker.SubmitErasure(user.ID)
	return nil
}
