package api

import (
	"github.com/petcove/petcove-api/internal/services/auth"
	"github.com/petcove/petcove-api/internal/services/gifts"

	"github.com/gofiber/fiber/v2"
)

type GiftsHandler struct {
	gifts  *gifts.Service
	worker *gifts.Worker
}

func NewGiftsHandler(service *gifts.Service, worker *gifts.Worker) *GiftsHandler {
	return &GiftsHandler{
		gifts:  service,
		worker: worker,
	}
}

// SendGiftRequest represents the request body for gifting an item to a pet
type SendGiftRequest struct {
	GiftTypeID uint   `json:"gift_type_id"`
	PetName    string `json:"pet_name"`
	Message    string `json:"message"`
}

// SendGift validates the sender's balance, records the pending gift, and
// queues it for fulfillment. The debit happens asynchronously.
func (h *GiftsHandler) SendGift(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req SendGiftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.GiftTypeID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "gift_type_id is required",
		})
	}

	gift, err := h.gifts.SendGift(c.UserContext(), userID, req.PetName, req.Message, req.GiftTypeID)
	if err != nil {
		return respondError(c, err)
	}

	h.worker.Submit(gift.ID)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"gift": gift,
	})
}

// ListGiftTypes returns the giftable item catalog.
func (h *GiftsHandler) ListGiftTypes(c *fiber.Ctx) error {
	giftTypes, err := h.gifts.ListActiveGiftTypes(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"gift_types": giftTypes,
	})
}

// ListGifts returns a page of the current user's sent gifts.
func (h *GiftsHandler) ListGifts(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	limit, offset := pagination(c)

	list, err := h.gifts.ListForUser(c.UserContext(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"gifts":  list,
		"limit":  limit,
		"offset": offset,
	})
}

// GetGift returns a single gift to its sender only.
func (h *GiftsHandler) GetGift(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	giftID, err := c.ParamsInt("id")
	if err != nil || giftID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid gift id",
		})
	}

	gift, err := h.gifts.GetForUser(c.UserContext(), uint(giftID), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"gift": gift,
	})
}
