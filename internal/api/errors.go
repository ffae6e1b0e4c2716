package api

import (
	"github.com/petcove/petcove-api/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error to its HTTP status with internal causes
// stripped.
func respondError(c *fiber.Ctx, err error) error {
	appErr := models.SanitizeError(err)
	return c.Status(appErr.GetStatusCode()).JSON(fiber.Map{
		"error": appErr,
	})
}

// pagination reads limit/offset query params with sane bounds.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
