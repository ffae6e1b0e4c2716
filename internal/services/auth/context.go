package auth

import "github.com/gofiber/fiber/v2"

const userIDLocal = "user_id"

// SetUserID stores the authenticated user id on the request.
func SetUserID(c *fiber.Ctx, userID string) {
	c.Locals(userIDLocal, userID)
}

// GetUserID returns the authenticated user id, if any.
func GetUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals(userIDLocal).(string)
	return userID, ok && userID != ""
}
