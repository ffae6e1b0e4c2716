package api

import (
	"github.com/petcove/petcove-api/internal/models"
	"github.com/petcove/petcove-api/internal/services/auth"
	"github.com/petcove/petcove-api/internal/services/gdpr"

	"github.com/gofiber/fiber/v2"
)

type GDPRHandler struct {
	exports *gdpr.Service
	worker  *gdpr.Worker
}

func NewGDPRHandler(exports *gdpr.Service, worker *gdpr.Worker) *GDPRHandler {
	return &GDPRHandler{
		exports: exports,
		worker:  worker,
	}
}

// RequestExport queues an export of everything stored about the current user.
// The document is assembled asynchronously; poll GetExport for the result.
func (h *GDPRHandler) RequestExport(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	export, err := h.exports.RequestExport(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	h.worker.SubmitExport(export.ID)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"export": export,
	})
}

// GetExport returns export status, or the document itself once ready.
func (h *GDPRHandler) GetExport(c *fiber.Ctx) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	publicID := c.Params("id")
	if publicID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Export id is required",
		})
	}

	export, err := h.exports.GetExportForUser(c.UserContext(), publicID, userID)
	if err != nil {
		return respondError(c, err)
	}

	if export.Status == models.DataExportStatusReady {
		c.Type("json")
		return c.Send(export.Document)
	}

	return c.JSON(fiber.Map{
		"export": export,
	})
}
