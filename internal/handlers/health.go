package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/linguascreen-backend/utils"
)

func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": h.appName + " is running!"})
}

// Health pings the store.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.store.Ping(c.UserContext()); err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "ok", nil, nil)
}
