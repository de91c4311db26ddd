package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

const userIDLocal = "userId"

// AuthMiddleware accepts "Authorization: Bearer <token>" and stores the
// numeric user id in c.Locals.
func (h *Handler) AuthMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return models.NewUnauthorizedError("missing authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return models.NewUnauthorizedError("authorization header must be a bearer token")
	}

	userID, err := h.tokens.ParseJWT(strings.TrimSpace(token))
	if err != nil {
		return models.NewUnauthorizedError("could not validate credentials")
	}

	c.Locals(userIDLocal, userID)
	return c.Next()
}

func currentUserID(c *fiber.Ctx) (int64, error) {
	id, ok := c.Locals(userIDLocal).(int64)
	if !ok || id <= 0 {
		return 0, models.NewUnauthorizedError("unauthorized")
	}
	return id, nil
}
