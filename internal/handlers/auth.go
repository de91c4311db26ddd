package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/utils"
)

func (h *Handler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewStorageError("hash password", err)
	}

	user := &models.User{
		Username:       strings.TrimSpace(req.Username),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		HashedPassword: string(hashedPassword),
	}
	if err := h.store.CreateUser(c.UserContext(), user); err != nil {
		return err
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "successful account registration",
		userResponse{Username: user.Username, Email: user.Email}, nil)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.store.UserByEmail(c.UserContext(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewUnauthorizedError("incorrect email or password")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return models.NewUnauthorizedError("incorrect email or password")
	}

	token, err := h.tokens.GenerateJWT(user.ID)
	if err != nil {
		return models.NewStorageError("generate token", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "successful login",
		tokenResponse{AccessToken: token, TokenType: "Bearer"}, nil)
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.store.UserByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewUnauthorizedError("could not validate credentials")
		}
		return err
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "session authenticated",
		userResponse{Username: user.Username, Email: user.Email}, nil)
}
