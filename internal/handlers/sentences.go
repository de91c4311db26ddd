package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/linguascreen-backend/utils"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 100
)

// ListSentences pages through the caller's sentences with skip/limit.
func (h *Handler) ListSentences(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	skip, err := strconv.Atoi(c.Query("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	sentences, err := h.store.ListSentences(c.UserContext(), userID, skip, limit)
	if err != nil {
		return err
	}

	out := make([]sentenceResponse, len(sentences))
	for i := range sentences {
		out[i] = toSentenceResponse(&sentences[i])
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful sentences retrieval", out,
		fiber.Map{"skip": skip, "limit": limit})
}

func (h *Handler) GetSentence(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	sentence, err := h.store.GetSentence(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful sentence retrieval", toSentenceResponse(sentence), nil)
}

func (h *Handler) DeleteSentence(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.store.DeleteSentence(c.UserContext(), userID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
