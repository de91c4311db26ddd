package handlers

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/services"
	"github.com/developia-II/linguascreen-backend/utils"
)

const maxImageBytes = 20 << 20

func (h *Handler) Translate(c *fiber.Ctx) error {
	var req models.TranslateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.pipeline.Translate(c.UserContext(), req.ToLanguage, req.Sentence)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful translation", toTranslateResponse(res, req.ToLanguage), nil)
}

// readImage loads the multipart "image" file.
func readImage(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, models.NewValidationError("multipart field 'image' is required")
	}
	if fh.Size > maxImageBytes {
		return nil, models.NewValidationError("image exceeds %d bytes", maxImageBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewValidationError("cannot open uploaded image: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, models.NewValidationError("cannot read uploaded image: %v", err)
	}
	if len(data) == 0 {
		return nil, models.NewValidationError("image is empty")
	}
	return data, nil
}

// OCR returns the raw provider result without merging.
func (h *Handler) OCR(c *fiber.Ctx) error {
	image, err := readImage(c)
	if err != nil {
		return err
	}

	raw, err := h.pipeline.AnalyzeImage(c.UserContext(), image)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful image analysis", raw, nil)
}

func (h *Handler) PostprocessSelection(c *fiber.Ctx) error {
	var req models.PostprocessRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.pipeline.PostprocessSelection(c.UserContext(), req.OCRData)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful ocr postprocess", res.Text, usageMetadata{Usage: res.Usage})
}

func (h *Handler) ImageTranslate(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	target := c.FormValue("toLanguage")
	if target == "" {
		return models.NewValidationError("form field 'toLanguage' is required")
	}
	image, err := readImage(c)
	if err != nil {
		return err
	}

	res, err := h.pipeline.ImageToSentence(c.UserContext(), userID, image, target)
	if err != nil {
		return err
	}

	meta := imageMetadata{Width: res.Width, Height: res.Height, Persisted: res.Persisted}
	if res.Persisted {
		id := res.SentenceID
		meta.SentenceID = &id
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful image translation", toTranslateResponse(res.Translation, target), meta)
}

func explainInput(req models.ExplainRequest) services.ExplainInput {
	return services.ExplainInput{
		Original:   req.OriginalSentence,
		Translated: req.TranslatedSentence,
		SourceLang: req.OriginalLang,
		TargetLang: req.TargetLang,
	}
}

func (h *Handler) Explain(c *fiber.Ctx) error {
	var req models.ExplainRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	expl, err := h.pipeline.Explain(c.UserContext(), explainInput(req))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful explanation", toExplanationResponse(expl), usageMetadata{Usage: expl.Usage})
}

func (h *Handler) SaveExplanation(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.ExplainRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if _, err := h.pipeline.ExplainAndSave(c.UserContext(), userID, explainInput(req)); err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "successful explanation save", nil, nil)
}

func (h *Handler) RegenerateExplanation(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	sentenceID, err := pathID(c, "sentenceId")
	if err != nil {
		return err
	}

	res, err := h.pipeline.RegenerateExplanation(c.UserContext(), userID, sentenceID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful explanation update",
		regenerateResponse{
			Dictionary:  toSentenceResponse(res.Sentence),
			Explanation: toExplanationResponse(res.Explanation),
		},
		regenerateMetadata{Usage: res.Explanation.Usage, WordsInserted: res.WordsInserted},
	)
}

func (h *Handler) Quiz(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	quiz, err := h.quiz.NextQuiz(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "successful quiz generation", toQuizResponse(quiz), nil)
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("%s must be a positive integer", name)
	}
	return id, nil
}
