package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/developia-II/linguascreen-backend/internal/learning"
	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/services"
	"github.com/developia-II/linguascreen-backend/internal/store"
	"github.com/developia-II/linguascreen-backend/utils"
)

// Pipeline is the learning use-case surface served over HTTP.
type Pipeline interface {
	Translate(ctx context.Context, targetLanguage, text string) (*services.TranslationResult, error)
	AnalyzeImage(ctx context.Context, image []byte) (json.RawMessage, error)
	ImageToSentence(ctx context.Context, userID int64, image []byte, targetLanguage string) (*learning.ImageTranslation, error)
	Explain(ctx context.Context, in services.ExplainInput) (*services.Explanation, error)
	ExplainAndSave(ctx context.Context, userID int64, in services.ExplainInput) (*learning.SavedExplanation, error)
	RegenerateExplanation(ctx context.Context, userID, sentenceID int64) (*learning.SavedExplanation, error)
	PostprocessSelection(ctx context.Context, layout models.OCRLayout) (*services.ReadingOrderResult, error)
}

type QuizGenerator interface {
	NextQuiz(ctx context.Context, userID int64) (*learning.Quiz, error)
}

type Deps struct {
	AppName  string
	Pipeline Pipeline
	Quiz     QuizGenerator
	Store    store.Store
	Tokens   *utils.TokenManager
	Logger   *slog.Logger
}

type Handler struct {
	appName  string
	pipeline Pipeline
	quiz     QuizGenerator
	store    store.Store
	tokens   *utils.TokenManager
	log      *slog.Logger
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		appName:  d.AppName,
		pipeline: d.Pipeline,
		quiz:     d.Quiz,
		store:    d.Store,
		tokens:   d.Tokens,
		log:      log,
	}
}

// ErrorHandler renders every error returned by a route as the error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := models.AsError(err); ok {
		if e.Kind == models.KindStorage {
			slog.Error("storage failure", "path", c.Path(), "error", err)
			return utils.ErrorResponse(c, utils.StatusFor(e), e.Kind, e.Code, "database error occurred")
		}
		return utils.ErrorResponse(c, utils.StatusFor(e), e.Kind, e.Code, e.Detail)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := models.Kind("HTTPError")
		switch fe.Code {
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			kind = models.KindValidation
		case fiber.StatusNotFound:
			kind = models.KindNotFound
		}
		return utils.ErrorResponse(c, fe.Code, kind, "", fe.Message)
	}

	slog.Error("unhandled error", "path", c.Path(), "error", err)
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "InternalError", "", "internal server error")
}

// parseBody decodes and validates the request body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return models.NewValidationError("invalid request body: %v", err)
	}
	return utils.ValidateStruct(v)
}
