package handlers

import "github.com/gofiber/fiber/v2"

// Routes mounts every endpoint on app.
func (h *Handler) Routes(app *fiber.App) {
	app.Get("/", h.Root)
	app.Get("/health", h.Health)

	// Identity
	app.Post("/register", h.Register)
	app.Get("/auth", h.AuthMiddleware, h.Me)
	auth := app.Group("/auth")
	auth.Post("/login", h.Login)
	users := app.Group("/users")
	users.Post("/register", h.Register)
	users.Get("/auth", h.AuthMiddleware, h.Me)

	// Gateway and learning routes
	ai := app.Group("/ai")
	ai.Post("/translate", h.Translate)
	ai.Post("/ocr", h.OCR)
	ai.Post("/ocr/selection/postprocess", h.PostprocessSelection)
	ai.Post("/explain", h.Explain)
	ai.Post("/image", h.AuthMiddleware, h.ImageTranslate)
	ai.Post("/save", h.AuthMiddleware, h.SaveExplanation)
	ai.Patch("/llm/:sentenceId", h.AuthMiddleware, h.RegenerateExplanation)
	ai.Get("/quiz", h.AuthMiddleware, h.Quiz)

	// Saved sentences
	sentence := app.Group("/sentence", h.AuthMiddleware)
	sentence.Get("/", h.ListSentences)
	sentence.Get("/:id", h.GetSentence)
	sentence.Delete("/:id", h.DeleteSentence)
}
