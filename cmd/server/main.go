package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/developia-II/linguascreen-backend/internal/config"
	"github.com/developia-II/linguascreen-backend/internal/handlers"
	"github.com/developia-II/linguascreen-backend/internal/learning"
	"github.com/developia-II/linguascreen-backend/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.App.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	ocr, err := newOCREngine(ctx, cfg.OCR)
	if err != nil {
		return err
	}
	explainer, err := newExplainer(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	tokens, err := utils.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.AccessTokenTTL())
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	pipeline := learning.NewPipeline(newTranslator(cfg.Translator), ocr, explainer, st, logger)
	h := handlers.New(handlers.Deps{
		AppName:  cfg.App.Name,
		Pipeline: pipeline,
		Quiz:     learning.NewQuizGenerator(st, nil),
		Store:    st,
		Tokens:   tokens,
		Logger:   logger,
	})

	app := newApp(cfg.App, h)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		logger.Info("server starting", "addr", addr, "store", cfg.Store.Driver,
			"ocr", cfg.OCR.Provider, "llm", cfg.LLM.Provider, "model", cfg.LLM.Model)
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newApp(cfg config.AppConfig, h *handlers.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		ErrorHandler:          handlers.ErrorHandler,
		BodyLimit:             25 << 20,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: strings.Join([]string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPatch, fiber.MethodDelete,
		}, ", "),
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: 1 * time.Minute,
	}))

	h.Routes(app)
	return app
}
