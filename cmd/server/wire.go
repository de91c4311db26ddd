package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/developia-II/linguascreen-backend/internal/config"
	"github.com/developia-II/linguascreen-backend/internal/database"
	"github.com/developia-II/linguascreen-backend/internal/services"
	"github.com/developia-II/linguascreen-backend/internal/store"
)

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		st := database.NewMongoStore(client, cfg.DBName, logger)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
		return st, nil
	default:
		pool, err := database.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return database.NewPostgresStore(pool), nil
	}
}

func newTranslator(cfg config.TranslatorConfig) services.Translator {
	return services.NewAzureTranslator(cfg)
}

func newOCREngine(ctx context.Context, cfg config.OCRConfig) (*services.OCRGateway, error) {
	switch cfg.Provider {
	case "google":
		engine, err := services.NewGoogleOCR(ctx, cfg.GoogleAPIKey, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return services.NewOCRGateway(engine), nil
	default:
		engine := services.NewAzureOCR(cfg.AzureEndpoint, cfg.AzureAPIKey, &http.Client{Timeout: cfg.Timeout})
		return services.NewOCRGateway(engine), nil
	}
}

func newExplainer(ctx context.Context, cfg config.LLMConfig) (services.Explainer, error) {
	switch cfg.Provider {
	case "gemini":
		return services.NewGeminiExplainer(ctx, cfg)
	default:
		return services.NewOpenAIExplainer(cfg)
	}
}
