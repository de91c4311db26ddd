package config

import (
	"fmt"
	"strings"
)

// Validate checks cross-field rules that env tags cannot express.
func (c *Config) Validate() error {
	if len(c.Auth.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters (got %d)", len(c.Auth.SecretKey))
	}
	switch strings.ToUpper(c.Auth.Algorithm) {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("ALGORITHM %q is not supported", c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenExpireMin <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be > 0")
	}

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case "mongo":
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}

	if c.Translator.APIKey == "" {
		return fmt.Errorf("AZURE_TEXT_TRANSLATION_API_KEY is required")
	}

	switch c.OCR.Provider {
	case "azure":
		if c.OCR.AzureEndpoint == "" || c.OCR.AzureAPIKey == "" {
			return fmt.Errorf("AZURE_IMAGE_ANALYSIS_ENDPOINT and AZURE_IMAGE_ANALYSIS_API_KEY are required")
		}
	case "google":
		if c.OCR.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_VISION_API_KEY is required")
		}
	default:
		return fmt.Errorf("OCR_PROVIDER %q is not supported", c.OCR.Provider)
	}

	switch c.LLM.Provider {
	case "azure":
		if c.LLM.AzureAPIKey == "" || c.LLM.AzureEndpoint == "" {
			return fmt.Errorf("AZURE_LLM_OPENAI_API_KEY and AZURE_LLM_OPENAI_ENDPOINT are required")
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLM.Provider)
	}

	return nil
}
