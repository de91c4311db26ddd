package config

import "time"

// Config is the root application configuration, read from the environment.
type Config struct {
	App        AppConfig
	Log        LogConfig
	Store      StoreConfig
	Auth       AuthConfig
	Translator TranslatorConfig
	OCR        OCRConfig
	LLM        LLMConfig
}

type AppConfig struct {
	Name         string `env:"APP_NAME"       env-default:"LinguaScreen Server"`
	Port         int    `env:"PORT"           env-default:"8000"`
	Debug        bool   `env:"DEBUG"          env-default:"false"`
	FrontendURL  string `env:"FRONTEND_URL"   env-default:"*"`
	RateLimitMax int    `env:"RATE_LIMIT_MAX" env-default:"100"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// StoreConfig selects the persistence backend. Driver is "postgres" or "mongo".
type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER"       env-default:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	MaxConns    int32  `env:"DATABASE_MAX_CONNS" env-default:"10"`
	MongoURI    string `env:"MONGODB_URI"`
	DBName      string `env:"DB_NAME"            env-default:"linguascreen"`
}

type AuthConfig struct {
	SecretKey            string `env:"SECRET_KEY"                  env-required:"true"`
	Algorithm            string `env:"ALGORITHM"                   env-default:"HS256"`
	AccessTokenExpireMin int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" env-default:"30"`
}

func (c AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMin) * time.Minute
}

type TranslatorConfig struct {
	APIKey   string        `env:"AZURE_TEXT_TRANSLATION_API_KEY"`
	Region   string        `env:"AZURE_TEXT_TRANSLATION_REGION"   env-default:"southeastasia"`
	Endpoint string        `env:"AZURE_TEXT_TRANSLATION_ENDPOINT" env-default:"https://api.cognitive.microsofttranslator.com"`
	Timeout  time.Duration `env:"TRANSLATOR_TIMEOUT"              env-default:"15s"`
}

// OCRConfig selects the OCR engine. Provider is "azure" or "google".
type OCRConfig struct {
	Provider      string        `env:"OCR_PROVIDER"                  env-default:"azure"`
	AzureEndpoint string        `env:"AZURE_IMAGE_ANALYSIS_ENDPOINT"`
	AzureAPIKey   string        `env:"AZURE_IMAGE_ANALYSIS_API_KEY"`
	GoogleAPIKey  string        `env:"GOOGLE_VISION_API_KEY"`
	Timeout       time.Duration `env:"OCR_TIMEOUT"                   env-default:"30s"`
}

// LLMConfig selects the explainer backend. Provider is "azure", "openai" or "gemini".
type LLMConfig struct {
	Provider        string        `env:"LLM_PROVIDER"                 env-default:"azure"`
	Model           string        `env:"LLM_MODEL"                    env-default:"gpt-4o-mini-2"`
	AzureAPIVersion string        `env:"AZURE_LLM_OPENAI_API_VERSION" env-default:"2024-10-21"`
	AzureAPIKey     string        `env:"AZURE_LLM_OPENAI_API_KEY"`
	AzureEndpoint   string        `env:"AZURE_LLM_OPENAI_ENDPOINT"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	Timeout         time.Duration `env:"LLM_TIMEOUT"                  env-default:"60s"`
}
