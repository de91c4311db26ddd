package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/developia-II/linguascreen-backend/internal/config"
	"github.com/developia-II/linguascreen-backend/internal/models"
)

type TranslationResult struct {
	InputText        string
	TranslatedText   string
	DetectedLanguage string
	ConfidenceScore  float64
}

// Translator translates text into a target language, detecting the source.
type Translator interface {
	Translate(ctx context.Context, targetLanguage, text string) (*TranslationResult, error)
}

// AzureTranslator calls the Azure AI Translator v3 REST API.
type AzureTranslator struct {
	endpoint string
	apiKey   string
	region   string
	httpc    *http.Client
}

func NewAzureTranslator(cfg config.TranslatorConfig) *AzureTranslator {
	return &AzureTranslator{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		region:   cfg.Region,
		httpc:    &http.Client{Timeout: cfg.Timeout},
	}
}

type azureTranslateItem struct {
	Text string `json:"Text"`
}

type azureTranslateResult struct {
	DetectedLanguage *struct {
		Language string  `json:"language"`
		Score    float64 `json:"score"`
	} `json:"detectedLanguage"`
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// azureErrorBody is shared by the Translator and Image Analysis APIs; the
// former uses numeric codes, the latter strings.
type azureErrorBody struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

func (b azureErrorBody) describe() string {
	code := strings.Trim(string(b.Error.Code), `"`)
	if code == "" {
		return b.Error.Message
	}
	return code + ": " + b.Error.Message
}

// ValidateLanguageTag reports whether tag is a well-formed BCP 47 language tag.
func ValidateLanguageTag(tag string) error {
	if strings.TrimSpace(tag) == "" {
		return models.NewValidationError("target language is required")
	}
	if _, err := language.Parse(tag); err != nil {
		return models.NewValidationError("unsupported language tag %q", tag)
	}
	return nil
}

func (t *AzureTranslator) Translate(ctx context.Context, targetLanguage, text string) (*TranslationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("text to translate is empty")
	}
	if err := ValidateLanguageTag(targetLanguage); err != nil {
		return nil, err
	}

	body, err := json.Marshal([]azureTranslateItem{{Text: text}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	q := url.Values{}
	q.Set("api-version", "3.0")
	q.Set("to", targetLanguage)
	apiURL := t.endpoint + "/translate?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", t.apiKey)
	if t.region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", t.region)
	}

	resp, err := t.httpc.Do(req)
	if err != nil {
		return nil, remoteError(models.CodeTranslationUnavailable, 0, "translator request failed", err)
	}
	defer resp.Body.Close()
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, remoteError(models.CodeTranslationUnavailable, resp.StatusCode, "read translator response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb azureErrorBody
		detail := preview(bodyBytes)
		if json.Unmarshal(bodyBytes, &eb) == nil && eb.Error.Message != "" {
			detail = eb.describe()
		}
		return nil, remoteError(models.CodeTranslationUnavailable, resp.StatusCode, detail, nil)
	}

	var results []azureTranslateResult
	if err := json.Unmarshal(bodyBytes, &results); err != nil {
		return nil, remoteError(models.CodeTranslationUnavailable, resp.StatusCode,
			"malformed translator response: "+preview(bodyBytes), err)
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		return nil, remoteError(models.CodeTranslationUnavailable, resp.StatusCode, "translator returned no translation", nil)
	}

	out := &TranslationResult{
		InputText:      text,
		TranslatedText: results[0].Translations[0].Text,
	}
	if d := results[0].DetectedLanguage; d != nil {
		out.DetectedLanguage = d.Language
		out.ConfidenceScore = d.Score
	}
	return out, nil
}
