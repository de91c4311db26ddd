package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/developia-II/linguascreen-backend/internal/config"
	"github.com/developia-II/linguascreen-backend/internal/models"
)

// OpenAIExplainer talks to OpenAI, Azure OpenAI or any OpenAI-compatible
// host (Groq and friends) through go-openai.
type OpenAIExplainer struct {
	client *openai.Client
	model  string

	explainSchema      *jsonschema.Definition
	readingOrderSchema *jsonschema.Definition
}

func NewOpenAIExplainer(cfg config.LLMConfig) (*OpenAIExplainer, error) {
	var clientCfg openai.ClientConfig
	switch cfg.Provider {
	case "azure":
		clientCfg = openai.DefaultAzureConfig(strings.TrimSpace(cfg.AzureAPIKey), strings.TrimSpace(cfg.AzureEndpoint))
		clientCfg.APIVersion = cfg.AzureAPIVersion
	default:
		clientCfg = openai.DefaultConfig(strings.TrimSpace(cfg.OpenAIAPIKey))
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
		}
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	explain, err := jsonschema.GenerateSchemaForType(explanationSchema{})
	if err != nil {
		return nil, fmt.Errorf("explanation schema: %w", err)
	}
	order, err := jsonschema.GenerateSchemaForType(readingOrderSchema{})
	if err != nil {
		return nil, fmt.Errorf("reading order schema: %w", err)
	}

	return &OpenAIExplainer{
		client:             openai.NewClientWithConfig(clientCfg),
		model:              cfg.Model,
		explainSchema:      explain,
		readingOrderSchema: order,
	}, nil
}

func (e *OpenAIExplainer) complete(ctx context.Context, system, user, schemaName string, schema *jsonschema.Definition, maxTokens int) (string, Usage, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return "", Usage{}, openAIRemoteError(err)
	}

	usage := Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens}
	if len(resp.Choices) == 0 {
		return "", usage, models.NewLLMParseError("no choices in model response", nil)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		return "", usage, models.NewLLMParseError("model output exceeded the token budget", nil)
	}
	if choice.Message.Refusal != "" {
		return "", usage, models.NewLLMParseError("model refused: "+choice.Message.Refusal, nil)
	}
	return choice.Message.Content, usage, nil
}

func openAIRemoteError(err error) *models.Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return remoteError(models.CodeLLMUnavailable, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return remoteError(models.CodeLLMUnavailable, reqErr.HTTPStatusCode, "language model request failed", err)
	}
	return remoteError(models.CodeLLMUnavailable, 0, "language model request failed", err)
}

func (e *OpenAIExplainer) ExplainSentence(ctx context.Context, in ExplainInput) (*Explanation, error) {
	raw, usage, err := e.complete(ctx, explainSystemPrompt, buildExplainPrompt(in), "sentence_explanation", e.explainSchema, explainMaxTokens)
	if err != nil {
		return nil, err
	}

	var out explanationSchema
	if err := decodeStructured(raw, &out); err != nil {
		return nil, err
	}
	return toExplanation(out, usage), nil
}

func (e *OpenAIExplainer) ReconstructReadingOrder(ctx context.Context, layout models.OCRLayout) (*ReadingOrderResult, error) {
	prompt, err := buildReadingOrderPrompt(layout)
	if err != nil {
		return nil, err
	}

	raw, usage, err := e.complete(ctx, readingOrderSystemPrompt, prompt, "reading_order", e.readingOrderSchema, readingOrderMaxTokens)
	if err != nil {
		return nil, err
	}

	var out readingOrderSchema
	if err := decodeStructured(raw, &out); err != nil {
		return nil, err
	}
	return &ReadingOrderResult{Text: out.Text, Usage: usage}, nil
}
