package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/developia-II/linguascreen-backend/internal/config"
	"github.com/developia-II/linguascreen-backend/internal/models"
)

var geminiExplanationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"words_explanation": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"original_word":   {Type: genai.TypeString},
					"translated_word": {Type: genai.TypeString},
					"explanation":     {Type: genai.TypeString},
					"romanization":    {Type: genai.TypeString},
				},
				Required:         []string{"original_word", "translated_word", "explanation", "romanization"},
				PropertyOrdering: []string{"original_word", "translated_word", "explanation", "romanization"},
			},
		},
		"entire_explanation": {Type: genai.TypeString},
	},
	Required:         []string{"words_explanation", "entire_explanation"},
	PropertyOrdering: []string{"words_explanation", "entire_explanation"},
}

var geminiReadingOrderSchema = &genai.Schema{
	Type:       genai.TypeObject,
	Properties: map[string]*genai.Schema{"text": {Type: genai.TypeString}},
	Required:   []string{"text"},
}

// GeminiExplainer uses the Gemini API with a response schema.
type GeminiExplainer struct {
	client *genai.Client
	model  string
}

func NewGeminiExplainer(ctx context.Context, cfg config.LLMConfig) (*GeminiExplainer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.GeminiAPIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiExplainer{client: client, model: cfg.Model}, nil
}

func (e *GeminiExplainer) generate(ctx context.Context, system, user string, schema *genai.Schema, maxTokens int32) (string, Usage, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.2)),
		MaxOutputTokens:   maxTokens,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", Usage{}, remoteError(models.CodeLLMUnavailable, apiErr.Code, apiErr.Message, err)
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) {
			return "", Usage{}, remoteError(models.CodeLLMUnavailable, apiErrPtr.Code, apiErrPtr.Message, err)
		}
		return "", Usage{}, remoteError(models.CodeLLMUnavailable, 0, "gemini request failed", err)
	}

	var usage Usage
	if m := resp.UsageMetadata; m != nil {
		usage = Usage{PromptTokens: int(m.PromptTokenCount), CompletionTokens: int(m.CandidatesTokenCount)}
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return "", usage, models.NewLLMParseError("model output exceeded the token budget", nil)
	}
	return resp.Text(), usage, nil
}

func (e *GeminiExplainer) ExplainSentence(ctx context.Context, in ExplainInput) (*Explanation, error) {
	raw, usage, err := e.generate(ctx, explainSystemPrompt, buildExplainPrompt(in), geminiExplanationSchema, explainMaxTokens)
	if err != nil {
		return nil, err
	}

	var out explanationSchema
	if err := decodeStructured(raw, &out); err != nil {
		return nil, err
	}
	return toExplanation(out, usage), nil
}

func (e *GeminiExplainer) ReconstructReadingOrder(ctx context.Context, layout models.OCRLayout) (*ReadingOrderResult, error) {
	prompt, err := buildReadingOrderPrompt(layout)
	if err != nil {
		return nil, err
	}

	raw, usage, err := e.generate(ctx, readingOrderSystemPrompt, prompt, geminiReadingOrderSchema, readingOrderMaxTokens)
	if err != nil {
		return nil, err
	}

	var out readingOrderSchema
	if err := decodeStructured(raw, &out); err != nil {
		return nil, err
	}
	return &ReadingOrderResult{Text: out.Text, Usage: usage}, nil
}
