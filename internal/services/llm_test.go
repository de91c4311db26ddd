package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developia-II/linguascreen-backend/internal/config"
	"github.com/developia-II/linguascreen-backend/internal/models"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFences(tt.in))
	}
}

func TestDecodeStructured(t *testing.T) {
	var ok explanationSchema
	err := decodeStructured("```json\n"+`{"words_explanation":[{"original_word":"chat","translated_word":"cat","explanation":"animal","romanization":""}],"entire_explanation":"x"}`+"\n```", &ok)
	require.NoError(t, err)
	require.Len(t, ok.WordsExplanation, 1)
	assert.Equal(t, "chat", ok.WordsExplanation[0].OriginalWord)

	bad := map[string]string{
		"empty":         "   ",
		"not json":      "Sure! Here is the explanation.",
		"missing field": `{"words_explanation":[]}`,
		"unknown field": `{"words_explanation":[],"entire_explanation":"x","extra":1}`,
		"invalid word":  `{"words_explanation":[{"original_word":"","translated_word":"a","explanation":"b"}],"entire_explanation":"x"}`,
	}
	for name, raw := range bad {
		t.Run(name, func(t *testing.T) {
			var out explanationSchema
			err := decodeStructured(raw, &out)
			assert.True(t, errors.Is(err, models.ErrLLMParse), "got %v", err)
		})
	}
}

func TestDedupeWords(t *testing.T) {
	in := []WordExplanation{
		{OriginalWord: "Le", TranslatedWord: "the"},
		{OriginalWord: "chat", TranslatedWord: "cat"},
		{OriginalWord: " le ", TranslatedWord: "the (again)"},
		{OriginalWord: "dort", TranslatedWord: "sleeps"},
	}

	out := dedupeWords(in)
	require.Len(t, out, 3)
	assert.Equal(t, "Le", out[0].OriginalWord)
	assert.Equal(t, "the", out[0].TranslatedWord)
	assert.Equal(t, "chat", out[1].OriginalWord)
	assert.Equal(t, "dort", out[2].OriginalWord)
}

func TestBuildReadingOrderPrompt(t *testing.T) {
	layout := models.OCRLayout{Lines: []models.OCRLine{{
		Text:            "日本",
		BoundingPolygon: []models.Point{{X: 1, Y: 2}, {X: 3.7, Y: 4}},
		Words:           []models.OCRWord{{Text: "日", BoundingPolygon: []models.Point{{X: 1, Y: 2}}, Confidence: 0.9}},
	}}}

	prompt, err := buildReadingOrderPrompt(layout)
	require.NoError(t, err)
	assert.Contains(t, prompt, `[{"t":"日本","b":[1,2,3,4],"w":[{"t":"日","b":[1,2],"c":0.9}]}]`)
}

func TestBuildExplainPrompt(t *testing.T) {
	p := buildExplainPrompt(ExplainInput{Original: "Bonjour", Translated: "Hello", SourceLang: "fr", TargetLang: "en"})
	assert.Contains(t, p, "Original sentence: Bonjour")
	assert.Contains(t, p, "Original language: FR")
	assert.Contains(t, p, "Target language: EN")
}

func chatCompletion(content, finish string) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46},
	})
	return body
}

func newTestOpenAIExplainer(t *testing.T, h http.HandlerFunc) *OpenAIExplainer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	e, err := NewOpenAIExplainer(config.LLMConfig{
		Provider:      "openai",
		Model:         "test-model",
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: srv.URL + "/v1/",
		Timeout:       2 * time.Second,
	})
	require.NoError(t, err)
	return e
}

func TestOpenAIExplainer_ExplainSentence(t *testing.T) {
	content := `{"words_explanation":[
		{"original_word":"Bonjour","translated_word":"Hello","explanation":"greeting","romanization":""},
		{"original_word":"le","translated_word":"the","explanation":"article","romanization":""},
		{"original_word":"monde","translated_word":"world","explanation":"noun","romanization":""}
	],"entire_explanation":"A greeting."}`

	e := newTestOpenAIExplainer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])
		format := req["response_format"].(map[string]any)
		assert.Equal(t, "json_schema", format["type"])

		_, _ = w.Write(chatCompletion(content, "stop"))
	})

	out, err := e.ExplainSentence(context.Background(), ExplainInput{Original: "Bonjour le monde", Translated: "Hello world", SourceLang: "fr", TargetLang: "en"})
	require.NoError(t, err)
	require.Len(t, out.Words, 3)
	assert.Equal(t, "Bonjour", out.Words[0].OriginalWord)
	assert.Equal(t, "monde", out.Words[2].OriginalWord)
	assert.Equal(t, "A greeting.", out.EntireExplanation)
	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 34}, out.Usage)
}

func TestOpenAIExplainer_ReconstructReadingOrder(t *testing.T) {
	e := newTestOpenAIExplainer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chatCompletion(`{"text":"東京タワー"}`, "stop"))
	})

	out, err := e.ReconstructReadingOrder(context.Background(), models.OCRLayout{Lines: []models.OCRLine{{Text: "タワー東京"}}})
	require.NoError(t, err)
	assert.Equal(t, "東京タワー", out.Text)
}

func TestOpenAIExplainer_TruncatedOutput(t *testing.T) {
	e := newTestOpenAIExplainer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chatCompletion(`{"words_explanation":[`, "length"))
	})

	_, err := e.ExplainSentence(context.Background(), ExplainInput{Original: "a", Translated: "b", SourceLang: "fr", TargetLang: "en"})
	assert.True(t, errors.Is(err, models.ErrLLMParse))
}

func TestOpenAIExplainer_MalformedOutput(t *testing.T) {
	e := newTestOpenAIExplainer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chatCompletion("I cannot do that", "stop"))
	})

	_, err := e.ExplainSentence(context.Background(), ExplainInput{Original: "a", Translated: "b", SourceLang: "fr", TargetLang: "en"})
	assert.True(t, errors.Is(err, models.ErrLLMParse))
}

func TestOpenAIExplainer_ProviderError(t *testing.T) {
	e := newTestOpenAIExplainer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	})

	_, err := e.ExplainSentence(context.Background(), ExplainInput{Original: "a", Translated: "b", SourceLang: "fr", TargetLang: "en"})
	me, ok := models.AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.KindRemoteUnavailable, me.Kind)
	assert.Equal(t, models.CodeLLMUnavailable, me.Code)
	assert.Equal(t, http.StatusServiceUnavailable, me.ProviderStatus)
	assert.Equal(t, "model overloaded", me.Detail)
}
