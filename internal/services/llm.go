package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/utils"
)

// Output token budgets per operation.
const (
	explainMaxTokens      = 4096
	readingOrderMaxTokens = 2048
)

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type ExplainInput struct {
	Original   string
	Translated string
	SourceLang string
	TargetLang string
}

// WordExplanation is one token (or merged compound unit) of the original
// sentence.
type WordExplanation struct {
	OriginalWord   string `json:"original_word" validate:"required" description:"word or compound unit exactly as it appears in the original sentence"`
	TranslatedWord string `json:"translated_word" validate:"required" description:"translation of the unit in the target language"`
	Explanation    string `json:"explanation" validate:"required" description:"meaning and usage, written in the target language"`
	Romanization   string `json:"romanization" description:"latin transcription for non-latin scripts, empty otherwise"`
}

type explanationSchema struct {
	WordsExplanation  []WordExplanation `json:"words_explanation" validate:"required,dive"`
	EntireExplanation string            `json:"entire_explanation" validate:"required" description:"explanation of the whole sentence in the target language"`
}

type Explanation struct {
	Words             []WordExplanation
	EntireExplanation string
	Usage             Usage
}

type readingOrderSchema struct {
	Text string `json:"text" validate:"required" description:"the selected text in natural reading order"`
}

type ReadingOrderResult struct {
	Text  string
	Usage Usage
}

// Explainer produces strictly structured language-model output.
type Explainer interface {
	ExplainSentence(ctx context.Context, in ExplainInput) (*Explanation, error)
	ReconstructReadingOrder(ctx context.Context, layout models.OCRLayout) (*ReadingOrderResult, error)
}

const explainSystemPrompt = `You are a language expert helping a learner read a sentence.
Split the original sentence into words in the order they appear. You may keep compound units or fixed expressions together.
For every unit give the unit as written, its translation, a short explanation and a romanization when the original script is not latin.
Never list the same unit twice. Then explain the whole sentence.
Write every translation and explanation in the target language. Keep it simple.
Reply with JSON only.`

func buildExplainPrompt(in ExplainInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original sentence: %s\n", in.Original)
	fmt.Fprintf(&b, "Original language: %s\n", strings.ToUpper(in.SourceLang))
	fmt.Fprintf(&b, "Translated sentence: %s\n", in.Translated)
	fmt.Fprintf(&b, "Target language: %s\n", strings.ToUpper(in.TargetLang))
	return b.String()
}

const readingOrderSystemPrompt = `You receive OCR lines and words selected by a user, each with its bounding polygon in image pixels.
The OCR engine may have read them in the wrong order, for example for vertical or right-to-left scripts.
Decide the writing direction from the geometry and return the selected text in natural reading order.
Do not translate or correct the text. Reply with JSON only.`

type layoutWordRecord struct {
	Text string  `json:"t"`
	Box  []int   `json:"b"`
	Conf float64 `json:"c,omitempty"`
}

type layoutLineRecord struct {
	Text  string             `json:"t"`
	Box   []int              `json:"b"`
	Words []layoutWordRecord `json:"w,omitempty"`
}

func flattenPolygon(poly []models.Point) []int {
	out := make([]int, 0, len(poly)*2)
	for _, p := range poly {
		out = append(out, int(p.X), int(p.Y))
	}
	return out
}

// buildReadingOrderPrompt serializes the layout as compact JSON records.
func buildReadingOrderPrompt(layout models.OCRLayout) (string, error) {
	lines := make([]layoutLineRecord, 0, len(layout.Lines))
	for _, l := range layout.Lines {
		rec := layoutLineRecord{Text: l.Text, Box: flattenPolygon(l.BoundingPolygon)}
		for _, w := range l.Words {
			rec.Words = append(rec.Words, layoutWordRecord{Text: w.Text, Box: flattenPolygon(w.BoundingPolygon), Conf: w.Confidence})
		}
		lines = append(lines, rec)
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("marshal layout: %w", err)
	}
	return "Lines (t=text, b=polygon x,y pairs, w=words, c=confidence):\n" + string(data), nil
}

// StripCodeFences removes a surrounding markdown code fence.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeStructured parses raw model output into v and validates it. Any
// failure is an LlmParseFailure.
func decodeStructured(raw string, v any) error {
	text := StripCodeFences(raw)
	if text == "" {
		return models.NewLLMParseError("empty model output", nil)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.NewLLMParseError("model output is not valid JSON: "+preview([]byte(text)), err)
	}
	if err := utils.Validate.Struct(v); err != nil {
		return models.NewLLMParseError("model output violates schema", err)
	}
	return nil
}

// dedupeWords drops repeated units, comparing trimmed original text
// case-insensitively and keeping the first occurrence.
func dedupeWords(words []WordExplanation) []WordExplanation {
	seen := make(map[string]struct{}, len(words))
	out := make([]WordExplanation, 0, len(words))
	for _, w := range words {
		key := strings.ToLower(strings.TrimSpace(w.OriginalWord))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	return out
}

func toExplanation(s explanationSchema, usage Usage) *Explanation {
	return &Explanation{
		Words:             dedupeWords(s.WordsExplanation),
		EntireExplanation: s.EntireExplanation,
		Usage:             usage,
	}
}
