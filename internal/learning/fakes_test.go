package learning

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/services"
)

type fakeTranslator struct {
	detected string
	err      error
	calls    atomic.Int32
}

func (f *fakeTranslator) Translate(_ context.Context, target, text string) (*services.TranslationResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &services.TranslationResult{
		InputText:        text,
		TranslatedText:   target + ":" + text,
		DetectedLanguage: f.detected,
		ConfidenceScore:  1,
	}, nil
}

type fakeOCR struct {
	lines  []services.OCRLine
	width  int
	height int
	err    error
}

func (f *fakeOCR) ExtractText(_ context.Context, image []byte) (*services.OCRResult, error) {
	if len(image) == 0 {
		return nil, models.NewValidationError("image is empty")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &services.OCRResult{MergedText: services.MergeLines(f.lines), Width: f.width, Height: f.height}, nil
}

func (f *fakeOCR) Analyze(context.Context, []byte) (json.RawMessage, error) {
	return json.RawMessage(`{"readResult":{"blocks":[]}}`), f.err
}

// fakeExplainer splits the original sentence on spaces and explains every
// token. round is embedded in each explanation so successive calls differ.
type fakeExplainer struct {
	err   error
	mu    sync.Mutex
	round int
}

func (f *fakeExplainer) ExplainSentence(_ context.Context, in services.ExplainInput) (*services.Explanation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.round++
	round := f.round
	f.mu.Unlock()

	out := &services.Explanation{
		EntireExplanation: "explained " + in.Original + " #" + strconv.Itoa(round),
		Usage:             services.Usage{PromptTokens: 10, CompletionTokens: 20},
	}
	for _, tok := range strings.Fields(in.Original) {
		out.Words = append(out.Words, services.WordExplanation{
			OriginalWord:   tok,
			TranslatedWord: "t:" + tok,
			Explanation:    "e:" + tok + " #" + strconv.Itoa(round),
		})
	}
	return out, nil
}

func (f *fakeExplainer) ReconstructReadingOrder(_ context.Context, layout models.OCRLayout) (*services.ReadingOrderResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	parts := make([]string, 0, len(layout.Lines))
	for i := len(layout.Lines) - 1; i >= 0; i-- {
		parts = append(parts, layout.Lines[i].Text)
	}
	return &services.ReadingOrderResult{Text: strings.Join(parts, "")}, nil
}
