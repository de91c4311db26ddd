// Package learning orchestrates the OCR, translation and explanation gateways
// with the sentence store.
package learning

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/services"
	"github.com/developia-II/linguascreen-backend/internal/store"
)

// TextExtractor is the part of the OCR gateway the pipeline needs.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (*services.OCRResult, error)
	Analyze(ctx context.Context, image []byte) (json.RawMessage, error)
}

type Pipeline struct {
	translator services.Translator
	ocr        TextExtractor
	explainer  services.Explainer
	sentences  store.Sentences
	log        *slog.Logger
}

func NewPipeline(translator services.Translator, ocr TextExtractor, explainer services.Explainer, sentences store.Sentences, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		translator: translator,
		ocr:        ocr,
		explainer:  explainer,
		sentences:  sentences,
		log:        log,
	}
}

// Translate has no side effects beyond the provider call.
func (p *Pipeline) Translate(ctx context.Context, targetLanguage, text string) (*services.TranslationResult, error) {
	res, err := p.translator.Translate(ctx, targetLanguage, text)
	if err != nil {
		p.logRemoteFailure(ctx, "translate", err)
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) AnalyzeImage(ctx context.Context, image []byte) (json.RawMessage, error) {
	raw, err := p.ocr.Analyze(ctx, image)
	if err != nil {
		p.logRemoteFailure(ctx, "ocr analyze", err)
		return nil, err
	}
	return raw, nil
}

type ImageTranslation struct {
	Translation *services.TranslationResult
	Width       int
	Height      int
	SentenceID  int64
	// Persisted is false when the sentence write failed after a successful
	// translation.
	Persisted bool
}

// ImageToSentence reads the image, translates the merged text and saves it as
// a sentence without explanation. A failed save does not fail the call.
func (p *Pipeline) ImageToSentence(ctx context.Context, userID int64, image []byte, targetLanguage string) (*ImageTranslation, error) {
	if err := services.ValidateLanguageTag(targetLanguage); err != nil {
		return nil, err
	}

	ocr, err := p.ocr.ExtractText(ctx, image)
	if err != nil {
		p.logRemoteFailure(ctx, "ocr", err)
		return nil, err
	}
	if ocr.MergedText == nil {
		e := models.NewValidationError("no text detected in image")
		e.Code = models.CodeEmptyOCRResult
		return nil, e
	}

	tr, err := p.Translate(ctx, targetLanguage, *ocr.MergedText)
	if err != nil {
		return nil, err
	}

	out := &ImageTranslation{Translation: tr, Width: ocr.Width, Height: ocr.Height}
	sent := &models.Sentence{
		UserID:          userID,
		Original:        tr.InputText,
		OriginalLang:    tr.DetectedLanguage,
		Translation:     tr.TranslatedText,
		TranslationLang: targetLanguage,
	}
	if err := p.sentences.CreateSentence(ctx, sent); err != nil {
		p.log.WarnContext(ctx, "image sentence not persisted", "user_id", userID, "error", err)
		return out, nil
	}
	out.SentenceID = sent.ID
	out.Persisted = true
	return out, nil
}

func validateExplainInput(in services.ExplainInput) error {
	switch {
	case strings.TrimSpace(in.Original) == "":
		return models.NewValidationError("original sentence is required")
	case strings.TrimSpace(in.Translated) == "":
		return models.NewValidationError("translated sentence is required")
	case strings.TrimSpace(in.SourceLang) == "":
		return models.NewValidationError("original language is required")
	case strings.TrimSpace(in.TargetLang) == "":
		return models.NewValidationError("target language is required")
	}
	return nil
}

// Explain returns the explanation without persisting anything.
func (p *Pipeline) Explain(ctx context.Context, in services.ExplainInput) (*services.Explanation, error) {
	if err := validateExplainInput(in); err != nil {
		return nil, err
	}
	expl, err := p.explainer.ExplainSentence(ctx, in)
	if err != nil {
		p.logRemoteFailure(ctx, "explain", err)
		return nil, err
	}
	return expl, nil
}

type SavedExplanation struct {
	Sentence      *models.Sentence
	Explanation   *services.Explanation
	WordsInserted bool
}

// ExplainAndSave persists a new sentence with its explanation and words. When
// the word insert fails the sentence is kept and the error is returned.
func (p *Pipeline) ExplainAndSave(ctx context.Context, userID int64, in services.ExplainInput) (*SavedExplanation, error) {
	expl, err := p.Explain(ctx, in)
	if err != nil {
		return nil, err
	}

	entire := expl.EntireExplanation
	sent := &models.Sentence{
		UserID:          userID,
		Original:        in.Original,
		OriginalLang:    in.SourceLang,
		Translation:     in.Translated,
		TranslationLang: in.TargetLang,
		Explanation:     &entire,
	}
	if err := p.sentences.CreateSentence(ctx, sent); err != nil {
		return nil, asStorageError("create sentence", err)
	}

	words := toWords(sent.ID, expl.Words)
	inserted, err := p.sentences.AttachWords(ctx, userID, sent.ID, words)
	if err != nil {
		p.log.WarnContext(ctx, "words not attached, sentence kept",
			"user_id", userID, "sentence_id", sent.ID, "error", err)
		return nil, asStorageError("attach words", err)
	}
	sent.Words = words
	return &SavedExplanation{Sentence: sent, Explanation: expl, WordsInserted: inserted}, nil
}

// RegenerateExplanation re-explains a saved sentence. The explanation is
// always overwritten; words are written only if the sentence has none.
func (p *Pipeline) RegenerateExplanation(ctx context.Context, userID, sentenceID int64) (*SavedExplanation, error) {
	sent, err := p.sentences.GetSentence(ctx, userID, sentenceID)
	if err != nil {
		return nil, err
	}

	expl, err := p.Explain(ctx, services.ExplainInput{
		Original:   sent.Original,
		Translated: sent.Translation,
		SourceLang: sent.OriginalLang,
		TargetLang: sent.TranslationLang,
	})
	if err != nil {
		return nil, err
	}

	inserted, err := p.sentences.SaveExplanation(ctx, userID, sentenceID, expl.EntireExplanation, toWords(sentenceID, expl.Words))
	if err != nil {
		return nil, asStorageError("save explanation", err)
	}
	if !inserted {
		p.log.DebugContext(ctx, "sentence words already frozen, new word explanations discarded",
			"user_id", userID, "sentence_id", sentenceID)
	}

	updated, err := p.sentences.GetSentence(ctx, userID, sentenceID)
	if err != nil {
		return nil, err
	}
	return &SavedExplanation{Sentence: updated, Explanation: expl, WordsInserted: inserted}, nil
}

// PostprocessSelection rebuilds reading order for client-side OCR output.
func (p *Pipeline) PostprocessSelection(ctx context.Context, layout models.OCRLayout) (*services.ReadingOrderResult, error) {
	if len(layout.Lines) == 0 {
		return nil, models.NewValidationError("ocr data has no lines")
	}
	res, err := p.explainer.ReconstructReadingOrder(ctx, layout)
	if err != nil {
		p.logRemoteFailure(ctx, "reading order", err)
		return nil, err
	}
	return res, nil
}

func toWords(sentenceID int64, in []services.WordExplanation) []models.Word {
	words := make([]models.Word, len(in))
	for i, w := range in {
		words[i] = models.Word{
			SentenceID:     sentenceID,
			Position:       i,
			OriginalWord:   w.OriginalWord,
			TranslatedWord: w.TranslatedWord,
			Explanation:    w.Explanation,
			Romanization:   w.Romanization,
		}
	}
	return words
}

// asStorageError keeps application errors as they are and wraps the rest.
func asStorageError(op string, err error) error {
	if _, ok := models.AsError(err); ok {
		return err
	}
	return models.NewStorageError(op, err)
}

func (p *Pipeline) logRemoteFailure(ctx context.Context, op string, err error) {
	e, ok := models.AsError(err)
	if !ok || (e.Kind != models.KindRemoteUnavailable && e.Kind != models.KindLLMParse) {
		return
	}
	p.log.WarnContext(ctx, "provider call failed",
		"op", op, "kind", e.Kind, "code", e.Code, "status", e.ProviderStatus, "detail", e.Detail)
}
