package handlers

import (
	"time"

	"github.com/developia-II/linguascreen-backend/internal/learning"
	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/services"
)

// Wire types. Persisted entities are mapped into these explicitly.

type userResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

type translateResponse struct {
	Raw          string  `json:"raw"`
	Result       string  `json:"result"`
	FromLanguage string  `json:"fromLanguage"`
	ToLanguage   string  `json:"toLanguage"`
	Score        float64 `json:"score"`
}

func toTranslateResponse(r *services.TranslationResult, target string) translateResponse {
	return translateResponse{
		Raw:          r.InputText,
		Result:       r.TranslatedText,
		FromLanguage: r.DetectedLanguage,
		ToLanguage:   target,
		Score:        r.ConfidenceScore,
	}
}

type imageMetadata struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SentenceID *int64 `json:"sentenceId,omitempty"`
	Persisted  bool   `json:"persisted"`
}

type wordExplanationResponse struct {
	OriginalWord   string `json:"originalWord"`
	TranslatedWord string `json:"translatedWord"`
	Explanation    string `json:"explanation"`
	Romanization   string `json:"romanization,omitempty"`
}

type explanationResponse struct {
	WordsExplanation  []wordExplanationResponse `json:"wordsExplanation"`
	EntireExplanation string                    `json:"entireExplanation"`
}

func toExplanationResponse(e *services.Explanation) explanationResponse {
	words := make([]wordExplanationResponse, len(e.Words))
	for i, w := range e.Words {
		words[i] = wordExplanationResponse{
			OriginalWord:   w.OriginalWord,
			TranslatedWord: w.TranslatedWord,
			Explanation:    w.Explanation,
			Romanization:   w.Romanization,
		}
	}
	return explanationResponse{WordsExplanation: words, EntireExplanation: e.EntireExplanation}
}

type usageMetadata struct {
	Usage services.Usage `json:"usage"`
}

type regenerateMetadata struct {
	Usage         services.Usage `json:"usage"`
	WordsInserted bool           `json:"wordsInserted"`
}

type regenerateResponse struct {
	Dictionary  sentenceResponse    `json:"dictionary"`
	Explanation explanationResponse `json:"explanation"`
}

type wordResponse struct {
	ID             int64  `json:"id"`
	Position       int    `json:"position"`
	OriginalWord   string `json:"originalWord"`
	TranslatedWord string `json:"translatedWord"`
	Explanation    string `json:"explanation"`
	Romanization   string `json:"romanization,omitempty"`
}

func toWordResponse(w models.Word) wordResponse {
	return wordResponse{
		ID:             w.ID,
		Position:       w.Position,
		OriginalWord:   w.OriginalWord,
		TranslatedWord: w.TranslatedWord,
		Explanation:    w.Explanation,
		Romanization:   w.Romanization,
	}
}

type sentenceResponse struct {
	ID              int64          `json:"id"`
	Original        string         `json:"original"`
	OriginalLang    string         `json:"originalLang"`
	Translation     string         `json:"translation"`
	TranslationLang string         `json:"translationLang"`
	Explanation     *string        `json:"explanation"`
	CreatedAt       time.Time      `json:"createdAt"`
	Words           []wordResponse `json:"words,omitempty"`
}

func toSentenceResponse(s *models.Sentence) sentenceResponse {
	out := sentenceResponse{
		ID:              s.ID,
		Original:        s.Original,
		OriginalLang:    s.OriginalLang,
		Translation:     s.Translation,
		TranslationLang: s.TranslationLang,
		Explanation:     s.Explanation,
		CreatedAt:       s.CreatedAt,
	}
	if s.Words != nil {
		out.Words = make([]wordResponse, len(s.Words))
		for i, w := range s.Words {
			out.Words[i] = toWordResponse(w)
		}
	}
	return out
}

type quizOptionResponse struct {
	wordResponse
	IsCorrectForQuestion string `json:"isCorrectForQuestion"`
}

type quizResponse struct {
	SentenceID         int64                `json:"sentenceId"`
	OriginalSentence   string               `json:"originalSentence"`
	Translation        string               `json:"translation"`
	QuestionWord       string               `json:"questionWord"`
	Options            []quizOptionResponse `json:"options"`
	CorrectAnswerIndex int                  `json:"correctAnswerIndex"`
}

func toQuizResponse(q *learning.Quiz) quizResponse {
	opts := make([]quizOptionResponse, len(q.Options))
	for i, o := range q.Options {
		opts[i] = quizOptionResponse{wordResponse: toWordResponse(o.Word), IsCorrectForQuestion: o.IsCorrectForQuestion}
	}
	return quizResponse{
		SentenceID:         q.SentenceID,
		OriginalSentence:   q.OriginalSentence,
		Translation:        q.Translation,
		QuestionWord:       q.QuestionWord,
		Options:            opts,
		CorrectAnswerIndex: q.CorrectAnswerIndex,
	}
}
