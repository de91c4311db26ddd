package learning

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/store"
)

// QuizOptionCount is the number of options in every quiz.
const QuizOptionCount = 5

type QuizOption struct {
	Word                 models.Word
	IsCorrectForQuestion string
}

type Quiz struct {
	SentenceID         int64
	OriginalSentence   string
	Translation        string
	QuestionWord       string
	Options            []QuizOption
	CorrectAnswerIndex int
}

// QuizGenerator builds multiple-choice recall exercises from saved words.
// It only reads from the store.
type QuizGenerator struct {
	sentences store.Sentences

	mu  sync.Mutex
	rng *rand.Rand
}

// NewQuizGenerator uses rng for every random choice; nil seeds a fresh PCG.
func NewQuizGenerator(sentences store.Sentences, rng *rand.Rand) *QuizGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &QuizGenerator{sentences: sentences, rng: rng}
}

func (g *QuizGenerator) NextQuiz(ctx context.Context, userID int64) (*Quiz, error) {
	ids, err := g.sentences.QuizSentenceIDs(ctx, userID, store.MinQuizWords)
	if err != nil {
		return nil, asStorageError("quiz sentences", err)
	}
	if len(ids) == 0 {
		return nil, &models.Error{
			Kind:   models.KindInsufficientVocabulary,
			Detail: "save at least one sentence with 5 explained words to start a quiz",
		}
	}

	sent, err := g.sentences.GetSentence(ctx, userID, ids[g.intN(len(ids))])
	if err != nil {
		return nil, err
	}
	if len(sent.Words) < QuizOptionCount {
		// Words changed between the two reads; the sentence was deleted or
		// is mid-insert.
		return nil, &models.Error{Kind: models.KindInsufficientVocabulary, Detail: "sentence has too few words"}
	}

	g.mu.Lock()
	picked := sample(g.rng, sent.Words, QuizOptionCount)
	questionIdx := g.rng.IntN(len(picked))
	order := g.rng.Perm(len(picked))
	g.mu.Unlock()

	question := picked[questionIdx]
	quiz := &Quiz{
		SentenceID:       sent.ID,
		OriginalSentence: sent.Original,
		Translation:      sent.Translation,
		QuestionWord:     question.OriginalWord,
		Options:          make([]QuizOption, len(picked)),
	}
	for i, src := range order {
		if src == questionIdx {
			quiz.CorrectAnswerIndex = i
		}
		quiz.Options[i] = QuizOption{Word: picked[src], IsCorrectForQuestion: question.OriginalWord}
	}
	return quiz, nil
}

func (g *QuizGenerator) intN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

// sample draws k distinct elements without replacement with a partial
// Fisher-Yates shuffle over a copy of words.
func sample(rng *rand.Rand, words []models.Word, k int) []models.Word {
	pool := make([]models.Word, len(words))
	copy(pool, words)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
