package learning

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/store/storetest"
)

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestNextQuiz_Shape(t *testing.T) {
	mem := storetest.NewMemory()
	user := mem.SeedUser("alice")
	id := mem.SeedSentence(user, "one two three four five six seven",
		"one", "two", "three", "four", "five", "six", "seven")

	gen := NewQuizGenerator(mem, seededRand(1))
	for range 50 {
		quiz, err := gen.NextQuiz(context.Background(), user)
		require.NoError(t, err)

		assert.Equal(t, id, quiz.SentenceID)
		assert.Equal(t, "t:one two three four five six seven", quiz.Translation)
		require.Len(t, quiz.Options, QuizOptionCount)
		require.GreaterOrEqual(t, quiz.CorrectAnswerIndex, 0)
		require.Less(t, quiz.CorrectAnswerIndex, QuizOptionCount)
		assert.Equal(t, quiz.QuestionWord, quiz.Options[quiz.CorrectAnswerIndex].Word.OriginalWord)

		seen := map[int64]bool{}
		for _, opt := range quiz.Options {
			assert.False(t, seen[opt.Word.ID], "option %d repeated", opt.Word.ID)
			seen[opt.Word.ID] = true
			assert.Equal(t, id, opt.Word.SentenceID)
			assert.Equal(t, quiz.QuestionWord, opt.IsCorrectForQuestion)
		}
	}
}

func TestNextQuiz_OnlyEligibleSentences(t *testing.T) {
	mem := storetest.NewMemory()
	user := mem.SeedUser("alice")
	mem.SeedSentence(user, "short", "a", "b", "c", "d")
	eligible := mem.SeedSentence(user, "long", "a", "b", "c", "d", "e")
	mem.SeedSentence(user, "bare")

	gen := NewQuizGenerator(mem, seededRand(7))
	for range 20 {
		quiz, err := gen.NextQuiz(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, eligible, quiz.SentenceID)
	}
}

func TestNextQuiz_InsufficientVocabulary(t *testing.T) {
	mem := storetest.NewMemory()
	alice := mem.SeedUser("alice")
	bob := mem.SeedUser("bob")
	mem.SeedSentence(alice, "four words only here", "four", "words", "only", "here")
	mem.SeedSentence(bob, "bob has enough words now", "bob", "has", "enough", "words", "now")

	_, err := NewQuizGenerator(mem, nil).NextQuiz(context.Background(), alice)
	assert.True(t, errors.Is(err, models.ErrInsufficientVocabulary))

	carol := mem.SeedUser("carol")
	_, err = NewQuizGenerator(mem, nil).NextQuiz(context.Background(), carol)
	assert.True(t, errors.Is(err, models.ErrInsufficientVocabulary))
}

func TestNextQuiz_DeterministicWithSeed(t *testing.T) {
	mem := storetest.NewMemory()
	user := mem.SeedUser("alice")
	mem.SeedSentence(user, "s1", "a", "b", "c", "d", "e", "f")
	mem.SeedSentence(user, "s2", "g", "h", "i", "j", "k", "l", "m")

	run := func() []*Quiz {
		gen := NewQuizGenerator(mem, seededRand(42))
		out := make([]*Quiz, 10)
		for i := range out {
			q, err := gen.NextQuiz(context.Background(), user)
			require.NoError(t, err)
			out[i] = q
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestNextQuiz_DoesNotMutateStore(t *testing.T) {
	mem := storetest.NewMemory()
	user := mem.SeedUser("alice")
	id := mem.SeedSentence(user, "s", "a", "b", "c", "d", "e")

	before, err := mem.GetSentence(context.Background(), user, id)
	require.NoError(t, err)

	gen := NewQuizGenerator(mem, seededRand(3))
	for range 10 {
		_, err := gen.NextQuiz(context.Background(), user)
		require.NoError(t, err)
	}

	after, err := mem.GetSentence(context.Background(), user, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSample(t *testing.T) {
	words := make([]models.Word, 8)
	for i := range words {
		words[i] = models.Word{ID: int64(i + 1)}
	}

	got := sample(seededRand(9), words, 5)
	require.Len(t, got, 5)
	ids := map[int64]bool{}
	for _, w := range got {
		ids[w.ID] = true
	}
	assert.Len(t, ids, 5)
	for i, w := range words {
		assert.Equal(t, int64(i+1), w.ID, "input slice left untouched")
	}
}
