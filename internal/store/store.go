// Package store defines the persistence contract shared by the Postgres and
// Mongo backends. Every sentence lookup is scoped to its owner: a sentence
// owned by someone else is reported as models.ErrNotFound.
package store

import (
	"context"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

// MinQuizWords is the number of words a sentence needs to be quizzed on.
const MinQuizWords = 5

type Users interface {
	// CreateUser assigns u.ID. Duplicate username or email is models.ErrConflict.
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

type Sentences interface {
	// CreateSentence assigns s.ID and s.CreatedAt.
	CreateSentence(ctx context.Context, s *models.Sentence) error
	// GetSentence returns the sentence with its words loaded.
	GetSentence(ctx context.Context, userID, sentenceID int64) (*models.Sentence, error)
	ListSentences(ctx context.Context, userID int64, skip, limit int) ([]models.Sentence, error)
	// DeleteSentence removes the sentence and its words.
	DeleteSentence(ctx context.Context, userID, sentenceID int64) error

	// AttachWords bulk-inserts words for a sentence in the given order unless
	// the sentence already has words. It reports whether the batch was written.
	AttachWords(ctx context.Context, userID, sentenceID int64, words []models.Word) (bool, error)
	// SaveExplanation overwrites the sentence explanation and, in the same
	// transaction, attaches words iff the sentence has none yet.
	SaveExplanation(ctx context.Context, userID, sentenceID int64, explanation string, words []models.Word) (bool, error)

	// QuizSentenceIDs lists the user's sentences owning at least minWords words.
	QuizSentenceIDs(ctx context.Context, userID int64, minWords int) ([]int64, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	Users
	Sentences
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
