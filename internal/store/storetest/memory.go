// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/store"
)

// Memory is a goroutine-safe store.Store. Fail* hooks inject errors.
type Memory struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]models.User
	sentences map[int64]models.Sentence
	words     map[int64][]models.Word

	FailCreateSentence error
	FailAttachWords    error
	FailPing           error
}

var _ store.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:     map[int64]models.User{},
		sentences: map[int64]models.Sentence{},
		words:     map[int64][]models.Word{},
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) Ping(context.Context) error  { return m.FailPing }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return models.NewConflictError("username already registered")
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return models.NewConflictError("email already registered")
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, models.NewNotFoundError("user")
}

func (m *Memory) UserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user")
	}
	return &u, nil
}

func (m *Memory) CreateSentence(_ context.Context, s *models.Sentence) error {
	if m.FailCreateSentence != nil {
		return m.FailCreateSentence
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	s.CreatedAt = time.Now().UTC()
	stored := *s
	stored.Words = nil
	m.sentences[s.ID] = stored
	return nil
}

func (m *Memory) owned(userID, sentenceID int64) (models.Sentence, bool) {
	s, ok := m.sentences[sentenceID]
	if !ok || s.UserID != userID {
		return models.Sentence{}, false
	}
	return s, true
}

func (m *Memory) GetSentence(_ context.Context, userID, sentenceID int64) (*models.Sentence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.owned(userID, sentenceID)
	if !ok {
		return nil, models.NewNotFoundError("sentence")
	}
	s.Words = append([]models.Word{}, m.words[sentenceID]...)
	return &s, nil
}

func (m *Memory) ListSentences(_ context.Context, userID int64, skip, limit int) ([]models.Sentence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Sentence{}
	for _, s := range m.sentences {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if skip >= len(out) {
		return []models.Sentence{}, nil
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) DeleteSentence(_ context.Context, userID, sentenceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owned(userID, sentenceID); !ok {
		return models.NewNotFoundError("sentence")
	}
	delete(m.sentences, sentenceID)
	delete(m.words, sentenceID)
	return nil
}

func (m *Memory) AttachWords(_ context.Context, userID, sentenceID int64, words []models.Word) (bool, error) {
	if m.FailAttachWords != nil {
		return false, m.FailAttachWords
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owned(userID, sentenceID); !ok {
		return false, models.NewNotFoundError("sentence")
	}
	return m.insertIfAbsent(sentenceID, words), nil
}

func (m *Memory) SaveExplanation(_ context.Context, userID, sentenceID int64, explanation string, words []models.Word) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.owned(userID, sentenceID)
	if !ok {
		return false, models.NewNotFoundError("sentence")
	}
	s.Explanation = &explanation
	m.sentences[sentenceID] = s
	return m.insertIfAbsent(sentenceID, words), nil
}

func (m *Memory) insertIfAbsent(sentenceID int64, words []models.Word) bool {
	if len(words) == 0 || len(m.words[sentenceID]) > 0 {
		return false
	}
	stored := make([]models.Word, len(words))
	for i, w := range words {
		w.ID = m.id()
		w.SentenceID = sentenceID
		w.Position = i
		stored[i] = w
	}
	m.words[sentenceID] = stored
	return true
}

func (m *Memory) QuizSentenceIDs(_ context.Context, userID int64, minWords int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for id, s := range m.sentences {
		if s.UserID == userID && len(m.words[id]) >= minWords {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// SeedUser inserts a user directly and returns its id.
func (m *Memory) SeedUser(username string) int64 {
	u := &models.User{Username: username, Email: username + "@example.com"}
	_ = m.CreateUser(context.Background(), u)
	return u.ID
}

// SeedSentence inserts a sentence with words and returns its id.
func (m *Memory) SeedSentence(userID int64, original string, words ...string) int64 {
	s := &models.Sentence{UserID: userID, Original: original, OriginalLang: "fr", Translation: "t:" + original, TranslationLang: "en"}
	_ = m.CreateSentence(context.Background(), s)
	if len(words) > 0 {
		ws := make([]models.Word, len(words))
		for i, w := range words {
			ws[i] = models.Word{OriginalWord: w, TranslatedWord: "t:" + w, Explanation: "e:" + w}
		}
		m.mu.Lock()
		m.insertIfAbsent(s.ID, ws)
		m.mu.Unlock()
	}
	return s.ID
}
