//go:build integration

package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/developia-II/linguascreen-backend/internal/config"
	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/store"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func newPostgresStore(t *testing.T) store.Store {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	ctx := context.Background()
	pool, err := NewPool(ctx, config.StoreConfig{
		DatabaseURL: "postgres://testuser:testpass@" + addr + "/testdb?sslmode=disable",
		MaxConns:    16,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))

	st := NewPostgresStore(pool)
	t.Cleanup(func() { _ = st.Close(ctx) })
	return st
}

func newMongoStore(t *testing.T) store.Store {
	return openMongoStore(t)
}

func openMongoStore(t *testing.T) *MongoStore {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}, "27017")

	ctx := context.Background()
	cfg := config.StoreConfig{MongoURI: "mongodb://" + addr, DBName: "linguascreen_test"}
	client, err := ConnectMongo(ctx, cfg)
	require.NoError(t, err)

	st := NewMongoStore(client, cfg.DBName, nil)
	require.NoError(t, st.EnsureIndexes(ctx))
	t.Cleanup(func() { _ = st.Close(ctx) })
	return st
}

func TestStores(t *testing.T) {
	backends := map[string]func(*testing.T) store.Store{
		"postgres": newPostgresStore,
		"mongo":    newMongoStore,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			st := open(t)
			t.Run("users", func(t *testing.T) { testUsers(t, st) })
			t.Run("sentence ownership", func(t *testing.T) { testSentenceOwnership(t, st) })
			t.Run("words written once", func(t *testing.T) { testWordsWrittenOnce(t, st) })
			t.Run("concurrent attach", func(t *testing.T) { testConcurrentAttach(t, st) })
			t.Run("quiz candidates", func(t *testing.T) { testQuizCandidates(t, st) })
		})
	}
}

func createUser(t *testing.T, st store.Store, name string) int64 {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", HashedPassword: "hash"}
	require.NoError(t, st.CreateUser(context.Background(), u))
	require.NotZero(t, u.ID)
	return u.ID
}

func createSentence(t *testing.T, st store.Store, userID int64, original string) int64 {
	t.Helper()
	s := &models.Sentence{UserID: userID, Original: original, OriginalLang: "fr", Translation: "t:" + original, TranslationLang: "en"}
	require.NoError(t, st.CreateSentence(context.Background(), s))
	require.NotZero(t, s.ID)
	return s.ID
}

func makeWords(tokens ...string) []models.Word {
	out := make([]models.Word, len(tokens))
	for i, tok := range tokens {
		out[i] = models.Word{OriginalWord: tok, TranslatedWord: "t:" + tok, Explanation: "e:" + tok}
	}
	return out
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	id := createUser(t, st, "alice")

	got, err := st.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "hash", got.HashedPassword)

	err = st.CreateUser(ctx, &models.User{Username: "alice2", Email: "alice@example.com", HashedPassword: "x"})
	assert.True(t, errors.Is(err, models.ErrConflict))
	err = st.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", HashedPassword: "x"})
	assert.True(t, errors.Is(err, models.ErrConflict))

	_, err = st.UserByID(ctx, id+1000)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func testSentenceOwnership(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := createUser(t, st, "owner")
	other := createUser(t, st, "other")
	id := createSentence(t, st, owner, "Bonjour le monde")

	err := st.CreateSentence(ctx, &models.Sentence{UserID: owner + 1000, Original: "x", OriginalLang: "fr", Translation: "y", TranslationLang: "en"})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = st.GetSentence(ctx, other, id)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.True(t, errors.Is(st.DeleteSentence(ctx, other, id), models.ErrNotFound))

	list, err := st.ListSentences(ctx, other, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, list)

	createSentence(t, st, owner, "second")
	createSentence(t, st, owner, "third")
	page, err := st.ListSentences(ctx, owner, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Original)

	require.NoError(t, st.DeleteSentence(ctx, owner, id))
	_, err = st.GetSentence(ctx, owner, id)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func testWordsWrittenOnce(t *testing.T, st store.Store) {
	ctx := context.Background()
	user := createUser(t, st, "writer")
	id := createSentence(t, st, user, "Le chat dort")

	inserted, err := st.SaveExplanation(ctx, user, id, "first", makeWords("Le", "chat", "dort"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = st.SaveExplanation(ctx, user, id, "second", makeWords("X", "Y"))
	require.NoError(t, err)
	assert.False(t, inserted)

	inserted, err = st.AttachWords(ctx, user, id, makeWords("Z"))
	require.NoError(t, err)
	assert.False(t, inserted)

	sent, err := st.GetSentence(ctx, user, id)
	require.NoError(t, err)
	require.NotNil(t, sent.Explanation)
	assert.Equal(t, "second", *sent.Explanation)
	require.Len(t, sent.Words, 3)
	for i, want := range []string{"Le", "chat", "dort"} {
		assert.Equal(t, want, sent.Words[i].OriginalWord)
		assert.Equal(t, i, sent.Words[i].Position)
		assert.Equal(t, id, sent.Words[i].SentenceID)
	}
}

func testConcurrentAttach(t *testing.T, st store.Store) {
	ctx := context.Background()
	user := createUser(t, st, "racer")
	id := createSentence(t, st, user, "un deux trois quatre")

	const writers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag := fmt.Sprint(i)
			ok, err := st.SaveExplanation(ctx, user, id, "run "+tag, makeWords("un"+tag, "deux"+tag, "trois"+tag, "quatre"+tag))
			if !assert.NoError(t, err) {
				return
			}
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	sent, err := st.GetSentence(ctx, user, id)
	require.NoError(t, err)
	assert.Len(t, sent.Words, 4)
}

func testQuizCandidates(t *testing.T, st store.Store) {
	ctx := context.Background()
	user := createUser(t, st, "quizzer")
	short := createSentence(t, st, user, "short")
	long := createSentence(t, st, user, "long")
	createSentence(t, st, user, "bare")

	_, err := st.AttachWords(ctx, user, short, makeWords("a", "b", "c", "d"))
	require.NoError(t, err)
	_, err = st.AttachWords(ctx, user, long, makeWords("a", "b", "c", "d", "e"))
	require.NoError(t, err)

	ids, err := st.QuizSentenceIDs(ctx, user, store.MinQuizWords)
	require.NoError(t, err)
	assert.Equal(t, []int64{long}, ids)

	other := createUser(t, st, "stranger")
	ids, err = st.QuizSentenceIDs(ctx, other, store.MinQuizWords)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMongoStore_FailedWordBatchIsRetried(t *testing.T) {
	st := openMongoStore(t)
	ctx := context.Background()
	user := createUser(t, st, "retry")
	id := createSentence(t, st, user, "un deux trois")

	// Occupy the third id of the next word block so the ordered insert
	// writes two words and then fails.
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := st.collection(countersCollection).FindOne(ctx, bson.M{"_id": wordsCollection}).Decode(&counter)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		require.NoError(t, err)
	}
	blocker := models.Word{ID: counter.Seq + 3, SentenceID: -1, OriginalWord: "blocker"}
	_, err = st.collection(wordsCollection).InsertOne(ctx, blocker)
	require.NoError(t, err)

	inserted, err := st.SaveExplanation(ctx, user, id, "first", makeWords("un", "deux", "trois"))
	require.Error(t, err)
	assert.False(t, inserted)

	sent, err := st.GetSentence(ctx, user, id)
	require.NoError(t, err)
	assert.Empty(t, sent.Words)

	inserted, err = st.SaveExplanation(ctx, user, id, "second", makeWords("un", "deux", "trois"))
	require.NoError(t, err)
	assert.True(t, inserted)

	sent, err = st.GetSentence(ctx, user, id)
	require.NoError(t, err)
	require.Len(t, sent.Words, 3)
	assert.Equal(t, "second", *sent.Explanation)

	inserted, err = st.AttachWords(ctx, user, id, makeWords("X"))
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestMongoStore_ClaimClearsLeftoverWords(t *testing.T) {
	st := openMongoStore(t)
	ctx := context.Background()
	user := createUser(t, st, "leftover")
	id := createSentence(t, st, user, "Le chat")

	_, err := st.collection(wordsCollection).InsertOne(ctx, models.Word{ID: -100, SentenceID: id, Position: 0, OriginalWord: "stale"})
	require.NoError(t, err)

	inserted, err := st.AttachWords(ctx, user, id, makeWords("Le", "chat"))
	require.NoError(t, err)
	assert.True(t, inserted)

	sent, err := st.GetSentence(ctx, user, id)
	require.NoError(t, err)
	require.Len(t, sent.Words, 2)
	assert.Equal(t, "Le", sent.Words[0].OriginalWord)
}
