package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/store"
)

const (
	usersCollection     = "users"
	sentencesCollection = "sentences"
	wordsCollection     = "words"
	countersCollection  = "counters"

	// wordsFrozenField marks a sentence whose word batch has been claimed.
	wordsFrozenField = "wordsFrozen"
)

// MongoStore implements store.Store on MongoDB. Numeric ids come from a
// counters collection so both backends expose the same identifiers.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

var _ store.Store = (*MongoStore)(nil)

func NewMongoStore(client *mongo.Client, dbName string, log *slog.Logger) *MongoStore {
	if log == nil {
		log = slog.Default()
	}
	return &MongoStore{client: client, db: client.Database(dbName), log: log}
}

func (s *MongoStore) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_key")},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_username_key")},
		},
		sentencesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "_id", Value: 1}}},
		},
		wordsCollection: {
			{
				Keys:    bson.D{{Key: "sentenceId", Value: 1}, {Key: "position", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("words_sentence_position_key"),
			},
		},
	}
	for coll, idx := range specs {
		if _, err := s.collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return models.NewStorageError("ping", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return disconnectMongo(ctx, s.client)
}

// reserveIDs atomically advances the named counter by n and returns the first
// id of the reserved block.
func (s *MongoStore) reserveIDs(ctx context.Context, name string, n int) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.collection(countersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(n)}}, opts).
		Decode(&counter)
	if err != nil {
		return 0, models.NewStorageError("reserve "+name+" id", err)
	}
	return counter.Seq - int64(n) + 1, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	id, err := s.reserveIDs(ctx, usersCollection, 1)
	if err != nil {
		return err
	}
	u.ID = id
	u.CreatedAt = nowUTC()

	if _, err := s.collection(usersCollection).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			for _, idx := range []string{"users_email_key", "users_username_key"} {
				if strings.Contains(err.Error(), idx) {
					return models.NewConflictError(conflictDetail("user", idx))
				}
			}
		}
		return mapMongoError(err, "user")
	}
	return nil
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.collection(usersCollection).FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mapMongoError(err, "user")
	}
	return &u, nil
}

// ---------------------------------------------------------------------------
// Sentences
// ---------------------------------------------------------------------------

func (s *MongoStore) CreateSentence(ctx context.Context, sent *models.Sentence) error {
	if _, err := s.UserByID(ctx, sent.UserID); err != nil {
		return err
	}

	id, err := s.reserveIDs(ctx, sentencesCollection, 1)
	if err != nil {
		return err
	}
	sent.ID = id
	sent.CreatedAt = nowUTC()

	if _, err := s.collection(sentencesCollection).InsertOne(ctx, sent); err != nil {
		return mapMongoError(err, "sentence")
	}
	return nil
}

func ownedSentence(userID, sentenceID int64) bson.M {
	return bson.M{"_id": sentenceID, "userId": userID}
}

func (s *MongoStore) GetSentence(ctx context.Context, userID, sentenceID int64) (*models.Sentence, error) {
	var sent models.Sentence
	if err := s.collection(sentencesCollection).FindOne(ctx, ownedSentence(userID, sentenceID)).Decode(&sent); err != nil {
		return nil, mapMongoError(err, "sentence")
	}

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := s.collection(wordsCollection).Find(ctx, bson.M{"sentenceId": sentenceID}, opts)
	if err != nil {
		return nil, mapMongoError(err, "word")
	}
	words := []models.Word{}
	if err := cursor.All(ctx, &words); err != nil {
		return nil, mapMongoError(err, "word")
	}
	sent.Words = words
	return &sent, nil
}

func (s *MongoStore) ListSentences(ctx context.Context, userID int64, skip, limit int) ([]models.Sentence, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := s.collection(sentencesCollection).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, mapMongoError(err, "sentence")
	}
	sentences := []models.Sentence{}
	if err := cursor.All(ctx, &sentences); err != nil {
		return nil, mapMongoError(err, "sentence")
	}
	return sentences, nil
}

func (s *MongoStore) DeleteSentence(ctx context.Context, userID, sentenceID int64) error {
	res, err := s.collection(sentencesCollection).DeleteOne(ctx, ownedSentence(userID, sentenceID))
	if err != nil {
		return mapMongoError(err, "sentence")
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("sentence")
	}

	// The sentence is gone at this point; leftover words are unreachable.
	if _, err := s.collection(wordsCollection).DeleteMany(ctx, bson.M{"sentenceId": sentenceID}); err != nil {
		s.log.Warn("orphaned words left after sentence delete", "sentence_id", sentenceID, "error", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Words
// ---------------------------------------------------------------------------

func (s *MongoStore) AttachWords(ctx context.Context, userID, sentenceID int64, words []models.Word) (bool, error) {
	return s.claimAndInsertWords(ctx, userID, sentenceID, words)
}

// SaveExplanation overwrites the explanation, then attaches words through the
// same claim as AttachWords. The overwrite is idempotent, so only the claim
// needs to be atomic.
func (s *MongoStore) SaveExplanation(ctx context.Context, userID, sentenceID int64, explanation string, words []models.Word) (bool, error) {
	res, err := s.collection(sentencesCollection).UpdateOne(ctx,
		ownedSentence(userID, sentenceID),
		bson.M{"$set": bson.M{"explanation": explanation}},
	)
	if err != nil {
		return false, mapMongoError(err, "sentence")
	}
	if res.MatchedCount == 0 {
		return false, models.NewNotFoundError("sentence")
	}
	return s.claimAndInsertWords(ctx, userID, sentenceID, words)
}

// claimAndInsertWords flips the sentence's wordsFrozen flag with a single
// conditional update. Only the writer that flips it inserts words. The claim
// is held for good once words land, so any word found under a fresh claim is
// left over from a failed batch and is cleared first. A failed insert clears
// its partial batch and releases the claim.
func (s *MongoStore) claimAndInsertWords(ctx context.Context, userID, sentenceID int64, words []models.Word) (bool, error) {
	sentences := s.collection(sentencesCollection)

	if len(words) == 0 {
		return false, s.sentenceExists(ctx, userID, sentenceID)
	}

	filter := ownedSentence(userID, sentenceID)
	filter[wordsFrozenField] = bson.M{"$ne": true}
	res, err := sentences.UpdateOne(ctx, filter, bson.M{"$set": bson.M{wordsFrozenField: true}})
	if err != nil {
		return false, mapMongoError(err, "sentence")
	}
	if res.MatchedCount == 0 {
		return false, s.sentenceExists(ctx, userID, sentenceID)
	}

	err = s.clearWords(ctx, sentenceID)
	if err == nil {
		err = s.insertWords(ctx, sentenceID, words)
	}
	if err != nil {
		s.releaseClaim(context.WithoutCancel(ctx), sentenceID)
		return false, err
	}
	return true, nil
}

func (s *MongoStore) sentenceExists(ctx context.Context, userID, sentenceID int64) error {
	n, err := s.collection(sentencesCollection).CountDocuments(ctx, ownedSentence(userID, sentenceID))
	if err != nil {
		return mapMongoError(err, "sentence")
	}
	if n == 0 {
		return models.NewNotFoundError("sentence")
	}
	return nil
}

func (s *MongoStore) clearWords(ctx context.Context, sentenceID int64) error {
	if _, err := s.collection(wordsCollection).DeleteMany(ctx, bson.M{"sentenceId": sentenceID}); err != nil {
		return mapMongoError(err, "word")
	}
	return nil
}

// releaseClaim drops a partial batch and unfreezes the sentence. If the
// cleanup fails the next claim winner clears the leftovers.
func (s *MongoStore) releaseClaim(ctx context.Context, sentenceID int64) {
	if err := s.clearWords(ctx, sentenceID); err != nil {
		s.log.Warn("clear partial words", "sentence_id", sentenceID, "error", err)
	}
	_, err := s.collection(sentencesCollection).UpdateOne(ctx,
		bson.M{"_id": sentenceID},
		bson.M{"$unset": bson.M{wordsFrozenField: ""}},
	)
	if err != nil {
		s.log.Warn("release words claim", "sentence_id", sentenceID, "error", err)
	}
}

func (s *MongoStore) insertWords(ctx context.Context, sentenceID int64, words []models.Word) error {
	firstID, err := s.reserveIDs(ctx, wordsCollection, len(words))
	if err != nil {
		return err
	}

	docs := make([]any, len(words))
	for i, w := range words {
		w.ID = firstID + int64(i)
		w.SentenceID = sentenceID
		w.Position = i
		docs[i] = w
	}
	if _, err := s.collection(wordsCollection).InsertMany(ctx, docs); err != nil {
		return mapMongoError(err, "word")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Quiz
// ---------------------------------------------------------------------------

func (s *MongoStore) QuizSentenceIDs(ctx context.Context, userID int64, minWords int) ([]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         wordsCollection,
			"localField":   "_id",
			"foreignField": "sentenceId",
			"as":           "words",
		}}},
		{{Key: "$project", Value: bson.M{"wordCount": bson.M{"$size": "$words"}}}},
		{{Key: "$match", Value: bson.M{"wordCount": bson.M{"$gte": minWords}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.collection(sentencesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapMongoError(err, "sentence")
	}
	var rows []struct {
		ID int64 `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, mapMongoError(err, "sentence")
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}
