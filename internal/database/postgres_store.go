package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/developia-II/linguascreen-backend/internal/models"
	"github.com/developia-II/linguascreen-backend/internal/store"
)

var (
	userColumns     = []string{"id", "username", "email", "hashed_password", "created_at"}
	sentenceColumns = []string{"id", "user_id", "original", "original_lang", "translation", "translation_lang", "explanation", "created_at"}
	wordColumns     = []string{"id", "sentence_id", "position", "original_word", "translated_word", "explanation", "romanization"}
)

// PostgresStore implements store.Store on PostgreSQL.
type PostgresStore struct {
	db DB
	tx *TxManager
	sb sq.StatementBuilderType
}

var _ store.Store = (*PostgresStore)(nil)

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{
		db: db,
		tx: NewTxManager(db),
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *PostgresStore) q(ctx context.Context) Querier {
	return QuerierFromCtx(ctx, s.db)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return models.NewStorageError("ping", err)
	}
	return nil
}

func (s *PostgresStore) Close(context.Context) error {
	s.db.Close()
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	query, args, err := s.sb.Insert("users").
		Columns("username", "email", "hashed_password").
		Values(u.Username, u.Email, u.HashedPassword).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user: %w", err)
	}

	if err := s.q(ctx).QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		return mapPgError(err, "user")
	}
	return nil
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, sq.Eq{"email": email})
}

func (s *PostgresStore) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, sq.Eq{"id": id})
}

func (s *PostgresStore) getUser(ctx context.Context, where sq.Eq) (*models.User, error) {
	query, args, err := s.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user: %w", err)
	}

	var u models.User
	if err := pgxscan.Get(ctx, s.q(ctx), &u, query, args...); err != nil {
		return nil, mapPgError(err, "user")
	}
	return &u, nil
}

// ---------------------------------------------------------------------------
// Sentences
// ---------------------------------------------------------------------------

func (s *PostgresStore) CreateSentence(ctx context.Context, sent *models.Sentence) error {
	query, args, err := s.sb.Insert("sentences").
		Columns("user_id", "original", "original_lang", "translation", "translation_lang", "explanation").
		Values(sent.UserID, sent.Original, sent.OriginalLang, sent.Translation, sent.TranslationLang, sent.Explanation).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert sentence: %w", err)
	}

	if err := s.q(ctx).QueryRow(ctx, query, args...).Scan(&sent.ID, &sent.CreatedAt); err != nil {
		// 23503 here means the owning user is gone.
		return mapPgError(err, "user")
	}
	return nil
}

func (s *PostgresStore) GetSentence(ctx context.Context, userID, sentenceID int64) (*models.Sentence, error) {
	query, args, err := s.sb.Select(sentenceColumns...).
		From("sentences").
		Where(sq.Eq{"id": sentenceID}).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sentence: %w", err)
	}

	var sent models.Sentence
	if err := pgxscan.Get(ctx, s.q(ctx), &sent, query, args...); err != nil {
		return nil, mapPgError(err, "sentence")
	}

	words, err := s.listWords(ctx, sentenceID)
	if err != nil {
		return nil, err
	}
	sent.Words = words
	return &sent, nil
}

func (s *PostgresStore) listWords(ctx context.Context, sentenceID int64) ([]models.Word, error) {
	query, args, err := s.sb.Select(wordColumns...).
		From("words").
		Where(sq.Eq{"sentence_id": sentenceID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select words: %w", err)
	}

	words := []models.Word{}
	if err := pgxscan.Select(ctx, s.q(ctx), &words, query, args...); err != nil {
		return nil, mapPgError(err, "word")
	}
	return words, nil
}

func (s *PostgresStore) ListSentences(ctx context.Context, userID int64, skip, limit int) ([]models.Sentence, error) {
	query, args, err := s.sb.Select(sentenceColumns...).
		From("sentences").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id ASC").
		Offset(uint64(skip)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sentences: %w", err)
	}

	sentences := []models.Sentence{}
	if err := pgxscan.Select(ctx, s.q(ctx), &sentences, query, args...); err != nil {
		return nil, mapPgError(err, "sentence")
	}
	return sentences, nil
}

func (s *PostgresStore) DeleteSentence(ctx context.Context, userID, sentenceID int64) error {
	query, args, err := s.sb.Delete("sentences").
		Where(sq.Eq{"id": sentenceID}).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete sentence: %w", err)
	}

	tag, err := s.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err, "sentence")
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("sentence")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Words
// ---------------------------------------------------------------------------

func (s *PostgresStore) AttachWords(ctx context.Context, userID, sentenceID int64, words []models.Word) (bool, error) {
	var inserted bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.lockSentence(ctx, userID, sentenceID); err != nil {
			return err
		}
		var err error
		inserted, err = s.insertWordsIfAbsent(ctx, sentenceID, words)
		return err
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (s *PostgresStore) SaveExplanation(ctx context.Context, userID, sentenceID int64, explanation string, words []models.Word) (bool, error) {
	var inserted bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.lockSentence(ctx, userID, sentenceID); err != nil {
			return err
		}

		query, args, err := s.sb.Update("sentences").
			Set("explanation", explanation).
			Where(sq.Eq{"id": sentenceID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update explanation: %w", err)
		}
		if _, err := s.q(ctx).Exec(ctx, query, args...); err != nil {
			return mapPgError(err, "sentence")
		}

		inserted, err = s.insertWordsIfAbsent(ctx, sentenceID, words)
		return err
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// lockSentence takes a row lock on the caller's sentence, serializing
// concurrent word writers for the rest of the transaction.
func (s *PostgresStore) lockSentence(ctx context.Context, userID, sentenceID int64) error {
	query, args, err := s.sb.Select("id").
		From("sentences").
		Where(sq.Eq{"id": sentenceID}).
		Where(sq.Eq{"user_id": userID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lock sentence: %w", err)
	}

	var id int64
	if err := s.q(ctx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return mapPgError(err, "sentence")
	}
	return nil
}

// insertWordsIfAbsent must run under lockSentence.
func (s *PostgresStore) insertWordsIfAbsent(ctx context.Context, sentenceID int64, words []models.Word) (bool, error) {
	if len(words) == 0 {
		return false, nil
	}

	query, args, err := s.sb.Select("COUNT(*)").
		From("words").
		Where(sq.Eq{"sentence_id": sentenceID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build count words: %w", err)
	}
	var existing int64
	if err := s.q(ctx).QueryRow(ctx, query, args...).Scan(&existing); err != nil {
		return false, mapPgError(err, "word")
	}
	if existing > 0 {
		return false, nil
	}

	ins := s.sb.Insert("words").
		Columns("sentence_id", "position", "original_word", "translated_word", "explanation", "romanization")
	for i, w := range words {
		ins = ins.Values(sentenceID, i, w.OriginalWord, w.TranslatedWord, w.Explanation, w.Romanization)
	}
	query, args, err = ins.ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert words: %w", err)
	}
	if _, err := s.q(ctx).Exec(ctx, query, args...); err != nil {
		return false, mapPgError(err, "word")
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Quiz
// ---------------------------------------------------------------------------

func (s *PostgresStore) QuizSentenceIDs(ctx context.Context, userID int64, minWords int) ([]int64, error) {
	query, args, err := s.sb.Select("s.id").
		From("sentences s").
		Join("words w ON w.sentence_id = s.id").
		Where(sq.Eq{"s.user_id": userID}).
		GroupBy("s.id").
		Having("COUNT(w.id) >= ?", minWords).
		OrderBy("s.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build quiz sentences: %w", err)
	}

	ids := []int64{}
	if err := pgxscan.Select(ctx, s.q(ctx), &ids, query, args...); err != nil {
		return nil, mapPgError(err, "sentence")
	}
	return ids, nil
}
