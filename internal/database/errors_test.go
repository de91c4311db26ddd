package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

func TestMapPgError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		detail string
	}{
		{"no rows", pgx.ErrNoRows, models.ErrNotFound, "sentence not found"},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), models.ErrNotFound, "sentence not found"},
		{"username taken", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, models.ErrConflict, "username already registered"},
		{"email taken", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, models.ErrConflict, "email already registered"},
		{"word position taken", &pgconn.PgError{Code: "23505", ConstraintName: "words_sentence_position_key"}, models.ErrConflict, "sentence words already exist"},
		{"unknown constraint", &pgconn.PgError{Code: "23505", ConstraintName: "x"}, models.ErrConflict, "sentence already exists"},
		{"foreign key", &pgconn.PgError{Code: "23503"}, models.ErrNotFound, "sentence not found"},
		{"other pg error", &pgconn.PgError{Code: "57014"}, models.ErrStorage, "sentence"},
		{"plain error", errors.New("broken pipe"), models.ErrStorage, "sentence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPgError(tt.err, "sentence")
			require.True(t, errors.Is(got, tt.target), "got %v", got)
			e, ok := models.AsError(got)
			require.True(t, ok)
			assert.Equal(t, tt.detail, e.Detail)
		})
	}
}

func TestMapPgError_PassesThroughContextErrors(t *testing.T) {
	assert.Nil(t, mapPgError(nil, "user"))

	err := mapPgError(context.DeadlineExceeded, "user")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	_, ok := models.AsError(err)
	assert.False(t, ok)
}

func TestMapMongoError(t *testing.T) {
	assert.Nil(t, mapMongoError(nil, "user"))

	err := mapMongoError(mongo.ErrNoDocuments, "sentence")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	err = mapMongoError(dup, "word")
	assert.True(t, errors.Is(err, models.ErrConflict))

	err = mapMongoError(errors.New("server selection timeout"), "word")
	assert.True(t, errors.Is(err, models.ErrStorage))

	err = mapMongoError(context.Canceled, "word")
	assert.True(t, errors.Is(err, context.Canceled))
}
