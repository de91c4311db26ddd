package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/developia-II/linguascreen-backend/internal/models"
)

// mapPgError converts pgx/pgconn errors into application errors. Context
// errors pass through untouched.
func mapPgError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", entity, err)
	}
	if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
		return models.NewNotFoundError(entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.NewConflictError(conflictDetail(entity, pgErr.ConstraintName))
		case "23503": // foreign_key_violation
			return models.NewNotFoundError(entity)
		}
	}
	return models.NewStorageError(entity, err)
}

func conflictDetail(entity, constraint string) string {
	switch constraint {
	case "users_username_key":
		return "username already registered"
	case "users_email_key":
		return "email already registered"
	case "words_sentence_position_key":
		return "sentence words already exist"
	}
	return entity + " already exists"
}

// mapMongoError is the document-store counterpart of mapPgError.
func mapMongoError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", entity, err)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundError(entity)
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.NewConflictError(entity + " already exists")
	}
	return models.NewStorageError(entity, err)
}
