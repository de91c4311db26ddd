package models

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-checkable error category exposed to clients.
type Kind string

const (
	KindValidation             Kind = "ValidationError"
	KindNotFound               Kind = "NotFound"
	KindUnauthorized           Kind = "Unauthorized"
	KindConflict               Kind = "Conflict"
	KindRemoteUnavailable      Kind = "RemoteServiceUnavailable"
	KindLLMParse               Kind = "LlmParseFailure"
	KindInsufficientVocabulary Kind = "InsufficientVocabulary"
	KindStorage                Kind = "StorageError"
)

// Finer-grained codes carried next to a Kind.
const (
	CodeTranslationUnavailable = "TranslationUnavailable"
	CodeOCRUnavailable         = "OcrUnavailable"
	CodeLLMUnavailable         = "LlmUnavailable"
	CodeEmptyOCRResult         = "EmptyOcrResult"
)

// Sentinels for errors.Is checks against a Kind.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrRemoteUnavailable      = &Error{Kind: KindRemoteUnavailable}
	ErrLLMParse               = &Error{Kind: KindLLMParse}
	ErrInsufficientVocabulary = &Error{Kind: KindInsufficientVocabulary}
	ErrStorage                = &Error{Kind: KindStorage}
)

// Error is the application error. Provider errors keep the upstream HTTP
// status and message in ProviderStatus and Detail.
type Error struct {
	Kind           Kind
	Code           string
	Detail         string
	ProviderStatus int
	Timeout        bool
	Err            error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Code != "" {
		msg += "(" + e.Code + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// works regardless of code or detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// AsError extracts the *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Detail: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(entity string) *Error {
	return &Error{Kind: KindNotFound, Detail: entity + " not found"}
}

func NewUnauthorizedError(detail string) *Error {
	return &Error{Kind: KindUnauthorized, Detail: detail}
}

func NewConflictError(detail string) *Error {
	return &Error{Kind: KindConflict, Detail: detail}
}

// NewRemoteError wraps a provider failure. status is the provider HTTP status
// (0 when the call never got a response).
func NewRemoteError(code string, status int, detail string, err error) *Error {
	return &Error{Kind: KindRemoteUnavailable, Code: code, ProviderStatus: status, Detail: detail, Err: err}
}

func NewLLMParseError(detail string, err error) *Error {
	return &Error{Kind: KindLLMParse, Detail: detail, Err: err}
}

func NewStorageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Detail: op, Err: err}
}
