package api

import (
	"errors"

	"github.com/okian/holotrumps/internal/adapters/repository"
	"github.com/okian/holotrumps/internal/domain/entity"
	"github.com/okian/holotrumps/internal/domain/pagetoken"
	"github.com/okian/holotrumps/internal/domain/pairing"
	"github.com/okian/holotrumps/internal/domain/verdict"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrGetMutation      = errors.New("mutations must use POST")
)

// GraphQL error codes reported in extensions.code.
const (
	CodeInvalidResourceType = "INVALID_RESOURCE_TYPE"
	CodeInvalidPair         = "INVALID_PAIR"
	CodeInsufficientData    = "INSUFFICIENT_DATA"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeStoreError          = "STORE_ERROR"
	CodeValidationFailed    = "GRAPHQL_VALIDATION_FAILED"
)

// errorCode maps a resolver error to its GraphQL code. Anything not
// recognized is a backend failure.
func errorCode(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidResourceType):
		return CodeInvalidResourceType
	case errors.Is(err, verdict.ErrInvalidPair):
		return CodeInvalidPair
	case errors.Is(err, pairing.ErrInsufficientData):
		return CodeInsufficientData
	case errors.Is(err, pagetoken.ErrInvalidToken):
		return CodeInvalidToken
	case errors.Is(err, entity.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, repository.ErrNotFound):
		return CodeNotFound
	default:
		return CodeStoreError
	}
}

// codedError carries a code into the GraphQL response extensions.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

// Extensions implements gqlerrors.ExtendedError.
func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

// classify wraps err with its code. Nil stays nil.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return err
	}
	return &codedError{code: errorCode(err), err: err}
}
