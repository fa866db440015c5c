package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnsupportedIndexType       = errors.New("unsupported index type")
	ErrMalformedPostfixQuery      = errors.New("malformed postfix query")
	ErrStackUnderflow             = errors.New("postfix stack underflow")
	ErrUnsupportedBooleanOperator = errors.New("unsupported boolean operator")
	ErrWrongIndexType             = errors.New("wrong index type")
	ErrMalformedQuery             = errors.New("malformed query")
	ErrIndexNotLoaded             = errors.New("index not loaded")
	ErrCorruptIndex               = errors.New("corrupt index")
	ErrInvalidInput               = errors.New("invalid input")
	ErrInternal                   = errors.New("internal error")
	ErrTimeout                    = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsQueryError reports whether err was caused by the shape of the user's
// query rather than by the engine.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrMalformedPostfixQuery) ||
		errors.Is(err, ErrStackUnderflow) ||
		errors.Is(err, ErrUnsupportedBooleanOperator) ||
		errors.Is(err, ErrMalformedQuery)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case IsQueryError(err), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedIndexType):
		return http.StatusBadRequest
	case errors.Is(err, ErrWrongIndexType):
		return http.StatusConflict
	case errors.Is(err, ErrIndexNotLoaded), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
