package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"stack underflow", fmt.Errorf("evaluating: %w", ErrStackUnderflow), http.StatusBadRequest},
		{"malformed postfix", ErrMalformedPostfixQuery, http.StatusBadRequest},
		{"bad operator", ErrUnsupportedBooleanOperator, http.StatusBadRequest},
		{"unbalanced parens", ErrMalformedQuery, http.StatusBadRequest},
		{"wrong index type", fmt.Errorf("scoring: %w", ErrWrongIndexType), http.StatusConflict},
		{"not loaded", ErrIndexNotLoaded, http.StatusServiceUnavailable},
		{"corrupt", ErrCorruptIndex, http.StatusInternalServerError},
		{"app error", New(ErrInvalidInput, http.StatusUnprocessableEntity, "nope"), http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatusCode(tc.err); got != tc.want {
				t.Errorf("HTTPStatusCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrWrongIndexType, http.StatusConflict, "index type %d", 1)
	if !errors.Is(err, ErrWrongIndexType) {
		t.Fatal("expected AppError to unwrap to its sentinel")
	}
	if err.Error() != "wrong index type: index type 1" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIsQueryErrorDistinguishesUnderflow(t *testing.T) {
	if errors.Is(ErrStackUnderflow, ErrMalformedPostfixQuery) {
		t.Fatal("stack underflow must not match malformed postfix")
	}
	if !IsQueryError(ErrStackUnderflow) || !IsQueryError(ErrMalformedPostfixQuery) {
		t.Fatal("both shapes are query errors")
	}
	if IsQueryError(ErrWrongIndexType) {
		t.Fatal("wrong index type is not a query error")
	}
}
