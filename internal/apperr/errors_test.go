package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      *Error
		expected int
	}{
		{name: "validation", err: Validation("", "bad input", nil), expected: http.StatusBadRequest},
		{name: "conflict", err: Conflict(CodeOrderTerminal, "order already paid", nil), expected: http.StatusConflict},
		{name: "not found", err: NotFound("order", 7), expected: http.StatusNotFound},
		{name: "forbidden", err: Forbidden(CodeVoidPINRequired, "void pin required", nil), expected: http.StatusForbidden},
		{name: "dependency", err: Dependency("menu lookup failed", errors.New("timeout")), expected: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.StatusCode(); got != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := Conflict(CodeSessionOpen, "table already has an open session", nil)
	wrapped := fmt.Errorf("start session: %w", base)

	got, ok := As(wrapped)
	if !ok {
		t.Fatalf("expected wrapped app error to be found")
	}
	if got.Code != CodeSessionOpen {
		t.Fatalf("expected %s, got %s", CodeSessionOpen, got.Code)
	}
	if !Is(wrapped, KindConflict) {
		t.Fatalf("expected conflict kind")
	}
	if Is(errors.New("plain"), KindConflict) {
		t.Fatalf("plain errors carry no kind")
	}
}

func TestValidationDefaultsCode(t *testing.T) {
	err := Validation("", "quantity must be positive", nil)
	if err.Code != CodeValidation {
		t.Fatalf("expected default code, got %s", err.Code)
	}
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("tax configuration unavailable", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
}
