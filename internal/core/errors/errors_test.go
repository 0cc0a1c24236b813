package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "file not found")
		if err.Error() != "[NOT_FOUND] file not found" {
			t.Errorf("expected [NOT_FOUND] file not found, got %s", err.Error())
		}
	})

	t.Run("Newf", func(t *testing.T) {
		err := Newf(CodeValidationError, "unsupported locator %q", "ftp://x")
		expected := `[VALIDATION_ERROR] unsupported locator "ftp://x"`
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("connection reset")
		err := Wrap(original, CodeUnavailable, "github request failed")
		expected := "[UNAVAILABLE] github request failed: connection reset"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("list source: %w", New(CodeRateLimited, "rate limit exceeded"))
		if !IsCode(err, CodeRateLimited) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
		if CodeOf(errors.New("plain")) != "" {
			t.Error("expected empty code for plain error")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodePermissionDenied, "bad credentials"), CtxSource, "github")
		err = AddContext(err, CtxPath, "src/A.cs")
		expected := "[PERMISSION_DENIED] bad credentials (path=src/A.cs source=github)"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("AddContextPlainError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxOperation, "list")
		if !IsCode(err, CodeInternal) {
			t.Errorf("expected plain error to be wrapped as internal, got %v", err)
		}
	})
}
