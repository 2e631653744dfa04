package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataStatuses(t *testing.T) {
	want := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeUnauthorized:  http.StatusUnauthorized,
		CodeForbidden:     http.StatusForbidden,
		CodeNotFound:      http.StatusNotFound,
		CodeConflict:      http.StatusBadRequest,
		CodeStateConflict: http.StatusBadRequest,
		CodeIdempotency:   http.StatusUnprocessableEntity,
		CodeRateLimit:     http.StatusTooManyRequests,
		CodeInternal:      http.StatusInternalServerError,
		CodeDependency:    http.StatusServiceUnavailable,
	}
	for code, status := range want {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Errorf("%s: expected %d got %d", code, status, got)
		}
	}
	if len(want) != len(metadataByCode) {
		t.Fatalf("metadata table has %d codes, test covers %d", len(metadataByCode), len(want))
	}
}

func TestMetadataDetailsAllowed(t *testing.T) {
	allowed := map[Code]bool{
		CodeValidation:    true,
		CodeUnauthorized:  false,
		CodeForbidden:     false,
		CodeNotFound:      false,
		CodeConflict:      true,
		CodeStateConflict: true,
		CodeIdempotency:   true,
		CodeRateLimit:     true,
		CodeInternal:      false,
		CodeDependency:    true,
	}
	for code, want := range allowed {
		meta := MetadataFor(code)
		if meta.DetailsAllowed != want {
			t.Errorf("%s: expected DetailsAllowed=%v", code, want)
		}
		if meta.ExposeMessage != (code != CodeDependency) {
			t.Errorf("%s: unexpected ExposeMessage=%v", code, meta.ExposeMessage)
		}
	}
}

func TestDependencyMessagesStayPrivate(t *testing.T) {
	meta := MetadataFor(CodeDependency)
	if meta.ExposeMessage {
		t.Fatal("dependency failures must not leak their message")
	}
	if !MetadataFor(CodeRateLimit).DetailsAllowed {
		t.Fatal("rate limit responses carry retryAfterSeconds")
	}
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("load plan: %w", New(CodeNotFound, "plan not found"))
	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Fatalf("expected 404 through wrapping, got %d", got)
	}
	if got := StatusOf(stdErrors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped error, got %d", got)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal code for untyped error, got %s", got)
	}
	if got := CodeOf(Newf(CodeNotFound, "plan %s not found", "p-1")); got != CodeNotFound {
		t.Fatalf("expected not found code, got %s", got)
	}
}
