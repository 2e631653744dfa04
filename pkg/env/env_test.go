package env

import "testing"

func TestGetPrefersPrefixedVariable(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("FIELDFORCE_LOG_FORMAT", "json")
	if got := Get("LOG_FORMAT", "text"); got != "json" {
		t.Fatalf("expected prefixed value, got %q", got)
	}
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("FIELDFORCE_MISSING_KEY", " ")
	if got := Get("MISSING_KEY", "default"); got != "default" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
