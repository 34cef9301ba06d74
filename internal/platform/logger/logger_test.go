package logger

import "testing"

func TestSanitizeValue(t *testing.T) {
	if got := sanitizeValue("access_token", "abc"); got != "[REDACTED]" {
		t.Fatalf("token key: got=%v", got)
	}
	if got := sanitizeValue("email", "a@b.c"); got != "[REDACTED]" {
		t.Fatalf("email key: got=%v", got)
	}
	got, ok := sanitizeValue("user_id", "42").(string)
	if !ok || len(got) != len("hash:")+12 {
		t.Fatalf("user_id key: got=%v", got)
	}
	if got := sanitizeValue("lesson_id", "42"); got != "42" {
		t.Fatalf("plain key: got=%v", got)
	}
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	if got := sanitizeValue("header", jwt); got != "[REDACTED]" {
		t.Fatalf("jwt value: got=%v", got)
	}
}

func TestNewTestModeIsNop(t *testing.T) {
	l, err := New("test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("dropped", "k", "v")
	l.With("service", "x").Warn("dropped")
}
