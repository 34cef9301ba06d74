package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("LINGUA_TEST_INT", "12")
	t.Setenv("LINGUA_TEST_BAD_INT", "x")
	t.Setenv("LINGUA_TEST_BOOL", "on")
	t.Setenv("LINGUA_TEST_SECS", "90")
	t.Setenv("LINGUA_TEST_LIST", " a, ,b ,c")

	if got := Int("LINGUA_TEST_INT", 1); got != 12 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("LINGUA_TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got=%d", got)
	}
	if !Bool("LINGUA_TEST_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := Seconds("LINGUA_TEST_SECS", time.Second); got != 90*time.Second {
		t.Fatalf("Seconds: got=%s", got)
	}
	got := List("LINGUA_TEST_LIST", nil)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("List: got=%v", got)
	}
	if got := Float("LINGUA_TEST_MISSING"); got != nil {
		t.Fatalf("Float unset: got=%v", *got)
	}
	t.Setenv("LINGUA_TEST_FLOAT", "0.25")
	if got := Float("LINGUA_TEST_FLOAT"); got == nil || *got != 0.25 {
		t.Fatalf("Float: got=%v", got)
	}
	if got := String("LINGUA_TEST_MISSING", "def"); got != "def" {
		t.Fatalf("String default: got=%q", got)
	}
}
