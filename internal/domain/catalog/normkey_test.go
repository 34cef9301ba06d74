package catalog

import "testing"

func TestNormKeysIgnoreCaseAndDecoration(t *testing.T) {
	if VocabularyNormKey("  “Hello.” ") != VocabularyNormKey("hello") {
		t.Fatalf("expected equal vocabulary keys")
	}
	a := ConversationNormKey("Anna", "How are you?")
	b := ConversationNormKey("ANNA", "how  are you")
	if a != b {
		t.Fatalf("expected equal conversation keys: %q vs %q", a, b)
	}
	if ConversationNormKey("Anna", "Hi") == ConversationNormKey("Ben", "Hi") {
		t.Fatalf("speaker should be part of the key")
	}
}

func TestBeforeSaveRecomputesKey(t *testing.T) {
	v := &VocabularyItem{Term: "Apfel", NormKey: "stale"}
	if err := v.BeforeSave(nil); err != nil {
		t.Fatal(err)
	}
	if v.NormKey != "apfel" {
		t.Fatalf("got %q", v.NormKey)
	}
}
