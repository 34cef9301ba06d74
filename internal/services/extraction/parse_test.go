package extraction

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/lingua-backend/internal/domain"
)

func TestParseFencedObjectWithAliases(t *testing.T) {
	reply := "Sure! Here you go:\n```json\n{\"items\":[{\"word\":\"Haus\",\"translation\":\"house\",\"partOfSpeech\":\"noun\",\"extra\":1}]}\n```\nLet me know."
	got, invalid, err := Parse(types.ExtractionKindVocabulary, reply)
	require.NoError(t, err)
	assert.Equal(t, 0, invalid)
	want := []Candidate{{Term: "Haus", Meaning: "house", PartOfSpeech: "noun"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBareArrayAmidProse(t *testing.T) {
	reply := `The entries are [{"term":"Katze","meaning":"cat","reading":"KAT-se"}, "stray", 3] as requested.`
	got, invalid, err := Parse(types.ExtractionKindVocabulary, reply)
	require.NoError(t, err)
	assert.Equal(t, 2, invalid)
	require.Len(t, got, 1)
	assert.Equal(t, "KAT-se", got[0].Reading)
}

func TestParseConversationLines(t *testing.T) {
	reply := `{"lines":[{"role":"Anna","line":"Hallo!","meaning":"Hello!"},{"name":"Ben","text":"Hi."}]}`
	got, _, err := Parse(types.ExtractionKindConversation, reply)
	require.NoError(t, err)
	want := []Candidate{
		{Speaker: "Anna", Text: "Hallo!", Translation: "Hello!"},
		{Speaker: "Ben", Text: "Hi."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTrailingBraceInProse(t *testing.T) {
	reply := `{"items":[{"term":"a"}]} note: keep {braces} out`
	got, _, err := Parse(types.ExtractionKindVocabulary, reply)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Term)
}

func TestParseSingleWrapperKey(t *testing.T) {
	got, _, err := Parse(types.ExtractionKindVocabulary, `{"words_found":[{"term":"x"}]}`)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestParseSkipsBracketedProse(t *testing.T) {
	for _, reply := range []string{
		"Entries [1]:\n{\"items\":[{\"term\":\"Brot\",\"meaning\":\"bread\"}]}",
		"Here is the list [as requested]:\n{\"items\":[{\"term\":\"Brot\",\"meaning\":\"bread\"}]}",
	} {
		got, invalid, err := Parse(types.ExtractionKindVocabulary, reply)
		require.NoError(t, err, "reply %q", reply)
		assert.Equal(t, 0, invalid, "reply %q", reply)
		want := []Candidate{{Term: "Brot", Meaning: "bread"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("reply %q: candidates mismatch (-want +got):\n%s", reply, diff)
		}
	}
}

func TestParseEmptyListIsNotAnError(t *testing.T) {
	got, invalid, err := Parse(types.ExtractionKindVocabulary, `{"items":[]}`)
	require.NoError(t, err)
	assert.Equal(t, 0, invalid)
	assert.Empty(t, got)
}

func TestParseRejectsNonList(t *testing.T) {
	for _, reply := range []string{"", "no json here", `{"term":"x","meaning":"y"}`, "{broken"} {
		_, _, err := Parse(types.ExtractionKindVocabulary, reply)
		assert.True(t, errors.Is(err, ErrUnparseable), "reply %q: err=%v", reply, err)
	}
}

func TestNormalizeAndDedupe(t *testing.T) {
	in := []Candidate{
		{Term: "  1. Haus ", Meaning: "house"},
		{Term: "\"Katze\"", Meaning: "cat"},
		{Term: "katze.", Meaning: "cat"},
		{Term: "   ", Meaning: "nothing"},
		{Term: "Hund", Meaning: "dog"},
	}
	norm, invalid := Normalize(types.ExtractionKindVocabulary, in)
	assert.Equal(t, 1, invalid)
	require.Len(t, norm, 4)
	assert.Equal(t, "Haus", norm[0].Term)
	assert.Equal(t, "Katze", norm[1].Term)

	existing := map[string]bool{types.VocabularyNormKey("HAUS"): true}
	accepted, dupExisting, dupBatch := Dedupe(types.ExtractionKindVocabulary, norm, existing)
	assert.Equal(t, 1, dupExisting)
	assert.Equal(t, 1, dupBatch)
	require.Len(t, accepted, 2)
	assert.Equal(t, "Katze", accepted[0].Term)
	assert.Equal(t, "Hund", accepted[1].Term)
}

func TestConversationKeyUsesSpeaker(t *testing.T) {
	a := Candidate{Speaker: "Anna", Text: "Hallo"}
	b := Candidate{Speaker: "Ben", Text: "Hallo"}
	assert.NotEqual(t, a.Key(types.ExtractionKindConversation), b.Key(types.ExtractionKindConversation))
	_, invalid := Normalize(types.ExtractionKindConversation, []Candidate{{Speaker: "Anna"}})
	assert.Equal(t, 1, invalid)
}
