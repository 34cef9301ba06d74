package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	types "github.com/yungbote/lingua-backend/internal/domain"
)

// ErrUnparseable is returned when no JSON list of entries can be recovered
// from a model reply.
var ErrUnparseable = errors.New("model reply is not a JSON list of entries")

var listKeys = []string{"items", "lines", "entries", "vocabulary", "conversation", "dialogue", "data"}

var vocabularyAliases = map[string][]string{
	"term":                {"term", "word", "vocabulary", "expression", "phrase", "headword"},
	"reading":             {"reading", "pronunciation", "romanization", "transliteration", "pinyin", "furigana", "kana"},
	"meaning":             {"meaning", "translation", "definition", "gloss", "english"},
	"part_of_speech":      {"partofspeech", "pos", "wordclass"},
	"example":             {"example", "examplesentence", "sample"},
	"example_translation": {"exampletranslation", "examplemeaning"},
}

var conversationAliases = map[string][]string{
	"speaker":     {"speaker", "role", "name", "character", "person"},
	"text":        {"text", "line", "utterance", "sentence", "content"},
	"reading":     {"reading", "pronunciation", "romanization", "transliteration", "pinyin", "furigana"},
	"translation": {"translation", "meaning", "english", "gloss"},
}

// Parse reads model output into raw candidates. It accepts fenced code
// blocks, prose around the JSON, an object wrapping the list, or a bare
// array. Unknown fields are ignored; entries that are not objects are
// counted in invalid.
func Parse(kind string, raw string) (cands []Candidate, invalid int, err error) {
	list, err := findEntries(stripFences(raw))
	if err != nil {
		return nil, 0, err
	}

	aliases := vocabularyAliases
	if kind == types.ExtractionKindConversation {
		aliases = conversationAliases
	}
	cands = make([]Candidate, 0, len(list))
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			invalid++
			continue
		}
		fields := pickFields(obj, aliases)
		cands = append(cands, Candidate{
			Term:               fields["term"],
			Reading:            fields["reading"],
			Meaning:            fields["meaning"],
			PartOfSpeech:       fields["part_of_speech"],
			Example:            fields["example"],
			ExampleTranslation: fields["example_translation"],
			Speaker:            fields["speaker"],
			Text:               fields["text"],
			Translation:        fields["translation"],
		})
	}
	return cands, invalid, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// findEntries decodes the JSON values embedded in s in order and returns the
// first list holding at least one object. Bracketed prose such as "[1]" or
// "[as requested]" before the real payload is skipped. A list without
// objects is returned only when nothing better follows.
func findEntries(s string) ([]any, error) {
	var (
		fallback []any
		found    bool
		lastErr  error
	)
	for i := 0; i < len(s); {
		k := strings.IndexAny(s[i:], "{[")
		if k < 0 {
			break
		}
		start := i + k
		v, n, err := decodeFirst(s[start:])
		if err != nil {
			lastErr = err
			i = start + 1
			continue
		}
		i = start + n
		list, ok := findList(v)
		if !ok {
			continue
		}
		if hasObject(list) {
			return list, nil
		}
		if !found {
			fallback, found = list, true
		}
	}
	if found {
		return fallback, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, lastErr)
	}
	return nil, ErrUnparseable
}

// decodeFirst decodes the JSON value at the start of s, ignoring whatever
// follows it, and reports how many bytes it consumed.
func decodeFirst(s string) (any, int, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, 0, err
	}
	return v, int(dec.InputOffset()), nil
}

func hasObject(list []any) bool {
	for _, el := range list {
		if _, ok := el.(map[string]any); ok {
			return true
		}
	}
	return false
}

func findList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		byKey := make(map[string]any, len(t))
		for k, val := range t {
			byKey[foldKey(k)] = val
		}
		for _, k := range listKeys {
			if list, ok := byKey[k].([]any); ok {
				return list, true
			}
		}
		// A single wrapper key holding the list.
		if len(t) == 1 {
			for _, val := range t {
				if list, ok := val.([]any); ok {
					return list, true
				}
			}
		}
	}
	return nil, false
}

func pickFields(obj map[string]any, aliases map[string][]string) map[string]string {
	folded := make(map[string]any, len(obj))
	for k, v := range obj {
		folded[foldKey(k)] = v
	}
	out := make(map[string]string, len(aliases))
	for field, names := range aliases {
		for _, name := range names {
			if s := stringify(folded[name]); s != "" {
				out[field] = s
				break
			}
		}
	}
	return out
}

// foldKey lowercases and drops separators so "Part of speech",
// "part_of_speech" and "partOfSpeech" compare equal.
func foldKey(k string) string {
	var b bytes.Buffer
	for _, r := range strings.ToLower(k) {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			if s := stringify(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
