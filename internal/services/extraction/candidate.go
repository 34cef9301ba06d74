// Package extraction turns photographed textbook pages into vocabulary and
// conversation rows by way of a vision-capable language model.
package extraction

import (
	"github.com/google/uuid"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/textnorm"
)

// Candidate is one entry read from a model reply. Vocabulary runs use the
// term fields, conversation runs the speaker/text fields.
type Candidate struct {
	Term               string `json:"term,omitempty"`
	Meaning            string `json:"meaning,omitempty"`
	PartOfSpeech       string `json:"part_of_speech,omitempty"`
	Example            string `json:"example,omitempty"`
	ExampleTranslation string `json:"example_translation,omitempty"`

	Speaker     string `json:"speaker,omitempty"`
	Text        string `json:"text,omitempty"`
	Translation string `json:"translation,omitempty"`

	Reading string `json:"reading,omitempty"`
}

// Key is the de-duplication key, identical to the NormKey stored on rows.
func (c Candidate) Key(kind string) string {
	if kind == types.ExtractionKindConversation {
		return types.ConversationNormKey(c.Speaker, c.Text)
	}
	return types.VocabularyNormKey(c.Term)
}

func (c Candidate) clean() Candidate {
	return Candidate{
		Term:               textnorm.Clean(c.Term),
		Meaning:            textnorm.Clean(c.Meaning),
		PartOfSpeech:       textnorm.Clean(c.PartOfSpeech),
		Example:            textnorm.Clean(c.Example),
		ExampleTranslation: textnorm.Clean(c.ExampleTranslation),
		Speaker:            textnorm.Clean(c.Speaker),
		Text:               textnorm.Clean(c.Text),
		Translation:        textnorm.Clean(c.Translation),
		Reading:            textnorm.Clean(c.Reading),
	}
}

// Normalize cleans every field and drops entries missing their required
// field (term or text).
func Normalize(kind string, in []Candidate) (out []Candidate, invalid int) {
	out = make([]Candidate, 0, len(in))
	for _, c := range in {
		c = c.clean()
		required := c.Term
		if kind == types.ExtractionKindConversation {
			required = c.Text
		}
		if required == "" {
			invalid++
			continue
		}
		out = append(out, c)
	}
	return out, invalid
}

// Dedupe drops candidates whose key is already in existing, then repeats
// within the batch; the first occurrence wins.
func Dedupe(kind string, in []Candidate, existing map[string]bool) (accepted []Candidate, dupExisting, dupBatch int) {
	seen := make(map[string]bool, len(in))
	accepted = make([]Candidate, 0, len(in))
	for _, c := range in {
		key := c.Key(kind)
		switch {
		case existing[key]:
			dupExisting++
		case seen[key]:
			dupBatch++
		default:
			seen[key] = true
			accepted = append(accepted, c)
		}
	}
	return accepted, dupExisting, dupBatch
}

func (c Candidate) vocabulary(lessonID uuid.UUID) *types.VocabularyItem {
	return &types.VocabularyItem{
		LessonID:           lessonID,
		Term:               c.Term,
		Reading:            c.Reading,
		Meaning:            c.Meaning,
		PartOfSpeech:       c.PartOfSpeech,
		Example:            c.Example,
		ExampleTranslation: c.ExampleTranslation,
	}
}

func (c Candidate) conversation(lessonID uuid.UUID) *types.ConversationLine {
	return &types.ConversationLine{
		LessonID:    lessonID,
		Speaker:     c.Speaker,
		Text:        c.Text,
		Reading:     c.Reading,
		Translation: c.Translation,
	}
}
