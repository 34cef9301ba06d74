package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-backend/internal/domain/base"
)

// VocabularyItem is one term in a lesson. NormKey is derived from Term and
// is what de-duplication compares.
type VocabularyItem struct {
	base.Model
	LessonID           uuid.UUID `gorm:"type:uuid;not null;index:idx_vocab_lesson_position,priority:1;index:idx_vocab_lesson_norm,priority:1;column:lesson_id" json:"lesson_id"`
	Lesson             *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`
	Term               string    `gorm:"not null;column:term" json:"term"`
	Reading            string    `gorm:"column:reading" json:"reading"`
	Meaning            string    `gorm:"column:meaning" json:"meaning"`
	PartOfSpeech       string    `gorm:"column:part_of_speech" json:"part_of_speech"`
	Example            string    `gorm:"column:example;type:text" json:"example"`
	ExampleTranslation string    `gorm:"column:example_translation;type:text" json:"example_translation"`
	Position           int       `gorm:"not null;default:0;index:idx_vocab_lesson_position,priority:2;column:position" json:"position"`
	NormKey            string    `gorm:"not null;index:idx_vocab_lesson_norm,priority:2;column:norm_key" json:"norm_key"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (VocabularyItem) TableName() string { return "vocabulary_item" }

// ConversationLine is one spoken line of a dialogue. NormKey covers both
// speaker and text.
type ConversationLine struct {
	base.Model
	LessonID    uuid.UUID `gorm:"type:uuid;not null;index:idx_conv_lesson_position,priority:1;index:idx_conv_lesson_norm,priority:1;column:lesson_id" json:"lesson_id"`
	Lesson      *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`
	Speaker     string    `gorm:"column:speaker" json:"speaker"`
	Text        string    `gorm:"not null;column:text;type:text" json:"text"`
	Reading     string    `gorm:"column:reading;type:text" json:"reading"`
	Translation string    `gorm:"column:translation;type:text" json:"translation"`
	Position    int       `gorm:"not null;default:0;index:idx_conv_lesson_position,priority:2;column:position" json:"position"`
	NormKey     string    `gorm:"not null;index:idx_conv_lesson_norm,priority:2;column:norm_key" json:"norm_key"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConversationLine) TableName() string { return "conversation_line" }
