package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-backend/internal/domain/base"
)

const (
	LessonKindVocabulary   = "vocabulary"
	LessonKindConversation = "conversation"
	LessonKindMixed        = "mixed"
)

func ValidLessonKind(kind string) bool {
	switch kind {
	case LessonKindVocabulary, LessonKindConversation, LessonKindMixed:
		return true
	}
	return false
}

type Lesson struct {
	base.Model
	UnitID   uuid.UUID `gorm:"type:uuid;not null;index:idx_lesson_unit_position,priority:1;column:unit_id" json:"unit_id"`
	Unit     *Unit     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UnitID;references:ID" json:"-"`
	Title    string    `gorm:"not null;column:title" json:"title"`
	Kind     string    `gorm:"not null;default:'mixed';column:kind" json:"kind"`
	Position int       `gorm:"not null;default:0;index:idx_lesson_unit_position,priority:2;column:position" json:"position"`
	Notes    string    `gorm:"column:notes;type:text" json:"notes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }
