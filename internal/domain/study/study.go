package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/lingua-backend/internal/domain/base"
	"github.com/yungbote/lingua-backend/internal/domain/catalog"
	"github.com/yungbote/lingua-backend/internal/domain/user"
)

const MaxBox = 5

// Progress is one learner's review history for one vocabulary item. Box is
// a Leitner box in 1..MaxBox.
type Progress struct {
	base.Model
	UserID           uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_item,priority:1;column:user_id" json:"user_id"`
	User             *user.User              `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	VocabularyItemID uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_item,priority:2;column:vocabulary_item_id" json:"vocabulary_item_id"`
	VocabularyItem   *catalog.VocabularyItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:VocabularyItemID;references:ID" json:"-"`
	LessonID         uuid.UUID               `gorm:"type:uuid;not null;index;column:lesson_id" json:"lesson_id"`
	Seen             int                     `gorm:"not null;default:0;column:seen" json:"seen"`
	KnownCount       int                     `gorm:"not null;default:0;column:known_count" json:"known_count"`
	UnknownCount     int                     `gorm:"not null;default:0;column:unknown_count" json:"unknown_count"`
	Box              int                     `gorm:"not null;default:1;column:box" json:"box"`
	LastReviewedAt   *time.Time              `gorm:"column:last_reviewed_at" json:"last_reviewed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Progress) TableName() string { return "study_progress" }

// Record applies one review outcome.
func (p *Progress) Record(known bool, at time.Time) {
	p.Seen++
	if known {
		p.KnownCount++
		if p.Box < 1 {
			p.Box = 1
		}
		if p.Box < MaxBox {
			p.Box++
		}
	} else {
		p.UnknownCount++
		p.Box = 1
	}
	t := at.UTC()
	p.LastReviewedAt = &t
}

type TestAnswer struct {
	VocabularyItemID uuid.UUID `json:"vocabulary_item_id"`
	Chosen           string    `json:"chosen"`
	Correct          string    `json:"correct"`
	IsCorrect        bool      `json:"is_correct"`
}

type TestAttempt struct {
	base.Model
	UserID   uuid.UUID                       `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	User     *user.User                      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	LessonID uuid.UUID                       `gorm:"type:uuid;not null;index;column:lesson_id" json:"lesson_id"`
	Lesson   *catalog.Lesson                 `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`
	Total    int                             `gorm:"not null;column:total" json:"total"`
	Correct  int                             `gorm:"not null;column:correct" json:"correct"`
	Answers  datatypes.JSONSlice[TestAnswer] `gorm:"column:answers" json:"answers"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (TestAttempt) TableName() string { return "test_attempt" }
