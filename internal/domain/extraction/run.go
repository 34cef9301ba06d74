package extraction

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/lingua-backend/internal/domain/base"
	"github.com/yungbote/lingua-backend/internal/domain/catalog"
	"github.com/yungbote/lingua-backend/internal/domain/user"
)

const (
	KindVocabulary   = "vocabulary"
	KindConversation = "conversation"
)

const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Stats counts what happened to the candidates of one run.
type Stats struct {
	Received           int `json:"received"`
	Invalid            int `json:"invalid"`
	DuplicatesExisting int `json:"duplicates_existing"`
	DuplicatesBatch    int `json:"duplicates_batch"`
	Accepted           int `json:"accepted"`
}

// Run records one image-to-text extraction from upload to (optional)
// commit. Accepted holds the de-duplicated candidates so a preview can be
// committed later.
type Run struct {
	base.Model
	LessonID    uuid.UUID                   `gorm:"type:uuid;not null;index;column:lesson_id" json:"lesson_id"`
	Lesson      *catalog.Lesson             `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`
	UserID      uuid.UUID                   `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	User        *user.User                  `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Kind        string                      `gorm:"not null;column:kind" json:"kind"`
	Provider    string                      `gorm:"not null;column:provider" json:"provider"`
	ModelName   string                      `gorm:"column:model" json:"model"`
	Status      string                      `gorm:"not null;default:'pending';index;column:status" json:"status"`
	ImageKeys   datatypes.JSONSlice[string] `gorm:"column:image_keys" json:"image_keys"`
	Stats       datatypes.JSONType[Stats]   `gorm:"column:stats" json:"stats"`
	Accepted    datatypes.JSON              `gorm:"column:accepted" json:"accepted,omitempty"`
	RawResponse string                      `gorm:"column:raw_response;type:text" json:"-"`
	Error       string                      `gorm:"column:error;type:text" json:"error,omitempty"`
	Committed   bool                        `gorm:"not null;default:false;column:committed" json:"committed"`
	CommittedAt *time.Time                  `gorm:"column:committed_at" json:"committed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Run) TableName() string { return "extraction_run" }
