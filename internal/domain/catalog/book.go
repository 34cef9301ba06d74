package catalog

import (
	"time"

	"github.com/yungbote/lingua-backend/internal/domain/base"
)

// Book is the root of the catalog. Language is the one being taught;
// meanings and translations are written in TargetLanguage.
type Book struct {
	base.Model
	Title          string `gorm:"not null;column:title" json:"title"`
	Subtitle       string `gorm:"column:subtitle" json:"subtitle"`
	Language       string `gorm:"not null;column:language" json:"language"`
	TargetLanguage string `gorm:"not null;column:target_language" json:"target_language"`
	Level          string `gorm:"column:level" json:"level"`
	Description    string `gorm:"column:description;type:text" json:"description"`
	CoverKey       string `gorm:"column:cover_key" json:"cover_key"`
	CoverURL       string `gorm:"column:cover_url" json:"cover_url"`
	Position       int    `gorm:"not null;default:0;index;column:position" json:"position"`
	Published      bool   `gorm:"not null;default:false;index;column:published" json:"published"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Book) TableName() string { return "book" }
