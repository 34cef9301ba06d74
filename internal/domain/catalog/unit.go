package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-backend/internal/domain/base"
)

type Unit struct {
	base.Model
	BookID   uuid.UUID `gorm:"type:uuid;not null;index:idx_unit_book_position,priority:1;column:book_id" json:"book_id"`
	Book     *Book     `gorm:"constraint:OnDelete:CASCADE;foreignKey:BookID;references:ID" json:"-"`
	Title    string    `gorm:"not null;column:title" json:"title"`
	Position int       `gorm:"not null;default:0;index:idx_unit_book_position,priority:2;column:position" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Unit) TableName() string { return "unit" }
