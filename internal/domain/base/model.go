package base

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model carries the uuid primary key shared by every table. IDs are assigned
// in Go so the schema works on databases without uuid_generate_v4().
type Model struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
}

func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
