package catalog

import (
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/platform/textnorm"
)

func VocabularyNormKey(term string) string {
	return textnorm.Key(term)
}

func ConversationNormKey(speaker, text string) string {
	return textnorm.JoinKey(speaker, text)
}

func (v *VocabularyItem) BeforeSave(tx *gorm.DB) error {
	v.NormKey = VocabularyNormKey(v.Term)
	return nil
}

func (c *ConversationLine) BeforeSave(tx *gorm.DB) error {
	c.NormKey = ConversationNormKey(c.Speaker, c.Text)
	return nil
}
