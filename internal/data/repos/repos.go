package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos/auth"
	"github.com/yungbote/lingua-backend/internal/data/repos/catalog"
	"github.com/yungbote/lingua-backend/internal/data/repos/extraction"
	"github.com/yungbote/lingua-backend/internal/data/repos/study"
	"github.com/yungbote/lingua-backend/internal/data/repos/user"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type BookRepo = catalog.BookRepo
type UnitRepo = catalog.UnitRepo
type LessonRepo = catalog.LessonRepo
type VocabularyRepo = catalog.VocabularyRepo
type ConversationRepo = catalog.ConversationRepo

type ExtractionRunRepo = extraction.RunRepo

type StudyProgressRepo = study.ProgressRepo
type TestAttemptRepo = study.TestAttemptRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}

func NewBookRepo(db *gorm.DB, log *logger.Logger) BookRepo { return catalog.NewBookRepo(db, log) }
func NewUnitRepo(db *gorm.DB, log *logger.Logger) UnitRepo { return catalog.NewUnitRepo(db, log) }
func NewLessonRepo(db *gorm.DB, log *logger.Logger) LessonRepo {
	return catalog.NewLessonRepo(db, log)
}
func NewVocabularyRepo(db *gorm.DB, log *logger.Logger) VocabularyRepo {
	return catalog.NewVocabularyRepo(db, log)
}
func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return catalog.NewConversationRepo(db, log)
}

func NewExtractionRunRepo(db *gorm.DB, log *logger.Logger) ExtractionRunRepo {
	return extraction.NewRunRepo(db, log)
}

func NewStudyProgressRepo(db *gorm.DB, log *logger.Logger) StudyProgressRepo {
	return study.NewProgressRepo(db, log)
}
func NewTestAttemptRepo(db *gorm.DB, log *logger.Logger) TestAttemptRepo {
	return study.NewTestAttemptRepo(db, log)
}
