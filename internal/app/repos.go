package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	Book          repos.BookRepo
	Unit          repos.UnitRepo
	Lesson        repos.LessonRepo
	Vocabulary    repos.VocabularyRepo
	Conversation  repos.ConversationRepo
	ExtractionRun repos.ExtractionRunRepo
	StudyProgress repos.StudyProgressRepo
	TestAttempt   repos.TestAttemptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		Book:          repos.NewBookRepo(db, log),
		Unit:          repos.NewUnitRepo(db, log),
		Lesson:        repos.NewLessonRepo(db, log),
		Vocabulary:    repos.NewVocabularyRepo(db, log),
		Conversation:  repos.NewConversationRepo(db, log),
		ExtractionRun: repos.NewExtractionRunRepo(db, log),
		StudyProgress: repos.NewStudyProgressRepo(db, log),
		TestAttempt:   repos.NewTestAttemptRepo(db, log),
	}
}
