// Package domain re-exports the gorm models so callers can import a single
// package (conventionally as types).
package domain

import (
	"github.com/yungbote/lingua-backend/internal/domain/auth"
	"github.com/yungbote/lingua-backend/internal/domain/catalog"
	"github.com/yungbote/lingua-backend/internal/domain/extraction"
	"github.com/yungbote/lingua-backend/internal/domain/study"
	"github.com/yungbote/lingua-backend/internal/domain/user"
)

const (
	RoleLearner = user.RoleLearner
	RoleAdmin   = user.RoleAdmin

	LessonKindVocabulary   = catalog.LessonKindVocabulary
	LessonKindConversation = catalog.LessonKindConversation
	LessonKindMixed        = catalog.LessonKindMixed

	ExtractionKindVocabulary   = extraction.KindVocabulary
	ExtractionKindConversation = extraction.KindConversation

	ExtractionPending   = extraction.StatusPending
	ExtractionSucceeded = extraction.StatusSucceeded
	ExtractionFailed    = extraction.StatusFailed

	MaxStudyBox = study.MaxBox
)

type User = user.User
type UserToken = auth.UserToken

type Book = catalog.Book
type Unit = catalog.Unit
type Lesson = catalog.Lesson
type VocabularyItem = catalog.VocabularyItem
type ConversationLine = catalog.ConversationLine

type ExtractionRun = extraction.Run
type ExtractionStats = extraction.Stats

type StudyProgress = study.Progress
type TestAttempt = study.TestAttempt
type TestAnswer = study.TestAnswer

var (
	ValidLessonKind     = catalog.ValidLessonKind
	VocabularyNormKey   = catalog.VocabularyNormKey
	ConversationNormKey = catalog.ConversationNormKey
)

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&UserToken{},
		&Book{},
		&Unit{},
		&Lesson{},
		&VocabularyItem{},
		&ConversationLine{},
		&ExtractionRun{},
		&StudyProgress{},
		&TestAttempt{},
	}
}
