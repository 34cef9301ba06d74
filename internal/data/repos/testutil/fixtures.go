package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      types.RoleLearner,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedBook(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, published bool) *types.Book {
	tb.Helper()
	b := &types.Book{
		Title:          title,
		Language:       "en",
		TargetLanguage: "de",
		Published:      published,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed book: %v", err)
	}
	return b
}

func SeedUnit(tb testing.TB, ctx context.Context, tx *gorm.DB, bookID uuid.UUID, position int) *types.Unit {
	tb.Helper()
	u := &types.Unit{BookID: bookID, Title: "unit", Position: position}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed unit: %v", err)
	}
	return u
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, unitID uuid.UUID, position int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{UnitID: unitID, Title: "lesson", Kind: types.LessonKindMixed, Position: position}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedVocabulary(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, position int, term, meaning string) *types.VocabularyItem {
	tb.Helper()
	v := &types.VocabularyItem{LessonID: lessonID, Term: term, Meaning: meaning, Position: position}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed vocabulary: %v", err)
	}
	return v
}

func SeedConversationLine(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, position int, speaker, text string) *types.ConversationLine {
	tb.Helper()
	c := &types.ConversationLine{LessonID: lessonID, Speaker: speaker, Text: text, Position: position}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation line: %v", err)
	}
	return c
}

// SeedLessonTree creates a published book with one unit and one lesson.
func SeedLessonTree(tb testing.TB, ctx context.Context, tx *gorm.DB) (*types.Book, *types.Unit, *types.Lesson) {
	tb.Helper()
	b := SeedBook(tb, ctx, tx, "book", true)
	u := SeedUnit(tb, ctx, tx, b.ID, 0)
	l := SeedLesson(tb, ctx, tx, u.ID, 0)
	return b, u, l
}
