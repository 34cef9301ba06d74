package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lingua-backend/internal/domain"
)

func TestCreateBookAppendsAndRendersCover(t *testing.T) {
	cover, _ := newLocalCover(t)
	env := newTestEnv(t, cover)

	first, err := env.catalog.CreateBook(env.adminCtx, BookFields{Title: strPtr(" Everyday German "), Language: strPtr("en"), TargetLanguage: strPtr("de")})
	require.NoError(t, err)
	second, err := env.catalog.CreateBook(env.adminCtx, BookFields{Title: strPtr("Travel German"), Language: strPtr("en"), TargetLanguage: strPtr("de")})
	require.NoError(t, err)

	assert.Equal(t, "Everyday German", first.Title)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Contains(t, first.CoverKey, "books/"+first.ID.String())

	stored, err := env.catalog.GetBook(env.adminCtx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.CoverURL, stored.CoverURL)

	_, err = env.catalog.CreateBook(env.adminCtx, BookFields{Title: strPtr("   ")})
	requireStatus(t, err, http.StatusBadRequest, "invalid_request")
}

func TestUploadCoverWithoutStorage(t *testing.T) {
	env := newTestEnv(t, nil)
	book := testutil.SeedBook(t, env.adminCtx, env.db, "b", true)
	_, err := env.catalog.UploadBookCover(env.adminCtx, book.ID, []byte("x"))
	requireStatus(t, err, http.StatusServiceUnavailable, "storage_unavailable")
}

func TestLearnersOnlySeePublishedBooks(t *testing.T) {
	env := newTestEnv(t, nil)
	published := testutil.SeedBook(t, env.adminCtx, env.db, "published", true)
	draft := testutil.SeedBook(t, env.adminCtx, env.db, "draft", false)

	books, err := env.catalog.ListBooks(env.learnerCtx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, published.ID, books[0].ID)

	all, err := env.catalog.ListBooks(env.adminCtx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.catalog.GetBook(env.learnerCtx, draft.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")
	_, err = env.tree.GetBookTree(env.learnerCtx, draft.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")
	_, err = env.catalog.ListUnits(env.learnerCtx, draft.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")

	unit, err := env.catalog.CreateUnit(env.adminCtx, draft.ID, UnitFields{Title: strPtr("Hidden")})
	require.NoError(t, err)
	lesson, err := env.catalog.CreateLesson(env.adminCtx, unit.ID, LessonFields{Title: strPtr("Hidden lesson")})
	require.NoError(t, err)

	_, err = env.catalog.GetUnit(env.learnerCtx, unit.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")
	_, err = env.catalog.ListLessons(env.learnerCtx, unit.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")
	_, err = env.catalog.GetLesson(env.learnerCtx, lesson.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")

	gotUnit, err := env.catalog.GetUnit(env.adminCtx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, unit.ID, gotUnit.ID)
	lessons, err := env.catalog.ListLessons(env.adminCtx, unit.ID)
	require.NoError(t, err)
	assert.Len(t, lessons, 1)
	gotLesson, err := env.catalog.GetLesson(env.adminCtx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, lesson.ID, gotLesson.ID)
}

func TestLessonValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	book := testutil.SeedBook(t, env.adminCtx, env.db, "b", true)
	unit, err := env.catalog.CreateUnit(env.adminCtx, book.ID, UnitFields{Title: strPtr("Greetings")})
	require.NoError(t, err)

	lesson, err := env.catalog.CreateLesson(env.adminCtx, unit.ID, LessonFields{Title: strPtr("Hello")})
	require.NoError(t, err)
	assert.Equal(t, types.LessonKindMixed, lesson.Kind)

	_, err = env.catalog.CreateLesson(env.adminCtx, unit.ID, LessonFields{Title: strPtr("Bad"), Kind: strPtr("poetry")})
	requireStatus(t, err, http.StatusBadRequest, "invalid_request")
	_, err = env.catalog.CreateLesson(env.adminCtx, unit.ID, LessonFields{Kind: strPtr(types.LessonKindVocabulary)})
	requireStatus(t, err, http.StatusBadRequest, "invalid_request")
	_, err = env.catalog.CreateLesson(env.adminCtx, uuid.New(), LessonFields{Title: strPtr("Orphan")})
	requireStatus(t, err, http.StatusNotFound, "not_found")

	updated, err := env.catalog.UpdateLesson(env.adminCtx, lesson.ID, LessonFields{Kind: strPtr(types.LessonKindConversation), Notes: strPtr("formal")})
	require.NoError(t, err)
	assert.Equal(t, "Hello", updated.Title)
	assert.Equal(t, types.LessonKindConversation, updated.Kind)
	assert.Equal(t, "formal", updated.Notes)
}

func TestReorderUnitsRequiresFullPermutation(t *testing.T) {
	env := newTestEnv(t, nil)
	book := testutil.SeedBook(t, env.adminCtx, env.db, "b", true)
	var ids []uuid.UUID
	for _, title := range []string{"one", "two", "three"} {
		u, err := env.catalog.CreateUnit(env.adminCtx, book.ID, UnitFields{Title: strPtr(title)})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	reordered, err := env.catalog.ReorderUnits(env.adminCtx, book.ID, []uuid.UUID{ids[2], ids[0], ids[1]})
	require.NoError(t, err)
	require.Len(t, reordered, 3)
	assert.Equal(t, []string{"three", "one", "two"}, []string{reordered[0].Title, reordered[1].Title, reordered[2].Title})
	assert.Equal(t, []int{0, 1, 2}, []int{reordered[0].Position, reordered[1].Position, reordered[2].Position})

	_, err = env.catalog.ReorderUnits(env.adminCtx, book.ID, ids[:2])
	requireStatus(t, err, http.StatusBadRequest, "invalid_request")
	_, err = env.catalog.ReorderUnits(env.adminCtx, book.ID, []uuid.UUID{ids[0], ids[1], uuid.New()})
	requireStatus(t, err, http.StatusBadRequest, "invalid_request")
	_, err = env.catalog.ReorderUnits(env.adminCtx, book.ID, []uuid.UUID{ids[0], ids[0], ids[1]})
	requireStatus(t, err, http.StatusBadRequest, "invalid_request")

	units, err := env.catalog.ListUnits(env.adminCtx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[2], units[0].ID, "failed reorders must not change positions")
}

func TestDeleteBookCascades(t *testing.T) {
	env := newTestEnv(t, nil)
	book, unit, lesson := testutil.SeedLessonTree(t, env.adminCtx, env.db)
	testutil.SeedVocabulary(t, env.adminCtx, env.db, lesson.ID, 0, "Hallo", "hello")
	testutil.SeedConversationLine(t, env.adminCtx, env.db, lesson.ID, 0, "Anna", "Hallo!")
	other := testutil.SeedBook(t, env.adminCtx, env.db, "other", true)

	require.NoError(t, env.catalog.DeleteBook(env.adminCtx, book.ID))

	count := func(model any) int64 {
		var n int64
		require.NoError(t, env.db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, 1, count(&types.Book{}))
	assert.EqualValues(t, 0, count(&types.Unit{}))
	assert.EqualValues(t, 0, count(&types.Lesson{}))
	assert.EqualValues(t, 0, count(&types.VocabularyItem{}))
	assert.EqualValues(t, 0, count(&types.ConversationLine{}))

	_, err := env.catalog.GetUnit(env.adminCtx, unit.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")
	_, err = env.catalog.GetBook(env.adminCtx, other.ID)
	assert.NoError(t, err)
	requireStatus(t, env.catalog.DeleteBook(env.adminCtx, book.ID), http.StatusNotFound, "not_found")
}

func TestDeleteLessonKeepsSiblings(t *testing.T) {
	env := newTestEnv(t, nil)
	_, unit, lesson := testutil.SeedLessonTree(t, env.adminCtx, env.db)
	sibling := testutil.SeedLesson(t, env.adminCtx, env.db, unit.ID, 1)
	testutil.SeedVocabulary(t, env.adminCtx, env.db, lesson.ID, 0, "Hallo", "hello")
	kept := testutil.SeedVocabulary(t, env.adminCtx, env.db, sibling.ID, 0, "Tschüss", "bye")

	require.NoError(t, env.catalog.DeleteLesson(env.adminCtx, lesson.ID))

	lessons, err := env.catalog.ListLessons(env.adminCtx, unit.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, sibling.ID, lessons[0].ID)
	_, err = env.vocabulary.GetByID(env.adminCtx, nil, kept.ID)
	assert.NoError(t, err)
}

func TestTreeIsCachedAndInvalidatedByWrites(t *testing.T) {
	env := newTestEnv(t, nil)
	book, unit, lesson := testutil.SeedLessonTree(t, env.adminCtx, env.db)
	testutil.SeedVocabulary(t, env.adminCtx, env.db, lesson.ID, 0, "Hallo", "hello")
	key := treeCacheKey(book.ID)

	tree, err := env.tree.GetBookTree(env.learnerCtx, book.ID)
	require.NoError(t, err)
	require.Len(t, tree.Units, 1)
	require.Len(t, tree.Units[0].Lessons, 1)
	assert.Equal(t, 1, tree.Units[0].Lessons[0].VocabularyCount)
	assert.Equal(t, 0, tree.Units[0].Lessons[0].ConversationCount)
	assert.True(t, env.cache.has(key))

	_, err = env.content.CreateConversationLine(env.adminCtx, lesson.ID, ConversationFields{Speaker: strPtr("Anna"), Text: strPtr("Guten Tag")})
	require.NoError(t, err)
	assert.False(t, env.cache.has(key))

	tree, err = env.tree.GetBookTree(env.learnerCtx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Units[0].Lessons[0].ConversationCount)

	_, err = env.catalog.UpdateUnit(env.adminCtx, unit.ID, UnitFields{Title: strPtr("Renamed")})
	require.NoError(t, err)
	assert.False(t, env.cache.has(key))

	tree, err = env.tree.GetBookTree(env.learnerCtx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", tree.Units[0].Title)

	_, err = env.catalog.UpdateBook(env.adminCtx, book.ID, BookFields{Published: boolPtr(false)})
	require.NoError(t, err)
	_, err = env.tree.GetBookTree(env.learnerCtx, book.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")
	_, err = env.tree.GetBookTree(env.adminCtx, book.ID)
	assert.NoError(t, err)
}

func TestContentCRUD(t *testing.T) {
	env := newTestEnv(t, nil)
	_, _, lesson := testutil.SeedLessonTree(t, env.adminCtx, env.db)

	a, err := env.content.CreateVocabulary(env.adminCtx, lesson.ID, VocabularyFields{Term: strPtr("Hallo"), Meaning: strPtr("hello")})
	require.NoError(t, err)
	b, err := env.content.CreateVocabulary(env.adminCtx, lesson.ID, VocabularyFields{Term: strPtr("Danke"), Meaning: strPtr("thanks")})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Position)
	assert.Equal(t, types.VocabularyNormKey("hallo"), a.NormKey)

	_, err = env.content.CreateVocabulary(env.adminCtx, lesson.ID, VocabularyFields{Meaning: strPtr("no term")})
	requireStatus(t, err, http.StatusBadRequest, "invalid_request")
	_, err = env.content.CreateConversationLine(env.adminCtx, lesson.ID, ConversationFields{Speaker: strPtr("Anna")})
	requireStatus(t, err, http.StatusBadRequest, "invalid_request")

	updated, err := env.content.UpdateVocabulary(env.adminCtx, a.ID, VocabularyFields{Term: strPtr("Hallo!"), Reading: strPtr("HA-lo")})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Meaning)
	assert.Equal(t, "HA-lo", updated.Reading)

	items, err := env.content.ReorderVocabulary(env.adminCtx, lesson.ID, []uuid.UUID{b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, items[0].ID)

	require.NoError(t, env.content.DeleteVocabulary(env.adminCtx, b.ID))
	content, err := env.content.GetLessonContent(env.learnerCtx, lesson.ID)
	require.NoError(t, err)
	require.Len(t, content.Vocabulary, 1)
	assert.Equal(t, a.ID, content.Vocabulary[0].ID)
	assert.Empty(t, content.Conversation)

	requireStatus(t, env.content.DeleteVocabulary(env.adminCtx, uuid.New()), http.StatusNotFound, "not_found")
}

func TestLessonContentHiddenForDraftBooks(t *testing.T) {
	env := newTestEnv(t, nil)
	book := testutil.SeedBook(t, env.adminCtx, env.db, "draft", false)
	unit := testutil.SeedUnit(t, env.adminCtx, env.db, book.ID, 0)
	lesson := testutil.SeedLesson(t, env.adminCtx, env.db, unit.ID, 0)

	_, err := env.content.GetLessonContent(env.learnerCtx, lesson.ID)
	requireStatus(t, err, http.StatusNotFound, "not_found")
	_, err = env.content.GetLessonContent(env.adminCtx, lesson.ID)
	assert.NoError(t, err)
}
