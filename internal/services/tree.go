package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	"github.com/yungbote/lingua-backend/internal/platform/cache"
	"github.com/yungbote/lingua-backend/internal/platform/logger"

	types "github.com/yungbote/lingua-backend/internal/domain"
)

type BookTree struct {
	Book  *types.Book `json:"book"`
	Units []TreeUnit  `json:"units"`
}

type TreeUnit struct {
	ID       uuid.UUID    `json:"id"`
	Title    string       `json:"title"`
	Position int          `json:"position"`
	Lessons  []TreeLesson `json:"lessons"`
}

type TreeLesson struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Kind              string    `json:"kind"`
	Position          int       `json:"position"`
	VocabularyCount   int       `json:"vocabulary_count"`
	ConversationCount int       `json:"conversation_count"`
}

// TreeService builds the learner-facing book outline. Trees are cached per
// book and dropped by Invalidate after any write below that book.
type TreeService interface {
	GetBookTree(ctx context.Context, bookID uuid.UUID) (*BookTree, error)
	Invalidate(ctx context.Context, bookIDs ...uuid.UUID)
}

type treeService struct {
	db               *gorm.DB
	log              *logger.Logger
	cache            cache.Cache
	ttl              time.Duration
	bookRepo         repos.BookRepo
	unitRepo         repos.UnitRepo
	lessonRepo       repos.LessonRepo
	vocabularyRepo   repos.VocabularyRepo
	conversationRepo repos.ConversationRepo
}

func NewTreeService(
	db *gorm.DB,
	log *logger.Logger,
	c cache.Cache,
	ttl time.Duration,
	bookRepo repos.BookRepo,
	unitRepo repos.UnitRepo,
	lessonRepo repos.LessonRepo,
	vocabularyRepo repos.VocabularyRepo,
	conversationRepo repos.ConversationRepo,
) TreeService {
	if c == nil {
		c = cache.Noop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &treeService{
		db:               db,
		log:              log.With("service", "TreeService"),
		cache:            c,
		ttl:              ttl,
		bookRepo:         bookRepo,
		unitRepo:         unitRepo,
		lessonRepo:       lessonRepo,
		vocabularyRepo:   vocabularyRepo,
		conversationRepo: conversationRepo,
	}
}

func treeCacheKey(bookID uuid.UUID) string {
	return "book:" + bookID.String() + ":tree"
}

func (ts *treeService) GetBookTree(ctx context.Context, bookID uuid.UUID) (*BookTree, error) {
	var tree BookTree
	err := ts.cache.GetJSON(ctx, treeCacheKey(bookID), &tree)
	switch {
	case err == nil:
		if err := ensureBookVisible(ctx, tree.Book); err != nil {
			return nil, err
		}
		return &tree, nil
	case !errors.Is(err, cache.ErrMiss):
		ts.log.Warn("tree cache read failed", "book_id", bookID, "error", err)
	}

	built, err := ts.build(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := ts.cache.SetJSON(ctx, treeCacheKey(bookID), built, ts.ttl); err != nil {
		ts.log.Warn("tree cache write failed", "book_id", bookID, "error", err)
	}
	if err := ensureBookVisible(ctx, built.Book); err != nil {
		return nil, err
	}
	return built, nil
}

func (ts *treeService) build(ctx context.Context, bookID uuid.UUID) (*BookTree, error) {
	book, err := ts.bookRepo.GetByID(ctx, nil, bookID)
	if err != nil {
		return nil, err
	}
	units, err := ts.unitRepo.ListByBook(ctx, nil, bookID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	unitIDs := make([]uuid.UUID, len(units))
	for i, u := range units {
		unitIDs[i] = u.ID
	}
	lessons, err := ts.lessonRepo.ListByUnitIDs(ctx, nil, unitIDs)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	lessonIDs := make([]uuid.UUID, len(lessons))
	for i, l := range lessons {
		lessonIDs[i] = l.ID
	}
	vocabCounts, err := ts.vocabularyRepo.CountByLessonIDs(ctx, nil, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("count vocabulary: %w", err)
	}
	convCounts, err := ts.conversationRepo.CountByLessonIDs(ctx, nil, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("count conversation: %w", err)
	}

	byUnit := map[uuid.UUID][]TreeLesson{}
	for _, l := range lessons {
		byUnit[l.UnitID] = append(byUnit[l.UnitID], TreeLesson{
			ID:                l.ID,
			Title:             l.Title,
			Kind:              l.Kind,
			Position:          l.Position,
			VocabularyCount:   vocabCounts[l.ID],
			ConversationCount: convCounts[l.ID],
		})
	}
	tree := &BookTree{Book: book, Units: make([]TreeUnit, 0, len(units))}
	for _, u := range units {
		ls := byUnit[u.ID]
		if ls == nil {
			ls = []TreeLesson{}
		}
		tree.Units = append(tree.Units, TreeUnit{ID: u.ID, Title: u.Title, Position: u.Position, Lessons: ls})
	}
	return tree, nil
}

func (ts *treeService) Invalidate(ctx context.Context, bookIDs ...uuid.UUID) {
	if len(bookIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(bookIDs))
	for _, id := range bookIDs {
		if id != uuid.Nil {
			keys = append(keys, treeCacheKey(id))
		}
	}
	if err := ts.cache.Delete(ctx, keys...); err != nil {
		ts.log.Warn("tree cache invalidation failed", "keys", keys, "error", err)
	}
}
