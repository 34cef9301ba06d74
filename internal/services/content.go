package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type VocabularyFields struct {
	Term               *string `json:"term"`
	Reading            *string `json:"reading"`
	Meaning            *string `json:"meaning"`
	PartOfSpeech       *string `json:"part_of_speech"`
	Example            *string `json:"example"`
	ExampleTranslation *string `json:"example_translation"`
	Position           *int    `json:"position"`
}

func (f VocabularyFields) apply(v *types.VocabularyItem) {
	setString(&v.Term, f.Term)
	setString(&v.Reading, f.Reading)
	setString(&v.Meaning, f.Meaning)
	setString(&v.PartOfSpeech, f.PartOfSpeech)
	setString(&v.Example, f.Example)
	setString(&v.ExampleTranslation, f.ExampleTranslation)
	if f.Position != nil {
		v.Position = *f.Position
	}
}

type ConversationFields struct {
	Speaker     *string `json:"speaker"`
	Text        *string `json:"text"`
	Reading     *string `json:"reading"`
	Translation *string `json:"translation"`
	Position    *int    `json:"position"`
}

func (f ConversationFields) apply(c *types.ConversationLine) {
	setString(&c.Speaker, f.Speaker)
	setString(&c.Text, f.Text)
	setString(&c.Reading, f.Reading)
	setString(&c.Translation, f.Translation)
	if f.Position != nil {
		c.Position = *f.Position
	}
}

type LessonContent struct {
	Lesson       *types.Lesson             `json:"lesson"`
	Vocabulary   []*types.VocabularyItem   `json:"vocabulary"`
	Conversation []*types.ConversationLine `json:"conversation"`
}

type ContentService interface {
	GetLessonContent(ctx context.Context, lessonID uuid.UUID) (*LessonContent, error)

	CreateVocabulary(ctx context.Context, lessonID uuid.UUID, in VocabularyFields) (*types.VocabularyItem, error)
	UpdateVocabulary(ctx context.Context, id uuid.UUID, in VocabularyFields) (*types.VocabularyItem, error)
	DeleteVocabulary(ctx context.Context, id uuid.UUID) error
	ReorderVocabulary(ctx context.Context, lessonID uuid.UUID, ids []uuid.UUID) ([]*types.VocabularyItem, error)

	CreateConversationLine(ctx context.Context, lessonID uuid.UUID, in ConversationFields) (*types.ConversationLine, error)
	UpdateConversationLine(ctx context.Context, id uuid.UUID, in ConversationFields) (*types.ConversationLine, error)
	DeleteConversationLine(ctx context.Context, id uuid.UUID) error
	ReorderConversation(ctx context.Context, lessonID uuid.UUID, ids []uuid.UUID) ([]*types.ConversationLine, error)
}

type contentService struct {
	db               *gorm.DB
	log              *logger.Logger
	lessonRepo       repos.LessonRepo
	vocabularyRepo   repos.VocabularyRepo
	conversationRepo repos.ConversationRepo
	treeService      TreeService
}

func NewContentService(
	db *gorm.DB,
	log *logger.Logger,
	lessonRepo repos.LessonRepo,
	vocabularyRepo repos.VocabularyRepo,
	conversationRepo repos.ConversationRepo,
	treeService TreeService,
) ContentService {
	return &contentService{
		db:               db,
		log:              log.With("service", "ContentService"),
		lessonRepo:       lessonRepo,
		vocabularyRepo:   vocabularyRepo,
		conversationRepo: conversationRepo,
		treeService:      treeService,
	}
}

// visibleLesson loads a lesson and its book, applying the published check.
func visibleLesson(ctx context.Context, tx *gorm.DB, lessonRepo repos.LessonRepo, lessonID uuid.UUID) (*types.Lesson, *types.Book, error) {
	lesson, err := lessonRepo.GetByID(ctx, tx, lessonID)
	if err != nil {
		return nil, nil, err
	}
	book, err := lessonRepo.BookOf(ctx, tx, lessonID)
	if err != nil {
		return nil, nil, err
	}
	if err := ensureBookVisible(ctx, book); err != nil {
		return nil, nil, apierr.NotFound("lesson " + lessonID.String())
	}
	return lesson, book, nil
}

func (s *contentService) GetLessonContent(ctx context.Context, lessonID uuid.UUID) (*LessonContent, error) {
	lesson, _, err := visibleLesson(ctx, nil, s.lessonRepo, lessonID)
	if err != nil {
		return nil, err
	}
	vocab, err := s.vocabularyRepo.ListByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}
	lines, err := s.conversationRepo.ListByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	if vocab == nil {
		vocab = []*types.VocabularyItem{}
	}
	if lines == nil {
		lines = []*types.ConversationLine{}
	}
	return &LessonContent{Lesson: lesson, Vocabulary: vocab, Conversation: lines}, nil
}

// withLessonBook runs fn in a transaction after resolving the lesson's book,
// then invalidates that book's tree.
func (s *contentService) withLessonBook(ctx context.Context, lessonID uuid.UUID, fn func(tx *gorm.DB) error) error {
	var bookID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := s.lessonRepo.BookOf(ctx, tx, lessonID)
		if err != nil {
			return err
		}
		bookID = book.ID
		return fn(tx)
	})
	if err != nil {
		return err
	}
	s.treeService.Invalidate(ctx, bookID)
	return nil
}

// ---------- vocabulary ----------

func (s *contentService) CreateVocabulary(ctx context.Context, lessonID uuid.UUID, in VocabularyFields) (*types.VocabularyItem, error) {
	item := &types.VocabularyItem{LessonID: lessonID}
	in.apply(item)
	if item.Term == "" {
		return nil, apierr.Invalid("term required")
	}
	err := s.withLessonBook(ctx, lessonID, func(tx *gorm.DB) error {
		if in.Position == nil {
			pos, err := s.vocabularyRepo.NextPosition(ctx, tx, lessonID)
			if err != nil {
				return err
			}
			item.Position = pos
		}
		_, err := s.vocabularyRepo.Create(ctx, tx, []*types.VocabularyItem{item})
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *contentService) UpdateVocabulary(ctx context.Context, id uuid.UUID, in VocabularyFields) (*types.VocabularyItem, error) {
	item, err := s.vocabularyRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	in.apply(item)
	if item.Term == "" {
		return nil, apierr.Invalid("term required")
	}
	err = s.withLessonBook(ctx, item.LessonID, func(tx *gorm.DB) error {
		return s.vocabularyRepo.Save(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *contentService) DeleteVocabulary(ctx context.Context, id uuid.UUID) error {
	item, err := s.vocabularyRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	return s.withLessonBook(ctx, item.LessonID, func(tx *gorm.DB) error {
		return s.vocabularyRepo.DeleteByIDs(ctx, tx, []uuid.UUID{id})
	})
}

func (s *contentService) ReorderVocabulary(ctx context.Context, lessonID uuid.UUID, ids []uuid.UUID) ([]*types.VocabularyItem, error) {
	var out []*types.VocabularyItem
	err := s.withLessonBook(ctx, lessonID, func(tx *gorm.DB) error {
		if err := s.vocabularyRepo.Reorder(ctx, tx, lessonID, ids); err != nil {
			return err
		}
		var err error
		out, err = s.vocabularyRepo.ListByLesson(ctx, tx, lessonID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---------- conversation ----------

func (s *contentService) CreateConversationLine(ctx context.Context, lessonID uuid.UUID, in ConversationFields) (*types.ConversationLine, error) {
	line := &types.ConversationLine{LessonID: lessonID}
	in.apply(line)
	if line.Text == "" {
		return nil, apierr.Invalid("text required")
	}
	err := s.withLessonBook(ctx, lessonID, func(tx *gorm.DB) error {
		if in.Position == nil {
			pos, err := s.conversationRepo.NextPosition(ctx, tx, lessonID)
			if err != nil {
				return err
			}
			line.Position = pos
		}
		_, err := s.conversationRepo.Create(ctx, tx, []*types.ConversationLine{line})
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *contentService) UpdateConversationLine(ctx context.Context, id uuid.UUID, in ConversationFields) (*types.ConversationLine, error) {
	line, err := s.conversationRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	in.apply(line)
	if line.Text == "" {
		return nil, apierr.Invalid("text required")
	}
	err = s.withLessonBook(ctx, line.LessonID, func(tx *gorm.DB) error {
		return s.conversationRepo.Save(ctx, tx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *contentService) DeleteConversationLine(ctx context.Context, id uuid.UUID) error {
	line, err := s.conversationRepo.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	return s.withLessonBook(ctx, line.LessonID, func(tx *gorm.DB) error {
		return s.conversationRepo.DeleteByIDs(ctx, tx, []uuid.UUID{id})
	})
}

func (s *contentService) ReorderConversation(ctx context.Context, lessonID uuid.UUID, ids []uuid.UUID) ([]*types.ConversationLine, error) {
	var out []*types.ConversationLine
	err := s.withLessonBook(ctx, lessonID, func(tx *gorm.DB) error {
		if err := s.conversationRepo.Reorder(ctx, tx, lessonID, ids); err != nil {
			return err
		}
		var err error
		out, err = s.conversationRepo.ListByLesson(ctx, tx, lessonID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
