package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type BookFields struct {
	Title          *string `json:"title"`
	Subtitle       *string `json:"subtitle"`
	Language       *string `json:"language"`
	TargetLanguage *string `json:"target_language"`
	Level          *string `json:"level"`
	Description    *string `json:"description"`
	Position       *int    `json:"position"`
	Published      *bool   `json:"published"`
}

func (f BookFields) apply(b *types.Book) {
	setString(&b.Title, f.Title)
	setString(&b.Subtitle, f.Subtitle)
	setString(&b.Language, f.Language)
	setString(&b.TargetLanguage, f.TargetLanguage)
	setString(&b.Level, f.Level)
	setString(&b.Description, f.Description)
	if f.Position != nil {
		b.Position = *f.Position
	}
	if f.Published != nil {
		b.Published = *f.Published
	}
}

type UnitFields struct {
	Title    *string `json:"title"`
	Position *int    `json:"position"`
}

type LessonFields struct {
	Title    *string `json:"title"`
	Kind     *string `json:"kind"`
	Position *int    `json:"position"`
	Notes    *string `json:"notes"`
}

func (f LessonFields) apply(l *types.Lesson) {
	setString(&l.Title, f.Title)
	setString(&l.Kind, f.Kind)
	setString(&l.Notes, f.Notes)
	if f.Position != nil {
		l.Position = *f.Position
	}
}

// CatalogService is the admin side of books, units and lessons. Learners
// read through ListBooks, GetBook and TreeService.
type CatalogService interface {
	ListBooks(ctx context.Context) ([]*types.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*types.Book, error)
	CreateBook(ctx context.Context, in BookFields) (*types.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in BookFields) (*types.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	UploadBookCover(ctx context.Context, id uuid.UUID, raw []byte) (*types.Book, error)

	ListUnits(ctx context.Context, bookID uuid.UUID) ([]*types.Unit, error)
	GetUnit(ctx context.Context, id uuid.UUID) (*types.Unit, error)
	CreateUnit(ctx context.Context, bookID uuid.UUID, in UnitFields) (*types.Unit, error)
	UpdateUnit(ctx context.Context, id uuid.UUID, in UnitFields) (*types.Unit, error)
	DeleteUnit(ctx context.Context, id uuid.UUID) error
	ReorderUnits(ctx context.Context, bookID uuid.UUID, ids []uuid.UUID) ([]*types.Unit, error)

	ListLessons(ctx context.Context, unitID uuid.UUID) ([]*types.Lesson, error)
	GetLesson(ctx context.Context, id uuid.UUID) (*types.Lesson, error)
	CreateLesson(ctx context.Context, unitID uuid.UUID, in LessonFields) (*types.Lesson, error)
	UpdateLesson(ctx context.Context, id uuid.UUID, in LessonFields) (*types.Lesson, error)
	DeleteLesson(ctx context.Context, id uuid.UUID) error
	ReorderLessons(ctx context.Context, unitID uuid.UUID, ids []uuid.UUID) ([]*types.Lesson, error)
}

type catalogService struct {
	db               *gorm.DB
	log              *logger.Logger
	bookRepo         repos.BookRepo
	unitRepo         repos.UnitRepo
	lessonRepo       repos.LessonRepo
	vocabularyRepo   repos.VocabularyRepo
	conversationRepo repos.ConversationRepo
	coverService     CoverService
	treeService      TreeService
}

func NewCatalogService(
	db *gorm.DB,
	log *logger.Logger,
	bookRepo repos.BookRepo,
	unitRepo repos.UnitRepo,
	lessonRepo repos.LessonRepo,
	vocabularyRepo repos.VocabularyRepo,
	conversationRepo repos.ConversationRepo,
	coverService CoverService,
	treeService TreeService,
) CatalogService {
	return &catalogService{
		db:               db,
		log:              log.With("service", "CatalogService"),
		bookRepo:         bookRepo,
		unitRepo:         unitRepo,
		lessonRepo:       lessonRepo,
		vocabularyRepo:   vocabularyRepo,
		conversationRepo: conversationRepo,
		coverService:     coverService,
		treeService:      treeService,
	}
}

// ---------- books ----------

func (cs *catalogService) ListBooks(ctx context.Context) ([]*types.Book, error) {
	return cs.bookRepo.List(ctx, nil, !isAdmin(ctx))
}

func (cs *catalogService) GetBook(ctx context.Context, id uuid.UUID) (*types.Book, error) {
	book, err := cs.bookRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := ensureBookVisible(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (cs *catalogService) CreateBook(ctx context.Context, in BookFields) (*types.Book, error) {
	book := &types.Book{}
	in.apply(book)
	if book.Title == "" {
		return nil, apierr.Invalid("title required")
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Position == nil {
			pos, err := cs.bookRepo.NextPosition(ctx, tx)
			if err != nil {
				return err
			}
			book.Position = pos
		}
		if err := cs.bookRepo.Create(ctx, tx, book); err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		if cs.coverService == nil {
			return nil
		}
		if err := cs.coverService.GenerateAndUpload(ctx, tx, book); err != nil {
			cs.log.Warn("cover generation failed (ignored)", "book_id", book.ID, "error", err)
			return nil
		}
		return cs.bookRepo.Save(ctx, tx, book)
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("book created", "book_id", book.ID)
	return book, nil
}

func (cs *catalogService) UpdateBook(ctx context.Context, id uuid.UUID, in BookFields) (*types.Book, error) {
	var book *types.Book
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		book, err = cs.bookRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		in.apply(book)
		if book.Title == "" {
			return apierr.Invalid("title required")
		}
		return cs.bookRepo.Save(ctx, tx, book)
	})
	if err != nil {
		return nil, err
	}
	cs.treeService.Invalidate(ctx, id)
	return book, nil
}

func (cs *catalogService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.bookRepo.GetByID(ctx, tx, id); err != nil {
			return err
		}
		units, err := cs.unitRepo.ListByBook(ctx, tx, id)
		if err != nil {
			return err
		}
		unitIDs := make([]uuid.UUID, len(units))
		for i, u := range units {
			unitIDs[i] = u.ID
		}
		if err := cs.deleteUnitsTx(ctx, tx, unitIDs); err != nil {
			return err
		}
		return cs.bookRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	cs.treeService.Invalidate(ctx, id)
	cs.log.Info("book deleted", "book_id", id)
	return nil
}

func (cs *catalogService) UploadBookCover(ctx context.Context, id uuid.UUID, raw []byte) (*types.Book, error) {
	if cs.coverService == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "storage_unavailable", fmt.Errorf("object storage not configured"))
	}
	if len(raw) == 0 {
		return nil, apierr.Invalid("cover image required")
	}
	var book *types.Book
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		book, err = cs.bookRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := cs.coverService.UploadFromImage(ctx, tx, book, raw); err != nil {
			return err
		}
		return cs.bookRepo.Save(ctx, tx, book)
	})
	if err != nil {
		return nil, err
	}
	cs.treeService.Invalidate(ctx, id)
	return book, nil
}

// ---------- units ----------

func (cs *catalogService) ListUnits(ctx context.Context, bookID uuid.UUID) ([]*types.Unit, error) {
	if _, err := cs.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return cs.unitRepo.ListByBook(ctx, nil, bookID)
}

func (cs *catalogService) GetUnit(ctx context.Context, id uuid.UUID) (*types.Unit, error) {
	unit, err := cs.unitRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	book, err := cs.bookRepo.GetByID(ctx, nil, unit.BookID)
	if err != nil {
		return nil, err
	}
	if err := ensureBookVisible(ctx, book); err != nil {
		return nil, apierr.NotFound("unit " + id.String())
	}
	return unit, nil
}

func (cs *catalogService) CreateUnit(ctx context.Context, bookID uuid.UUID, in UnitFields) (*types.Unit, error) {
	unit := &types.Unit{BookID: bookID}
	setString(&unit.Title, in.Title)
	if unit.Title == "" {
		return nil, apierr.Invalid("title required")
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.bookRepo.GetByID(ctx, tx, bookID); err != nil {
			return err
		}
		if in.Position != nil {
			unit.Position = *in.Position
		} else {
			pos, err := cs.unitRepo.NextPosition(ctx, tx, bookID)
			if err != nil {
				return err
			}
			unit.Position = pos
		}
		return cs.unitRepo.Create(ctx, tx, unit)
	})
	if err != nil {
		return nil, err
	}
	cs.treeService.Invalidate(ctx, bookID)
	return unit, nil
}

func (cs *catalogService) UpdateUnit(ctx context.Context, id uuid.UUID, in UnitFields) (*types.Unit, error) {
	var unit *types.Unit
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		unit, err = cs.unitRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		setString(&unit.Title, in.Title)
		if in.Position != nil {
			unit.Position = *in.Position
		}
		if unit.Title == "" {
			return apierr.Invalid("title required")
		}
		return cs.unitRepo.Save(ctx, tx, unit)
	})
	if err != nil {
		return nil, err
	}
	cs.treeService.Invalidate(ctx, unit.BookID)
	return unit, nil
}

func (cs *catalogService) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	var bookID uuid.UUID
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unit, err := cs.unitRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		bookID = unit.BookID
		return cs.deleteUnitsTx(ctx, tx, []uuid.UUID{id})
	})
	if err != nil {
		return err
	}
	cs.treeService.Invalidate(ctx, bookID)
	return nil
}

func (cs *catalogService) ReorderUnits(ctx context.Context, bookID uuid.UUID, ids []uuid.UUID) ([]*types.Unit, error) {
	var out []*types.Unit
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.bookRepo.GetByID(ctx, tx, bookID); err != nil {
			return err
		}
		if err := cs.unitRepo.Reorder(ctx, tx, bookID, ids); err != nil {
			return err
		}
		var err error
		out, err = cs.unitRepo.ListByBook(ctx, tx, bookID)
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.treeService.Invalidate(ctx, bookID)
	return out, nil
}

// deleteUnitsTx removes units together with their lessons and content.
func (cs *catalogService) deleteUnitsTx(ctx context.Context, tx *gorm.DB, unitIDs []uuid.UUID) error {
	if len(unitIDs) == 0 {
		return nil
	}
	lessons, err := cs.lessonRepo.ListByUnitIDs(ctx, tx, unitIDs)
	if err != nil {
		return err
	}
	lessonIDs := make([]uuid.UUID, len(lessons))
	for i, l := range lessons {
		lessonIDs[i] = l.ID
	}
	if err := cs.deleteLessonsTx(ctx, tx, lessonIDs); err != nil {
		return err
	}
	return cs.unitRepo.DeleteByIDs(ctx, tx, unitIDs)
}

// ---------- lessons ----------

func (cs *catalogService) ListLessons(ctx context.Context, unitID uuid.UUID) ([]*types.Lesson, error) {
	if _, err := cs.GetUnit(ctx, unitID); err != nil {
		return nil, err
	}
	return cs.lessonRepo.ListByUnitIDs(ctx, nil, []uuid.UUID{unitID})
}

func (cs *catalogService) GetLesson(ctx context.Context, id uuid.UUID) (*types.Lesson, error) {
	lesson, _, err := visibleLesson(ctx, nil, cs.lessonRepo, id)
	return lesson, err
}

func (cs *catalogService) CreateLesson(ctx context.Context, unitID uuid.UUID, in LessonFields) (*types.Lesson, error) {
	lesson := &types.Lesson{UnitID: unitID, Kind: types.LessonKindMixed}
	in.apply(lesson)
	if err := validateLesson(lesson); err != nil {
		return nil, err
	}
	var bookID uuid.UUID
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unit, err := cs.unitRepo.GetByID(ctx, tx, unitID)
		if err != nil {
			return err
		}
		bookID = unit.BookID
		if in.Position == nil {
			pos, err := cs.lessonRepo.NextPosition(ctx, tx, unitID)
			if err != nil {
				return err
			}
			lesson.Position = pos
		}
		return cs.lessonRepo.Create(ctx, tx, lesson)
	})
	if err != nil {
		return nil, err
	}
	cs.treeService.Invalidate(ctx, bookID)
	return lesson, nil
}

func (cs *catalogService) UpdateLesson(ctx context.Context, id uuid.UUID, in LessonFields) (*types.Lesson, error) {
	var lesson *types.Lesson
	var bookID uuid.UUID
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		lesson, err = cs.lessonRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		in.apply(lesson)
		if err := validateLesson(lesson); err != nil {
			return err
		}
		book, err := cs.lessonRepo.BookOf(ctx, tx, id)
		if err != nil {
			return err
		}
		bookID = book.ID
		return cs.lessonRepo.Save(ctx, tx, lesson)
	})
	if err != nil {
		return nil, err
	}
	cs.treeService.Invalidate(ctx, bookID)
	return lesson, nil
}

func (cs *catalogService) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	var bookID uuid.UUID
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := cs.lessonRepo.BookOf(ctx, tx, id)
		if err != nil {
			return err
		}
		bookID = book.ID
		return cs.deleteLessonsTx(ctx, tx, []uuid.UUID{id})
	})
	if err != nil {
		return err
	}
	cs.treeService.Invalidate(ctx, bookID)
	return nil
}

func (cs *catalogService) ReorderLessons(ctx context.Context, unitID uuid.UUID, ids []uuid.UUID) ([]*types.Lesson, error) {
	var out []*types.Lesson
	var bookID uuid.UUID
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unit, err := cs.unitRepo.GetByID(ctx, tx, unitID)
		if err != nil {
			return err
		}
		bookID = unit.BookID
		if err := cs.lessonRepo.Reorder(ctx, tx, unitID, ids); err != nil {
			return err
		}
		out, err = cs.lessonRepo.ListByUnitIDs(ctx, tx, []uuid.UUID{unitID})
		return err
	})
	if err != nil {
		return nil, err
	}
	cs.treeService.Invalidate(ctx, bookID)
	return out, nil
}

func (cs *catalogService) deleteLessonsTx(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	if err := cs.vocabularyRepo.DeleteByLessonIDs(ctx, tx, lessonIDs); err != nil {
		return fmt.Errorf("delete vocabulary: %w", err)
	}
	if err := cs.conversationRepo.DeleteByLessonIDs(ctx, tx, lessonIDs); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return cs.lessonRepo.DeleteByIDs(ctx, tx, lessonIDs)
}

func validateLesson(l *types.Lesson) error {
	if l.Title == "" {
		return apierr.Invalid("title required")
	}
	if l.Kind == "" {
		l.Kind = types.LessonKindMixed
	}
	if !types.ValidLessonKind(l.Kind) {
		return apierr.Invalid("unknown lesson kind %q", l.Kind)
	}
	return nil
}
