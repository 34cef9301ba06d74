package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error)
	ListByUnitIDs(ctx context.Context, tx *gorm.DB, unitIDs []uuid.UUID) ([]*types.Lesson, error)
	Save(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	NextPosition(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (int, error)
	Reorder(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, ids []uuid.UUID) error
	// BookOf resolves the book a lesson belongs to.
	BookOf(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Book, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) pick(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) error {
	return r.pick(tx).WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error) {
	var lesson types.Lesson
	if err := r.pick(tx).WithContext(ctx).Where("id = ?", id).First(&lesson).Error; err != nil {
		return nil, notFound("lesson", id, err)
	}
	return &lesson, nil
}

func (r *lessonRepo) ListByUnitIDs(ctx context.Context, tx *gorm.DB, unitIDs []uuid.UUID) ([]*types.Lesson, error) {
	var out []*types.Lesson
	if len(unitIDs) == 0 {
		return out, nil
	}
	if err := r.pick(tx).WithContext(ctx).
		Where("unit_id IN ?", unitIDs).
		Order("position ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRepo) Save(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) error {
	return r.pick(tx).WithContext(ctx).Save(lesson).Error
}

func (r *lessonRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.pick(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&types.Lesson{}).Error
}

func (r *lessonRepo) NextPosition(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (int, error) {
	return nextPosition(ctx, r.pick(tx), &types.Lesson{}, "unit_id", unitID)
}

func (r *lessonRepo) Reorder(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, ids []uuid.UUID) error {
	return reorder(ctx, r.pick(tx), &types.Lesson{}, "unit_id", unitID, ids)
}

func (r *lessonRepo) BookOf(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Book, error) {
	var book types.Book
	err := r.pick(tx).WithContext(ctx).
		Joins("JOIN unit ON unit.book_id = book.id").
		Joins("JOIN lesson ON lesson.unit_id = unit.id").
		Where("lesson.id = ?", lessonID).
		First(&book).Error
	if err != nil {
		return nil, notFound("lesson", lessonID, err)
	}
	return &book, nil
}
