package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type VocabularyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.VocabularyItem) ([]*types.VocabularyItem, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VocabularyItem, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.VocabularyItem, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.VocabularyItem, error)
	ListByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.VocabularyItem, error)
	Save(ctx context.Context, tx *gorm.DB, item *types.VocabularyItem) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error
	NextPosition(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (int, error)
	Reorder(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, ids []uuid.UUID) error
	NormKeys(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (map[string]bool, error)
	CountByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type vocabularyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVocabularyRepo(db *gorm.DB, baseLog *logger.Logger) VocabularyRepo {
	return &vocabularyRepo{db: db, log: baseLog.With("repo", "VocabularyRepo")}
}

func (r *vocabularyRepo) pick(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *vocabularyRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.VocabularyItem) ([]*types.VocabularyItem, error) {
	if len(items) == 0 {
		return []*types.VocabularyItem{}, nil
	}
	if err := r.pick(tx).WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *vocabularyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VocabularyItem, error) {
	var item types.VocabularyItem
	if err := r.pick(tx).WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound("vocabulary item", id, err)
	}
	return &item, nil
}

func (r *vocabularyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.VocabularyItem, error) {
	var out []*types.VocabularyItem
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.pick(tx).WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *vocabularyRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.VocabularyItem, error) {
	var out []*types.VocabularyItem
	if err := r.pick(tx).WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("position ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *vocabularyRepo) ListByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.VocabularyItem, error) {
	var out []*types.VocabularyItem
	if err := r.pick(tx).WithContext(ctx).
		Joins("JOIN lesson ON lesson.id = vocabulary_item.lesson_id").
		Joins("JOIN unit ON unit.id = lesson.unit_id").
		Where("unit.book_id = ?", bookID).
		Order("vocabulary_item.position ASC, vocabulary_item.created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *vocabularyRepo) Save(ctx context.Context, tx *gorm.DB, item *types.VocabularyItem) error {
	return r.pick(tx).WithContext(ctx).Save(item).Error
}

func (r *vocabularyRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.pick(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&types.VocabularyItem{}).Error
}

func (r *vocabularyRepo) DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	return r.pick(tx).WithContext(ctx).Where("lesson_id IN ?", lessonIDs).Delete(&types.VocabularyItem{}).Error
}

func (r *vocabularyRepo) NextPosition(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (int, error) {
	return nextPosition(ctx, r.pick(tx), &types.VocabularyItem{}, "lesson_id", lessonID)
}

func (r *vocabularyRepo) Reorder(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, ids []uuid.UUID) error {
	return reorder(ctx, r.pick(tx), &types.VocabularyItem{}, "lesson_id", lessonID, ids)
}

func (r *vocabularyRepo) NormKeys(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (map[string]bool, error) {
	return normKeys(ctx, r.pick(tx), &types.VocabularyItem{}, lessonID)
}

func (r *vocabularyRepo) CountByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return countByLesson(ctx, r.pick(tx), &types.VocabularyItem{}, lessonIDs)
}

func normKeys(ctx context.Context, tx *gorm.DB, model any, lessonID uuid.UUID) (map[string]bool, error) {
	var keys []string
	if err := tx.WithContext(ctx).Model(model).Where("lesson_id = ?", lessonID).Pluck("norm_key", &keys).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out, nil
}

func countByLesson(ctx context.Context, tx *gorm.DB, model any, lessonIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := map[uuid.UUID]int{}
	if len(lessonIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		LessonID uuid.UUID
		N        int
	}
	if err := tx.WithContext(ctx).Model(model).
		Select("lesson_id, COUNT(*) AS n").
		Where("lesson_id IN ?", lessonIDs).
		Group("lesson_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.LessonID] = row.N
	}
	return out, nil
}
