package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lines []*types.ConversationLine) ([]*types.ConversationLine, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ConversationLine, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.ConversationLine, error)
	Save(ctx context.Context, tx *gorm.DB, line *types.ConversationLine) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error
	NextPosition(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (int, error)
	Reorder(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, ids []uuid.UUID) error
	NormKeys(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (map[string]bool, error)
	CountByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) pick(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, lines []*types.ConversationLine) ([]*types.ConversationLine, error) {
	if len(lines) == 0 {
		return []*types.ConversationLine{}, nil
	}
	if err := r.pick(tx).WithContext(ctx).Create(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ConversationLine, error) {
	var line types.ConversationLine
	if err := r.pick(tx).WithContext(ctx).Where("id = ?", id).First(&line).Error; err != nil {
		return nil, notFound("conversation line", id, err)
	}
	return &line, nil
}

func (r *conversationRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.ConversationLine, error) {
	var out []*types.ConversationLine
	if err := r.pick(tx).WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("position ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) Save(ctx context.Context, tx *gorm.DB, line *types.ConversationLine) error {
	return r.pick(tx).WithContext(ctx).Save(line).Error
}

func (r *conversationRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.pick(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&types.ConversationLine{}).Error
}

func (r *conversationRepo) DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	return r.pick(tx).WithContext(ctx).Where("lesson_id IN ?", lessonIDs).Delete(&types.ConversationLine{}).Error
}

func (r *conversationRepo) NextPosition(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (int, error) {
	return nextPosition(ctx, r.pick(tx), &types.ConversationLine{}, "lesson_id", lessonID)
}

func (r *conversationRepo) Reorder(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, ids []uuid.UUID) error {
	return reorder(ctx, r.pick(tx), &types.ConversationLine{}, "lesson_id", lessonID, ids)
}

func (r *conversationRepo) NormKeys(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (map[string]bool, error) {
	return normKeys(ctx, r.pick(tx), &types.ConversationLine{}, lessonID)
}

func (r *conversationRepo) CountByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return countByLesson(ctx, r.pick(tx), &types.ConversationLine{}, lessonIDs)
}
