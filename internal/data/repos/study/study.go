package study

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type ProgressRepo interface {
	GetByUserItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) ([]*types.StudyProgress, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StudyProgress, error)
	Save(ctx context.Context, tx *gorm.DB, rows []*types.StudyProgress) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "StudyProgressRepo")}
}

func (r *progressRepo) GetByUserItems(ctx context.Context, tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) ([]*types.StudyProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.StudyProgress
	if userID == uuid.Nil || len(itemIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND vocabulary_item_id IN ?", userID, itemIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StudyProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.StudyProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save inserts new rows and updates existing ones.
func (r *progressRepo) Save(ctx context.Context, tx *gorm.DB, rows []*types.StudyProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		q := transaction.WithContext(ctx)
		var err error
		if row.ID == uuid.Nil {
			err = q.Create(row).Error
		} else {
			err = q.Save(row).Error
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type TestAttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *types.TestAttempt) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, lessonID *uuid.UUID, limit int) ([]*types.TestAttempt, error)
}

type testAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestAttemptRepo(db *gorm.DB, baseLog *logger.Logger) TestAttemptRepo {
	return &testAttemptRepo{db: db, log: baseLog.With("repo", "TestAttemptRepo")}
}

func (r *testAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *types.TestAttempt) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(attempt).Error
}

func (r *testAttemptRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, lessonID *uuid.UUID, limit int) ([]*types.TestAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if lessonID != nil {
		q = q.Where("lesson_id = ?", *lessonID)
	}
	var out []*types.TestAttempt
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
