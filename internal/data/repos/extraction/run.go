package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type RunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.ExtractionRun) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ExtractionRun, error)
	// GetForUpdate loads a run inside tx, locking the row where the
	// database supports it.
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ExtractionRun, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, limit int) ([]*types.ExtractionRun, error)
	Save(ctx context.Context, tx *gorm.DB, run *types.ExtractionRun) error
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{db: db, log: baseLog.With("repo", "ExtractionRunRepo")}
}

func (r *runRepo) Create(ctx context.Context, tx *gorm.DB, run *types.ExtractionRun) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(run).Error
}

func (r *runRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return r.first(transaction.WithContext(ctx), id)
}

func (r *runRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ExtractionRun, error) {
	if tx == nil {
		return nil, fmt.Errorf("GetForUpdate requires a transaction")
	}
	q := tx.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Set("gorm:query_option", "FOR UPDATE")
	}
	return r.first(q, id)
}

func (r *runRepo) first(q *gorm.DB, id uuid.UUID) (*types.ExtractionRun, error) {
	var run types.ExtractionRun
	if err := q.Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("extraction run %s: %w", id, apierr.ErrNotFound)
		}
		return nil, err
	}
	return &run, nil
}

func (r *runRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, limit int) ([]*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.ExtractionRun
	if err := transaction.WithContext(ctx).
		Omit("raw_response").
		Where("lesson_id = ?", lessonID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *runRepo) Save(ctx context.Context, tx *gorm.DB, run *types.ExtractionRun) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(run).Error
}
