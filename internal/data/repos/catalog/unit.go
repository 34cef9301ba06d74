package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type UnitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, unit *types.Unit) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Unit, error)
	ListByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.Unit, error)
	Save(ctx context.Context, tx *gorm.DB, unit *types.Unit) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	NextPosition(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (int, error)
	Reorder(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, ids []uuid.UUID) error
}

type unitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnitRepo(db *gorm.DB, baseLog *logger.Logger) UnitRepo {
	return &unitRepo{db: db, log: baseLog.With("repo", "UnitRepo")}
}

func (r *unitRepo) pick(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *unitRepo) Create(ctx context.Context, tx *gorm.DB, unit *types.Unit) error {
	return r.pick(tx).WithContext(ctx).Create(unit).Error
}

func (r *unitRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Unit, error) {
	var unit types.Unit
	if err := r.pick(tx).WithContext(ctx).Where("id = ?", id).First(&unit).Error; err != nil {
		return nil, notFound("unit", id, err)
	}
	return &unit, nil
}

func (r *unitRepo) ListByBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) ([]*types.Unit, error) {
	var out []*types.Unit
	if err := r.pick(tx).WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("position ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *unitRepo) Save(ctx context.Context, tx *gorm.DB, unit *types.Unit) error {
	return r.pick(tx).WithContext(ctx).Save(unit).Error
}

func (r *unitRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.pick(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&types.Unit{}).Error
}

func (r *unitRepo) NextPosition(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (int, error) {
	return nextPosition(ctx, r.pick(tx), &types.Unit{}, "book_id", bookID)
}

func (r *unitRepo) Reorder(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, ids []uuid.UUID) error {
	return reorder(ctx, r.pick(tx), &types.Unit{}, "book_id", bookID, ids)
}
