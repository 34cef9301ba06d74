package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type BookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, book *types.Book) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error)
	List(ctx context.Context, tx *gorm.DB, publishedOnly bool) ([]*types.Book, error)
	Save(ctx context.Context, tx *gorm.DB, book *types.Book) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	NextPosition(ctx context.Context, tx *gorm.DB) (int, error)
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) pick(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *bookRepo) Create(ctx context.Context, tx *gorm.DB, book *types.Book) error {
	return r.pick(tx).WithContext(ctx).Create(book).Error
}

func (r *bookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Book, error) {
	var book types.Book
	if err := r.pick(tx).WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, notFound("book", id, err)
	}
	return &book, nil
}

func (r *bookRepo) List(ctx context.Context, tx *gorm.DB, publishedOnly bool) ([]*types.Book, error) {
	q := r.pick(tx).WithContext(ctx).Order("position ASC, created_at ASC")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	var out []*types.Book
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *bookRepo) Save(ctx context.Context, tx *gorm.DB, book *types.Book) error {
	return r.pick(tx).WithContext(ctx).Save(book).Error
}

func (r *bookRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.pick(tx).WithContext(ctx).Where("id = ?", id).Delete(&types.Book{}).Error
}

func (r *bookRepo) NextPosition(ctx context.Context, tx *gorm.DB) (int, error) {
	return nextPosition(ctx, r.pick(tx), &types.Book{}, "", uuid.Nil)
}
