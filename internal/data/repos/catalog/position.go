package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/platform/apierr"
)

// nextPosition returns max(position)+1 among the rows of model under the
// given parent, or 0 when there are none. An empty parentCol means the
// whole table.
func nextPosition(ctx context.Context, tx *gorm.DB, model any, parentCol string, parentID uuid.UUID) (int, error) {
	q := tx.WithContext(ctx).Model(model)
	if parentCol != "" {
		q = q.Where(parentCol+" = ?", parentID)
	}
	var maxPos sql.NullInt64
	if err := q.Select("MAX(position)").Row().Scan(&maxPos); err != nil {
		return 0, err
	}
	if !maxPos.Valid {
		return 0, nil
	}
	return int(maxPos.Int64) + 1, nil
}

// reorder rewrites positions 0..n-1 following ids. ids must name every
// child of the parent exactly once.
func reorder(ctx context.Context, tx *gorm.DB, model any, parentCol string, parentID uuid.UUID, ids []uuid.UUID) error {
	return tx.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var current []uuid.UUID
		if err := txx.Model(model).Where(parentCol+" = ?", parentID).Pluck("id", &current).Error; err != nil {
			return err
		}
		if err := sameIDSet(current, ids); err != nil {
			return err
		}
		for i, id := range ids {
			if err := txx.Model(model).Where("id = ?", id).UpdateColumn("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func sameIDSet(current, ordered []uuid.UUID) error {
	if len(current) != len(ordered) {
		return apierr.Invalid("order lists %d ids, parent has %d children", len(ordered), len(current))
	}
	want := make(map[uuid.UUID]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	seen := make(map[uuid.UUID]bool, len(ordered))
	for _, id := range ordered {
		if !want[id] {
			return apierr.Invalid("id %s does not belong to this parent", id)
		}
		if seen[id] {
			return apierr.Invalid("id %s listed twice", id)
		}
		seen[id] = true
	}
	return nil
}

func notFound(what string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, apierr.ErrNotFound)
	}
	return err
}
