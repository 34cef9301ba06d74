package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/lingua-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
)

func TestRunRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRunRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "admin@example.com")
	_, _, lesson := testutil.SeedLessonTree(t, ctx, tx)

	run := &types.ExtractionRun{
		LessonID:  lesson.ID,
		UserID:    u.ID,
		Kind:      types.ExtractionKindVocabulary,
		Provider:  "openai",
		Status:    types.ExtractionPending,
		ImageKeys: datatypes.JSONSlice[string]{"run/0.jpg"},
	}
	require.NoError(t, repo.Create(ctx, tx, run))

	run.Status = types.ExtractionSucceeded
	run.Stats = datatypes.NewJSONType(types.ExtractionStats{Received: 3, Accepted: 2, DuplicatesBatch: 1})
	run.RawResponse = `{"items":[]}`
	require.NoError(t, repo.Save(ctx, tx, run))

	got, err := repo.GetForUpdate(ctx, tx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ExtractionSucceeded, got.Status)
	assert.Equal(t, 2, got.Stats.Data().Accepted)
	assert.Equal(t, []string{"run/0.jpg"}, []string(got.ImageKeys))

	// A second, older run to check ordering.
	older := &types.ExtractionRun{LessonID: lesson.ID, UserID: u.ID, Kind: "conversation", Provider: "gemini", Status: types.ExtractionFailed}
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, tx, older))

	list, err := repo.ListByLesson(ctx, tx, lesson.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, run.ID, list[0].ID)
	assert.Empty(t, list[0].RawResponse)

	_, err = repo.GetByID(ctx, tx, uuid.New())
	assert.True(t, errors.Is(err, apierr.ErrNotFound))

	_, err = repo.GetForUpdate(ctx, nil, run.ID)
	assert.Error(t, err)
}
