package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-backend/internal/app"
	"github.com/yungbote/lingua-backend/internal/data/repos/testutil"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

func setupCLIEnv(t *testing.T) app.Config {
	t.Helper()
	t.Setenv("LINGUA_CONFIG", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "lingua.db"))
	t.Setenv("LOG_MODE", "test")
	cfg, err := app.LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateAndAdminCommands(t *testing.T) {
	setupCLIEnv(t)

	out, err := runCLI(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")
	assert.Contains(t, out, "sqlite")

	out, err = runCLI(t, "admin", "create-user", "--email", "Owner@Example.com", "--password", "correct-horse", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "created owner@example.com (admin)")

	_, err = runCLI(t, "admin", "create-user", "--email", "owner@example.com", "--password", "correct-horse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set-role")

	out, err = runCLI(t, "admin", "set-role", "--email", "owner@example.com", "--role", "learner")
	require.NoError(t, err)
	assert.Contains(t, out, "owner@example.com is now learner")

	_, err = runCLI(t, "admin", "set-role", "--email", "ghost@example.com", "--role", "admin")
	assert.ErrorContains(t, err, "no account")

	_, err = runCLI(t, "admin", "create-user", "--email", "x@example.com")
	assert.Error(t, err, "password flag is required")
}

func TestCatalogCommands(t *testing.T) {
	cfg := setupCLIEnv(t)
	_, err := runCLI(t, "migrate")
	require.NoError(t, err)

	store, err := app.OpenStore(logger.Nop(), cfg, false)
	require.NoError(t, err)
	ctx := context.Background()
	db := store.DB.DB()
	book := testutil.SeedBook(t, ctx, db, "Deutsch im Alltag", false)
	unit := testutil.SeedUnit(t, ctx, db, book.ID, 0)
	lesson := testutil.SeedLesson(t, ctx, db, unit.ID, 0)
	testutil.SeedVocabulary(t, ctx, db, lesson.ID, 0, "Hallo", "hello")
	testutil.SeedVocabulary(t, ctx, db, lesson.ID, 1, "Danke", "thanks")
	require.NoError(t, store.Close())

	out, err := runCLI(t, "catalog", "books")
	require.NoError(t, err)
	assert.Contains(t, out, "Deutsch im Alltag")
	assert.Contains(t, out, "draft")
	assert.Contains(t, out, book.ID.String())

	out, err = runCLI(t, "catalog", "tree", book.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Deutsch im Alltag [draft]")
	assert.Contains(t, out, "1. lesson")

	out, err = runCLI(t, "catalog", "tree", "--json", book.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, `"vocabulary_count": 2`)

	_, err = runCLI(t, "catalog", "tree", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid book id")
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "x"}}, []columnAlignment{alignRight})
	assert.Contains(t, got, "│ A │ B │")
	assert.Contains(t, got, "│ 2 │ x │")
	assert.Empty(t, renderTable(nil, nil, nil))
}
