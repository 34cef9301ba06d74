package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

func TestNewWiresSQLiteAndLocalStorage(t *testing.T) {
	cfg := defaultConfig()
	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = ":memory:"
	cfg.Storage.LocalDir = t.TempDir()

	a, err := New(context.Background(), logger.Nop(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Equal(t, cfg.Storage.LocalDir, a.Clients.MediaDir)
	assert.Nil(t, a.Clients.Provider)
	assert.Nil(t, a.Clients.Redis)

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenStoreMigrates(t *testing.T) {
	cfg := defaultConfig()
	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = ":memory:"

	store, err := OpenStore(logger.Nop(), cfg, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.True(t, store.DB.DB().Migrator().HasTable("book"))
	assert.True(t, store.DB.DB().Migrator().HasTable("extraction_run"))
}
