package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	"github.com/yungbote/lingua-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/cache"
	"github.com/yungbote/lingua-backend/internal/platform/ctxutil"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, out any) error {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, out)
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if _, ok := c.data[k]; ok {
			delete(c.data, k)
			c.deletes++
		}
	}
	return nil
}

func (c *memCache) Close() error { return nil }

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type testEnv struct {
	db    *gorm.DB
	log   *logger.Logger
	cache *memCache

	users         repos.UserRepo
	tokens        repos.UserTokenRepo
	books         repos.BookRepo
	units         repos.UnitRepo
	lessons       repos.LessonRepo
	vocabulary    repos.VocabularyRepo
	conversation  repos.ConversationRepo
	progress      repos.StudyProgressRepo
	testAttempts  repos.TestAttemptRepo
	tree          TreeService
	catalog       CatalogService
	content       ContentService
	study         StudyService
	adminCtx      context.Context
	learnerCtx    context.Context
	learner       *types.User
	administrator *types.User
}

func newTestEnv(t *testing.T, cover CoverService) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	env := &testEnv{
		db:           db,
		log:          log,
		cache:        newMemCache(),
		users:        repos.NewUserRepo(db, log),
		tokens:       repos.NewUserTokenRepo(db, log),
		books:        repos.NewBookRepo(db, log),
		units:        repos.NewUnitRepo(db, log),
		lessons:      repos.NewLessonRepo(db, log),
		vocabulary:   repos.NewVocabularyRepo(db, log),
		conversation: repos.NewConversationRepo(db, log),
		progress:     repos.NewStudyProgressRepo(db, log),
		testAttempts: repos.NewTestAttemptRepo(db, log),
	}
	env.tree = NewTreeService(db, log, env.cache, time.Minute, env.books, env.units, env.lessons, env.vocabulary, env.conversation)
	env.catalog = NewCatalogService(db, log, env.books, env.units, env.lessons, env.vocabulary, env.conversation, cover, env.tree)
	env.content = NewContentService(db, log, env.lessons, env.vocabulary, env.conversation, env.tree)
	env.study = NewStudyService(db, log, env.lessons, env.vocabulary, env.progress, env.testAttempts)

	ctx := context.Background()
	env.learner = testutil.SeedUser(t, ctx, db, "learner@example.com")
	env.administrator = testutil.SeedUser(t, ctx, db, "admin@example.com")
	env.learnerCtx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: env.learner.ID, Role: types.RoleLearner})
	env.adminCtx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: env.administrator.ID, Role: types.RoleAdmin})
	return env
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

