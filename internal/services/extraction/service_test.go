package extraction

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	"github.com/yungbote/lingua-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/ctxutil"
	"github.com/yungbote/lingua-backend/internal/platform/gcp"

	"github.com/google/uuid"
)

type fakeProvider struct {
	reply string
	err   error
	calls int32
	last  ProviderRequest
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }
func (f *fakeProvider) Generate(_ context.Context, req ProviderRequest) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.last = req
	return f.reply, f.err
}

type fakeVision struct {
	text  string
	fail  bool
	calls int32
}

func (f *fakeVision) OCRImageBytes(context.Context, []byte, []string) (*gcp.VisionOCRResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail {
		return nil, errors.New("quota")
	}
	return &gcp.VisionOCRResult{Provider: "fake", Text: f.text}, nil
}
func (f *fakeVision) Close() error { return nil }

type recordingInvalidator struct{ ids []uuid.UUID }

func (r *recordingInvalidator) Invalidate(_ context.Context, ids ...uuid.UUID) {
	r.ids = append(r.ids, ids...)
}

type fixture struct {
	db     *gorm.DB
	ctx    context.Context
	lesson *types.Lesson
	book   *types.Book
	svc    Service
	inv    *recordingInvalidator
	vocab  repos.VocabularyRepo
	bucket gcp.BucketService
}

func newFixture(t *testing.T, provider Provider, vision gcp.Vision) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, db, "admin@example.com")
	book, _, lesson := testutil.SeedLessonTree(t, ctx, db)
	testutil.SeedVocabulary(t, ctx, db, lesson.ID, 0, "Haus", "house")

	bucket, err := gcp.NewLocalBucketService(log, t.TempDir(), "")
	require.NoError(t, err)
	vocab := repos.NewVocabularyRepo(db, log)
	inv := &recordingInvalidator{}
	svc, err := NewService(db, log,
		Config{Limits: Limits{MaxImages: 3, MaxBytes: 1 << 20, MaxEdgePx: 64}, Concurrency: 2},
		provider, vision, bucket,
		repos.NewLessonRepo(db, log), vocab, repos.NewConversationRepo(db, log),
		repos.NewExtractionRunRepo(db, log), inv,
	)
	require.NoError(t, err)
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: user.ID, Role: types.RoleAdmin})
	return &fixture{db: db, ctx: ctx, lesson: lesson, book: book, svc: svc, inv: inv, vocab: vocab, bucket: bucket}
}

func (f *fixture) request(t *testing.T, commit bool) Request {
	return Request{
		LessonID: f.lesson.ID,
		Kind:     types.ExtractionKindVocabulary,
		Images:   []ImageInput{{Name: "p1.png", Data: pngBytes(t, 120, 80)}},
		Hint:     "only the blue box",
		Commit:   commit,
	}
}

const vocabReply = "```json\n" + `{"items":[
	{"term":"Haus","meaning":"house"},
	{"term":"Katze","meaning":"cat"},
	{"term":"katze","meaning":"cat"},
	{"term":"","meaning":"nothing"}
]}` + "\n```"

func TestExtractPreviewThenCommit(t *testing.T) {
	provider := &fakeProvider{reply: vocabReply}
	vision := &fakeVision{text: "Haus Katze"}
	f := newFixture(t, provider, vision)

	res, err := f.svc.Extract(f.ctx, f.request(t, false))
	require.NoError(t, err)
	assert.Equal(t, types.ExtractionStats{Received: 4, Invalid: 1, DuplicatesExisting: 1, DuplicatesBatch: 1, Accepted: 1}, res.Stats)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Katze", res.Items[0].Term)
	assert.Equal(t, types.ExtractionSucceeded, res.Run.Status)
	assert.False(t, res.Run.Committed)
	require.Len(t, res.Run.ImageKeys, 1)
	assert.Equal(t, res.Run.ID.String()+"/1.png", res.Run.ImageKeys[0])

	assert.Contains(t, provider.last.Prompt.User, "- Haus")
	assert.Contains(t, provider.last.Prompt.User, "only the blue box")
	assert.Contains(t, provider.last.Prompt.User, "Haus Katze")
	require.Len(t, provider.last.Images, 1)
	assert.Equal(t, "image/jpeg", provider.last.Images[0].MimeType)
	assert.EqualValues(t, 1, vision.calls)

	items, err := f.vocab.ListByLesson(f.ctx, nil, f.lesson.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1, "preview must not write")

	committed, err := f.svc.CommitRun(f.ctx, res.Run.ID)
	require.NoError(t, err)
	assert.True(t, committed.Run.Committed)
	require.NotNil(t, committed.Run.CommittedAt)
	assert.Equal(t, []uuid.UUID{f.book.ID}, f.inv.ids)

	items, err = f.vocab.ListByLesson(f.ctx, nil, f.lesson.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Katze", items[1].Term)
	assert.Equal(t, 1, items[1].Position)

	_, err = f.svc.CommitRun(f.ctx, res.Run.ID)
	status, code := apierr.Resolve(err, "internal")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_committed", code)

	runs, err := f.svc.ListRuns(f.ctx, f.lesson.ID, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Empty(t, runs[0].RawResponse)
}

func TestCommitRunSkipsRowsAddedSincePreview(t *testing.T) {
	f := newFixture(t, &fakeProvider{reply: vocabReply}, nil)
	res, err := f.svc.Extract(f.ctx, f.request(t, false))
	require.NoError(t, err)

	testutil.SeedVocabulary(t, f.ctx, f.db, f.lesson.ID, 1, "KATZE", "cat")

	committed, err := f.svc.CommitRun(f.ctx, res.Run.ID)
	require.NoError(t, err)
	assert.Empty(t, committed.Items)
	assert.Equal(t, 0, committed.Stats.Accepted)
	assert.Equal(t, 2, committed.Stats.DuplicatesExisting)
}

func TestExtractCommitInline(t *testing.T) {
	f := newFixture(t, &fakeProvider{reply: vocabReply}, &fakeVision{fail: true})
	res, err := f.svc.Extract(f.ctx, f.request(t, true))
	require.NoError(t, err)
	assert.True(t, res.Run.Committed)
	assert.Equal(t, 1, res.Stats.Accepted)

	items, err := f.vocab.ListByLesson(f.ctx, nil, f.lesson.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestExtractErrors(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		_, err := f.svc.Extract(f.ctx, f.request(t, false))
		status, code := apierr.Resolve(err, "internal")
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "extraction_unavailable", code)
	})
	t.Run("provider failure", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{err: errors.New("boom")}, nil)
		_, err := f.svc.Extract(f.ctx, f.request(t, false))
		status, code := apierr.Resolve(err, "internal")
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, "provider_failed", code)

		runs, err := f.svc.ListRuns(f.ctx, f.lesson.ID, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, types.ExtractionFailed, runs[0].Status)
		assert.Contains(t, runs[0].Error, "boom")
	})
	t.Run("bad output", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{reply: "I cannot read this page."}, nil)
		_, err := f.svc.Extract(f.ctx, f.request(t, false))
		status, code := apierr.Resolve(err, "internal")
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, "bad_model_output", code)
	})
	t.Run("bad kind", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{reply: vocabReply}, nil)
		req := f.request(t, false)
		req.Kind = "grammar"
		_, err := f.svc.Extract(f.ctx, req)
		status, _ := apierr.Resolve(err, "internal")
		assert.Equal(t, http.StatusBadRequest, status)
	})
	t.Run("unknown lesson", func(t *testing.T) {
		f := newFixture(t, &fakeProvider{reply: vocabReply}, nil)
		req := f.request(t, false)
		req.LessonID = uuid.New()
		_, err := f.svc.Extract(f.ctx, req)
		assert.True(t, errors.Is(err, apierr.ErrNotFound))
	})
	t.Run("not an image", func(t *testing.T) {
		provider := &fakeProvider{reply: vocabReply}
		f := newFixture(t, provider, nil)
		req := f.request(t, false)
		req.Images = []ImageInput{{Name: "notes.txt", Data: []byte("plain text")}}
		_, err := f.svc.Extract(f.ctx, req)
		status, _ := apierr.Resolve(err, "internal")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.EqualValues(t, 0, provider.calls)
	})
}

func TestOCRHintIgnoresFailuresAndLeaksNothing(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	images := []PreparedImage{{JPEG: []byte{1}}, {JPEG: []byte{2}}, {JPEG: []byte{3}}}
	got := ocrHint(context.Background(), testutil.Logger(t), &fakeVision{text: "Seite"}, images, nil, 2)
	assert.Equal(t, "[page 1]\nSeite\n\n[page 2]\nSeite\n\n[page 3]\nSeite", got)

	assert.Empty(t, ocrHint(context.Background(), testutil.Logger(t), &fakeVision{fail: true}, images, nil, 2))
	assert.Empty(t, ocrHint(context.Background(), testutil.Logger(t), nil, images, nil, 2))
}
