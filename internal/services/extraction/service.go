package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/observability"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/ctxutil"
	"github.com/yungbote/lingua-backend/internal/platform/dbctx"
	"github.com/yungbote/lingua-backend/internal/platform/gcp"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

var ErrUnavailable = apierr.New(http.StatusServiceUnavailable, "extraction_unavailable", errors.New("no extraction provider configured"))

const (
	codeProviderFailed = "provider_failed"
	codeBadModelOutput = "bad_model_output"
)

type Config struct {
	Limits      Limits
	Concurrency int
	// Passed to OCR as language hints when set.
	OCRLanguageHints bool
}

type Request struct {
	LessonID uuid.UUID
	Kind     string
	Images   []ImageInput
	Hint     string
	Commit   bool
}

type Result struct {
	Run   *types.ExtractionRun  `json:"run"`
	Items []Candidate           `json:"items"`
	Stats types.ExtractionStats `json:"stats"`
}

// Invalidator drops cached views of a book after content changes.
type Invalidator interface {
	Invalidate(ctx context.Context, bookIDs ...uuid.UUID)
}

type Service interface {
	Extract(ctx context.Context, req Request) (*Result, error)
	CommitRun(ctx context.Context, runID uuid.UUID) (*Result, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*Result, error)
	ListRuns(ctx context.Context, lessonID uuid.UUID, limit int) ([]*types.ExtractionRun, error)
}

type service struct {
	db               *gorm.DB
	log              *logger.Logger
	cfg              Config
	provider         Provider
	vision           gcp.Vision
	bucket           gcp.BucketService
	prompts          promptSet
	lessonRepo       repos.LessonRepo
	vocabularyRepo   repos.VocabularyRepo
	conversationRepo repos.ConversationRepo
	runRepo          repos.ExtractionRunRepo
	invalidator      Invalidator
	now              func() time.Time
}

// NewService wires the extraction helper. provider may be nil, in which
// case Extract answers 503; vision and bucket are optional.
func NewService(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	provider Provider,
	vision gcp.Vision,
	bucket gcp.BucketService,
	lessonRepo repos.LessonRepo,
	vocabularyRepo repos.VocabularyRepo,
	conversationRepo repos.ConversationRepo,
	runRepo repos.ExtractionRunRepo,
	invalidator Invalidator,
) (Service, error) {
	prompts, err := loadPrompts()
	if err != nil {
		return nil, err
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &service{
		db:               db,
		log:              log.With("service", "ExtractionService"),
		cfg:              cfg,
		provider:         provider,
		vision:           vision,
		bucket:           bucket,
		prompts:          prompts,
		lessonRepo:       lessonRepo,
		vocabularyRepo:   vocabularyRepo,
		conversationRepo: conversationRepo,
		runRepo:          runRepo,
		invalidator:      invalidator,
		now:              time.Now,
	}, nil
}

func validKind(kind string) bool {
	return kind == types.ExtractionKindVocabulary || kind == types.ExtractionKindConversation
}

func (s *service) Extract(ctx context.Context, req Request) (*Result, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.ErrUnauthorized
	}
	if !validKind(req.Kind) {
		return nil, apierr.Invalid("kind must be %q or %q", types.ExtractionKindVocabulary, types.ExtractionKindConversation)
	}
	if s.provider == nil {
		return nil, ErrUnavailable
	}
	lesson, err := s.lessonRepo.GetByID(ctx, nil, req.LessonID)
	if err != nil {
		return nil, err
	}
	book, err := s.lessonRepo.BookOf(ctx, nil, req.LessonID)
	if err != nil {
		return nil, err
	}
	if err := ValidateImages(req.Images, s.cfg.Limits); err != nil {
		return nil, err
	}

	run := &types.ExtractionRun{
		LessonID:  req.LessonID,
		UserID:    rd.UserID,
		Kind:      req.Kind,
		Provider:  s.provider.Name(),
		ModelName: s.provider.Model(),
		Status:    types.ExtractionPending,
	}
	if err := s.runRepo.Create(ctx, nil, run); err != nil {
		return nil, fmt.Errorf("create extraction run: %w", err)
	}
	log := s.log.With("run_id", run.ID, "lesson_id", req.LessonID, "kind", req.Kind)

	prepared, err := s.prepare(ctx, req.Images)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, apierr.Invalid("%v", err)
	}
	run.ImageKeys = s.storeOriginals(ctx, log, run.ID, prepared)

	existingKeys, existingText, err := s.existing(ctx, nil, req.Kind, req.LessonID)
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	var langHints []string
	if s.cfg.OCRLanguageHints && book.Language != "" {
		langHints = []string{book.Language}
	}
	prompt, err := s.prompts.render(req.Kind, PromptData{
		BookTitle:      book.Title,
		Language:       book.Language,
		TargetLanguage: book.TargetLanguage,
		LessonTitle:    lesson.Title,
		Existing:       existingText,
		Hint:           strings.TrimSpace(req.Hint),
		OCRText:        ocrHint(ctx, log, s.vision, prepared, langHints, s.cfg.Concurrency),
	})
	if err != nil {
		s.fail(ctx, run, err)
		return nil, err
	}

	images := make([]Image, len(prepared))
	for i, p := range prepared {
		images[i] = Image{Bytes: p.JPEG, MimeType: "image/jpeg"}
	}
	reply, err := s.provider.Generate(ctx, ProviderRequest{Kind: req.Kind, Prompt: prompt, Images: images})
	if err != nil {
		log.Warn("extraction provider failed", "provider", run.Provider, "error", err)
		s.fail(ctx, run, err)
		return nil, apierr.New(http.StatusBadGateway, codeProviderFailed, fmt.Errorf("%s: %w", run.Provider, err))
	}
	run.RawResponse = reply

	raw, nonObjects, err := Parse(req.Kind, reply)
	if err != nil {
		log.Warn("unparseable model reply", "error", err, "reply_len", len(reply))
		s.fail(ctx, run, err)
		return nil, apierr.New(http.StatusBadGateway, codeBadModelOutput, err)
	}
	normalized, invalid := Normalize(req.Kind, raw)
	accepted, dupExisting, dupBatch := Dedupe(req.Kind, normalized, existingKeys)
	stats := types.ExtractionStats{
		Received:           len(raw) + nonObjects,
		Invalid:            invalid + nonObjects,
		DuplicatesExisting: dupExisting,
		DuplicatesBatch:    dupBatch,
		Accepted:           len(accepted),
	}

	if req.Commit {
		inserted, lateDups, err := s.commit(ctx, req.Kind, req.LessonID, book.ID, accepted, run)
		if err != nil {
			s.fail(ctx, run, err)
			return nil, err
		}
		accepted = inserted
		stats.DuplicatesExisting += lateDups
		stats.Accepted = len(inserted)
	}

	if err := s.succeed(ctx, run, stats, accepted); err != nil {
		return nil, err
	}
	log.Info("extraction finished",
		"received", stats.Received,
		"accepted", stats.Accepted,
		"committed", run.Committed,
	)
	return &Result{Run: run, Items: accepted, Stats: stats}, nil
}

// prepare decodes and downscales all images concurrently, keeping order.
func (s *service) prepare(ctx context.Context, images []ImageInput) ([]PreparedImage, error) {
	out := make([]PreparedImage, len(images))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			p, err := PrepareImage(img.Data, s.cfg.Limits.MaxEdgePx)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// storeOriginals uploads each page as extraction/<run id>/<n>.<ext>.
// Upload failures are logged; the run continues without that key.
func (s *service) storeOriginals(ctx context.Context, log *logger.Logger, runID uuid.UUID, prepared []PreparedImage) datatypes.JSONSlice[string] {
	keys := datatypes.JSONSlice[string]{}
	if s.bucket == nil {
		return keys
	}
	for i, p := range prepared {
		key := fmt.Sprintf("%s/%d.%s", runID, i+1, p.Ext)
		if err := s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryExtraction, key, bytes.NewReader(p.Original)); err != nil {
			log.Warn("failed to store extraction image (ignored)", "key", key, "error", err)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// existing returns the lesson's current keys and a display list for the
// prompt.
func (s *service) existing(ctx context.Context, tx *gorm.DB, kind string, lessonID uuid.UUID) (map[string]bool, []string, error) {
	var text []string
	if kind == types.ExtractionKindConversation {
		lines, err := s.conversationRepo.ListByLesson(ctx, tx, lessonID)
		if err != nil {
			return nil, nil, err
		}
		keys := make(map[string]bool, len(lines))
		for _, l := range lines {
			keys[l.NormKey] = true
			if l.Speaker != "" {
				text = append(text, l.Speaker+": "+l.Text)
			} else {
				text = append(text, l.Text)
			}
		}
		return keys, text, nil
	}
	items, err := s.vocabularyRepo.ListByLesson(ctx, tx, lessonID)
	if err != nil {
		return nil, nil, err
	}
	keys := make(map[string]bool, len(items))
	for _, it := range items {
		keys[it.NormKey] = true
		text = append(text, it.Term)
	}
	return keys, text, nil
}

// commit inserts candidates at the end of the lesson. Keys are re-read
// inside the transaction so rows added since the preview are skipped.
func (s *service) commit(ctx context.Context, kind string, lessonID, bookID uuid.UUID, cands []Candidate, run *types.ExtractionRun) ([]Candidate, int, error) {
	var inserted []Candidate
	var lateDups int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, lateDups, err = s.insertTx(ctx, tx, kind, lessonID, cands)
		if err != nil {
			return err
		}
		now := s.now()
		run.Committed = true
		run.CommittedAt = &now
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, bookID)
	}
	return inserted, lateDups, nil
}

func (s *service) insertTx(ctx context.Context, tx *gorm.DB, kind string, lessonID uuid.UUID, cands []Candidate) ([]Candidate, int, error) {
	keys, _, err := s.existing(ctx, tx, kind, lessonID)
	if err != nil {
		return nil, 0, err
	}
	fresh, dups, _ := Dedupe(kind, cands, keys)
	if len(fresh) == 0 {
		return fresh, dups, nil
	}
	if kind == types.ExtractionKindConversation {
		pos, err := s.conversationRepo.NextPosition(ctx, tx, lessonID)
		if err != nil {
			return nil, 0, err
		}
		rows := make([]*types.ConversationLine, len(fresh))
		for i, c := range fresh {
			rows[i] = c.conversation(lessonID)
			rows[i].Position = pos + i
		}
		if _, err := s.conversationRepo.Create(ctx, tx, rows); err != nil {
			return nil, 0, fmt.Errorf("insert conversation lines: %w", err)
		}
		return fresh, dups, nil
	}
	pos, err := s.vocabularyRepo.NextPosition(ctx, tx, lessonID)
	if err != nil {
		return nil, 0, err
	}
	rows := make([]*types.VocabularyItem, len(fresh))
	for i, c := range fresh {
		rows[i] = c.vocabulary(lessonID)
		rows[i].Position = pos + i
	}
	if _, err := s.vocabularyRepo.Create(ctx, tx, rows); err != nil {
		return nil, 0, fmt.Errorf("insert vocabulary: %w", err)
	}
	return fresh, dups, nil
}

func (s *service) succeed(ctx context.Context, run *types.ExtractionRun, stats types.ExtractionStats, accepted []Candidate) error {
	raw, err := json.Marshal(accepted)
	if err != nil {
		return fmt.Errorf("encode accepted items: %w", err)
	}
	run.Status = types.ExtractionSucceeded
	run.Stats = datatypes.NewJSONType(stats)
	run.Accepted = datatypes.JSON(raw)
	if err := s.runRepo.Save(ctx, nil, run); err != nil {
		return fmt.Errorf("save extraction run: %w", err)
	}
	if m := observability.Current(); m != nil {
		m.ObserveExtraction(run.Kind, run.Provider, run.Status, stats.Accepted, stats.DuplicatesExisting+stats.DuplicatesBatch, stats.Invalid)
	}
	return nil
}

// fail records the error on the run. The caller's error is returned to the
// client; a failure to save is only logged.
func (s *service) fail(ctx context.Context, run *types.ExtractionRun, cause error) {
	run.Status = types.ExtractionFailed
	run.Error = cause.Error()
	if err := s.runRepo.Save(context.WithoutCancel(ctx), nil, run); err != nil {
		s.log.Error("failed to mark extraction run failed", "run_id", run.ID, "error", err)
	}
	if m := observability.Current(); m != nil {
		m.ObserveExtraction(run.Kind, run.Provider, run.Status, 0, 0, 0)
	}
}

func decodeAccepted(run *types.ExtractionRun) ([]Candidate, error) {
	out := []Candidate{}
	if len(run.Accepted) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(run.Accepted, &out); err != nil {
		return nil, fmt.Errorf("decode accepted items: %w", err)
	}
	return out, nil
}

func (s *service) CommitRun(ctx context.Context, runID uuid.UUID) (*Result, error) {
	var run *types.ExtractionRun
	var inserted []Candidate
	var bookID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		run, err = s.runRepo.GetForUpdate(ctx, tx, runID)
		if err != nil {
			return err
		}
		if run.Status != types.ExtractionSucceeded {
			return apierr.New(http.StatusConflict, "run_not_committable", fmt.Errorf("run %s is %s", runID, run.Status))
		}
		if run.Committed {
			return apierr.New(http.StatusConflict, "already_committed", fmt.Errorf("run %s was already committed", runID))
		}
		book, err := s.lessonRepo.BookOf(ctx, tx, run.LessonID)
		if err != nil {
			return err
		}
		bookID = book.ID
		cands, err := decodeAccepted(run)
		if err != nil {
			return err
		}
		var dups int
		inserted, dups, err = s.insertTx(ctx, tx, run.Kind, run.LessonID, cands)
		if err != nil {
			return err
		}
		stats := run.Stats.Data()
		stats.DuplicatesExisting += dups
		stats.Accepted = len(inserted)
		raw, err := json.Marshal(inserted)
		if err != nil {
			return err
		}
		now := s.now()
		run.Stats = datatypes.NewJSONType(stats)
		run.Accepted = datatypes.JSON(raw)
		run.Committed = true
		run.CommittedAt = &now
		return s.runRepo.Save(ctx, tx, run)
	})
	if err != nil {
		return nil, err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, bookID)
	}
	s.log.Info("extraction run committed", "run_id", runID, "inserted", len(inserted))
	return &Result{Run: run, Items: inserted, Stats: run.Stats.Data()}, nil
}

func (s *service) GetRun(ctx context.Context, runID uuid.UUID) (*Result, error) {
	run, err := s.runRepo.GetByID(ctx, nil, runID)
	if err != nil {
		return nil, err
	}
	items, err := decodeAccepted(run)
	if err != nil {
		return nil, err
	}
	return &Result{Run: run, Items: items, Stats: run.Stats.Data()}, nil
}

func (s *service) ListRuns(ctx context.Context, lessonID uuid.UUID, limit int) ([]*types.ExtractionRun, error) {
	if _, err := s.lessonRepo.GetByID(ctx, nil, lessonID); err != nil {
		return nil, err
	}
	return s.runRepo.ListByLesson(ctx, nil, lessonID, limit)
}
