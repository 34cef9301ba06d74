package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

const (
	FlashcardModeTerm    = "term"
	FlashcardModeMeaning = "meaning"

	maxDistractors = 3
)

var errNotEnoughItems = apierr.New(http.StatusUnprocessableEntity, "not_enough_items", errors.New("lesson needs at least 2 vocabulary items with meanings"))

type Flashcard struct {
	VocabularyItemID uuid.UUID `json:"vocabulary_item_id"`
	Front            string    `json:"front"`
	Back             string    `json:"back"`
	Reading          string    `json:"reading,omitempty"`
	Example          string    `json:"example,omitempty"`
	Box              int       `json:"box"`
}

type FlashcardOptions struct {
	Mode    string
	Shuffle bool
	Seed    *int64
}

type FlashcardDeck struct {
	LessonID uuid.UUID   `json:"lesson_id"`
	Mode     string      `json:"mode"`
	Seed     *int64      `json:"seed,omitempty"`
	Cards    []Flashcard `json:"cards"`
}

type Review struct {
	VocabularyItemID uuid.UUID `json:"vocabulary_item_id"`
	Known            bool      `json:"known"`
}

type TestQuestion struct {
	VocabularyItemID uuid.UUID `json:"vocabulary_item_id"`
	Prompt           string    `json:"prompt"`
	Reading          string    `json:"reading,omitempty"`
	Choices          []string  `json:"choices"`
}

type Test struct {
	LessonID  uuid.UUID      `json:"lesson_id"`
	Seed      int64          `json:"seed"`
	Questions []TestQuestion `json:"questions"`
}

type TestOptions struct {
	Size int
	Seed *int64
}

type SubmittedAnswer struct {
	VocabularyItemID uuid.UUID `json:"vocabulary_item_id"`
	Chosen           string    `json:"chosen"`
}

type LessonProgress struct {
	LessonID       uuid.UUID  `json:"lesson_id"`
	Items          int        `json:"items"`
	Seen           int        `json:"seen"`
	Mastered       int        `json:"mastered"`
	AverageBox     float64    `json:"average_box"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	Tests          int        `json:"tests"`
	BestScore      float64    `json:"best_score"`
}

type StudyService interface {
	Flashcards(ctx context.Context, lessonID uuid.UUID, opts FlashcardOptions) (*FlashcardDeck, error)
	RecordReview(ctx context.Context, review Review) (*types.StudyProgress, error)
	BuildTest(ctx context.Context, lessonID uuid.UUID, opts TestOptions) (*Test, error)
	SubmitTest(ctx context.Context, lessonID uuid.UUID, answers []SubmittedAnswer) (*types.TestAttempt, error)
	Progress(ctx context.Context) ([]LessonProgress, error)
}

type studyService struct {
	db              *gorm.DB
	log             *logger.Logger
	lessonRepo      repos.LessonRepo
	vocabularyRepo  repos.VocabularyRepo
	progressRepo    repos.StudyProgressRepo
	testAttemptRepo repos.TestAttemptRepo
	now             func() time.Time
}

func NewStudyService(
	db *gorm.DB,
	log *logger.Logger,
	lessonRepo repos.LessonRepo,
	vocabularyRepo repos.VocabularyRepo,
	progressRepo repos.StudyProgressRepo,
	testAttemptRepo repos.TestAttemptRepo,
) StudyService {
	return &studyService{
		db:              db,
		log:             log.With("service", "StudyService"),
		lessonRepo:      lessonRepo,
		vocabularyRepo:  vocabularyRepo,
		progressRepo:    progressRepo,
		testAttemptRepo: testAttemptRepo,
		now:             time.Now,
	}
}

func (s *studyService) seed(given *int64) int64 {
	if given != nil {
		return *given
	}
	return s.now().UnixNano()
}

func (s *studyService) Flashcards(ctx context.Context, lessonID uuid.UUID, opts FlashcardOptions) (*FlashcardDeck, error) {
	mode := opts.Mode
	if mode == "" {
		mode = FlashcardModeTerm
	}
	if mode != FlashcardModeTerm && mode != FlashcardModeMeaning {
		return nil, apierr.Invalid("unknown flashcard mode %q", mode)
	}
	if _, _, err := visibleLesson(ctx, nil, s.lessonRepo, lessonID); err != nil {
		return nil, err
	}
	items, err := s.vocabularyRepo.ListByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}

	boxes := map[uuid.UUID]int{}
	if userID, err := requireUser(ctx); err == nil {
		ids := make([]uuid.UUID, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		rows, err := s.progressRepo.GetByUserItems(ctx, nil, userID, ids)
		if err != nil {
			return nil, fmt.Errorf("load progress: %w", err)
		}
		for _, p := range rows {
			boxes[p.VocabularyItemID] = p.Box
		}
	}

	deck := &FlashcardDeck{LessonID: lessonID, Mode: mode, Cards: make([]Flashcard, 0, len(items))}
	for _, it := range items {
		card := Flashcard{
			VocabularyItemID: it.ID,
			Front:            it.Term,
			Back:             it.Meaning,
			Reading:          it.Reading,
			Example:          it.Example,
			Box:              1,
		}
		if mode == FlashcardModeMeaning {
			card.Front, card.Back = it.Meaning, it.Term
		}
		if b, ok := boxes[it.ID]; ok {
			card.Box = b
		}
		deck.Cards = append(deck.Cards, card)
	}
	if opts.Shuffle {
		seed := s.seed(opts.Seed)
		deck.Seed = &seed
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(deck.Cards), func(i, j int) { deck.Cards[i], deck.Cards[j] = deck.Cards[j], deck.Cards[i] })
	}
	return deck, nil
}

func (s *studyService) RecordReview(ctx context.Context, review Review) (*types.StudyProgress, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if review.VocabularyItemID == uuid.Nil {
		return nil, apierr.Invalid("vocabulary_item_id required")
	}
	var row *types.StudyProgress
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.vocabularyRepo.GetByID(ctx, tx, review.VocabularyItemID)
		if err != nil {
			return err
		}
		if _, _, err := visibleLesson(ctx, tx, s.lessonRepo, item.LessonID); err != nil {
			return err
		}
		rows, err := s.recordTx(ctx, tx, userID, []*types.VocabularyItem{item}, map[uuid.UUID]bool{item.ID: review.Known})
		if err != nil {
			return err
		}
		row = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// recordTx applies one outcome per item to the user's progress rows,
// creating missing rows.
func (s *studyService) recordTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, items []*types.VocabularyItem, known map[uuid.UUID]bool) ([]*types.StudyProgress, error) {
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	existing, err := s.progressRepo.GetByUserItems(ctx, tx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	byItem := make(map[uuid.UUID]*types.StudyProgress, len(existing))
	for _, p := range existing {
		byItem[p.VocabularyItemID] = p
	}
	now := s.now()
	out := make([]*types.StudyProgress, 0, len(items))
	for _, it := range items {
		p := byItem[it.ID]
		if p == nil {
			p = &types.StudyProgress{UserID: userID, VocabularyItemID: it.ID, LessonID: it.LessonID, Box: 1}
		}
		p.Record(known[it.ID], now)
		out = append(out, p)
	}
	if err := s.progressRepo.Save(ctx, tx, out); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return out, nil
}

func (s *studyService) BuildTest(ctx context.Context, lessonID uuid.UUID, opts TestOptions) (*Test, error) {
	_, book, err := visibleLesson(ctx, nil, s.lessonRepo, lessonID)
	if err != nil {
		return nil, err
	}
	items, err := s.vocabularyRepo.ListByLesson(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}
	pool := make([]*types.VocabularyItem, 0, len(items))
	for _, it := range items {
		if it.Meaning != "" {
			pool = append(pool, it)
		}
	}
	if len(pool) < 2 {
		return nil, errNotEnoughItems
	}
	bookItems, err := s.vocabularyRepo.ListByBook(ctx, nil, book.ID)
	if err != nil {
		return nil, fmt.Errorf("list book vocabulary: %w", err)
	}
	meanings := distinctMeanings(bookItems)

	seed := s.seed(opts.Seed)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	size := opts.Size
	if size <= 0 || size > len(pool) {
		size = len(pool)
	}

	test := &Test{LessonID: lessonID, Seed: seed, Questions: make([]TestQuestion, 0, size)}
	for _, it := range pool[:size] {
		test.Questions = append(test.Questions, TestQuestion{
			VocabularyItemID: it.ID,
			Prompt:           it.Term,
			Reading:          it.Reading,
			Choices:          buildChoices(rng, it.Meaning, meanings),
		})
	}
	return test, nil
}

type meaningChoice struct {
	key  string
	text string
}

// distinctMeanings keeps the first spelling of each meaning key, in input
// order.
func distinctMeanings(items []*types.VocabularyItem) []meaningChoice {
	seen := map[string]bool{}
	out := make([]meaningChoice, 0, len(items))
	for _, it := range items {
		if it.Meaning == "" {
			continue
		}
		key := types.VocabularyNormKey(it.Meaning)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, meaningChoice{key: key, text: it.Meaning})
	}
	return out
}

func buildChoices(rng *rand.Rand, correct string, meanings []meaningChoice) []string {
	correctKey := types.VocabularyNormKey(correct)
	candidates := make([]string, 0, len(meanings))
	for _, m := range meanings {
		if m.key != correctKey {
			candidates = append(candidates, m.text)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if len(candidates) > maxDistractors {
		candidates = candidates[:maxDistractors]
	}
	choices := append([]string{correct}, candidates...)
	rng.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	return choices
}

func (s *studyService) SubmitTest(ctx context.Context, lessonID uuid.UUID, answers []SubmittedAnswer) (*types.TestAttempt, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, apierr.Invalid("answers required")
	}
	ids := make([]uuid.UUID, 0, len(answers))
	dup := map[uuid.UUID]bool{}
	for _, a := range answers {
		if a.VocabularyItemID == uuid.Nil {
			return nil, apierr.Invalid("vocabulary_item_id required")
		}
		if dup[a.VocabularyItemID] {
			return nil, apierr.Invalid("duplicate answer for %s", a.VocabularyItemID)
		}
		dup[a.VocabularyItemID] = true
		ids = append(ids, a.VocabularyItemID)
	}

	attempt := &types.TestAttempt{UserID: userID, LessonID: lessonID, Total: len(answers)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, _, err := visibleLesson(ctx, tx, s.lessonRepo, lessonID); err != nil {
			return err
		}
		items, err := s.vocabularyRepo.GetByIDs(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		byID := make(map[uuid.UUID]*types.VocabularyItem, len(items))
		for _, it := range items {
			if it.LessonID == lessonID {
				byID[it.ID] = it
			}
		}
		graded := make([]*types.VocabularyItem, 0, len(answers))
		known := make(map[uuid.UUID]bool, len(answers))
		for _, a := range answers {
			it, ok := byID[a.VocabularyItemID]
			if !ok {
				return apierr.Invalid("item %s is not part of this lesson", a.VocabularyItemID)
			}
			correct := types.VocabularyNormKey(a.Chosen) == types.VocabularyNormKey(it.Meaning)
			if correct {
				attempt.Correct++
			}
			attempt.Answers = append(attempt.Answers, types.TestAnswer{
				VocabularyItemID: it.ID,
				Chosen:           a.Chosen,
				Correct:          it.Meaning,
				IsCorrect:        correct,
			})
			graded = append(graded, it)
			known[it.ID] = correct
		}
		if err := s.testAttemptRepo.Create(ctx, tx, attempt); err != nil {
			return fmt.Errorf("store attempt: %w", err)
		}
		_, err = s.recordTx(ctx, tx, userID, graded, known)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("test submitted", "user_id", userID, "lesson_id", lessonID, "correct", attempt.Correct, "total", attempt.Total)
	return attempt, nil
}

func (s *studyService) Progress(ctx context.Context) ([]LessonProgress, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.progressRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	attempts, err := s.testAttemptRepo.ListByUser(ctx, nil, userID, nil, 500)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	byLesson := map[uuid.UUID]*LessonProgress{}
	boxSum := map[uuid.UUID]int{}
	get := func(id uuid.UUID) *LessonProgress {
		lp := byLesson[id]
		if lp == nil {
			lp = &LessonProgress{LessonID: id}
			byLesson[id] = lp
		}
		return lp
	}
	for _, p := range rows {
		lp := get(p.LessonID)
		if p.Seen > 0 {
			lp.Seen++
		}
		if p.Box >= types.MaxStudyBox {
			lp.Mastered++
		}
		boxSum[p.LessonID] += p.Box
		if p.LastReviewedAt != nil && (lp.LastReviewedAt == nil || p.LastReviewedAt.After(*lp.LastReviewedAt)) {
			t := *p.LastReviewedAt
			lp.LastReviewedAt = &t
		}
	}
	for _, a := range attempts {
		lp := get(a.LessonID)
		lp.Tests++
		if a.Total > 0 {
			if score := float64(a.Correct) / float64(a.Total); score > lp.BestScore {
				lp.BestScore = score
			}
		}
	}

	lessonIDs := make([]uuid.UUID, 0, len(byLesson))
	for id := range byLesson {
		lessonIDs = append(lessonIDs, id)
	}
	counts, err := s.vocabularyRepo.CountByLessonIDs(ctx, nil, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("count vocabulary: %w", err)
	}

	out := make([]LessonProgress, 0, len(byLesson))
	for id, lp := range byLesson {
		lp.Items = counts[id]
		if lp.Seen > 0 {
			lp.AverageBox = float64(boxSum[id]) / float64(lp.Seen)
		}
		out = append(out, *lp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastReviewedAt, out[j].LastReviewedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case (a == nil) != (b == nil):
			return a != nil
		}
		return out[i].LessonID.String() < out[j].LessonID.String()
	})
	return out, nil
}
