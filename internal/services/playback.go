package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

const (
	SegmentLine        = "line"
	SegmentTranslation = "translation"
	SegmentTerm        = "term"
	SegmentMeaning     = "meaning"

	maxPlaybackRepeat = 5
)

type PlaybackConfig struct {
	Voices           []string
	TranslationVoice string
	MinPauseMs       int
	MaxPauseMs       int
	PausePerRuneMs   int
}

type PlaybackSegment struct {
	Index        int       `json:"index"`
	LineID       uuid.UUID `json:"line_id"`
	Kind         string    `json:"kind"`
	Speaker      string    `json:"speaker,omitempty"`
	Voice        string    `json:"voice,omitempty"`
	Lang         string    `json:"lang"`
	Text         string    `json:"text"`
	PauseAfterMs int       `json:"pause_after_ms"`
}

type PlaybackPlan struct {
	LessonID uuid.UUID         `json:"lesson_id"`
	Voices   map[string]string `json:"voices"`
	Segments []PlaybackSegment `json:"segments"`
}

type PlaybackOptions struct {
	IncludeTranslation bool
	Repeat             int
}

// PlaybackService turns lesson content into an ordered list of utterances
// for browser speech synthesis.
type PlaybackService interface {
	Plan(ctx context.Context, lessonID uuid.UUID, opts PlaybackOptions) (*PlaybackPlan, error)
}

type playbackService struct {
	log              *logger.Logger
	cfg              PlaybackConfig
	lessonRepo       repos.LessonRepo
	vocabularyRepo   repos.VocabularyRepo
	conversationRepo repos.ConversationRepo
}

func NewPlaybackService(
	log *logger.Logger,
	cfg PlaybackConfig,
	lessonRepo repos.LessonRepo,
	vocabularyRepo repos.VocabularyRepo,
	conversationRepo repos.ConversationRepo,
) PlaybackService {
	if cfg.MinPauseMs <= 0 {
		cfg.MinPauseMs = 400
	}
	if cfg.MaxPauseMs < cfg.MinPauseMs {
		cfg.MaxPauseMs = max(2500, cfg.MinPauseMs)
	}
	if cfg.PausePerRuneMs <= 0 {
		cfg.PausePerRuneMs = 60
	}
	return &playbackService{
		log:              log.With("service", "PlaybackService"),
		cfg:              cfg,
		lessonRepo:       lessonRepo,
		vocabularyRepo:   vocabularyRepo,
		conversationRepo: conversationRepo,
	}
}

// pauseFor scales with text length, clamped to [MinPauseMs, MaxPauseMs].
func (ps *playbackService) pauseFor(text string) int {
	ms := ps.cfg.MinPauseMs + utf8.RuneCountInString(text)*ps.cfg.PausePerRuneMs
	if ms > ps.cfg.MaxPauseMs {
		ms = ps.cfg.MaxPauseMs
	}
	return ms
}

// voiceAssigner hands out configured voices round-robin, one per distinct
// speaker, in order of first appearance.
type voiceAssigner struct {
	voices   []string
	assigned map[string]string
}

func (va *voiceAssigner) voiceFor(speaker string) string {
	key := types.VocabularyNormKey(speaker)
	if v, ok := va.assigned[key]; ok {
		return v
	}
	v := ""
	if len(va.voices) > 0 {
		v = va.voices[len(va.assigned)%len(va.voices)]
	}
	va.assigned[key] = v
	return v
}

func (ps *playbackService) Plan(ctx context.Context, lessonID uuid.UUID, opts PlaybackOptions) (*PlaybackPlan, error) {
	repeat := opts.Repeat
	if repeat == 0 {
		repeat = 1
	}
	if repeat < 1 || repeat > maxPlaybackRepeat {
		return nil, apierr.Invalid("repeat must be between 1 and %d", maxPlaybackRepeat)
	}
	lesson, book, err := visibleLesson(ctx, nil, ps.lessonRepo, lessonID)
	if err != nil {
		return nil, err
	}

	var lines []*types.ConversationLine
	var vocab []*types.VocabularyItem
	if lesson.Kind != types.LessonKindVocabulary {
		if lines, err = ps.conversationRepo.ListByLesson(ctx, nil, lessonID); err != nil {
			return nil, fmt.Errorf("list conversation: %w", err)
		}
	}
	if lesson.Kind != types.LessonKindConversation {
		if vocab, err = ps.vocabularyRepo.ListByLesson(ctx, nil, lessonID); err != nil {
			return nil, fmt.Errorf("list vocabulary: %w", err)
		}
	}

	va := &voiceAssigner{voices: ps.cfg.Voices, assigned: map[string]string{}}
	plan := &PlaybackPlan{LessonID: lessonID, Segments: []PlaybackSegment{}}
	add := func(seg PlaybackSegment) {
		seg.Index = len(plan.Segments)
		seg.PauseAfterMs = ps.pauseFor(seg.Text)
		plan.Segments = append(plan.Segments, seg)
	}

	for _, l := range lines {
		voice := va.voiceFor(l.Speaker)
		for i := 0; i < repeat; i++ {
			add(PlaybackSegment{LineID: l.ID, Kind: SegmentLine, Speaker: l.Speaker, Voice: voice, Lang: book.Language, Text: l.Text})
		}
		if opts.IncludeTranslation && strings.TrimSpace(l.Translation) != "" {
			add(PlaybackSegment{LineID: l.ID, Kind: SegmentTranslation, Speaker: l.Speaker, Voice: ps.cfg.TranslationVoice, Lang: book.TargetLanguage, Text: l.Translation})
		}
	}
	for _, v := range vocab {
		voice := va.voiceFor("")
		for i := 0; i < repeat; i++ {
			add(PlaybackSegment{LineID: v.ID, Kind: SegmentTerm, Voice: voice, Lang: book.Language, Text: v.Term})
		}
		if strings.TrimSpace(v.Meaning) != "" {
			add(PlaybackSegment{LineID: v.ID, Kind: SegmentMeaning, Voice: ps.cfg.TranslationVoice, Lang: book.TargetLanguage, Text: v.Meaning})
		}
	}

	plan.Voices = map[string]string{}
	for _, l := range lines {
		if l.Speaker != "" {
			plan.Voices[l.Speaker] = va.voiceFor(l.Speaker)
		}
	}
	return plan, nil
}
