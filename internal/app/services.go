package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/platform/logger"
	"github.com/yungbote/lingua-backend/internal/services"
	"github.com/yungbote/lingua-backend/internal/services/extraction"
)

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Cover      services.CoverService
	Tree       services.TreeService
	Catalog    services.CatalogService
	Content    services.ContentService
	Study      services.StudyService
	Playback   services.PlaybackService
	Extraction extraction.Service
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	cover, err := services.NewCoverService(log, c.Bucket, cfg.CoverColors)
	if err != nil {
		return Services{}, fmt.Errorf("init cover service: %w", err)
	}
	tree := services.NewTreeService(db, log, c.Cache, cfg.TreeTTL(), r.Book, r.Unit, r.Lesson, r.Vocabulary, r.Conversation)

	ext, err := extraction.NewService(db, log,
		extraction.Config{
			Limits: extraction.Limits{
				MaxImages: cfg.Extraction.MaxImages,
				MaxBytes:  cfg.Extraction.MaxImageBytes,
				MaxEdgePx: cfg.Extraction.MaxEdgePx,
			},
			Concurrency:      cfg.Extraction.Concurrency,
			OCRLanguageHints: cfg.Extraction.OCRLanguageHints,
		},
		c.Provider, c.Vision, c.Bucket,
		r.Lesson, r.Vocabulary, r.Conversation, r.ExtractionRun, tree,
	)
	if err != nil {
		return Services{}, fmt.Errorf("init extraction service: %w", err)
	}

	return Services{
		Auth:     services.NewAuthService(db, log, r.User, r.UserToken, cfg.Auth.JWTSecretKey, cfg.AccessTTL(), cfg.RefreshTTL()),
		User:     services.NewUserService(db, log, r.User),
		Cover:    cover,
		Tree:     tree,
		Catalog:  services.NewCatalogService(db, log, r.Book, r.Unit, r.Lesson, r.Vocabulary, r.Conversation, cover, tree),
		Content:  services.NewContentService(db, log, r.Lesson, r.Vocabulary, r.Conversation, tree),
		Study:    services.NewStudyService(db, log, r.Lesson, r.Vocabulary, r.StudyProgress, r.TestAttempt),
		Playback: services.NewPlaybackService(log, services.PlaybackConfig{
			Voices:           cfg.Playback.Voices,
			TranslationVoice: cfg.Playback.TranslationVoice,
		}, r.Lesson, r.Vocabulary, r.Conversation),
		Extraction: ext,
	}, nil
}
