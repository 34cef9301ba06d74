package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/lingua-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lingua-backend/internal/http/middleware"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Catalog    *httpH.CatalogHandler
	Content    *httpH.ContentHandler
	Study      *httpH.StudyHandler
	Extraction *httpH.ExtractionHandler
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, s.Auth)}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Auth:       httpH.NewAuthHandler(s.Auth),
		User:       httpH.NewUserHandler(s.User),
		Catalog:    httpH.NewCatalogHandler(s.Catalog, s.Tree),
		Content:    httpH.NewContentHandler(s.Content),
		Study:      httpH.NewStudyHandler(s.Study, s.Playback),
		Extraction: httpH.NewExtractionHandler(s.Extraction, cfg.Extraction.MaxImages, cfg.Extraction.MaxImageBytes),
	}
}
