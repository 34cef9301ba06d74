package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lingua-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lingua-backend/internal/http/middleware"
	"github.com/yungbote/lingua-backend/internal/observability"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	Metrics        *observability.Metrics
	CORSOrigins    []string
	// MediaDir is served at /media when objects are stored on local disk.
	MediaDir string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler       *httpH.AuthHandler
	UserHandler       *httpH.UserHandler
	CatalogHandler    *httpH.CatalogHandler
	ContentHandler    *httpH.ContentHandler
	StudyHandler      *httpH.StudyHandler
	ExtractionHandler *httpH.ExtractionHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "lingua-api"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}
	if cfg.MediaDir != "" {
		r.Static("/media", cfg.MediaDir)
	}

	api := r.Group("/api")
	if cfg.AuthHandler != nil {
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me/name", cfg.UserHandler.ChangeName)
		}
		if cfg.CatalogHandler != nil {
			protected.GET("/books", cfg.CatalogHandler.ListBooks)
			protected.GET("/books/:id", cfg.CatalogHandler.GetBook)
			protected.GET("/books/:id/tree", cfg.CatalogHandler.GetBookTree)
			protected.GET("/books/:id/units", cfg.CatalogHandler.ListUnits)
			protected.GET("/units/:id", cfg.CatalogHandler.GetUnit)
			protected.GET("/units/:id/lessons", cfg.CatalogHandler.ListLessons)
			protected.GET("/lessons/:id", cfg.CatalogHandler.GetLesson)
		}
		if cfg.ContentHandler != nil {
			protected.GET("/lessons/:id/content", cfg.ContentHandler.GetLessonContent)
		}
		if cfg.StudyHandler != nil {
			protected.GET("/lessons/:id/flashcards", cfg.StudyHandler.Flashcards)
			protected.POST("/flashcards/reviews", cfg.StudyHandler.RecordReview)
			protected.GET("/lessons/:id/test", cfg.StudyHandler.BuildTest)
			protected.POST("/lessons/:id/test/submit", cfg.StudyHandler.SubmitTest)
			protected.GET("/lessons/:id/playback", cfg.StudyHandler.Playback)
			protected.GET("/me/progress", cfg.StudyHandler.Progress)
		}
	}

	admin := protected.Group("")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	{
		if cfg.CatalogHandler != nil {
			admin.POST("/books", cfg.CatalogHandler.CreateBook)
			admin.PATCH("/books/:id", cfg.CatalogHandler.UpdateBook)
			admin.DELETE("/books/:id", cfg.CatalogHandler.DeleteBook)
			admin.POST("/books/:id/cover", cfg.CatalogHandler.UploadCover)
			admin.POST("/books/:id/units", cfg.CatalogHandler.CreateUnit)
			admin.PUT("/books/:id/units/order", cfg.CatalogHandler.ReorderUnits)
			admin.PATCH("/units/:id", cfg.CatalogHandler.UpdateUnit)
			admin.DELETE("/units/:id", cfg.CatalogHandler.DeleteUnit)
			admin.POST("/units/:id/lessons", cfg.CatalogHandler.CreateLesson)
			admin.PUT("/units/:id/lessons/order", cfg.CatalogHandler.ReorderLessons)
			admin.PATCH("/lessons/:id", cfg.CatalogHandler.UpdateLesson)
			admin.DELETE("/lessons/:id", cfg.CatalogHandler.DeleteLesson)
		}
		if cfg.ContentHandler != nil {
			admin.POST("/lessons/:id/vocabulary", cfg.ContentHandler.CreateVocabulary)
			admin.PUT("/lessons/:id/vocabulary/order", cfg.ContentHandler.ReorderVocabulary)
			admin.PATCH("/vocabulary/:id", cfg.ContentHandler.UpdateVocabulary)
			admin.DELETE("/vocabulary/:id", cfg.ContentHandler.DeleteVocabulary)
			admin.POST("/lessons/:id/conversation", cfg.ContentHandler.CreateConversationLine)
			admin.PUT("/lessons/:id/conversation/order", cfg.ContentHandler.ReorderConversation)
			admin.PATCH("/conversation/:id", cfg.ContentHandler.UpdateConversationLine)
			admin.DELETE("/conversation/:id", cfg.ContentHandler.DeleteConversationLine)
		}
		if cfg.ExtractionHandler != nil {
			admin.POST("/lessons/:id/extract", cfg.ExtractionHandler.Extract)
			admin.GET("/lessons/:id/extraction-runs", cfg.ExtractionHandler.ListRuns)
			admin.GET("/extraction-runs/:id", cfg.ExtractionHandler.GetRun)
			admin.POST("/extraction-runs/:id/commit", cfg.ExtractionHandler.CommitRun)
		}
	}

	return r
}
