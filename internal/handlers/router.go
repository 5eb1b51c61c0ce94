package handlers

import (
	"net/http"
	"time"

	"DF-DOCGEN/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMaxBodyBytes = 32 << 20

type RouterConfig struct {
	AllowOrigins []string
	// MaxBodyBytes caps request bodies; zero means 32 MiB.
	MaxBodyBytes int64
	Templates    *TemplateHandler
	Documents    *DocumentHandler
	// Logs and ActivityLog are optional; without them requests are not
	// persisted and /logs is not served.
	Logs        *LogsHandler
	ActivityLog *services.ActivityLogService
	Logger      *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 || (len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	r.Use(LimitRequestBody(maxBodyBytes))

	if cfg.ActivityLog != nil {
		r.Use(cfg.ActivityLog.LoggingMiddleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	compressed := gzip.Gzip(gzip.DefaultCompression)

	templates := r.Group("/templates")
	{
		templates.POST("/", cfg.Templates.UploadTemplate)
		templates.GET("/", compressed, cfg.Templates.ListTemplates)
		templates.GET("/:id/placeholders", cfg.Templates.GetPlaceholders)
		templates.DELETE("/:id", cfg.Templates.DeleteTemplate)
	}

	r.POST("/generate/:template_id/", cfg.Documents.GenerateDocument)
	r.POST("/edit-document/:id/", cfg.Documents.EditDocument)

	documents := r.Group("/documents")
	{
		documents.GET("/", compressed, cfg.Documents.ListDocuments)
		documents.GET("/:id", cfg.Documents.DownloadDocument)
		documents.GET("/:id/pdf", cfg.Documents.DownloadPDF)
	}

	if cfg.Logs != nil {
		logs := r.Group("/logs", compressed)
		{
			logs.GET("/", cfg.Logs.GetAllLogs)
			logs.GET("/history", cfg.Logs.GetHistory)
		}
	}

	return r
}
