package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DF-DOCGEN/internal"
	"DF-DOCGEN/internal/config"
	"DF-DOCGEN/internal/handlers"
	"DF-DOCGEN/internal/logger"
	"DF-DOCGEN/internal/services"
	"DF-DOCGEN/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := internal.InitDB(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer internal.CloseDB(db)

	store, err := newStorage(context.Background(), cfg)
	if err != nil {
		zapLogger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	var pdfService *services.PDFService
	if cfg.Gotenberg.URL != "" {
		pdfService, err = services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to initialize pdf service", zap.Error(err))
		}
	} else {
		zapLogger.Info("GOTENBERG_URL not set, pdf export disabled")
	}

	templateService := services.NewTemplateService(db, store, zapLogger)
	documentService := services.NewDocumentService(db, store, templateService, pdfService, zapLogger)
	activityLogService := services.NewActivityLogService(db, zapLogger)

	cleanupService := services.NewFileCleanupService(db, store, cfg.Cleanup.Interval, cfg.Cleanup.MaxAge, zapLogger)
	cleanupService.Start()

	router := handlers.NewRouter(handlers.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Templates:    handlers.NewTemplateHandler(templateService, zapLogger),
		Documents:    handlers.NewDocumentHandler(documentService, zapLogger),
		Logs:         handlers.NewLogsHandler(activityLogService, zapLogger),
		ActivityLog:  activityLogService,
		Logger:       zapLogger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("database", cfg.Database.Type),
			zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down server")

	cleanupService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}
	activityLogService.Close()
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
	case "local":
		return storage.NewLocalStorage(cfg.Storage.Root)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
