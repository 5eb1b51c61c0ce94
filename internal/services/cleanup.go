package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DF-DOCGEN/internal/models"
	"DF-DOCGEN/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileCleanupService periodically deletes stored files that no template or
// document row references, such as leftovers of interrupted requests.
// Files younger than maxAge are skipped so in-flight writes are never raced.
type FileCleanupService struct {
	db       *gorm.DB
	store    storage.Storage
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
	now      func() time.Time

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewFileCleanupService(db *gorm.DB, store storage.Storage, interval, maxAge time.Duration, logger *zap.Logger) *FileCleanupService {
	return &FileCleanupService{
		db:       db,
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger.With(zap.String("service", "file_cleanup_service")),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

func (fcs *FileCleanupService) Start() {
	fcs.ticker = time.NewTicker(fcs.interval)
	go func() {
		for {
			select {
			case <-fcs.done:
				return
			case <-fcs.ticker.C:
				if _, err := fcs.CleanupOrphans(context.Background()); err != nil {
					fcs.logger.Error("cleanup failed", zap.Error(err))
				}
			}
		}
	}()
	fcs.logger.Info("file cleanup service started",
		zap.Duration("interval", fcs.interval),
		zap.Duration("max_age", fcs.maxAge))
}

func (fcs *FileCleanupService) Stop() {
	fcs.stopOnce.Do(func() {
		if fcs.ticker != nil {
			fcs.ticker.Stop()
		}
		close(fcs.done)
		fcs.logger.Info("file cleanup service stopped")
	})
}

// CleanupOrphans removes unreferenced files older than maxAge and returns
// how many were deleted.
func (fcs *FileCleanupService) CleanupOrphans(ctx context.Context) (int, error) {
	referenced, err := fcs.referencedPaths(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, prefix := range []string{storage.TemplatesPrefix, storage.DocumentsPrefix} {
		objects, err := fcs.store.List(ctx, prefix)
		if err != nil {
			return removed, err
		}
		for _, obj := range objects {
			if referenced[obj.Name] || fcs.now().Sub(obj.Updated) <= fcs.maxAge {
				continue
			}
			if err := fcs.store.DeleteFile(ctx, obj.Name); err != nil {
				fcs.logger.Warn("failed to delete orphaned file", zap.String("file_path", obj.Name), zap.Error(err))
				continue
			}
			fcs.logger.Info("deleted orphaned file", zap.String("file_path", obj.Name))
			removed++
		}
	}
	return removed, nil
}

func (fcs *FileCleanupService) referencedPaths(ctx context.Context) (map[string]bool, error) {
	referenced := make(map[string]bool)
	for _, model := range []interface{}{&models.Template{}, &models.Document{}} {
		var paths []string
		if err := fcs.db.WithContext(ctx).Model(model).Pluck("file_path", &paths).Error; err != nil {
			return nil, fmt.Errorf("failed to load referenced paths: %w", err)
		}
		for _, p := range paths {
			referenced[p] = true
		}
	}
	return referenced, nil
}
