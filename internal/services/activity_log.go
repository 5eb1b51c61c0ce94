package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"DF-DOCGEN/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxLoggedBody    = 10000
	requestBodyKey   = "request_body"
	submissionPrefix = "/generate/"
	editPrefix       = "/edit-document/"
)

// ActivityLogService persists one row per HTTP request.
type ActivityLogService struct {
	db     *gorm.DB
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewActivityLogService(db *gorm.DB, logger *zap.Logger) *ActivityLogService {
	return &ActivityLogService{
		db:     db,
		logger: logger.With(zap.String("service", "activity_log_service")),
	}
}

type LogFilter struct {
	Method string
	Path   string
	Limit  int
	Offset int
}

func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	queryParamsJSON, _ := json.Marshal(queryParams)

	var requestBody string
	if body, exists := c.Get(requestBodyKey); exists {
		if bodyStr, ok := body.(string); ok {
			requestBody = bodyStr
		}
	}

	activityLog := &models.ActivityLog{
		ID:           uuid.New().String(),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		RequestBody:  requestBody,
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    time.Now(),
	}

	// written off the request path; Close waits for pending rows
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Create(activityLog).Error; err != nil {
			s.logger.Warn("failed to save activity log", zap.Error(err))
		}
	}()
}

// LoggingMiddleware records every request after it has been handled.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if c.Request.Method == http.MethodPost && c.Request.Body != nil {
			if strings.HasPrefix(c.ContentType(), "multipart/") {
				c.Set(requestBodyKey, "[multipart upload]")
			} else if bodyBytes, err := io.ReadAll(c.Request.Body); err != nil {
				// hand the handler what was read followed by the same error
				c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(bodyBytes), c.Request.Body))
			} else {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				if len(bodyBytes) > maxLoggedBody {
					c.Set(requestBodyKey, fmt.Sprintf("[Large body: %d bytes] %s...", len(bodyBytes), string(bodyBytes[:100])))
				} else if len(bodyBytes) > 0 {
					c.Set(requestBodyKey, string(bodyBytes))
				}
			}
		}

		c.Next()

		s.LogRequest(c, c.Writer.Status(), time.Since(start))
	}
}

// GetLogs returns logs newest first with the total matching count.
func (s *ActivityLogService) GetLogs(filter LogFilter) ([]models.ActivityLog, int64, error) {
	query := s.db.Model(&models.ActivityLog{})
	if filter.Method != "" {
		query = query.Where("method = ?", strings.ToUpper(filter.Method))
	}
	if filter.Path != "" {
		query = query.Where("path LIKE ?", "%"+filter.Path+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}
	return logs, total, nil
}

// GetSubmissions returns the most recent POSTs to the generate and edit
// endpoints that carried a body.
func (s *ActivityLogService) GetSubmissions(limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := s.db.
		Where("method = ? AND request_body <> ''", http.MethodPost).
		Where("path LIKE ? OR path LIKE ?", submissionPrefix+"%", editPrefix+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return logs, nil
}

// Close waits for in-flight log writes.
func (s *ActivityLogService) Close() {
	s.wg.Wait()
}
