package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"DF-DOCGEN/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 1000
)

type LogsHandler struct {
	activityLogService *services.ActivityLogService
	logger             *zap.Logger
}

func NewLogsHandler(activityLogService *services.ActivityLogService, logger *zap.Logger) *LogsHandler {
	return &LogsHandler{
		activityLogService: activityLogService,
		logger:             logger,
	}
}

type LogsResponse struct {
	Logs       interface{} `json:"logs"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// GetAllLogs returns activity logs page by page, optionally filtered by
// method or path.
func (h *LogsHandler) GetAllLogs(c *gin.Context) {
	limit, page := pagination(c)

	logs, total, err := h.activityLogService.GetLogs(services.LogFilter{
		Method: c.Query("method"),
		Path:   c.Query("path"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, LogsResponse{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}

// GetHistory returns the data users submitted to the generate and edit
// endpoints.
func (h *LogsHandler) GetHistory(c *gin.Context) {
	limit, _ := pagination(c)

	logs, err := h.activityLogService.GetSubmissions(limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	history := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		entry := gin.H{
			"timestamp":     log.CreatedAt,
			"path":          log.Path,
			"status_code":   log.StatusCode,
			"ip_address":    log.IPAddress,
			"user_agent":    log.UserAgent,
			"response_time": log.ResponseTime,
		}
		if kind, id, ok := submissionTarget(log.Path); ok {
			entry[kind] = id
		}

		var userData interface{}
		if err := json.Unmarshal([]byte(log.RequestBody), &userData); err == nil {
			entry["user_data"] = userData
		} else {
			entry["raw_body"] = log.RequestBody
		}
		history = append(history, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"history": history,
		"total":   len(history),
	})
}

func pagination(c *gin.Context) (limit, page int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	return limit, page
}

// submissionTarget extracts the id from "/generate/3/" or "/edit-document/7/".
func submissionTarget(path string) (string, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", "", false
	}
	switch parts[0] {
	case "generate":
		return "template_id", parts[1], true
	case "edit-document":
		return "document_id", parts[1], true
	}
	return "", "", false
}
