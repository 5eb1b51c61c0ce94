package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"DF-DOCGEN/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a service error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, services.ErrFileMissing):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTemplateExists),
		errors.Is(err, services.ErrInvalidTemplate):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrTemplateInUse):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnsupportedShape):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPDFUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

// readBody reads the whole request body and answers 413 when it is over
// the router's limit.
func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBodyError(c, err, "Failed to read request body")
		return nil, false
	}
	return body, true
}

func respondBodyError(c *gin.Context, err error, message string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
