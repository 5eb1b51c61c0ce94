package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strconv"

	"DF-DOCGEN/internal/processor"
	"DF-DOCGEN/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documentService *services.DocumentService
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *services.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

type GenerateResponse struct {
	Message    string `json:"message"`
	DocumentID uint   `json:"document_id"`
	FilePath   string `json:"file_path"`
	Filename   string `json:"filename"`
}

type EditResponse struct {
	Message    string `json:"message"`
	DocumentID uint   `json:"document_id"`
}

// GenerateDocument fills a template with the JSON body. The body's shape
// depends on the template.
func (h *DocumentHandler) GenerateDocument(c *gin.Context) {
	templateID, ok := parseID(c, "template_id")
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	document, err := h.documentService.GenerateDocument(c.Request.Context(), templateID, body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, GenerateResponse{
		Message:    "Document generated successfully",
		DocumentID: document.ID,
		FilePath:   document.FilePath,
		Filename:   document.Filename,
	})
}

func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var templateID uint
	if raw := c.Query("template_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template_id"})
			return
		}
		templateID = uint(id)
	}

	documents, err := h.documentService.ListDocuments(c.Request.Context(), templateID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	reader, document, err := h.documentService.OpenDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(document.FilePath)))
	c.DataFromReader(http.StatusOK, document.FileSize, processor.MimeTypeDocx, reader, nil)
}

func (h *DocumentHandler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	reader, filename, err := h.documentService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}

func (h *DocumentHandler) EditDocument(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	document, err := h.documentService.EditDocument(c.Request.Context(), id, body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, EditResponse{
		Message:    "Document updated successfully",
		DocumentID: document.ID,
	})
}
