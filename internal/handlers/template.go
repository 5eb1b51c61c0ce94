package handlers

import (
	"net/http"

	"DF-DOCGEN/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	templateService *services.TemplateService
	logger          *zap.Logger
}

func NewTemplateHandler(templateService *services.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		logger:          logger,
	}
}

type UploadResponse struct {
	Message      string   `json:"message"`
	TemplateID   uint     `json:"template_id"`
	Placeholders []string `json:"placeholders"`
}

// UploadTemplate accepts a multipart form with the DOCX under "file" (or
// "template") plus name and description fields.
func (h *TemplateHandler) UploadTemplate(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		file, header, err = c.Request.FormFile("template")
	}
	if err != nil {
		respondBodyError(c, err, "No file uploaded")
		return
	}
	defer file.Close()

	template, err := h.templateService.UploadTemplate(c.Request.Context(), services.UploadTemplateInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Filename:    header.Filename,
		Content:     file,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	placeholders, err := h.templateService.GetPlaceholders(c.Request.Context(), template.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Message:      "Template uploaded successfully",
		TemplateID:   template.ID,
		Placeholders: placeholders,
	})
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateService.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *TemplateHandler) GetPlaceholders(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	placeholders, err := h.templateService.GetPlaceholders(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"placeholders": placeholders})
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.templateService.DeleteTemplate(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
