package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"DF-DOCGEN/internal/models"
	"DF-DOCGEN/internal/processor"
	"DF-DOCGEN/internal/storage"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TemplateService struct {
	db     *gorm.DB
	store  storage.Storage
	logger *zap.Logger
}

func NewTemplateService(db *gorm.DB, store storage.Storage, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		db:     db,
		store:  store,
		logger: logger.With(zap.String("service", "template_service")),
	}
}

type UploadTemplateInput struct {
	Name        string
	Description string
	Filename    string
	Content     io.Reader
}

// UploadTemplate validates the source file, inserts the template row and
// stores the file in one transaction. A duplicate name is rejected before
// anything is written to storage; a storage failure rolls the row back.
func (s *TemplateService) UploadTemplate(ctx context.Context, in UploadTemplateInput) (*models.Template, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Template{}).Where("name = ?", name).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check template name: %w", err)
	}
	if existing > 0 {
		return nil, ErrTemplateExists
	}
	if !strings.EqualFold(filepath.Ext(in.Filename), ".docx") {
		return nil, fmt.Errorf("%w: only .docx files are supported", ErrInvalidTemplate)
	}

	data, err := io.ReadAll(in.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	doc, err := processor.OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	placeholders := doc.Placeholders()
	if placeholders == nil {
		placeholders = []string{}
	}
	placeholdersJSON, err := json.Marshal(placeholders)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal placeholders: %w", err)
	}

	objectName := storage.GenerateObjectName(in.Filename)
	template := &models.Template{
		Name:         name,
		Description:  in.Description,
		FilePath:     objectName,
		OriginalName: filepath.Base(in.Filename),
		FileSize:     int64(len(data)),
		MimeType:     processor.MimeTypeDocx,
		Placeholders: datatypes.JSON(placeholdersJSON),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Template{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check template name: %w", err)
		}
		if count > 0 {
			return ErrTemplateExists
		}

		if err := tx.Create(template).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTemplateExists
			}
			return fmt.Errorf("failed to save template metadata: %w", err)
		}

		if _, err := s.store.UploadFile(ctx, bytes.NewReader(data), objectName, processor.MimeTypeDocx); err != nil {
			return fmt.Errorf("failed to store template file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("template uploaded",
		zap.Uint("template_id", template.ID),
		zap.String("name", template.Name),
		zap.Strings("placeholders", placeholders))
	return template, nil
}

func (s *TemplateService) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	if err := s.db.WithContext(ctx).Order("id").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, templateID uint) (*models.Template, error) {
	var template models.Template
	if err := s.db.WithContext(ctx).First(&template, templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTemplateNotFound, templateID)
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &template, nil
}

func (s *TemplateService) GetPlaceholders(ctx context.Context, templateID uint) ([]string, error) {
	template, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	placeholders := []string{}
	if len(template.Placeholders) == 0 {
		return placeholders, nil
	}
	if err := json.Unmarshal(template.Placeholders, &placeholders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal placeholders: %w", err)
	}
	return placeholders, nil
}

// DeleteTemplate removes the template row and its source file. Templates
// still referenced by generated documents are rejected with ErrTemplateInUse.
func (s *TemplateService) DeleteTemplate(ctx context.Context, templateID uint) error {
	var template models.Template
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&template, templateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrTemplateNotFound, templateID)
			}
			return fmt.Errorf("failed to load template: %w", err)
		}

		var documents int64
		if err := tx.Model(&models.Document{}).Where("template_id = ?", templateID).Count(&documents).Error; err != nil {
			return fmt.Errorf("failed to count generated documents: %w", err)
		}
		if documents > 0 {
			return fmt.Errorf("%w: %d document(s) reference template %d", ErrTemplateInUse, documents, templateID)
		}

		if err := tx.Delete(&template).Error; err != nil {
			return fmt.Errorf("failed to delete template: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.store.DeleteFile(ctx, template.FilePath); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("failed to delete template file",
			zap.String("file_path", template.FilePath),
			zap.Error(err))
	}
	s.logger.Info("template deleted", zap.Uint("template_id", templateID), zap.String("name", template.Name))
	return nil
}

// readTemplateFile loads a template's source file from storage.
func (s *TemplateService) readTemplateFile(ctx context.Context, template *models.Template) ([]byte, error) {
	reader, err := s.store.ReadFile(ctx, template.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: template %d source %s", ErrFileMissing, template.ID, template.FilePath)
		}
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return data, nil
}
