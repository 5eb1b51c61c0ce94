package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"DF-DOCGEN/internal/forms"
	"DF-DOCGEN/internal/models"
	"DF-DOCGEN/internal/processor"
	"DF-DOCGEN/internal/storage"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentService struct {
	db        *gorm.DB
	store     storage.Storage
	templates *TemplateService
	pdf       *PDFService
	logger    *zap.Logger
	locks     *keyedMutex
	now       func() time.Time
}

// NewDocumentService wires generation, download and edit. pdf may be nil,
// in which case PDF export returns ErrPDFUnavailable.
func NewDocumentService(db *gorm.DB, store storage.Storage, templates *TemplateService, pdf *PDFService, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		db:        db,
		store:     store,
		templates: templates,
		pdf:       pdf,
		logger:    logger.With(zap.String("service", "document_service")),
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// GenerateDocument fills the template with data, stores the result as
// YYMMDD-N_TemplateName.docx and records it. Generations for one template
// are serialized so the same-day sequence never repeats.
func (s *DocumentService) GenerateDocument(ctx context.Context, templateID uint, data []byte) (*models.Document, error) {
	template, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	form, err := decodeForm(template.Name, data)
	if err != nil {
		return nil, err
	}
	dataJSON, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	content, err := s.render(ctx, template, form.Values())
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(template.ID)
	defer unlock()

	document := &models.Document{
		TemplateID: template.ID,
		Day:        DayKey(s.now()),
		MimeType:   processor.MimeTypeDocx,
		Data:       datatypes.JSON(dataJSON),
	}

	// The row is inserted before the upload so a lost sequence race fails on
	// the unique index without touching the winner's file.
	uploaded := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSequence sql.NullInt64
		if err := tx.Model(&models.Document{}).
			Where("template_id = ? AND day = ?", document.TemplateID, document.Day).
			Select("MAX(sequence)").
			Scan(&maxSequence).Error; err != nil {
			return fmt.Errorf("failed to compute sequence: %w", err)
		}
		document.Sequence = int(maxSequence.Int64) + 1
		document.Filename = DocumentFilename(document.Day, document.Sequence, template.Name)
		document.FilePath = storage.GenerateDocumentObjectName(document.Filename)
		document.FileSize = int64(len(content))

		if err := tx.Create(document).Error; err != nil {
			return fmt.Errorf("failed to save document metadata: %w", err)
		}

		if _, err := s.store.UploadFile(ctx, bytes.NewReader(content), document.FilePath, processor.MimeTypeDocx); err != nil {
			return fmt.Errorf("failed to store generated document: %w", err)
		}
		uploaded = true
		return nil
	})
	if err != nil {
		// only a file this call wrote whose row then failed to commit
		if uploaded {
			s.removeObject(ctx, document.FilePath)
		}
		return nil, err
	}

	s.logger.Info("document generated",
		zap.Uint("document_id", document.ID),
		zap.Uint("template_id", template.ID),
		zap.String("file_path", document.FilePath))
	return document, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, documentID uint) (*models.Document, error) {
	var document models.Document
	if err := s.db.WithContext(ctx).First(&document, documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrDocumentNotFound, documentID)
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &document, nil
}

// ListDocuments returns generated documents newest first. A zero
// templateID lists every template's documents.
func (s *DocumentService) ListDocuments(ctx context.Context, templateID uint) ([]models.Document, error) {
	query := s.db.WithContext(ctx).Order("id DESC")
	if templateID != 0 {
		query = query.Where("template_id = ?", templateID)
	}
	var documents []models.Document
	if err := query.Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

// OpenDocument returns the stored file of a generated document. The caller
// closes the reader.
func (s *DocumentService) OpenDocument(ctx context.Context, documentID uint) (io.ReadCloser, *models.Document, error) {
	document, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.store.ReadFile(ctx, document.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("%w: document %d at %s", ErrFileMissing, document.ID, document.FilePath)
		}
		return nil, nil, fmt.Errorf("failed to read document: %w", err)
	}
	return reader, document, nil
}

// EditDocument re-renders the owning template with new data and overwrites
// the document's file in place. The previous content is not kept.
func (s *DocumentService) EditDocument(ctx context.Context, documentID uint, data []byte) (*models.Document, error) {
	document, err := s.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	template, err := s.templates.GetTemplate(ctx, document.TemplateID)
	if err != nil {
		return nil, err
	}

	form, err := decodeForm(template.Name, data)
	if err != nil {
		return nil, err
	}
	dataJSON, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	content, err := s.render(ctx, template, form.Values())
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(template.ID)
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(document).Updates(map[string]interface{}{
			"data":       datatypes.JSON(dataJSON),
			"file_size":  int64(len(content)),
			"updated_at": s.now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to update document metadata: %w", err)
		}
		if _, err := s.store.UploadFile(ctx, bytes.NewReader(content), document.FilePath, processor.MimeTypeDocx); err != nil {
			return fmt.Errorf("failed to overwrite document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document edited", zap.Uint("document_id", document.ID), zap.String("file_path", document.FilePath))
	return s.GetDocument(ctx, documentID)
}

// RenderPDF converts a generated document to PDF, keeping its orientation.
func (s *DocumentService) RenderPDF(ctx context.Context, documentID uint) (io.ReadCloser, string, error) {
	if s.pdf == nil {
		return nil, "", ErrPDFUnavailable
	}

	reader, document, err := s.OpenDocument(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := processor.OpenBytes(content)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open document: %w", err)
	}

	pdf, err := s.pdf.ConvertDocxToPDFWithOrientation(ctx, bytes.NewReader(content), document.Filename, doc.Landscape())
	if err != nil {
		return nil, "", err
	}
	return pdf, strings.TrimSuffix(document.Filename, ".docx") + ".pdf", nil
}

func (s *DocumentService) render(ctx context.Context, template *models.Template, values map[string]string) ([]byte, error) {
	source, err := s.templates.readTemplateFile(ctx, template)
	if err != nil {
		return nil, err
	}

	doc, err := processor.OpenBytes(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open template document: %w", err)
	}
	replaced := doc.ApplyPlaceholders(values)
	s.logger.Debug("placeholders replaced",
		zap.Uint("template_id", template.ID),
		zap.Int("replaced", replaced))

	content, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to create output document: %w", err)
	}
	return content, nil
}

func (s *DocumentService) removeObject(ctx context.Context, objectName string) {
	if err := s.store.DeleteFile(context.WithoutCancel(ctx), objectName); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("failed to remove partial document", zap.String("file_path", objectName), zap.Error(err))
	}
}

func decodeForm(templateName string, data []byte) (forms.Form, error) {
	form, err := forms.Decode(templateName, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedShape, err)
	}
	return form, nil
}

// keyedMutex hands out one mutex per template id and frees it when the
// last holder unlocks.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint]*refMutex)}
}

func (k *keyedMutex) Lock(key uint) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
