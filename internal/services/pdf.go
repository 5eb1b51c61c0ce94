package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
	"go.uber.org/zap"
)

// PDFService converts DOCX files through a Gotenberg LibreOffice route.
type PDFService struct {
	client     *gotenberg.Client
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

func NewPDFService(gotenbergURL string, timeoutStr string, logger *zap.Logger) (*PDFService, error) {
	logger = logger.With(zap.String("service", "pdf_service"))

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		logger.Warn("invalid gotenberg timeout, using 30s", zap.String("timeout", timeoutStr), zap.Error(err))
	}

	client, err := gotenberg.NewClient(gotenbergURL, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:     client,
		timeout:    timeout,
		maxRetries: 3,
		logger:     logger,
	}, nil
}

// ConvertDocxToPDFWithOrientation returns the PDF rendering of docxReader,
// retrying transient failures with a linear backoff.
func (s *PDFService) ConvertDocxToPDFWithOrientation(ctx context.Context, docxReader io.Reader, filename string, landscape bool) (io.ReadCloser, error) {
	content, err := io.ReadAll(docxReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		pdf, err := s.convert(ctx, content, filename, landscape)
		if err == nil {
			return io.NopCloser(bytes.NewReader(pdf)), nil
		}
		lastErr = err
		s.logger.Warn("pdf conversion attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", s.maxRetries),
			zap.Error(err))

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert document after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *PDFService) convert(ctx context.Context, content []byte, filename string, landscape bool) ([]byte, error) {
	convertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := document.FromReader(filename, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from reader: %w", err)
	}

	req := gotenberg.NewLibreOfficeRequest(doc)
	if landscape {
		req.Landscape()
	}

	resp, err := s.client.Send(convertCtx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
