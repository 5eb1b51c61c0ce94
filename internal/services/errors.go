package services

import "errors"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrTemplateExists   = errors.New("template with this name already exists")
	ErrTemplateInUse    = errors.New("template has generated documents")
	ErrInvalidTemplate  = errors.New("invalid template file")
	ErrUnsupportedShape = errors.New("unsupported template/data combination")
	ErrFileMissing      = errors.New("file missing from storage")
	ErrPDFUnavailable   = errors.New("pdf conversion is not configured")
)
