package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrInvalidObjectName = errors.New("invalid object name")
)

const (
	TemplatesPrefix = "templates/"
	DocumentsPrefix = "documents/"
)

// Storage is the durable file tree behind templates and generated documents.
// Object names are relative, slash-separated keys; they never carry a host path.
type Storage interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error)
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, objectName string) error
	Exists(ctx context.Context, objectName string) (bool, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Close() error
}

type UploadResult struct {
	ObjectName string `json:"object_name"`
	Size       int64  `json:"size"`
}

type ObjectInfo struct {
	Name    string
	Size    int64
	Updated time.Time
}

// GenerateObjectName returns a fresh key for an uploaded template source file.
func GenerateObjectName(filename string) string {
	return fmt.Sprintf("%s%s/%s", TemplatesPrefix, uuid.New().String(), path.Base(filename))
}

// GenerateDocumentObjectName returns the key of a generated document.
func GenerateDocumentObjectName(filename string) string {
	return DocumentsPrefix + path.Base(filename)
}

func validateObjectName(objectName string) error {
	if objectName == "" || strings.HasPrefix(objectName, "/") || strings.Contains(objectName, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidObjectName, objectName)
	}
	for _, part := range strings.Split(objectName, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidObjectName, objectName)
		}
	}
	return nil
}
