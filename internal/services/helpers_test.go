package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"DF-DOCGEN/internal"
	"DF-DOCGEN/internal/processor"
	"DF-DOCGEN/internal/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var buySellParagraphs = []string{
	"Purchase agreement",
	"Seller: {{seller_name}}",
	"Buyer: {{buyer_name}}",
	"Item: {{item}}",
	"Price: {{price}} (reference {{contract_number}})",
}

var legalParagraphs = []string{
	"Legal services agreement",
	"Client: {{client_name}}",
	"Provider: {{provider_name}}",
	"Services: {{service_description}}",
	"Fee: {{fee}}",
	"Date: {{contract_date}}",
}

const buySellJSON = `{"seller_name":"A","buyer_name":"B","item":"Car","price":1000}`

type testEnv struct {
	db        *gorm.DB
	store     storage.Storage
	local     *storage.LocalStorage
	templates *TemplateService
	documents *DocumentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := internal.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { internal.CloseDB(db) })

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	return newTestEnvWithStore(t, db, local, local)
}

func newTestEnvWithStore(t *testing.T, db *gorm.DB, store storage.Storage, local *storage.LocalStorage) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	templates := NewTemplateService(db, store, logger)
	documents := NewDocumentService(db, store, templates, nil, logger)
	documents.now = func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }
	return &testEnv{db: db, store: store, local: local, templates: templates, documents: documents}
}

func docxBytes(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	data, err := processor.NewDocx(paragraphs)
	require.NoError(t, err)
	return data
}

func (e *testEnv) upload(t *testing.T, name string, paragraphs []string) uint {
	t.Helper()
	tmpl, err := e.templates.UploadTemplate(context.Background(), UploadTemplateInput{
		Name:     name,
		Filename: name + ".docx",
		Content:  bytes.NewReader(docxBytes(t, paragraphs)),
	})
	require.NoError(t, err)
	return tmpl.ID
}

func (e *testEnv) objects(t *testing.T, prefix string) []string {
	t.Helper()
	objects, err := e.local.List(context.Background(), prefix)
	require.NoError(t, err)
	names := []string{}
	for _, o := range objects {
		names = append(names, o.Name)
	}
	return names
}

func readDocumentText(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	doc, err := processor.OpenBytes(data)
	require.NoError(t, err)
	return doc.Text()
}

// failingUploads wraps a storage and fails every upload.
type failingUploads struct {
	storage.Storage
}

func (f failingUploads) UploadFile(ctx context.Context, r io.Reader, name, contentType string) (*storage.UploadResult, error) {
	return nil, errors.New("disk full")
}
