package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"DF-DOCGEN/internal"
	"DF-DOCGEN/internal/forms"
	"DF-DOCGEN/internal/models"
	"DF-DOCGEN/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tmpl, err := env.templates.UploadTemplate(ctx, UploadTemplateInput{
		Name:        " BuySellContract ",
		Description: "Sale of goods",
		Filename:    "contract.docx",
		Content:     bytes.NewReader(docxBytes(t, buySellParagraphs)),
	})
	require.NoError(t, err)

	assert.NotZero(t, tmpl.ID)
	assert.Equal(t, forms.BuySellContract, tmpl.Name)
	assert.Equal(t, "contract.docx", tmpl.OriginalName)
	assert.True(t, strings.HasPrefix(tmpl.FilePath, storage.TemplatesPrefix))
	assert.True(t, strings.HasSuffix(tmpl.FilePath, "/contract.docx"))

	ok, err := env.store.Exists(ctx, tmpl.FilePath)
	require.NoError(t, err)
	assert.True(t, ok)

	placeholders, err := env.templates.GetPlaceholders(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"seller_name", "buyer_name", "item", "price", "contract_number"}, placeholders)

	list, err := env.templates.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sale of goods", list[0].Description)
}

func TestUploadTemplateDuplicateNameWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.upload(t, forms.BuySellContract, buySellParagraphs)
	before := env.objects(t, "")

	_, err := env.templates.UploadTemplate(ctx, UploadTemplateInput{
		Name:     forms.BuySellContract,
		Filename: "other.docx",
		Content:  bytes.NewReader(docxBytes(t, legalParagraphs)),
	})
	assert.ErrorIs(t, err, ErrTemplateExists)

	_, err = env.templates.UploadTemplate(ctx, UploadTemplateInput{
		Name:     forms.BuySellContract,
		Filename: "notes.txt",
		Content:  strings.NewReader("not a document"),
	})
	assert.ErrorIs(t, err, ErrTemplateExists)

	assert.Equal(t, before, env.objects(t, ""))
}

func TestUploadTemplateRejectsInvalidFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   UploadTemplateInput
	}{
		{"missing name", UploadTemplateInput{Filename: "a.docx", Content: bytes.NewReader(docxBytes(t, nil))}},
		{"wrong extension", UploadTemplateInput{Name: "A", Filename: "a.pdf", Content: bytes.NewReader(docxBytes(t, nil))}},
		{"not a docx", UploadTemplateInput{Name: "A", Filename: "a.docx", Content: strings.NewReader("plain text")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.templates.UploadTemplate(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}
	assert.Empty(t, env.objects(t, ""))
}

func TestUploadTemplateRollsBackOnStorageFailure(t *testing.T) {
	db, err := internal.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	defer internal.CloseDB(db)
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	env := newTestEnvWithStore(t, db, failingUploads{local}, local)

	_, err = env.templates.UploadTemplate(context.Background(), UploadTemplateInput{
		Name:     forms.BuySellContract,
		Filename: "a.docx",
		Content:  bytes.NewReader(docxBytes(t, buySellParagraphs)),
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Template{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.upload(t, forms.LegalServicesContract, legalParagraphs)
	tmpl, err := env.templates.GetTemplate(ctx, id)
	require.NoError(t, err)

	require.NoError(t, env.templates.DeleteTemplate(ctx, id))

	_, err = env.templates.GetTemplate(ctx, id)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	ok, err := env.store.Exists(ctx, tmpl.FilePath)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, env.templates.DeleteTemplate(ctx, id), ErrTemplateNotFound)

	// the name is free again
	env.upload(t, forms.LegalServicesContract, legalParagraphs)
}

func TestDeleteTemplateInUseIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.upload(t, forms.BuySellContract, buySellParagraphs)
	doc, err := env.documents.GenerateDocument(ctx, id, []byte(buySellJSON))
	require.NoError(t, err)

	assert.ErrorIs(t, env.templates.DeleteTemplate(ctx, id), ErrTemplateInUse)

	_, err = env.templates.GetTemplate(ctx, id)
	assert.NoError(t, err)
	rc, _, err := env.documents.OpenDocument(ctx, doc.ID)
	require.NoError(t, err)
	rc.Close()
}
