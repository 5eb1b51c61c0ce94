package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"DF-DOCGEN/internal/forms"
	"DF-DOCGEN/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanupOrphans(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.upload(t, forms.BuySellContract, buySellParagraphs)
	doc, err := env.documents.GenerateDocument(ctx, id, []byte(buySellJSON))
	require.NoError(t, err)

	for _, name := range []string{"documents/orphan.docx", "templates/stale/old.docx"} {
		_, err := env.store.UploadFile(ctx, strings.NewReader("x"), name, "text/plain")
		require.NoError(t, err)
	}

	fcs := NewFileCleanupService(env.db, env.store, time.Hour, 24*time.Hour, zap.NewNop())

	removed, err := fcs.CleanupOrphans(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed, "young files are kept")

	fcs.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	removed, err = fcs.CleanupOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.Equal(t, []string{doc.FilePath}, env.objects(t, storage.DocumentsPrefix))
	templates := env.objects(t, storage.TemplatesPrefix)
	require.Len(t, templates, 1)
	assert.NotContains(t, templates, "templates/stale/old.docx")
}

func TestCleanupStartStop(t *testing.T) {
	env := newTestEnv(t)
	fcs := NewFileCleanupService(env.db, env.store, time.Millisecond, time.Hour, zap.NewNop())
	fcs.Start()
	time.Sleep(5 * time.Millisecond)
	fcs.Stop()
	// a second stop is a no-op
	fcs.Stop()
}
