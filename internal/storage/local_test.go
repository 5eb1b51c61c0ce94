package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	result, err := store.UploadFile(ctx, strings.NewReader("hello"), "documents/a.docx", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Size)
	assert.FileExists(t, filepath.Join(root, "documents", "a.docx"))

	ok, err := store.Exists(ctx, "documents/a.docx")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := store.ReadFile(ctx, "documents/a.docx")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = store.UploadFile(ctx, bytes.NewReader([]byte("bye")), "documents/a.docx", "")
	require.NoError(t, err)
	rc, err = store.ReadFile(ctx, "documents/a.docx")
	require.NoError(t, err)
	data, _ = io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "bye", string(data))

	require.NoError(t, store.DeleteFile(ctx, "documents/a.docx"))
	ok, err = store.Exists(ctx, "documents/a.docx")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoDirExists(t, filepath.Join(root, "documents"))
}

func TestLocalStorageMissingObject(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.ReadFile(ctx, "documents/nope.docx")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, store.DeleteFile(ctx, "documents/nope.docx"), ErrObjectNotFound)
}

func TestLocalStorageRejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "/etc/passwd", "../x", "documents/../../x", "a//b", `a\b`} {
		_, err := store.UploadFile(ctx, strings.NewReader("x"), name, "")
		assert.ErrorIs(t, err, ErrInvalidObjectName, name)
	}
}

func TestLocalStorageList(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	for _, name := range []string{"templates/x/a.docx", "documents/1.docx", "documents/2.docx"} {
		_, err := store.UploadFile(ctx, strings.NewReader(name), name, "")
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "documents", ".upload-123"), nil, 0644))

	objects, err := store.List(ctx, DocumentsPrefix)
	require.NoError(t, err)
	var names []string
	for _, o := range objects {
		names = append(names, o.Name)
	}
	assert.ElementsMatch(t, []string{"documents/1.docx", "documents/2.docx"}, names)
}

func TestObjectNames(t *testing.T) {
	name := GenerateObjectName("../../Contract.docx")
	assert.True(t, strings.HasPrefix(name, TemplatesPrefix))
	assert.True(t, strings.HasSuffix(name, "/Contract.docx"))
	assert.NoError(t, validateObjectName(name))

	assert.Equal(t, "documents/240101-1_X.docx", GenerateDocumentObjectName("240101-1_X.docx"))
}
