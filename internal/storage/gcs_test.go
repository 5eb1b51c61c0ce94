package storage

import (
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestBackendsRejectTheSameNames(t *testing.T) {
	ctx := context.Background()

	local, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	// no request leaves the process: names are rejected before any call
	client, err := storage.NewClient(ctx, option.WithoutAuthentication(), option.WithEndpoint("http://127.0.0.1:1/storage/v1/"))
	require.NoError(t, err)
	gcs := &GCSClient{client: client, bucketName: "docgen-test"}
	defer gcs.Close()

	backends := map[string]Storage{"local": local, "gcs": gcs}
	for backend, store := range backends {
		for _, name := range []string{"", "/etc/passwd", "../x", "documents/../../x", "a//b", `a\b`} {
			_, err := store.UploadFile(ctx, strings.NewReader("x"), name, "")
			assert.ErrorIs(t, err, ErrInvalidObjectName, "%s upload %q", backend, name)

			_, err = store.ReadFile(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidObjectName, "%s read %q", backend, name)

			err = store.DeleteFile(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidObjectName, "%s delete %q", backend, name)

			_, err = store.Exists(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidObjectName, "%s exists %q", backend, name)
		}
	}
}
