package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"DF-DOCGEN/internal/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConvertDocxToPDFRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		io.WriteString(w, "%PDF-1.7")
	}))
	defer server.Close()

	svc, err := NewPDFService(server.URL, "5s", zap.NewNop())
	require.NoError(t, err)

	docx, err := processor.NewDocx([]string{"hello"})
	require.NoError(t, err)

	rc, err := svc.ConvertDocxToPDFWithOrientation(context.Background(), bytes.NewReader(docx), "hello.docx", false)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestConvertDocxToPDFGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, err := NewPDFService(server.URL, "bogus", zap.NewNop())
	require.NoError(t, err)
	svc.maxRetries = 1

	_, err = svc.ConvertDocxToPDFWithOrientation(context.Background(), bytes.NewReader([]byte("x")), "x.docx", true)
	assert.Error(t, err)
}
