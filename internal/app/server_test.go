package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/markdave123-py/Trackname/internal/config"
	"github.com/markdave123-py/Trackname/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:           "0",
		StorageDriver:  "local",
		StorageDir:     t.TempDir(),
		PDFExtractor:   "pdf",
		Workers:        2,
		QueueSize:      4,
		MaxUploadMB:    4,
		BatchTimeout:   time.Minute,
		CorsOrigins:    []string{"http://localhost:3000"},
		DownloadPrefix: "/download/",
	}
}

func uploadRequest(t *testing.T, url string, files ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range files {
		fw, err := mw.CreateFormFile("pdfs", name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, "not really a pdf")
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestServer_Routes(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	h := a.Server.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/nothing.zip", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_UploadRunsBatch(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	a.Ingestor.Start(ctx, cfg.Workers)

	sub := a.Hub.Subscribe("web-1")
	defer sub.Close()

	rec := httptest.NewRecorder()
	a.Server.Handler().ServeHTTP(rec, uploadRequest(t, "/upload?id=web-1", "scan.pdf"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var last models.Event
	timeout := time.After(10 * time.Second)
loop:
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				break loop
			}
			last = ev
		case <-timeout:
			t.Fatal("batch did not finish")
		}
	}
	assert.Equal(t, models.EventError, last.Type)
	assert.Contains(t, last.Message, "scan.pdf")

	cancel()
	a.Ingestor.Wait()

	// staged upload is gone
	entries, err := os.ReadDir(filepath.Join(cfg.StorageDir, "uploads"))
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestServer_UploadRequiresTokenWhenConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = "s3cret"
	a, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Server.Handler().ServeHTTP(rec, uploadRequest(t, "/upload?id=x", "a.pdf"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewStore_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = "ftp"
	_, err := NewStore(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestUploadResponseShape(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Server.Handler().ServeHTTP(rec, uploadRequest(t, "/upload?id=shape", "a.pdf", "b.pdf"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "shape", body["id"])
	assert.EqualValues(t, 2, body["files"])
}
