package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	objectclient "github.com/markdave123-py/Trackname/internal/core/object-client"
	"github.com/markdave123-py/Trackname/internal/models"
)

func newStore(t *testing.T) objectclient.ObjectClient {
	t.Helper()
	c, err := objectclient.NewLocalClient(t.TempDir())
	require.NoError(t, err)
	return c
}

func put(t *testing.T, store objectclient.ObjectClient, key, body string) {
	t.Helper()
	_, err := store.UploadFile(context.Background(), key, strings.NewReader(body), "")
	require.NoError(t, err)
}

func TestDocumentService_StageAndDiscard(t *testing.T) {
	store := newStore(t)
	svc := NewDocumentService(store, nil)
	ctx := context.Background()

	a, err := svc.Stage(ctx, "../../etc/label.pdf", strings.NewReader("A"))
	require.NoError(t, err)
	b, err := svc.Stage(ctx, "label.pdf", strings.NewReader("B"))
	require.NoError(t, err)

	assert.Equal(t, "label.pdf", a.Filename)
	assert.NotEqual(t, a.Key, b.Key)
	assert.NotContains(t, a.Key, "label")

	body, err := store.GetFile(ctx, a.Key)
	require.NoError(t, err)
	assert.Equal(t, "A", string(body))

	svc.Discard(ctx, []models.SourceDocument{a, b})
	_, err = store.GetFile(ctx, a.Key)
	assert.ErrorIs(t, err, objectclient.ErrNotFound)
	_, err = store.GetFile(ctx, b.Key)
	assert.ErrorIs(t, err, objectclient.ErrNotFound)
}

func TestCleanFilename(t *testing.T) {
	cases := map[string]string{
		"label.pdf":             "label.pdf",
		"dir/sub/label.pdf":     "label.pdf",
		`C:\Users\me\label.pdf`: "label.pdf",
		"../../label.pdf":       "label.pdf",
		"":                      "document.pdf",
		"..":                    "document.pdf",
		"/":                     "document.pdf",
		"  spaced name.pdf  ":   "spaced name.pdf",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanFilename(in), in)
	}
}

func TestArtifactService_SingleUse(t *testing.T) {
	store := newStore(t)
	put(t, store, "tok/AB123456789CD.pdf", "%PDF body")
	svc := NewArtifactService(store, nil)
	ctx := context.Background()

	dl, err := svc.Open(ctx, "tok/AB123456789CD.pdf")
	require.NoError(t, err)
	assert.Equal(t, "AB123456789CD.pdf", dl.Name)
	assert.Equal(t, "application/pdf", dl.ContentType)

	// a second reader while the first is in flight gets nothing
	_, err = svc.Open(ctx, "tok/AB123456789CD.pdf")
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	var buf bytes.Buffer
	_, err = dl.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "%PDF body", buf.String())

	_, err = svc.Open(ctx, "tok/AB123456789CD.pdf")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
	_, err = store.GetFile(ctx, "tok/AB123456789CD.pdf")
	assert.ErrorIs(t, err, objectclient.ErrNotFound)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("client gone") }

func TestArtifactService_InterruptedDownloadCanRetry(t *testing.T) {
	store := newStore(t)
	put(t, store, "renamed_files_1_tok.zip", "zipbytes")
	svc := NewArtifactService(store, nil)
	ctx := context.Background()

	dl, err := svc.Open(ctx, "renamed_files_1_tok.zip")
	require.NoError(t, err)
	_, err = dl.WriteTo(failingWriter{})
	require.Error(t, err)

	dl, err = svc.Open(ctx, "renamed_files_1_tok.zip")
	require.NoError(t, err)
	assert.Equal(t, "application/zip", dl.ContentType)
	n, err := dl.WriteTo(io.Discard)
	require.NoError(t, err)
	assert.EqualValues(t, len("zipbytes"), n)
}

func TestArtifactService_AbortKeepsArtifact(t *testing.T) {
	store := newStore(t)
	put(t, store, "a.zip", "z")
	svc := NewArtifactService(store, nil)

	dl, err := svc.Open(context.Background(), "a.zip")
	require.NoError(t, err)
	dl.Abort()

	_, err = svc.Open(context.Background(), "a.zip")
	assert.NoError(t, err)
}

func TestArtifactService_UnknownAndInvalidKeys(t *testing.T) {
	svc := NewArtifactService(newStore(t), nil)
	for _, key := range []string{"missing.zip", "../etc/passwd"} {
		_, err := svc.Open(context.Background(), key)
		assert.ErrorIs(t, err, ErrArtifactNotFound, key)
	}
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/zip", ContentTypeFor("x/renamed.zip"))
	assert.Equal(t, "application/pdf", ContentTypeFor("tok/AB123456789CD_(1).pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("notes.txt"))
}
