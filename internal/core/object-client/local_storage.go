package objectclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var _ ObjectClient = (*LocalClient)(nil)

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// LocalClient stores objects as files under a root directory.
// Writes go to a temp file in the destination directory and are renamed into
// place, so a key is never observable half-written.
type LocalClient struct {
	root string
}

func NewLocalClient(root string) (*LocalClient, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage dir not set")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalClient{root: root}, nil
}

func (c *LocalClient) UploadFile(ctx context.Context, key string, data io.Reader, _ string) (string, error) {
	dest, err := c.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if _, err := io.Copy(bw, readerWithCtx(ctx, data)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("flush %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("publish %s: %w", key, err)
	}

	return "file://" + dest, nil
}

func (c *LocalClient) DeleteFile(_ context.Context, key string) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	// Drop the per-artifact directory once empty; failure just leaves it behind.
	if dir := filepath.Dir(p); dir != c.root {
		_ = os.Remove(dir)
	}
	return nil
}

func (c *LocalClient) GetFile(ctx context.Context, key string) ([]byte, error) {
	rc, err := c.GetObjectReader(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return body, nil
}

func (c *LocalClient) GetObjectReader(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := c.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// path maps a slash separated key under root, rejecting absolute keys and
// parent escapes.
func (c *LocalClient) path(key string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(key))
	if rel == "." || rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.HasPrefix(filepath.Base(rel), ".tmp-") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(c.root, rel), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
