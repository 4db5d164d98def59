package objectclient

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

var _ ObjectClient = (*Prefixed)(nil)

// Prefixed scopes an ObjectClient to a key namespace, so one bucket or
// directory can hold both staged uploads and produced artifacts.
type Prefixed struct {
	inner  ObjectClient
	prefix string
}

func WithPrefix(inner ObjectClient, prefix string) *Prefixed {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Prefixed{inner: inner, prefix: prefix}
}

func (p *Prefixed) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	k, err := p.key(key)
	if err != nil {
		return "", err
	}
	return p.inner.UploadFile(ctx, k, data, contentType)
}

func (p *Prefixed) DeleteFile(ctx context.Context, key string) error {
	k, err := p.key(key)
	if err != nil {
		return err
	}
	return p.inner.DeleteFile(ctx, k)
}

func (p *Prefixed) GetFile(ctx context.Context, key string) ([]byte, error) {
	k, err := p.key(key)
	if err != nil {
		return nil, err
	}
	return p.inner.GetFile(ctx, k)
}

func (p *Prefixed) GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := p.key(key)
	if err != nil {
		return nil, err
	}
	return p.inner.GetObjectReader(ctx, k)
}

// key joins the prefix, refusing keys that would climb out of the namespace.
func (p *Prefixed) key(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || clean == "." || strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return p.prefix + clean, nil
}
