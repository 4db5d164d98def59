package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core"
	objectclient "github.com/markdave123-py/Trackname/internal/core/object-client"
)

// ErrArtifactNotFound is returned for unknown, in-flight or already downloaded artifacts.
var ErrArtifactNotFound = errors.New("artifact not found")

var downloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "trackname",
		Subsystem: "artifacts",
		Name:      "downloads_total",
		Help:      "Artifact download attempts by result",
	},
	[]string{"result"},
)

// ArtifactService serves produced artifacts exactly once. The first download
// that streams the whole artifact deletes it; concurrent or later requests
// see ErrArtifactNotFound.
type ArtifactService struct {
	output core.ObjectClient
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	consumed map[string]struct{}
}

func NewArtifactService(output core.ObjectClient, logger *zap.Logger) *ArtifactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactService{
		output:   output,
		logger:   logger,
		inFlight: make(map[string]struct{}),
		consumed: make(map[string]struct{}),
	}
}

// Download is an open, claimed artifact. WriteTo must be called exactly once,
// or Abort to give the claim back.
type Download struct {
	Name        string
	ContentType string

	key  string
	body io.ReadCloser
	svc  *ArtifactService
	ctx  context.Context
}

// Open claims key for one reader.
func (s *ArtifactService) Open(ctx context.Context, key string) (*Download, error) {
	if !s.claim(key) {
		downloadsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrArtifactNotFound
	}

	body, err := s.output.GetObjectReader(ctx, key)
	if err != nil {
		s.unclaim(key)
		if errors.Is(err, objectclient.ErrNotFound) || errors.Is(err, objectclient.ErrInvalidKey) {
			downloadsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrArtifactNotFound
		}
		downloadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("open artifact %s: %w", key, err)
	}

	return &Download{
		Name:        path.Base(key),
		ContentType: ContentTypeFor(key),
		key:         key,
		body:        body,
		svc:         s,
		ctx:         ctx,
	}, nil
}

// WriteTo streams the artifact. Only a complete copy consumes it.
func (d *Download) WriteTo(w io.Writer) (int64, error) {
	n, err := io.Copy(w, d.body)
	_ = d.body.Close()
	if err != nil {
		d.svc.unclaim(d.key)
		downloadsTotal.WithLabelValues("interrupted").Inc()
		d.svc.logger.Warn("download interrupted", zap.String("artifact", d.key), zap.Int64("bytes", n), zap.Error(err))
		return n, err
	}
	d.svc.consume(context.WithoutCancel(d.ctx), d.key)
	downloadsTotal.WithLabelValues("served").Inc()
	d.svc.logger.Info("artifact served", zap.String("artifact", d.key), zap.Int64("bytes", n))
	return n, nil
}

// Abort releases the claim without consuming the artifact.
func (d *Download) Abort() {
	_ = d.body.Close()
	d.svc.unclaim(d.key)
}

func (s *ArtifactService) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	if _, gone := s.consumed[key]; gone {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *ArtifactService) unclaim(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

// consume deletes a served artifact. If deletion fails the key is remembered
// so it still reads as not found.
func (s *ArtifactService) consume(ctx context.Context, key string) {
	err := s.output.DeleteFile(ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
	if err != nil && !errors.Is(err, objectclient.ErrNotFound) {
		s.logger.Error("delete served artifact failed", zap.String("artifact", key), zap.Error(err))
		s.consumed[key] = struct{}{}
	}
}

// ContentTypeFor picks the response type from the artifact extension.
func ContentTypeFor(name string) string {
	switch path.Ext(name) {
	case ".zip":
		return "application/zip"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
