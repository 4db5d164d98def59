package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Trackname/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Trackname/internal/api/middlewares"
	"github.com/markdave123-py/Trackname/internal/config"
	"github.com/markdave123-py/Trackname/internal/core/ingestion_engine"
	"github.com/markdave123-py/Trackname/internal/services"
)

const shutdownGrace = 30 * time.Second

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	stager handlers.Stager,
	artifacts *services.ArtifactService,
	events handlers.EventSource,
	ing ingestion_engine.Ingestor,
) *Server {
	docHandler := handlers.NewDocumentHandler(stager, ing, cfg.MaxUploadMB, logger.Named("upload"))
	eventsHandler := handlers.NewEventsHandler(events, logger.Named("events"))
	downloadHandler := handlers.NewDownloadHandler(artifacts, logger.Named("download"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.AccessLog(logger.Named("http")))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	// long lived streams, no request timeout
	r.Get("/events/{id}", eventsHandler.Stream)
	r.Get(strings.TrimSuffix(cfg.DownloadPrefix, "/")+"/*", downloadHandler.Download)

	r.Group(func(upload chi.Router) {
		upload.Use(middleware.Timeout(5 * time.Minute))
		if cfg.JWTSecret != "" {
			upload.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
		}
		upload.Post("/upload", docHandler.UploadDocuments)
	})

	// Serve static files from the web directory
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv, logger: logger}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
