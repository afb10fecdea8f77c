// Package server exposes the pipeline over HTTP (chi) and reports
// capability health over gRPC.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/joseph-ayodele/docintake/internal/export"
	"github.com/joseph-ayodele/docintake/internal/pipeline"
)

const serviceName = "docintake"

// Options bounds request handling.
type Options struct {
	MaxUploadBytes int64         // whole request body; 0 -> 32 MiB
	RequestTimeout time.Duration // 0 disables
	MaxConcurrent  int           // heavy extractions in flight; 0 -> 4
}

// Service serves the document endpoints.
type Service struct {
	proc     *pipeline.Processor
	exporter *export.Service
	logger   *slog.Logger
	opts     Options
	sem      *semaphore.Weighted
	now      func() time.Time
}

func NewService(proc *pipeline.Processor, exporter *export.Service, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	return &Service{
		proc:     proc,
		exporter: exporter,
		logger:   logger,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		now:      time.Now,
	}
}

// Routes returns the HTTP handler.
func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(s.deadline)
	}

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/process-single", s.handleProcessSingle)
		r.Post("/process-files", s.handleProcessFiles)
		r.Post("/extract-text", s.handleExtractText)
	})
	return r
}
