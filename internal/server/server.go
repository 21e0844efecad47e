// Package server exposes the substitution engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smileys/smileys/internal/core/exclusion"
	"github.com/smileys/smileys/internal/core/processor"
	"github.com/smileys/smileys/internal/metrics"
	ctxutil "github.com/smileys/smileys/internal/observability/context"
	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/types"
)

// DefaultMaxBodyBytes bounds POST /v1/process request bodies.
const DefaultMaxBodyBytes = 4 << 20

// Options configure a Server.
type Options struct {
	Addr         string
	Exclusion    exclusion.Config
	MaxBodyBytes int64
	// ShutdownTimeout bounds the drain of in-flight requests in Run
	ShutdownTimeout time.Duration
	Logger          logging.Logger
	Metrics         *metrics.Metrics
}

// Server routes HTTP requests to an engine.
type Server struct {
	engine *processor.Engine
	opts   Options
	logger logging.Logger
	router chi.Router
}

// ProcessRequest is the body of POST /v1/process.
type ProcessRequest struct {
	Text string `json:"text"`
	// Key enables processing records; requests without one are always processed
	Key        string    `json:"key,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
	// Exclude adjusts the server's exclusion settings for this request only
	Exclude *ExcludeOverride `json:"exclude,omitempty"`
}

// ExcludeOverride changes exclusion settings per request. Tags and patterns
// add to the configured ones; nil fields keep the configured value.
type ExcludeOverride struct {
	Enabled  *bool    `json:"enabled,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
	Markdown *bool    `json:"markdown,omitempty"`
}

func (o *ExcludeOverride) apply(cfg exclusion.Config) exclusion.Config {
	if o == nil {
		return cfg
	}
	if o.Enabled != nil {
		cfg.Enabled = *o.Enabled
	}
	if o.Markdown != nil {
		cfg.Markdown = *o.Markdown
	}
	cfg.Tags = append(append([]string(nil), cfg.Tags...), o.Tags...)
	cfg.Patterns = append(append([]string(nil), cfg.Patterns...), o.Patterns...)
	return cfg
}

// ProcessResponse is returned by POST /v1/process.
type ProcessResponse struct {
	Text          string   `json:"text"`
	Processed     bool     `json:"processed"`
	Substitutions int      `json:"substitutions"`
	Skipped       string   `json:"skipped,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// PackResponse is returned by GET /v1/pack.
type PackResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Version  string         `json:"version,omitempty"`
	Author   string         `json:"author,omitempty"`
	Embedded bool           `json:"embedded"`
	Smileys  []types.Smiley `json:"smileys"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the router. Metrics may be nil, in which case /metrics is not
// mounted.
func New(engine *processor.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		engine: engine,
		opts:   opts,
		logger: opts.Logger.With("component", "server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestContext)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/process", s.process)
		r.Get("/pack", s.pack)
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	s.router = r
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on opts.Addr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info(ctx, "HTTP server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}

func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxutil.WithComponent(r.Context(), "server")
		ctx = ctxutil.WithRequestID(ctx, middleware.GetReqID(ctx))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.Debug(ctx, "HTTP request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOperation(r.Context(), "process")

	var req ProcessRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	out := s.engine.Process(ctx, processor.Document{
		Key:        req.Key,
		ModifiedAt: req.ModifiedAt,
		Text:       req.Text,
	}, req.Exclude.apply(s.opts.Exclusion))

	resp := ProcessResponse{
		Text:          out.Text,
		Processed:     out.Processed,
		Substitutions: out.Substitutions,
		Skipped:       out.Skipped,
	}
	for _, err := range out.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pack(w http.ResponseWriter, _ *http.Request) {
	p := s.engine.Pack()
	writeJSON(w, http.StatusOK, PackResponse{
		ID:       p.ID,
		Name:     p.Name,
		Version:  p.Version,
		Author:   p.Author,
		Embedded: p.Embedded,
		Smileys:  p.Smileys,
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"pack":     s.engine.Pack().ID,
		"triggers": s.engine.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
