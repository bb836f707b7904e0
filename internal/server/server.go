// Package server exposes the experiment graph over HTTP.
//
// The server reads records from a Store, runs them through the shared
// visualization pipeline, and serves raw records, filtered graphs, and
// rendered scenes. All pipeline parameters are accepted as query
// parameters so a browser client can drive the same code paths as the
// CLI.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkarlsen/biolens/internal/store"
	"github.com/mkarlsen/biolens/pkg/buildinfo"
	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/pipeline"
	"github.com/mkarlsen/biolens/pkg/render"
	"github.com/mkarlsen/biolens/pkg/source"
)

// =============================================================================
// Server
// =============================================================================

// Server handles HTTP requests for experiment data and rendered scenes.
type Server struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a Server backed by the given store and pipeline runner.
// A nil logger falls back to the default logger.
func New(st store.Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}

	s := &Server{
		store:  st,
		runner: runner,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/experiments", s.handleExperiments)
	r.Get("/api/graph", s.handleGraph)
	r.Get("/api/scene", s.handleScene)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is canceled, then shuts it
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.ErrCodeNetwork, err, "serve %s", addr)
		}
		return nil
	}
}

// source wraps the store so the pipeline can fetch from it.
func (s *Server) source() source.Source {
	return source.Func{ID: "store", Fn: s.store.Load}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]graph.Record{"experiments": records})
}

// handleGraph returns the filtered node/edge model without layout,
// along with the adapter diagnostics.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	filter, err := graph.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	records, err := s.store.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	nodes, edges, diag := graph.Build(records)
	nodes, edges = graph.Select(nodes, edges, filter)

	writeJSON(w, http.StatusOK, graphResponse{
		Nodes:       nodes,
		Edges:       edges,
		Diagnostics: diag,
	})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	opts, format, err := optionsFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), s.source(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, ok := result.Artifacts[string(format)]
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "missing artifact for format %s", format))
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// graphResponse is the payload of GET /api/graph.
type graphResponse struct {
	Nodes       []*graph.Node     `json:"nodes"`
	Edges       []graph.Edge      `json:"edges"`
	Diagnostics graph.Diagnostics `json:"diagnostics"`
}

// =============================================================================
// Request Parsing
// =============================================================================

// optionsFromQuery builds pipeline options from the request query. A
// scene request renders exactly one format, defaulting to SVG.
func optionsFromQuery(r *http.Request) (pipeline.Options, render.Format, error) {
	q := r.URL.Query()

	opts := pipeline.Options{
		Filter:  q.Get("filter"),
		Mode:    q.Get("mode"),
		Refresh: q.Get("refresh") == "true",
	}

	formatStr := q.Get("format")
	if formatStr == "" {
		formatStr = pipeline.DefaultFormat
	}
	format, err := render.ParseFormat(formatStr)
	if err != nil {
		return pipeline.Options{}, "", err
	}
	opts.Formats = []string{string(format)}

	if v := q.Get("width"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return pipeline.Options{}, "", errors.New(errors.ErrCodeInvalidInput, "invalid width: %s", v)
		}
		opts.Width = f
	}
	if v := q.Get("height"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return pipeline.Options{}, "", errors.New(errors.ErrCodeInvalidInput, "invalid height: %s", v)
		}
		opts.Height = f
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return pipeline.Options{}, "", errors.New(errors.ErrCodeInvalidInput, "invalid scale: %s", v)
		}
		opts.Scale = f
	}
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return pipeline.Options{}, "", errors.New(errors.ErrCodeInvalidInput, "invalid seed: %s", v)
		}
		opts.Seed = n
	}

	return opts, format, nil
}

// contentType maps a render format to its MIME type.
func contentType(f render.Format) string {
	switch f {
	case render.FormatSVG, render.FormatGraphviz:
		return "image/svg+xml"
	case render.FormatPNG:
		return "image/png"
	case render.FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}

// =============================================================================
// Responses
// =============================================================================

// errorResponse is the JSON body sent for any failed request.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(errors.GetCode(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFilter,
		errors.ErrCodeInvalidLayout, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidRecord, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound,
		errors.ErrCodeFileNotFound, errors.ErrCodeDatasetNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requestLogger logs each request with method, path, status, and timing.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
