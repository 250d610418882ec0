package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/isdmx/coderunner/config"
	"github.com/isdmx/coderunner/language"
	"github.com/isdmx/coderunner/mcpserver"
	"github.com/isdmx/coderunner/observability"
	"github.com/isdmx/coderunner/sandbox"
)

const readHeaderTimeout = 10 * time.Second

// Deps groups what the router needs. Metrics, Tracer and MCP may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Executor sandbox.SandboxExecutor
	Registry *language.Registry
	Metrics  *observability.MetricsCollector
	Tracer   *observability.TracerSetup
	MCP      *mcpserver.MCPServer
}

// Server is the HTTP front end: the REST bridge, the MCP streamable
// transport and the operational endpoints share one listener.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	logger     *zap.Logger
	addr       string
}

// New builds the router. It does not start listening.
func New(deps Deps) (*Server, error) {
	if deps.Executor == nil {
		return nil, errors.New("sandbox executor is required")
	}

	s := &Server{
		router: chi.NewRouter(),
		logger: deps.Logger,
		addr:   fmt.Sprintf(":%d", deps.Config.Server.HTTPPort),
	}
	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s, nil
}

// setupRoutes configures middleware and routes.
//
//	POST /run-code        execute one snippet, answer {stdout, stderr, exit_code}
//	GET  /languages       per-language toolchain availability
//	GET  /healthz         liveness
//	GET  <metrics.path>   Prometheus exposition
//	*    <server.mcp_path> MCP streamable HTTP transport
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	if deps.Metrics != nil || deps.Tracer != nil {
		s.router.Use(observability.MetricsMiddleware(deps.Metrics, deps.Tracer.Tracer()))
	}

	h := newHandler(deps.Executor, deps.Registry, s.logger)
	s.router.Post("/run-code", h.handleRunCode)
	s.router.Get("/languages", h.handleLanguages)
	s.router.Get("/healthz", h.handleHealth)

	if deps.Metrics != nil && deps.Config.Metrics.Enabled {
		s.router.Method(http.MethodGet, deps.Config.Metrics.Path,
			promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	if deps.MCP != nil {
		mountMCP(s.router, deps.Config.Server.MCPPath, deps.MCP.Handler())
	}
}

// mountMCP serves the MCP transport at path with and without a trailing
// slash. Both routes share one handler so sessions are not split.
func mountMCP(r chi.Router, path string, h http.Handler) {
	base := strings.TrimRight(path, "/")
	if base == "" {
		r.Handle("/", h)
		return
	}
	r.Handle(base, h)
	r.Handle(base+"/", h)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener synchronously so a busy port fails startup, then
// serves in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	s.logger.Info("starting HTTP server", zap.String("addr", s.addr))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr is the listen address; after Start it holds the bound port.
func (s *Server) Addr() string {
	return s.addr
}
