package ddbui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/attrinspect"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbbrowse"
	"github.com/gregory-bonaventure/dynamodb-web/dynamodb/ddbconn"
)

// ServerConfig configures the browser API server.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port int
	// Source describes what is being browsed, e.g. a region or a data
	// directory. Only shown in the banner.
	Source string
	// ScanLimit is the default number of records per scan.
	ScanLimit int
}

// IdentityFunc resolves the caller identity of the current connection.
type IdentityFunc func(ctx context.Context) (ddbconn.Identity, error)

// Server is the browser API HTTP server.
type Server struct {
	config     ServerConfig
	browser    *ddbbrowse.Browser
	inspector  *attrinspect.Inspector
	identity   IdentityFunc
	logger     *slog.Logger
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithInspector(in *attrinspect.Inspector) Option {
	return func(s *Server) { s.inspector = in }
}

// WithIdentity enables GET /api/whoami.
func WithIdentity(f IdentityFunc) Option {
	return func(s *Server) { s.identity = f }
}

// NewServer creates a server that reads tables through browser.
func NewServer(config ServerConfig, browser *ddbbrowse.Browser, opts ...Option) *Server {
	s := &Server{
		config:  config,
		browser: browser,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.inspector == nil {
		s.inspector = attrinspect.New(attrinspect.WithLogger(s.logger))
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(corsMiddleware)

	NewAPIHandler(s.browser, s.inspector, s.identity, s.config.ScanLimit).RegisterRoutes(r)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()
	s.logger.Info("browser API listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
	bannerTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	bannerLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// PrintBanner writes the startup banner.
func (s *Server) PrintBanner(w io.Writer) {
	lines := []string{
		bannerTitle.Render("DynamoDB Browser"),
		"",
		bannerLabel.Render("URL:    ") + fmt.Sprintf("http://localhost:%d", s.config.Port),
	}
	if s.config.Source != "" {
		lines = append(lines, bannerLabel.Render("Source: ")+s.config.Source)
	}
	lines = append(lines, "", bannerLabel.Render("Press Ctrl+C to stop"))
	fmt.Fprintln(w, bannerStyle.Render(strings.Join(lines, "\n")))
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if r.URL.Path == "/favicon.ico" {
				return
			}
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// corsMiddleware adds CORS headers so a separately served frontend can call
// the API during development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
