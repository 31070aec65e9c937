package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"paperscan/internal/logging"
	"paperscan/internal/metrics"
)

// httpServer runs one handler on its own listener.
type httpServer struct {
	name   string
	bind   string
	logger *slog.Logger
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

func newHTTPServer(name, bind string, handler http.Handler, logger *slog.Logger) *httpServer {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil
	}
	return &httpServer{
		name:   name,
		bind:   bind,
		logger: logging.NewComponentLogger(logger, name),
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// newHealthServer answers GET /health with 200 "OK" regardless of scan state.
func newHealthServer(bind string, logger *slog.Logger) *httpServer {
	return newHTTPServer("health-server", bind, healthRouter(), logger)
}

func healthRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.CleanPath)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return r
}

// newMetricsServer exposes the registry on every path, like the stock
// Prometheus exporter.
func newMetricsServer(bind string, reg *metrics.Registry, logger *slog.Logger) *httpServer {
	if reg == nil {
		return nil
	}
	return newHTTPServer("metrics-server", bind, reg.Handler(), logger)
}

func (s *httpServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("%s listen on %s: %w", s.name, s.bind, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "http server error", "http_server_failed",
				logging.Error(err),
				logging.String("address", s.bind),
				logging.String(logging.FieldErrorHint, "check that the port is not used by another process"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("http server listening",
		logging.String(logging.FieldEventType, "http_server_started"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

func (s *httpServer) stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.mu.Unlock()
}

// addr returns the bound address, or the configured bind before start.
func (s *httpServer) addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}
