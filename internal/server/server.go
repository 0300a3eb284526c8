package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arnavs06/HackNYU/internal/auth"
	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/logging"
	"github.com/arnavs06/HackNYU/internal/models"
	"github.com/arnavs06/HackNYU/internal/scan"
)

// maxUploadBytes bounds a multipart scan upload.
const maxUploadBytes = 20 << 20

// Scanner is the scan workflow the transports expose
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (*models.ScanResult, error)
	History(ctx context.Context, userID string, limit int) ([]models.ScanResult, error)
	Get(ctx context.Context, id string) (*models.ScanResult, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, userID string) (models.ScanStats, error)
	Picks(ctx context.Context, userID string, rotation int) (*scan.Picks, error)
}

type Server struct {
	scans    Scanner
	verifier *auth.Verifier
	cfg      config.ServerConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
	clients  sync.Map
}

// New creates a server. A nil verifier disables token checks.
func New(scans Scanner, verifier *auth.Verifier, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		scans:    scans,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger.With("component", "server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	if cfg.Debug {
		s.logger.Debug("debug logging enabled")
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("POST /api/scan", s.handleScanUpload)
	mux.HandleFunc("GET /api/scan/{id}", s.handleGetScan)
	mux.HandleFunc("DELETE /api/scan/{id}", s.handleDeleteScan)
	mux.HandleFunc("GET /api/history/{userID}", s.handleHistory)
	mux.HandleFunc("GET /api/stats/{userID}", s.handleStats)
	mux.HandleFunc("GET /api/picks/{userID}", s.handlePicks)

	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return s.withLogging(s.withCORS(mux))
}

// Start serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.closeClients()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.CORSOrigin == "" || s.cfg.CORSOrigin == "*" {
		return true
	}
	return r.Header.Get("Origin") == s.cfg.CORSOrigin
}

func (s *Server) closeClients() {
	s.clients.Range(func(key, value any) bool {
		if c, ok := value.(*wsClient); ok {
			c.cancel()
			c.conn.Close()
		}
		return true
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	origin := s.cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
