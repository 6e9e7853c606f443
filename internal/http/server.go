package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	applog "cashbook/internal/log"
	"cashbook/internal/services"
)

// Server exposes the ledger over a JSON API.
type Server struct {
	http.Server
	svc          *services.LedgerService
	logger       *applog.Logger
	reqLog       *applog.RequestLogger
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(0, applog.ComponentHTTP)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:         svc,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}
	s.reqLog = applog.NewRequestLogger(s.logger)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/ledger", s.wrap(s.handleGetLedger))

	mux.HandleFunc("POST /api/years", s.wrap(s.handleAddYear))
	mux.HandleFunc("PUT /api/year", s.wrap(s.handleSelectYear))

	mux.HandleFunc("PUT /api/filters", s.wrap(s.handleSetFilters))
	mux.HandleFunc("DELETE /api/filters", s.wrap(s.handleClearFilters))

	mux.HandleFunc("POST /api/categories", s.wrap(s.handleAddCategory))
	mux.HandleFunc("PUT /api/categories/{index}", s.wrap(s.handleRenameCategory))
	mux.HandleFunc("DELETE /api/categories/{index}", s.wrap(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/transactions", s.wrap(s.handleAddTransaction))
	mux.HandleFunc("PUT /api/transactions/{index}", s.wrap(s.handleEditTransaction))
	mux.HandleFunc("DELETE /api/transactions/{index}", s.wrap(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/bulk-delete", s.wrap(s.handleBulkDelete))
	mux.HandleFunc("DELETE /api/transactions", s.wrap(s.handleDeleteAllTransactions))

	mux.HandleFunc("GET /api/entry-defaults", s.wrap(s.handleEntryDefaults))

	return s
}

// wrap adds security headers, rate limiting and request logging to a handler.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), applog.LoggerContextKey,
			s.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		s.reqLog.LogStart(ctx, r, clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.reqLog.LogEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// Shutdown stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
