// Package http exposes the JSON API: authentication, expense records
// with filtering and pagination, and receipt files.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
)

// Options tunes server behavior. Zero values fall back to defaults.
type Options struct {
	PageSize      int
	ListCacheSize int
	ListCacheTTL  time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	if o.ListCacheSize <= 0 {
		o.ListCacheSize = 100
	}
	if o.ListCacheTTL <= 0 {
		o.ListCacheTTL = 30 * time.Second
	}
	return o
}

type Server struct {
	http.Server

	sessions *session.Cache
	expenses *services.ExpenseService
	logger   *applog.Logger
	pageSize int

	// listCache holds each owner's full record list so repeated view
	// requests (page flips, filter changes) skip the store.
	listCache    *cache.LRUCache[[]core.ExpenseRecord]
	cacheManager *cache.Manager

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run server.
func NewServer(addr string, sessions *session.Cache, expenses *services.ExpenseService, logger *applog.Logger, opts Options) *Server {
	opts = opts.withDefaults()
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		sessions:     sessions,
		expenses:     expenses,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		pageSize:     opts.PageSize,
		listCache:    cache.NewLRUCache[[]core.ExpenseRecord](opts.ListCacheSize, opts.ListCacheTTL),
		cacheManager: cache.NewManager(),
		rateLimiter:  newRateLimiter(),
	}

	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.protect(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.protect(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.protect(s.handleLogout))
	mux.HandleFunc("GET /api/me", s.protect(s.handleMe))

	mux.HandleFunc("GET /api/expenses", s.protect(s.requireAuth(s.handleListExpenses)))
	mux.HandleFunc("POST /api/expenses", s.protect(s.requireAuth(s.handleCreateExpense)))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.protect(s.requireAuth(s.handleDeleteExpense)))

	mux.HandleFunc("POST /api/receipts", s.protect(s.requireAuth(s.handleUploadReceipt)))
	mux.HandleFunc("GET /api/receipts/{id}/url", s.protect(s.requireAuth(s.handleReceiptURL)))
	mux.HandleFunc("GET /api/receipts/{id}/content", s.protect(s.requireAuth(s.handleReceiptContent)))
	mux.HandleFunc("DELETE /api/receipts/{id}", s.protect(s.requireAuth(s.handleDeleteReceipt)))

	return s
}

// protect adds security headers, rate limiting, request tracing and
// request logging around a handler.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := applog.NewContext(r.Context(), logger)
		r = r.WithContext(ctx)

		logger.InfoContext(ctx, "request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		// Mutating requests are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

// requireAuth resolves the current user and rejects the request when
// nobody is signed in. The user is passed through the context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.sessions.Current(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		ctx := context.WithValue(r.Context(), currentUserKey, user)
		next(w, r.WithContext(ctx))
	}
}

type contextKey string

const currentUserKey contextKey = "current_user"

func currentUser(ctx context.Context) *core.SessionUser {
	user, _ := ctx.Value(currentUserKey).(*core.SessionUser)
	return user
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the background routines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
