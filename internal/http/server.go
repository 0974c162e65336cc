// Package http is the JSON API surface. Routing is a plain ServeMux
// with explicit method checks; every API route passes through the
// security middleware and carries the caller's access token in the
// request context.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const sessionCookie = "fintrack_session"

type Server struct {
	http.Server

	ledger   *services.LedgerService
	admin    *services.AdminService
	gate     *services.Gate
	identity identity.Provider
	logger   *log.Logger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, admin *services.AdminService, gate *services.Gate, id identity.Provider, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		admin:       admin,
		gate:        gate,
		identity:    id,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/auth/signup", s.withSecurity(s.handleSignUp))
	mux.HandleFunc("/api/auth/signin", s.withSecurity(s.handleSignIn))
	mux.HandleFunc("/api/auth/signout", s.withSecurity(s.handleSignOut))
	mux.HandleFunc("/api/auth/me", s.withSecurity(s.handleMe))
	mux.HandleFunc("/api/auth/authorize", s.withSecurity(s.handleAuthorize))

	mux.HandleFunc("/api/transactions", s.withSecurity(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withSecurity(s.handleTransactionByID))
	mux.HandleFunc("/api/summary", s.withSecurity(s.handleSummary))
	mux.HandleFunc("/api/categories", s.withSecurity(s.handleCategories))

	mux.HandleFunc("/api/admin/donations", s.withSecurity(s.requireAdmin(s.handleDonations)))
	mux.HandleFunc("/api/admin/donations/", s.withSecurity(s.requireAdmin(s.handleDonationByID)))
	mux.HandleFunc("/api/admin/roster", s.withSecurity(s.requireAdmin(s.handleRoster)))
	mux.HandleFunc("/api/admin/roster/", s.withSecurity(s.requireAdmin(s.handleRosterByID)))
	mux.HandleFunc("/api/admin/overview", s.withSecurity(s.requireAdmin(s.handleOverview)))

	return s
}

// withSecurity adds request ids, rate limiting on mutations, security
// headers, request logging and token extraction.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
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
		ctx := r.Context()
		if token, ok := bearerToken(r); ok {
			ctx = identity.WithToken(ctx, token)
		}
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// requireAdmin rejects callers the gate does not recognize as admins.
// The check is advisory; the store re-authorizes every privileged
// mutation on its own.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := identity.TokenFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		user, err := s.identity.UserFromToken(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		if !s.gate.IsAdmin(r.Context(), user.ID) {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin role required"})
			return
		}
		next(w, r)
	}
}

// bearerToken pulls the access token from the Authorization header or
// the session cookie.
func bearerToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
		return auth[7:], true
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

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

// Shutdown stops the rate limiter cleanup goroutine and drains the
// HTTP server.
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
