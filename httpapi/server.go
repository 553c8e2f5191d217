package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/middleware"
	"golang.org/x/time/rate"
)

const defaultMaxBodyBytes int64 = 1 << 20

// Options tunes the HTTP surface.
type Options struct {
	// SessionRate limits session creation across all callers, in sessions
	// per second. Zero disables the limit.
	SessionRate float64
	// SessionBurst is the token bucket size for SessionRate.
	SessionBurst int
	// TrustProxy takes the client IP from X-Forwarded-For.
	TrustProxy bool
	// Metrics is mounted at GET /metrics when non-nil.
	Metrics http.Handler
	// Logger receives one line per request. Nil discards.
	Logger *slog.Logger
	// MaxBodyBytes caps request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
}

// Server routes HTTP requests to an Engine.
type Server struct {
	engine       *goGate.Engine
	logger       *slog.Logger
	createLimit  *rate.Limiter
	maxBodyBytes int64
	handler      http.Handler
}

// New builds the route table for engine.
func New(engine *goGate.Engine, opts Options) *Server {
	s := &Server{
		engine:       engine,
		logger:       opts.Logger,
		maxBodyBytes: opts.MaxBodyBytes,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultMaxBodyBytes
	}

	limit := rate.Inf
	if opts.SessionRate > 0 {
		limit = rate.Limit(opts.SessionRate)
	}
	burst := opts.SessionBurst
	if burst <= 0 {
		burst = 1
	}
	s.createLimit = rate.NewLimiter(limit, burst)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.endSession)
	mux.HandleFunc("POST /api/sessions/{id}/start", s.startSession)
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.resetSession)
	mux.HandleFunc("POST /api/sessions/{id}/checkpoints/{index}/open", s.openLink)
	mux.HandleFunc("POST /api/sessions/{id}/checkpoints/{index}/foreground-lost", s.foregroundLost)
	mux.HandleFunc("POST /api/sessions/{id}/checkpoints/{index}/verify", s.verify)
	mux.HandleFunc("GET /api/config", s.publicConfig)

	mux.HandleFunc("POST /api/admin/login", s.adminLogin)
	requireAdmin := middleware.RequireAdmin(engine)
	mux.Handle("GET /api/admin/config", requireAdmin(http.HandlerFunc(s.adminConfig)))
	mux.Handle("PUT /api/admin/config", requireAdmin(http.HandlerFunc(s.adminReplaceConfig)))
	mux.Handle("GET /api/admin/security", requireAdmin(http.HandlerFunc(s.adminSecurity)))

	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	s.handler = middleware.ClientInfo(opts.TrustProxy)(s.logRequests(mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelDebug
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
