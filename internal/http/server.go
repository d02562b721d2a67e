// Package http serves the transaction API: JSON resources for the CRUD
// operations and server-sent event streams that follow live queries.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/dashboard"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
)

// Service is the transaction service the handlers drive.
// *services.TransactionService satisfies it.
type Service interface {
	dashboard.Service
	Update(ctx context.Context, t core.Transaction) error
	DeleteByID(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (core.Transaction, error)
	List(ctx context.Context, f core.Filter) ([]core.Transaction, error)
}

type Server struct {
	http.Server
	svc Service

	// session remembers the last delete made through the API so it can be
	// undone, and follows single records for the detail stream.
	session *dashboard.Dashboard

	clientIP    *security.ClientIP
	rateLimiter *ratelimit.Limiter
	trace       *trace.Middleware

	started time.Time
	created atomic.Int64

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

type Option func(*options)

type options struct {
	rateLimit ratelimit.Config
	headers   security.HeadersConfig
	logger    *applog.Logger
}

// WithRateLimit overrides the per-client limit applied to mutating requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(o *options) { o.rateLimit = cfg }
}

func WithHeaders(cfg security.HeadersConfig) Option {
	return func(o *options) { o.headers = cfg }
}

// WithLogger sets the logger handlers find in their request context. The
// default reports under the http component through the slog default handler.
func WithLogger(logger *applog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc Service, opts ...Option) *Server {
	o := options{
		rateLimit: ratelimit.DefaultConfig(),
		headers:   security.DefaultHeadersConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = applog.FromContext(context.Background()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		svc:         svc,
		session:     dashboard.New(svc),
		clientIP:    security.NewClientIP(),
		rateLimiter: ratelimit.NewLimiter(o.rateLimit),
		started:     time.Now(),
	}
	s.trace = trace.NewMiddleware(s.clientIP.Extract)

	ctx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	go s.rateLimiter.Run(ctx)

	limit := s.rateLimiter.Middleware(s.clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})
	mutating := func(h http.HandlerFunc) http.Handler { return limit(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.Handle("POST /transactions", mutating(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/stream", s.handleStreamTransactions)
	mux.HandleFunc("GET /transactions/undo", s.handleUndoStatus)
	mux.Handle("POST /transactions/undo", mutating(s.handleUndoDelete))
	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	mux.Handle("PUT /transactions/{id}", mutating(s.handleUpdateTransaction))
	mux.Handle("DELETE /transactions/{id}", mutating(s.handleDeleteTransaction))
	mux.HandleFunc("GET /transactions/{id}/share", s.handleShareTransaction)
	mux.HandleFunc("GET /transactions/{id}/stream", s.handleStreamTransaction)

	headers := security.NewHeadersMiddleware(o.headers)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.Middleware(o.logger)(s.trace.Middleware(headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background routines and then the HTTP server. Open detail
// streams end when the session closes.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		s.session.Close()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
