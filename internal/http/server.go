// Package http serves the payment plan JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/incari/credit-tractor-app-sub000/internal/core"
	"github.com/incari/credit-tractor-app-sub000/internal/log"
	"github.com/incari/credit-tractor-app-sub000/internal/middleware/ratelimit"
	"github.com/incari/credit-tractor-app-sub000/internal/middleware/security"
	"github.com/incari/credit-tractor-app-sub000/internal/middleware/trace"
	"github.com/incari/credit-tractor-app-sub000/internal/services"
)

// PlanAPI is the service surface the handlers call.
type PlanAPI interface {
	ListPayments(ctx context.Context, userID string) ([]core.Payment, error)
	GetPayment(ctx context.Context, userID, id string) (core.Payment, error)
	CreatePayment(ctx context.Context, userID string, p core.Payment) (core.Payment, error)
	UpdatePayment(ctx context.Context, userID, id string, p core.Payment) (core.Payment, error)
	DeletePayment(ctx context.Context, userID, id string) error
	TogglePaid(ctx context.Context, userID, id string, index int) (core.Payment, error)
	Schedule(ctx context.Context, userID, id string) ([]core.Installment, error)
	Summary(ctx context.Context, userID string) (core.Summary, error)

	ListCards(ctx context.Context, userID string) ([]core.CreditCard, error)
	CreateCard(ctx context.Context, userID string, c core.CreditCard) (core.CreditCard, error)
	DeleteCard(ctx context.Context, userID, id string) error
	Utilization(ctx context.Context, userID, cardID string) (core.Utilization, error)

	GetSettings(ctx context.Context, userID string) (core.Settings, error)
	SaveSettings(ctx context.Context, userID string, s core.Settings) (core.Settings, error)

	Dashboard(ctx context.Context, userID string) (services.Dashboard, error)
}

var _ PlanAPI = (*services.PlanService)(nil)

type Server struct {
	http.Server
	plans   PlanAPI
	ready   func(context.Context) error
	logger  *log.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	clients *security.ClientResolver

	rateConfig     ratelimit.Config
	trustedProxies []string
	shutdownOnce   sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReadiness sets the check behind /readyz, typically a storage ping.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.rateConfig = cfg }
}

// WithTrustedProxies adds networks whose forwarding headers are believed.
func WithTrustedProxies(cidrs ...string) Option {
	return func(s *Server) { s.trustedProxies = append(s.trustedProxies, cidrs...) }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, plans PlanAPI, opts ...Option) *Server {
	s := &Server{
		plans:      plans,
		logger:     log.Discard(),
		clients:    security.NewClientResolver(),
		rateConfig: ratelimit.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	for _, cidr := range s.trustedProxies {
		if err := s.clients.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.limiter = ratelimit.NewLimiter(s.rateConfig)
	s.tracer = trace.NewMiddleware(s.logger, s.clients.ClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/payments", s.withUser(s.handleListPayments))
	mux.HandleFunc("POST /api/payments", s.withUser(s.handleCreatePayment))
	mux.HandleFunc("GET /api/payments/{id}", s.withUser(s.handleGetPayment))
	mux.HandleFunc("PUT /api/payments/{id}", s.withUser(s.handleUpdatePayment))
	mux.HandleFunc("DELETE /api/payments/{id}", s.withUser(s.handleDeletePayment))
	mux.HandleFunc("GET /api/payments/{id}/schedule", s.withUser(s.handleSchedule))
	mux.HandleFunc("POST /api/payments/{id}/installments/{index}/toggle", s.withUser(s.handleTogglePaid))

	mux.HandleFunc("GET /api/cards", s.withUser(s.handleListCards))
	mux.HandleFunc("POST /api/cards", s.withUser(s.handleCreateCard))
	mux.HandleFunc("DELETE /api/cards/{id}", s.withUser(s.handleDeleteCard))
	mux.HandleFunc("GET /api/cards/{id}/utilization", s.withUser(s.handleUtilization))

	mux.HandleFunc("GET /api/summary", s.withUser(s.handleSummary))
	mux.HandleFunc("GET /api/dashboard", s.withUser(s.handleDashboard))
	mux.HandleFunc("GET /api/settings", s.withUser(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.withUser(s.handleSaveSettings))

	mux.HandleFunc("GET /api/currencies", handleListCurrencies)
	mux.HandleFunc("GET /api/currencies/{code}/format", s.handleFormatAmount)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.clients.ClientIP, s.onRateLimit)(handler)
	handler = s.flagSuspicious(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request, rate limit and probe counters.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics, int64) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics(), s.clients.SuspiciousCount()
}

// flagSuspicious logs requests that look like scans. They are still served.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.clients.Suspicious(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.clients.ClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clients.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
