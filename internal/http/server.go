// Package http serves the JSON API over the services layer.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "kannadi/internal/log"
	"kannadi/internal/metrics"
	"kannadi/internal/middleware/ratelimit"
	"kannadi/internal/middleware/security"
	"kannadi/internal/middleware/trace"
	"kannadi/internal/services"
)

// Services are the use cases the API exposes.
type Services struct {
	Transactions *services.TransactionService
	Reports      *services.ReportService
	Recurring    *services.RecurringProcessor
	State        *services.StateService
}

type Options struct {
	Addr string
	// WriteRateLimit is the number of writes per client per minute.
	WriteRateLimit int
	// Ready checks backing stores for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// Now picks the reference month when a request names none.
	Now func() time.Time
}

type Server struct {
	http.Server
	svc     Services
	ready   func(ctx context.Context) error
	now     func() time.Time
	limiter *ratelimit.Limiter
	logger  *applog.Logger
	started time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. Call Shutdown to stop the rate
// limiter along with the listener.
func NewServer(opts Options, svc Services, logger *applog.Logger) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		svc:     svc,
		ready:   opts.Ready,
		now:     opts.Now,
		logger:  logger,
		started: time.Now(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.WriteRateLimit,
			OnReject:          metrics.RateLimitedTotal.Inc,
		}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	s.route(mux, "GET /api/expenses", s.handleListExpenses)
	s.route(mux, "POST /api/expenses", s.handleCreateExpense)
	s.route(mux, "DELETE /api/expenses/{id}", s.handleDeleteExpense)
	s.route(mux, "GET /api/incomes", s.handleListIncomes)
	s.route(mux, "POST /api/incomes", s.handleCreateIncome)
	s.route(mux, "DELETE /api/incomes/{id}", s.handleDeleteIncome)
	s.route(mux, "GET /api/categories", s.handleListCategories)
	s.route(mux, "POST /api/categories", s.handleCreateCategory)
	s.route(mux, "GET /api/currencies", s.handleCurrencies)

	s.route(mux, "GET /api/summary", s.handleSummary)
	s.route(mux, "GET /api/trends", s.handleTrends)
	s.route(mux, "GET /api/rolling", s.handleRolling)
	s.route(mux, "GET /api/breakdown", s.handleBreakdown)
	s.route(mux, "GET /api/projection", s.handleProjection)
	s.route(mux, "GET /api/coverage", s.handleCoverage)
	s.route(mux, "GET /api/goal", s.handleGoal)
	s.route(mux, "GET /api/journey", s.handleJourney)
	s.route(mux, "GET /api/insights", s.handleInsights)

	s.route(mux, "GET /api/recurring", s.handleListRecurring)
	s.route(mux, "POST /api/recurring", s.handleSaveRecurring)
	s.route(mux, "DELETE /api/recurring/{id}", s.handleDeleteRecurring)
	s.route(mux, "GET /api/recurring/summary", s.handleRecurringSummary)
	s.route(mux, "GET /api/recurring/pending", s.handleRecurringPending)
	s.route(mux, "POST /api/recurring/apply", s.handleRecurringApply)

	s.route(mux, "GET /api/state", s.handleExportState)
	s.route(mux, "PUT /api/state", s.handleImportState)
	s.route(mux, "DELETE /api/state", s.handleClearState)
	s.route(mux, "GET /api/settings", s.handleSettings)
	s.route(mux, "PUT /api/settings", s.handleOnboard)

	detector := security.NewDetector(metrics.SuspiciousRequestsTotal.Inc)
	tracer := trace.NewMiddleware(detector.ExtractClientIP, logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})

	var h http.Handler = mux
	h = limit(h)
	h = detector.Middleware(h)
	h = headers.Middleware(h)
	h = tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// route registers h and records its latency under the pattern.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.ObserveHTTP(pattern, r.Method, rec.status, time.Since(start))
	}))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the listener and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Payload(map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Payload(map[string]string{"status": "ready"}).Write(w)
}
