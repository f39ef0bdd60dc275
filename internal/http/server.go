// Package http exposes the JSON API for bills, schedules, and the banking
// calendar.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bollette/internal/cache"
	"bollette/internal/core"
	"bollette/internal/middleware/ratelimit"
	"bollette/internal/middleware/security"
	"bollette/internal/middleware/trace"
	"bollette/internal/services"
)

type Server struct {
	http.Server
	service *services.BillService

	rateLimiter  *ratelimit.Limiter
	cacheManager *cache.Manager

	// Cached upcoming-payment summaries, keyed by window. Invalidated
	// wholesale on any bill write.
	upcomingCache *cache.LRUCache[core.UpcomingOverview]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.BillService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:       service,
		rateLimiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		cacheManager:  cache.NewManager(),
		upcomingCache: cache.NewLRUCache[core.UpcomingOverview](100, 5*time.Minute),
	}

	s.cacheManager.Register(s.upcomingCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("POST /api/bills", s.handleCreateBill)
	mux.HandleFunc("GET /api/bills/{id}", s.handleGetBill)
	mux.HandleFunc("PUT /api/bills/{id}", s.handleUpdateBill)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)
	mux.HandleFunc("GET /api/bills/{id}/occurrences", s.handleListOccurrences)

	mux.HandleFunc("POST /api/schedule/preview", s.handleSchedulePreview)
	mux.HandleFunc("GET /api/calendar/business-day", s.handleBusinessDay)
	mux.HandleFunc("GET /api/upcoming", s.handleUpcoming)

	traceMW := trace.NewMiddleware(clientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           traceMW.Middleware(headersMW.Middleware(s.withWriteRateLimit(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// withWriteRateLimit limits mutating requests per client; reads pass through.
func (s *Server) withWriteRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateUpcoming drops every cached window. Bill writes are rare enough
// that wholesale invalidation beats tracking which windows a bill touches.
func (s *Server) invalidateUpcoming() {
	s.upcomingCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
