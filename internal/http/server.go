// Package http exposes the round-up engine over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"roundup/internal/bank"
	"roundup/internal/cache"
	"roundup/internal/core"
	applog "roundup/internal/log"
	"roundup/internal/middleware/ratelimit"
	"roundup/internal/middleware/trace"
	"roundup/internal/services"
	"roundup/internal/storage"
)

type Server struct {
	http.Server

	status   *services.StatusService
	transfer *services.TransferService
	goals    bank.GoalsClient
	ledger   *storage.LedgerRepository

	logger  *applog.Logger
	tracer  *trace.Middleware
	limiter *ratelimit.Limiter

	// goalsCache keeps the savings-goal listing off the bank API for a few
	// seconds; a completed transfer invalidates it.
	goalsCache *cache.LRUCache[[]core.SavingsGoal]
	cacheMgr   *cache.Manager

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// ledger may be nil; the transfer history endpoint then reports the ledger
// as unavailable.
func NewServer(addr string, status *services.StatusService, transfer *services.TransferService, goals bank.GoalsClient, ledger *storage.LedgerRepository, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		status:     status,
		transfer:   transfer,
		goals:      goals,
		ledger:     ledger,
		logger:     logger.WithComponent(applog.ComponentHTTP),
		tracer:     trace.NewMiddleware(clientIP),
		limiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		goalsCache: cache.NewLRUCache[[]core.SavingsGoal](16, 30*time.Second),
		cacheMgr:   cache.NewManager(),
		started:    time.Now(),
	}
	s.cacheMgr.Register(s.goalsCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/roundup/status", s.handleStatus)
	mux.HandleFunc("/api/roundup/refresh", s.handleRefresh)
	mux.HandleFunc("/api/roundup/transfer", s.handleTransfer)
	mux.HandleFunc("/api/savings-goals", s.handleSavingsGoals)
	mux.HandleFunc("/api/transfers", s.handleTransfers)

	limited := s.limiter.Middleware(clientIP, nil)
	s.Server = http.Server{
		Addr:    addr,
		Handler: s.tracer.Middleware(limited(mux)),
	}
	return s
}

// Shutdown stops the background cleanup goroutines and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// clientIP resolves the caller address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
