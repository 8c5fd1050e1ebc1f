// Package httpapi wires the HTTP surface of the budgeting service.
// Handlers stay thin and delegate the business rules to the ledger,
// budget and recurring packages.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"bilancio/internal/budget"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/recurring"
	"bilancio/internal/storage"
)

// Server composes the routes, middleware and the summary cache.
type Server struct {
	ledger    *ledger.Service
	allocator *budget.Allocator
	scheduler *recurring.Scheduler
	store     storage.Gateway
	summaries cache.Cache[core.BudgetSummary]
	log       *slog.Logger
	rt        *chi.Mux
}

// New constructs the HTTP server with routes and middleware attached.
func New(svc *ledger.Service, allocator *budget.Allocator, scheduler *recurring.Scheduler, store storage.Gateway, summaries cache.Cache[core.BudgetSummary], logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		ledger:    svc,
		allocator: allocator,
		scheduler: scheduler,
		store:     store,
		summaries: summaries,
		log:       logger,
		rt:        r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

func (s *Server) routes() {
	// Wallets
	s.rt.Get("/v1/wallets", s.listWallets)
	s.rt.Post("/v1/wallets", s.postWallet)
	s.rt.Get("/v1/wallets/{id}", s.getWallet)
	s.rt.Patch("/v1/wallets/{id}", s.updateWallet)
	s.rt.Delete("/v1/wallets/{id}", s.deleteWallet)
	// Categories and budgets
	s.rt.Get("/v1/categories", s.listCategories)
	s.rt.Post("/v1/categories", s.postCategory)
	s.rt.Patch("/v1/categories/{id}", s.updateCategory)
	s.rt.Delete("/v1/categories/{id}", s.deleteCategory)
	s.rt.Put("/v1/categories/{id}/budget", s.putCategoryBudget)
	s.rt.Post("/v1/budgets/allocate", s.allocateBudgets)
	// Transactions
	s.rt.Get("/v1/transactions", s.listTransactions)
	s.rt.Post("/v1/transactions", s.postTransaction)
	s.rt.Get("/v1/transactions/{id}", s.getTransaction)
	s.rt.Put("/v1/transactions/{id}", s.putTransaction)
	s.rt.Delete("/v1/transactions/{id}", s.deleteTransaction)
	// Recurring rules
	s.rt.Get("/v1/rules", s.listRules)
	s.rt.Post("/v1/rules", s.postRule)
	s.rt.Delete("/v1/rules/{id}", s.deleteRule)
	s.rt.Post("/v1/rules/catchup", s.catchUpRules)
	// Summary
	s.rt.Get("/v1/summary", s.getSummary)
	// Operational endpoints (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}

// InvalidateSummaries drops every cached summary. Called on local mutations
// and on transaction events arriving from other sessions; an edit can move
// a transaction across months, so targeting a single period is not safe.
func (s *Server) InvalidateSummaries() {
	s.summaries.Purge()
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	type readyIf interface{ Ready(context.Context) error }
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	if rc, ok := any(s.store).(readyIf); ok {
		if err := rc.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
