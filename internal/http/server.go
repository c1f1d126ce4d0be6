// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"dinero/internal/log"
	"dinero/internal/services"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Transactions *services.TransactionService
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Savings      *services.SavingsService
	Recurring    *services.RecurringService
	Dashboard    *services.DashboardService
	Reports      *services.ReportService
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *log.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Put("/reorder", h.ReorderAccounts)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
			r.Get("/{id}/balance", h.GetAccountBalance)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Post("/defaults", h.SeedDefaultCategories)
			r.Get("/{id}", h.GetCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/savings", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Get("/deducted-total", h.GetDeductedTotal)
			r.Get("/{id}", h.GetGoal)
			r.Put("/{id}", h.UpdateGoal)
			r.Delete("/{id}", h.DeleteGoal)
			r.Get("/{id}/deposits", h.ListDeposits)
			r.Post("/{id}/deposits", h.CreateDeposit)
			r.Get("/{id}/accounts", h.ListGoalAccounts)
		})

		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", h.ListRecurring)
			r.Post("/", h.CreateRecurring)
			r.Post("/process", h.ProcessRecurring)
			r.Get("/{id}", h.GetRecurring)
			r.Put("/{id}", h.UpdateRecurring)
			r.Delete("/{id}", h.DeleteRecurring)
			r.Put("/{id}/active", h.SetRecurringActive)
		})

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/dashboard/monthly", h.GetMonthlySummary)
		r.Get("/reports/summary", h.GetReportSummary)
		r.Get("/reports/comparison", h.GetReportComparison)
	})

	return r
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	http.Server
}

func NewServer(addr string, h *Handler, logger *log.Logger) *Server {
	return &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
