/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a budgeting frontend

ROUTE GROUPS:
  /api/accounts/*          Accounts, balances, reconciliation
  /api/payees/*            Payees
  /api/envelope-groups/*   Envelope groups
  /api/envelopes/*         Envelopes and quick-budget suggestions
  /api/periods/*           Budget periods, summaries, per-envelope rows
  /api/budgets/*           Budget amounts and transfers
  /api/transactions/*      Transactions and splits
  /api/scenarios/*         Demo data loaders
  /                        Endpoint index

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
			r.Post("/{id}/reconcile", h.ReconcileAccount)
		})

		r.Route("/payees", func(r chi.Router) {
			r.Get("/", h.ListPayees)
			r.Post("/", h.CreatePayee)
			r.Get("/{id}", h.GetPayee)
			r.Put("/{id}", h.UpdatePayee)
			r.Delete("/{id}", h.DeletePayee)
		})

		r.Route("/envelope-groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
			r.Get("/{id}", h.GetGroup)
			r.Put("/{id}", h.UpdateGroup)
			r.Delete("/{id}", h.DeleteGroup)
		})

		r.Route("/envelopes", func(r chi.Router) {
			r.Get("/", h.ListEnvelopes)
			r.Post("/", h.CreateEnvelope)
			r.Get("/{id}", h.GetEnvelope)
			r.Put("/{id}", h.UpdateEnvelope)
			r.Delete("/{id}", h.DeleteEnvelope)
			r.Get("/{id}/suggestions", h.GetSuggestions)
		})

		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Get("/current", h.GetCurrentPeriod)
			r.Get("/{id}", h.GetPeriod)
			r.Post("/{id}/next", h.NextPeriod)
			r.Post("/{id}/previous", h.PreviousPeriod)
			r.Get("/{id}/summary", h.GetPeriodSummary)
			r.Get("/{id}/budgets", h.GetPeriodBudgets)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Put("/", h.SaveBudget)
			r.Post("/transfer", h.TransferBudget)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Post("/split", h.CreateSplit)
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Envelope Ledger</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Envelope Ledger API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/accounts">/api/accounts</a> - Accounts with balances</li>
<li><a href="/api/envelopes">/api/envelopes</a> - Envelopes</li>
<li><a href="/api/periods/current">/api/periods/current</a> - Current budget period</li>
<li><a href="/api/transactions">/api/transactions</a> - Transactions</li>
</ul>
</body>
</html>`))
	})

	return r
}
