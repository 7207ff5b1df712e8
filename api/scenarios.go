/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the ledger with realistic
	data for demos. Each scenario goes through the budget engine, so every
	record obeys the same rules as API writes.

AVAILABLE SCENARIOS:

	first-account: One checking account, nothing budgeted yet
	household:     Checking, a credit card, savings, bills and everyday
	               envelopes budgeted for the current month, some spending

HOW SCENARIOS WORK:
 1. Resolve the current period (created if missing)
 2. Create accounts with opening balances
 3. Create payees, envelope groups and envelopes
 4. Save budgets and record transactions dated inside the period

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "household"}

NOTE:

	Records are never physically deleted, so loading adds to whatever the
	ledger already holds. Load into a fresh database.

SEE ALSO:
  - handlers.go: Response helpers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/budget"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, e *budget.Engine) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "first-account",
			Name:        "First Account",
			Description: "One checking account with an opening balance and nothing budgeted",
		},
		load: loadFirstAccountScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "household",
			Name:        "Household",
			Description: "Checking, credit card and savings with bills and everyday envelopes",
		},
		load: loadHouseholdScenario,
	},
}

// ListScenarios returns all available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario populates the ledger with a demo scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	for _, s := range scenarios {
		if s.ID != req.ScenarioID {
			continue
		}
		if err := s.load(r.Context(), h.Engine); err != nil {
			h.writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
		return
	}
	writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadFirstAccountScenario(ctx context.Context, e *budget.Engine) error {
	if _, err := e.Periods.Current(ctx, time.Time{}); err != nil {
		return err
	}
	_, err := e.Accounts.Create(ctx, budget.NewAccount{
		Description:    "Checking",
		OpeningBalance: decimal.RequireFromString("1500"),
	})
	return err
}

func loadHouseholdScenario(ctx context.Context, e *budget.Engine) error {
	period, err := e.Periods.Current(ctx, time.Time{})
	if err != nil {
		return err
	}
	b := &scenarioBuilder{ctx: ctx, e: e, period: period}

	checking := b.account("Checking", budget.AccountBudget, "4200")
	visa := b.account("Visa", budget.AccountBudget, "-320.15")
	b.account("Savings", budget.AccountReporting, "10000")

	landlord := b.payee("Landlord")
	grocer := b.payee("Corner Grocer")
	power := b.payee("City Power")
	bistro := b.payee("Bistro")

	bills := b.group("Bills")
	everyday := b.group("Everyday")
	rent := b.envelope(bills, "Rent", false)
	utilities := b.envelope(bills, "Utilities", false)
	groceries := b.envelope(everyday, "Groceries", false)
	dining := b.envelope(everyday, "Dining Out", true)

	b.budget(rent, "1600")
	b.budget(utilities, "180")
	b.budget(groceries, "450")
	b.budget(dining, "80")
	b.budget(visa, "320.15")

	b.spend(checking, landlord, rent, "-1600", 0, true)
	b.spend(checking, power, utilities, "-142.37", 2, true)
	b.spend(visa, grocer, groceries, "-96.40", 3, true)
	b.spend(checking, grocer, groceries, "-51.25", 6, false)
	b.spend(visa, bistro, dining, "-104.80", 7, true)
	// card payment from checking
	b.spend(checking, visa, ledger.IgnoredEnvelopeID, "-200", 9, true)

	return b.err
}

// scenarioBuilder stops at the first error; later calls become no-ops.
type scenarioBuilder struct {
	ctx    context.Context
	e      *budget.Engine
	period ledger.BudgetPeriod
	err    error
}

func (b *scenarioBuilder) account(desc string, kind budget.AccountType, opening string) ledger.ID {
	if b.err != nil {
		return ""
	}
	id, err := b.e.Accounts.Create(b.ctx, budget.NewAccount{
		Description:    desc,
		Type:           kind,
		OpeningBalance: decimal.RequireFromString(opening),
	})
	b.fail(err, "account "+desc)
	return id
}

func (b *scenarioBuilder) payee(desc string) ledger.ID {
	if b.err != nil {
		return ""
	}
	p, err := b.e.Payees.Create(b.ctx, budget.PayeeInput{Description: desc})
	b.fail(err, "payee "+desc)
	return p.ID
}

func (b *scenarioBuilder) group(desc string) ledger.ID {
	if b.err != nil {
		return ""
	}
	g, err := b.e.Envelopes.CreateGroup(b.ctx, budget.GroupInput{Description: desc})
	b.fail(err, "group "+desc)
	return g.ID
}

func (b *scenarioBuilder) envelope(group ledger.ID, desc string, ignoreOverspend bool) ledger.ID {
	if b.err != nil {
		return ""
	}
	env, err := b.e.Envelopes.Create(b.ctx, budget.EnvelopeInput{
		Description:     desc,
		GroupID:         group,
		IgnoreOverspend: ignoreOverspend,
	})
	b.fail(err, "envelope "+desc)
	return env.ID
}

func (b *scenarioBuilder) budget(envelope ledger.ID, amount string) {
	if b.err != nil {
		return
	}
	_, err := b.e.Budgets.Save(b.ctx, envelope, b.period.ID, decimal.RequireFromString(amount))
	b.fail(err, "budget")
}

// spend records a transaction offsetDays into the period, clamped to its end.
func (b *scenarioBuilder) spend(account, payee, envelope ledger.ID, amount string, offsetDays int, posted bool) {
	if b.err != nil {
		return
	}
	date := b.period.BeginDate.AddDate(0, 0, offsetDays)
	if date.After(b.period.EndDate) {
		date = b.period.EndDate
	}
	_, err := b.e.Transactions.Create(b.ctx, budget.TransactionInput{
		Amount:      decimal.RequireFromString(amount),
		AccountID:   account,
		PayeeID:     payee,
		EnvelopeID:  envelope,
		ServiceDate: date,
		Posted:      posted,
	})
	b.fail(err, "transaction")
}

// fail keeps the engine status of err so the handler maps it as usual.
func (b *scenarioBuilder) fail(err error, what string) {
	if err != nil {
		b.err = fmt.Errorf("scenario %s: %w", what, err)
	}
}
