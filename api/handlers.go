/*
handlers.go - HTTP API handlers for the envelope ledger

PURPOSE:
  Exposes the budget engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every rule to package budget.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                  List accounts (?hidden=true|false)
    POST   /api/accounts                  Create account + opening balance
    GET    /api/accounts/{id}             Account with balances
    PUT    /api/accounts/{id}             Update description/notes/hidden
    DELETE /api/accounts/{id}             Delete (must be hidden, unused)
    POST   /api/accounts/{id}/reconcile   Reconcile against a statement

  Payees, Envelope groups, Envelopes:
    GET/POST            /api/payees, /api/envelope-groups, /api/envelopes
    GET/PUT/DELETE      .../{id}
    GET    /api/envelopes/{id}/suggestions?period=   Quick-budget amounts

  Periods:
    GET    /api/periods                   List stored periods
    GET    /api/periods/current?date=     Period containing date (or today)
    GET    /api/periods/{id}              Single period
    POST   /api/periods/{id}/next         Following period (created if new)
    POST   /api/periods/{id}/previous     Preceding period (created if new)
    GET    /api/periods/{id}/summary      Income, budgeted, to-budget, overspend
    GET    /api/periods/{id}/budgets      Per-envelope carried/budgeted/activity

  Budgets:
    PUT    /api/budgets                   Set one envelope's budget
    POST   /api/budgets/transfer          Move budget between envelopes

  Transactions:
    GET    /api/transactions              Search (?account=&envelope=&from=&to=&hidden=)
    POST   /api/transactions              Create one
    POST   /api/transactions/split        Create a split entry
    GET/PUT/DELETE /api/transactions/{id}

ERROR HANDLING:
  Engine errors carry a status that maps onto HTTP:
  - 400: Validation errors, invalid input
  - 403: Reserved records
  - 404: Record not found
  - 409: Conflict (rule violation, mismatch)
  - 410: Record deleted
  - 500: Store failures (logged, details withheld)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/budget"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *budget.Engine
	// Currency is the ISO 4217 code used for display strings.
	Currency string
}

// NewHandler creates a new handler over engine.
func NewHandler(engine *budget.Engine, currency string) *Handler {
	return &Handler{Engine: engine, Currency: currency}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns accounts with their balances.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hidden parameter (use true or false)", err)
		return
	}
	views, err := h.Engine.Accounts.Search(r.Context(), filter)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	dtos := make([]AccountDTO, len(views))
	for i, v := range views {
		dtos[i] = newAccountDTO(v, h.Currency)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount creates an account and its opening transaction.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var kind budget.AccountType
	switch req.Type {
	case "", "budget":
		kind = budget.AccountBudget
	case "reporting":
		kind = budget.AccountReporting
	default:
		writeError(w, http.StatusBadRequest, "Invalid type (use budget or reporting)", nil)
		return
	}
	opening, err := parseAmount(req.OpeningBalance, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid opening_balance", err)
		return
	}

	ctx := r.Context()
	id, err := h.Engine.Accounts.Create(ctx, budget.NewAccount{
		Description:    req.Description,
		Notes:          req.Notes,
		Type:           kind,
		OpeningBalance: opening,
		Hidden:         req.Hidden,
	})
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	view, err := h.Engine.Accounts.Read(ctx, id)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAccountDTO(view, h.Currency))
}

// GetAccount returns a single account with balances.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	view, err := h.Engine.Accounts.Read(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountDTO(view, h.Currency))
}

// UpdateAccount edits an account; the shadow payee and envelope follow.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	id := urlID(r)
	if _, err := h.Engine.Accounts.Update(ctx, id, budget.AccountUpdate{
		Description: req.Description,
		Notes:       req.Notes,
		Hidden:      req.Hidden,
	}); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	view, err := h.Engine.Accounts.Read(ctx, id)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountDTO(view, h.Currency))
}

// DeleteAccount deletes a hidden, unreferenced account.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Accounts.Delete(r.Context(), urlID(r)); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReconcileAccount checks a statement total and marks the matching
// transactions reconciled.
func (h *Handler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	asOf, err := ledger.ParseDay(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}
	total, err := parseAmount(req.PostedTotal, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid posted_total", err)
		return
	}

	res, err := h.Engine.Accounts.Reconcile(r.Context(), urlID(r), asOf, total)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileDTO{
		AccountID:   string(res.AccountID),
		AsOf:        ledger.FormatDay(res.AsOf),
		PostedTotal: newAmount(res.PostedTotal, h.Currency),
		Marked:      res.Marked,
	})
}

// =============================================================================
// PAYEE HANDLERS
// =============================================================================

func (h *Handler) ListPayees(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hidden parameter (use true or false)", err)
		return
	}
	views, err := h.Engine.Payees.Search(r.Context(), filter)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	dtos := make([]PayeeDTO, len(views))
	for i, v := range views {
		dtos[i] = newPayeeDTO(v.Payee, v.IsAccount)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePayee(w http.ResponseWriter, r *http.Request) {
	var req DescribedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	payee, err := h.Engine.Payees.Create(r.Context(), budget.PayeeInput{
		Description: req.Description,
		Notes:       req.Notes,
		Hidden:      req.Hidden,
	})
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPayeeDTO(payee, false))
}

func (h *Handler) GetPayee(w http.ResponseWriter, r *http.Request) {
	view, err := h.Engine.Payees.Read(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPayeeDTO(view.Payee, view.IsAccount))
}

func (h *Handler) UpdatePayee(w http.ResponseWriter, r *http.Request) {
	var req DescribedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	payee, err := h.Engine.Payees.Update(r.Context(), urlID(r), budget.PayeeInput{
		Description: req.Description,
		Notes:       req.Notes,
		Hidden:      req.Hidden,
	})
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPayeeDTO(payee, false))
}

func (h *Handler) DeletePayee(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Payees.Delete(r.Context(), urlID(r)); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ENVELOPE HANDLERS
// =============================================================================

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hidden parameter (use true or false)", err)
		return
	}
	groups, err := h.Engine.Envelopes.SearchGroups(r.Context(), filter)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	dtos := make([]GroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = newGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req DescribedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	group, err := h.Engine.Envelopes.CreateGroup(r.Context(), budget.GroupInput{
		Description: req.Description,
		Notes:       req.Notes,
		Hidden:      req.Hidden,
	})
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGroupDTO(group))
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.Engine.Envelopes.ReadGroup(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupDTO(group))
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req DescribedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	group, err := h.Engine.Envelopes.UpdateGroup(r.Context(), urlID(r), budget.GroupInput{
		Description: req.Description,
		Notes:       req.Notes,
		Hidden:      req.Hidden,
	})
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupDTO(group))
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Envelopes.DeleteGroup(r.Context(), urlID(r)); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEnvelopes returns envelopes, optionally narrowed to ?group=.
func (h *Handler) ListEnvelopes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hidden parameter (use true or false)", err)
		return
	}
	envelopes, err := h.Engine.Envelopes.Search(r.Context(), budget.EnvelopeFilter{
		Filter:  filter,
		GroupID: ledger.ID(r.URL.Query().Get("group")),
	})
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	dtos := make([]EnvelopeDTO, len(envelopes))
	for i, e := range envelopes {
		dtos[i] = newEnvelopeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req EnvelopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	envelope, err := h.Engine.Envelopes.Create(r.Context(), envelopeInput(req))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEnvelopeDTO(envelope))
}

func (h *Handler) GetEnvelope(w http.ResponseWriter, r *http.Request) {
	envelope, err := h.Engine.Envelopes.Read(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEnvelopeDTO(envelope))
}

func (h *Handler) UpdateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req EnvelopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	envelope, err := h.Engine.Envelopes.Update(r.Context(), urlID(r), envelopeInput(req))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEnvelopeDTO(envelope))
}

func (h *Handler) DeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Envelopes.Delete(r.Context(), urlID(r)); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSuggestions returns quick-budget amounts for an envelope in ?period=.
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	periodID := ledger.ID(r.URL.Query().Get("period"))
	suggestions, err := h.Engine.Budgets.Suggest(r.Context(), urlID(r), periodID)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	dtos := make([]SuggestionDTO, len(suggestions))
	for i, s := range suggestions {
		dtos[i] = SuggestionDTO{Kind: string(s.Kind), Amount: newAmount(s.Amount, h.Currency)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func envelopeInput(req EnvelopeRequest) budget.EnvelopeInput {
	return budget.EnvelopeInput{
		Description:     req.Description,
		Notes:           req.Notes,
		GroupID:         ledger.ID(req.GroupID),
		IgnoreOverspend: req.IgnoreOverspend,
		Hidden:          req.Hidden,
	}
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Engine.Periods.List(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = newPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentPeriod returns the period containing ?date=, defaulting to
// today. The calendar month is created when no period covers the date.
func (h *Handler) GetCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := ledger.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = parsed
	}
	period, err := h.Engine.Periods.Current(r.Context(), date)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPeriodDTO(period))
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Engine.Periods.Read(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPeriodDTO(period))
}

func (h *Handler) NextPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Engine.Periods.Next(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPeriodDTO(period))
}

func (h *Handler) PreviousPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Engine.Periods.Previous(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPeriodDTO(period))
}

// GetPeriodSummary returns the derived totals of a period.
func (h *Handler) GetPeriodSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Engine.Budgets.Summary(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryDTO{
		Period:    newPeriodDTO(sum.Period),
		Income:    newAmount(sum.Income, h.Currency),
		Budgeted:  newAmount(sum.Budgeted, h.Currency),
		ToBudget:  newAmount(sum.ToBudget, h.Currency),
		Overspend: newAmount(sum.Overspend, h.Currency),
	})
}

// GetPeriodBudgets returns one row per envelope for a period.
func (h *Handler) GetPeriodBudgets(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Engine.Budgets.Period(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	dtos := make([]EnvelopeBudgetDTO, len(rows))
	for i, row := range rows {
		dtos[i] = EnvelopeBudgetDTO{
			EnvelopeID:  string(row.Envelope.ID),
			Description: row.Envelope.Description,
			GroupID:     string(row.Envelope.EnvelopeGroupID),
			Carried:     newAmount(row.Carried, h.Currency),
			Budgeted:    newAmount(row.Budgeted, h.Currency),
			Activity:    newAmount(row.Activity, h.Currency),
			Balance:     newAmount(row.Balance, h.Currency),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// BUDGET HANDLERS
// =============================================================================

// SaveBudget sets an envelope's budget for a period.
func (h *Handler) SaveBudget(w http.ResponseWriter, r *http.Request) {
	var req SaveBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amt, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	b, err := h.Engine.Budgets.Save(r.Context(), ledger.ID(req.EnvelopeID), ledger.ID(req.PeriodID), amt)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BudgetDTO{
		ID:         string(b.ID),
		EnvelopeID: string(b.EnvelopeID),
		PeriodID:   string(b.BudgetPeriodID),
		Amount:     newAmount(b.Amount, h.Currency),
	})
}

// TransferBudget moves a positive amount between two envelopes.
func (h *Handler) TransferBudget(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amt, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	if err := h.Engine.Budgets.Transfer(r.Context(), ledger.ID(req.PeriodID), ledger.ID(req.From), ledger.ID(req.To), amt); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions searches transactions ordered by service date.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hidden parameter (use true or false)", err)
		return
	}
	q := r.URL.Query()
	tf := budget.TransactionFilter{
		Filter:     filter,
		AccountID:  ledger.ID(q.Get("account")),
		EnvelopeID: ledger.ID(q.Get("envelope")),
	}
	if raw := q.Get("from"); raw != "" {
		if tf.From, err = ledger.ParseDay(raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from format (use YYYY-MM-DD)", err)
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if tf.To, err = ledger.ParseDay(raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to format (use YYYY-MM-DD)", err)
			return
		}
	}

	txs, err := h.Engine.Transactions.Search(r.Context(), tf)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.transactionDTOs(txs))
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, msg, err := transactionInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, msg, err)
		return
	}

	tx, err := h.Engine.Transactions.Create(r.Context(), in)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionDTO(tx, h.Currency))
}

// CreateSplit records several entries that share one split ID.
func (h *Handler) CreateSplit(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	entries := make([]budget.TransactionInput, len(req.Entries))
	for i, e := range req.Entries {
		in, msg, err := transactionInput(e)
		if err != nil {
			writeError(w, http.StatusBadRequest, "entries["+strconv.Itoa(i)+"]: "+msg, err)
			return
		}
		entries[i] = in
	}

	txs, err := h.Engine.Transactions.CreateSplit(r.Context(), entries)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.transactionDTOs(txs))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Engine.Transactions.Read(r.Context(), urlID(r))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionDTO(tx, h.Currency))
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, msg, err := transactionInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, msg, err)
		return
	}

	tx, err := h.Engine.Transactions.Update(r.Context(), urlID(r), in)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionDTO(tx, h.Currency))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Transactions.Delete(r.Context(), urlID(r)); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = newTransactionDTO(tx, h.Currency)
	}
	return dtos
}

// transactionInput converts a request body. On failure it also returns the
// client-facing message.
func transactionInput(req TransactionRequest) (budget.TransactionInput, string, error) {
	amt, err := parseAmount(req.Amount, false)
	if err != nil {
		return budget.TransactionInput{}, "Invalid amount", err
	}
	date, err := ledger.ParseDay(req.ServiceDate)
	if err != nil {
		return budget.TransactionInput{}, "Invalid service_date format (use YYYY-MM-DD)", err
	}
	return budget.TransactionInput{
		Amount:      amt,
		AccountID:   ledger.ID(req.AccountID),
		PayeeID:     ledger.ID(req.PayeeID),
		EnvelopeID:  ledger.ID(req.EnvelopeID),
		ServiceDate: date,
		Posted:      req.Posted,
		Reconciled:  req.Reconciled,
		Notes:       req.Notes,
		Hidden:      req.Hidden,
	}, "", nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeLedgerError maps an engine error onto its HTTP status. Store
// failures are logged and their cause withheld from the client.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	status := ledger.StatusOf(err)
	code := httpStatus(status)
	resp := ErrorResponse{Error: ledger.MessageOf(err), Code: status.String()}
	if code == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		resp.Error = "Internal error"
	}
	writeJSON(w, code, resp)
}

func httpStatus(s ledger.Status) int {
	switch s {
	case ledger.StatusSuccess:
		return http.StatusOK
	case ledger.StatusBadRequest:
		return http.StatusBadRequest
	case ledger.StatusNotFound:
		return http.StatusNotFound
	case ledger.StatusGone:
		return http.StatusGone
	case ledger.StatusForbidden:
		return http.StatusForbidden
	case ledger.StatusConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func urlID(r *http.Request) ledger.ID {
	return ledger.ID(chi.URLParam(r, "id"))
}

// parseFilter reads ?hidden=. Absent means both active and hidden rows.
func parseFilter(r *http.Request) (ledger.Filter, error) {
	raw := r.URL.Query().Get("hidden")
	if raw == "" {
		return ledger.Filter{}, nil
	}
	hidden, err := strconv.ParseBool(raw)
	if err != nil {
		return ledger.Filter{}, err
	}
	return ledger.Filter{Hidden: ledger.Bool(hidden)}, nil
}

// parseAmount parses a decimal string. Empty is zero only when allowEmpty.
func parseAmount(s string, allowEmpty bool) (decimal.Decimal, error) {
	if s == "" && allowEmpty {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
