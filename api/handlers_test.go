/*
handlers_test.go - Tests for API handlers

Tests for:
- Account creation, display formatting, and status mapping
- Budgeting flow over HTTP (period, save, summary, transfer, suggestions)
- Transaction lifecycle (create, hide, delete, gone)
- Request validation and internal error handling
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/api"
	"github.com/warp/envelope-ledger/budget"
	"github.com/warp/envelope-ledger/ledger"
	"github.com/warp/envelope-ledger/ledger/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var clock = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, s ledger.Store) http.Handler {
	t.Helper()
	if s == nil {
		s = store.NewMemory()
	}
	engine := budget.New(s, budget.WithClock(func() time.Time { return clock }))
	require.NoError(t, engine.Bootstrap(context.Background()))
	return api.NewRouter(api.NewHandler(engine, "USD"), []string{"http://localhost:5173"})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decode[api.ErrorResponse](t, rec)
	assert.NotEmpty(t, resp.Error)
	if code != "" {
		assert.Equal(t, code, resp.Code)
	}
}

func createAccount(t *testing.T, h http.Handler, desc, opening string) api.AccountDTO {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/accounts", api.CreateAccountRequest{Description: desc, OpeningBalance: opening})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.AccountDTO](t, rec)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestCreateAccount_ReturnsBalances(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: Creating a budget account with an opening balance
	// THEN: The response carries the balance and its display form

	h := newTestRouter(t, nil)
	acct := createAccount(t, h, "Checking", "1000")

	assert.True(t, acct.OnBudget)
	assert.Equal(t, "active", acct.State)
	assert.Equal(t, "1000", acct.Balance.Value)
	assert.Equal(t, "$1,000.00", acct.Balance.Display)
	assert.Equal(t, "0", acct.Payment.Value)

	rec := do(t, h, http.MethodGet, "/api/accounts/"+acct.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, acct.ID, decode[api.AccountDTO](t, rec).ID)

	rec = do(t, h, http.MethodGet, "/api/payees/"+acct.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[api.PayeeDTO](t, rec).IsAccount, "shadow payee")
}

func TestCreateAccount_Validation(t *testing.T) {
	h := newTestRouter(t, nil)

	assertError(t, do(t, h, http.MethodPost, "/api/accounts", "{not json"), http.StatusBadRequest, "")
	assertError(t, do(t, h, http.MethodPost, "/api/accounts", api.CreateAccountRequest{Description: "X", Type: "savings"}), http.StatusBadRequest, "")
	assertError(t, do(t, h, http.MethodPost, "/api/accounts", api.CreateAccountRequest{Description: "X", OpeningBalance: "ten"}), http.StatusBadRequest, "")
	assertError(t, do(t, h, http.MethodPost, "/api/accounts", api.CreateAccountRequest{Description: "  "}), http.StatusBadRequest, "bad_request")
}

func TestListAccounts_HiddenFilter(t *testing.T) {
	h := newTestRouter(t, nil)
	createAccount(t, h, "Checking", "10")
	hidden := createAccount(t, h, "Old Card", "0")

	rec := do(t, h, http.MethodPut, "/api/accounts/"+hidden.ID, api.UpdateAccountRequest{Description: "Old Card", Hidden: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "hidden", decode[api.AccountDTO](t, rec).State)

	rec = do(t, h, http.MethodGet, "/api/accounts?hidden=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[[]api.AccountDTO](t, rec)
	require.Len(t, active, 1)
	assert.Equal(t, "Checking", active[0].Description)

	rec = do(t, h, http.MethodGet, "/api/accounts", nil)
	assert.Len(t, decode[[]api.AccountDTO](t, rec), 2)

	assertError(t, do(t, h, http.MethodGet, "/api/accounts?hidden=maybe", nil), http.StatusBadRequest, "")
}

func TestReconcileAccount(t *testing.T) {
	h := newTestRouter(t, nil)
	acct := createAccount(t, h, "Checking", "250")

	rec := do(t, h, http.MethodPost, "/api/accounts/"+acct.ID+"/reconcile", api.ReconcileRequest{AsOf: "2025-03-15", PostedTotal: "999"})
	assertError(t, rec, http.StatusConflict, "conflict")

	rec = do(t, h, http.MethodPost, "/api/accounts/"+acct.ID+"/reconcile", api.ReconcileRequest{AsOf: "2025-03-15", PostedTotal: "250"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.ReconcileDTO](t, rec)
	assert.Equal(t, "2025-03-15", res.AsOf)
	assert.Equal(t, "250", res.PostedTotal.Value)

	assertError(t, do(t, h, http.MethodPost, "/api/accounts/"+acct.ID+"/reconcile", api.ReconcileRequest{AsOf: "15/03/2025", PostedTotal: "250"}), http.StatusBadRequest, "")
}

// =============================================================================
// STATUS MAPPING
// =============================================================================

func TestStatusMapping(t *testing.T) {
	h := newTestRouter(t, nil)

	assertError(t, do(t, h, http.MethodGet, "/api/accounts/nope", nil), http.StatusNotFound, "not_found")
	assertError(t, do(t, h, http.MethodPut, "/api/envelopes/"+string(ledger.IncomeEnvelopeID), api.EnvelopeRequest{Description: "Salary"}), http.StatusForbidden, "forbidden")
	assertError(t, do(t, h, http.MethodDelete, "/api/envelope-groups/"+string(ledger.DebtGroupID), nil), http.StatusForbidden, "forbidden")
}

func TestTransactionLifecycle_OverHTTP(t *testing.T) {
	// GIVEN: An account with one spend
	// WHEN: Deleting it while active, then after hiding it
	// THEN: 409, then 204, and the row reads back as 410 Gone

	h := newTestRouter(t, nil)
	acct := createAccount(t, h, "Checking", "100")
	rec := do(t, h, http.MethodPost, "/api/payees", api.DescribedRequest{Description: "Grocer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	grocer := decode[api.PayeeDTO](t, rec)

	body := api.TransactionRequest{
		Amount: "-12.5", AccountID: acct.ID, PayeeID: grocer.ID,
		EnvelopeID: string(ledger.IgnoredEnvelopeID), ServiceDate: "2025-03-10", Posted: true,
	}
	rec = do(t, h, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode[api.TransactionDTO](t, rec)
	assert.Equal(t, "-$12.50", tx.Amount.Display)
	assert.Equal(t, "2025-03-10", tx.ServiceDate)

	assertError(t, do(t, h, http.MethodDelete, "/api/transactions/"+tx.ID, nil), http.StatusConflict, "conflict")

	body.Hidden = true
	rec = do(t, h, http.MethodPut, "/api/transactions/"+tx.ID, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assertError(t, do(t, h, http.MethodGet, "/api/transactions/"+tx.ID, nil), http.StatusGone, "gone")
}

func TestTransactions_RequestValidation(t *testing.T) {
	h := newTestRouter(t, nil)

	assertError(t, do(t, h, http.MethodGet, "/api/transactions?from=March", nil), http.StatusBadRequest, "")
	assertError(t, do(t, h, http.MethodPost, "/api/transactions", api.TransactionRequest{Amount: "1", ServiceDate: "yesterday"}), http.StatusBadRequest, "")
	assertError(t, do(t, h, http.MethodPost, "/api/transactions/split", api.SplitRequest{}), http.StatusBadRequest, "bad_request")
}

// =============================================================================
// BUDGETING FLOW
// =============================================================================

func TestBudgetFlow(t *testing.T) {
	// GIVEN: Checking with 1000 and a Rent envelope
	// WHEN: Budgeting 600 to Rent and moving 100 to Food in March
	// THEN: The summary and per-envelope rows reflect it

	h := newTestRouter(t, nil)
	createAccount(t, h, "Checking", "1000")

	rec := do(t, h, http.MethodPost, "/api/envelope-groups", api.DescribedRequest{Description: "Bills"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	group := decode[api.GroupDTO](t, rec)

	newEnvelope := func(desc string) api.EnvelopeDTO {
		rec := do(t, h, http.MethodPost, "/api/envelopes", api.EnvelopeRequest{Description: desc, GroupID: group.ID})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[api.EnvelopeDTO](t, rec)
	}
	rent := newEnvelope("Rent")
	food := newEnvelope("Food")

	rec = do(t, h, http.MethodGet, "/api/periods/current?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	march := decode[api.PeriodDTO](t, rec)
	assert.Equal(t, "2025-03-01", march.BeginDate)
	assert.Equal(t, "2025-03-31", march.EndDate)

	rec = do(t, h, http.MethodPut, "/api/budgets", api.SaveBudgetRequest{EnvelopeID: rent.ID, PeriodID: march.ID, Amount: "600"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "600", decode[api.BudgetDTO](t, rec).Amount.Value)

	rec = do(t, h, http.MethodPost, "/api/budgets/transfer", api.TransferRequest{PeriodID: march.ID, From: rent.ID, To: food.ID, Amount: "100"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/periods/"+march.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[api.SummaryDTO](t, rec)
	assert.Equal(t, "1000", sum.Income.Value)
	assert.Equal(t, "600", sum.Budgeted.Value)
	assert.Equal(t, "400", sum.ToBudget.Value)

	rec = do(t, h, http.MethodGet, "/api/periods/"+march.ID+"/budgets", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decode[[]api.EnvelopeBudgetDTO](t, rec)
	budgeted := map[string]string{}
	for _, row := range rows {
		budgeted[row.Description] = row.Budgeted.Value
	}
	assert.Equal(t, "500", budgeted["Rent"])
	assert.Equal(t, "100", budgeted["Food"])

	rec = do(t, h, http.MethodPost, "/api/periods/"+march.ID+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	april := decode[api.PeriodDTO](t, rec)
	assert.Equal(t, "2025-04-01", april.BeginDate)

	rec = do(t, h, http.MethodGet, "/api/envelopes/"+rent.ID+"/suggestions?period="+april.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	suggestions := decode[[]api.SuggestionDTO](t, rec)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "last_budgeted", suggestions[0].Kind)
	assert.Equal(t, "500", suggestions[0].Amount.Value)
}

func TestTransferBudget_Validation(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodGet, "/api/periods/current", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	march := decode[api.PeriodDTO](t, rec)
	assert.Equal(t, "2025-03-01", march.BeginDate, "defaults to today")

	assertError(t, do(t, h, http.MethodPost, "/api/budgets/transfer", api.TransferRequest{PeriodID: march.ID, From: "a", To: "b", Amount: "lots"}), http.StatusBadRequest, "")
	assertError(t, do(t, h, http.MethodPost, "/api/budgets/transfer", api.TransferRequest{PeriodID: march.ID, From: "a", To: "a", Amount: "5"}), http.StatusBadRequest, "bad_request")
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

// brokenStore fails transaction reads once armed.
type brokenStore struct {
	ledger.Store
	armed bool
}

func (b *brokenStore) Transactions() ledger.Table[ledger.Transaction] {
	return &brokenTable{Table: b.Store.Transactions(), armed: b.armed}
}

type brokenTable struct {
	ledger.Table[ledger.Transaction]
	armed bool
}

func (b *brokenTable) Read(ctx context.Context, ids []ledger.ID) ([]ledger.Transaction, error) {
	if b.armed {
		return nil, errors.New("disk I/O error")
	}
	return b.Table.Read(ctx, ids)
}

func TestInternalError_WithholdsCause(t *testing.T) {
	s := &brokenStore{Store: store.NewMemory()}
	h := newTestRouter(t, s)
	acct := createAccount(t, h, "Checking", "10")

	s.armed = true
	rec := do(t, h, http.MethodGet, "/api/accounts/"+acct.ID, nil)
	assertError(t, rec, http.StatusInternalServerError, "internal_error")
	assert.NotContains(t, rec.Body.String(), "disk")
}
