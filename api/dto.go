/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  ledger model so field names and formats can evolve independently.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Amounts travel as decimal strings ("-12.50"), never floats. Responses
  pair the exact value with a display string in the configured currency:

    {"value": "-12.5", "display": "-$12.50"}

DATES:
  Service dates and period bounds are "YYYY-MM-DD". Audit stamps are RFC 3339.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/budget"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// SHARED
// =============================================================================

// AmountDTO is an exact amount plus its formatted form.
type AmountDTO struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

// newAmount formats d in currency. Unknown currencies fall back to the
// plain decimal string.
func newAmount(d decimal.Decimal, currency string) AmountDTO {
	dto := AmountDTO{Value: d.String(), Display: d.StringFixed(2)}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return dto
	}
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	dto.Display = money.New(d.Mul(factor).Round(0).IntPart(), currency).Display()
	return dto
}

// LifecycleDTO carries audit stamps and the derived state.
type LifecycleDTO struct {
	State      string     `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`
	HiddenAt   *time.Time `json:"hidden_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

func newLifecycle(l ledger.Lifecycle) LifecycleDTO {
	return LifecycleDTO{
		State:      l.State().String(),
		CreatedAt:  l.CreatedAt,
		ModifiedAt: l.ModifiedAt,
		HiddenAt:   l.HiddenAt,
		DeletedAt:  l.DeletedAt,
	}
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// ACCOUNTS
// =============================================================================

type AccountDTO struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Notes       string    `json:"notes,omitempty"`
	OnBudget    bool      `json:"on_budget"`
	Pending     AmountDTO `json:"pending"`
	Posted      AmountDTO `json:"posted"`
	Balance     AmountDTO `json:"balance"`
	Payment     AmountDTO `json:"payment"`
	LifecycleDTO
}

func newAccountDTO(v budget.AccountView, currency string) AccountDTO {
	return AccountDTO{
		ID:           string(v.ID),
		Description:  v.Description,
		Notes:        v.Notes,
		OnBudget:     v.OnBudget,
		Pending:      newAmount(v.Pending, currency),
		Posted:       newAmount(v.Posted, currency),
		Balance:      newAmount(v.Balance, currency),
		Payment:      newAmount(v.Payment, currency),
		LifecycleDTO: newLifecycle(v.Lifecycle),
	}
}

// CreateAccountRequest creates an account. Type is "budget" (default) or
// "reporting".
type CreateAccountRequest struct {
	Description    string `json:"description"`
	Notes          string `json:"notes"`
	Type           string `json:"type"`
	OpeningBalance string `json:"opening_balance"`
	Hidden         bool   `json:"hidden"`
}

type UpdateAccountRequest struct {
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Hidden      bool   `json:"hidden"`
}

type ReconcileRequest struct {
	AsOf        string `json:"as_of"`
	PostedTotal string `json:"posted_total"`
}

type ReconcileDTO struct {
	AccountID   string    `json:"account_id"`
	AsOf        string    `json:"as_of"`
	PostedTotal AmountDTO `json:"posted_total"`
	Marked      int       `json:"marked"`
}

// =============================================================================
// PAYEES, GROUPS, ENVELOPES
// =============================================================================

type PayeeDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
	IsAccount   bool   `json:"is_account"`
	LifecycleDTO
}

func newPayeeDTO(p ledger.Payee, isAccount bool) PayeeDTO {
	return PayeeDTO{
		ID:           string(p.ID),
		Description:  p.Description,
		Notes:        p.Notes,
		IsAccount:    isAccount,
		LifecycleDTO: newLifecycle(p.Lifecycle),
	}
}

// DescribedRequest is the body shared by payee and group writes.
type DescribedRequest struct {
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Hidden      bool   `json:"hidden"`
}

type GroupDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
	Reserved    bool   `json:"reserved"`
	LifecycleDTO
}

func newGroupDTO(g ledger.EnvelopeGroup) GroupDTO {
	return GroupDTO{
		ID:           string(g.ID),
		Description:  g.Description,
		Notes:        g.Notes,
		Reserved:     ledger.IsReservedGroup(g.ID),
		LifecycleDTO: newLifecycle(g.Lifecycle),
	}
}

type EnvelopeDTO struct {
	ID              string `json:"id"`
	Description     string `json:"description"`
	Notes           string `json:"notes,omitempty"`
	GroupID         string `json:"group_id"`
	IgnoreOverspend bool   `json:"ignore_overspend"`
	Reserved        bool   `json:"reserved"`
	LifecycleDTO
}

func newEnvelopeDTO(e ledger.Envelope) EnvelopeDTO {
	return EnvelopeDTO{
		ID:              string(e.ID),
		Description:     e.Description,
		Notes:           e.Notes,
		GroupID:         string(e.EnvelopeGroupID),
		IgnoreOverspend: e.IgnoreOverspend,
		Reserved:        ledger.IsReservedEnvelope(e.ID),
		LifecycleDTO:    newLifecycle(e.Lifecycle),
	}
}

type EnvelopeRequest struct {
	Description     string `json:"description"`
	Notes           string `json:"notes"`
	GroupID         string `json:"group_id"`
	IgnoreOverspend bool   `json:"ignore_overspend"`
	Hidden          bool   `json:"hidden"`
}

// =============================================================================
// PERIODS & BUDGETS
// =============================================================================

type PeriodDTO struct {
	ID        string `json:"id"`
	BeginDate string `json:"begin_date"`
	EndDate   string `json:"end_date"`
}

func newPeriodDTO(p ledger.BudgetPeriod) PeriodDTO {
	return PeriodDTO{ID: string(p.ID), BeginDate: ledger.FormatDay(p.BeginDate), EndDate: ledger.FormatDay(p.EndDate)}
}

type SummaryDTO struct {
	Period    PeriodDTO `json:"period"`
	Income    AmountDTO `json:"income"`
	Budgeted  AmountDTO `json:"budgeted"`
	ToBudget  AmountDTO `json:"to_budget"`
	Overspend AmountDTO `json:"overspend"`
}

type EnvelopeBudgetDTO struct {
	EnvelopeID  string    `json:"envelope_id"`
	Description string    `json:"description"`
	GroupID     string    `json:"group_id"`
	Carried     AmountDTO `json:"carried"`
	Budgeted    AmountDTO `json:"budgeted"`
	Activity    AmountDTO `json:"activity"`
	Balance     AmountDTO `json:"balance"`
}

type SaveBudgetRequest struct {
	EnvelopeID string `json:"envelope_id"`
	PeriodID   string `json:"period_id"`
	Amount     string `json:"amount"`
}

type BudgetDTO struct {
	ID         string    `json:"id"`
	EnvelopeID string    `json:"envelope_id"`
	PeriodID   string    `json:"period_id"`
	Amount     AmountDTO `json:"amount"`
}

type TransferRequest struct {
	PeriodID string `json:"period_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
}

type SuggestionDTO struct {
	Kind   string    `json:"kind"`
	Amount AmountDTO `json:"amount"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type TransactionDTO struct {
	ID          string    `json:"id"`
	Amount      AmountDTO `json:"amount"`
	AccountID   string    `json:"account_id"`
	PayeeID     string    `json:"payee_id"`
	EnvelopeID  string    `json:"envelope_id"`
	ServiceDate string    `json:"service_date"`
	Posted      bool      `json:"posted"`
	Reconciled  bool      `json:"reconciled"`
	SplitID     string    `json:"split_id,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	LifecycleDTO
}

func newTransactionDTO(tx ledger.Transaction, currency string) TransactionDTO {
	return TransactionDTO{
		ID:           string(tx.ID),
		Amount:       newAmount(tx.Amount, currency),
		AccountID:    string(tx.AccountID),
		PayeeID:      string(tx.PayeeID),
		EnvelopeID:   string(tx.EnvelopeID),
		ServiceDate:  ledger.FormatDay(tx.ServiceDate),
		Posted:       tx.Posted,
		Reconciled:   tx.Reconciled,
		SplitID:      string(tx.SplitID),
		Notes:        tx.Notes,
		LifecycleDTO: newLifecycle(tx.Lifecycle),
	}
}

type TransactionRequest struct {
	Amount      string `json:"amount"`
	AccountID   string `json:"account_id"`
	PayeeID     string `json:"payee_id"`
	EnvelopeID  string `json:"envelope_id"`
	ServiceDate string `json:"service_date"`
	Posted      bool   `json:"posted"`
	Reconciled  bool   `json:"reconciled"`
	Notes       string `json:"notes"`
	Hidden      bool   `json:"hidden"`
}

type SplitRequest struct {
	Entries []TransactionRequest `json:"entries"`
}
