package budget

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// ACCOUNT LOGIC
// =============================================================================

// Accounts manages accounts together with their shadow Payee and shadow
// debt Envelope, which share the account's ID.
type Accounts struct {
	env *env
}

type AccountType int

const (
	AccountBudget AccountType = iota
	AccountReporting
)

// NewAccount is the input to Accounts.Create.
type NewAccount struct {
	Description    string
	Notes          string
	Type           AccountType
	OpeningBalance decimal.Decimal
	Hidden         bool
}

// AccountUpdate is the input to Accounts.Update.
type AccountUpdate struct {
	Description string
	Notes       string
	Hidden      bool
}

// AccountView is an account enriched with its derived balances.
type AccountView struct {
	ledger.Account
	Pending decimal.Decimal
	Posted  decimal.Decimal
	Balance decimal.Decimal
	Payment decimal.Decimal
}

// Create writes the account, its shadow payee, its shadow debt envelope
// and the opening transaction, in that order.
func (a *Accounts) Create(ctx context.Context, in NewAccount) (ledger.ID, error) {
	if err := requireDescription(in.Description); err != nil {
		return "", err
	}

	now := a.env.stamp()
	id := a.env.newID()
	desc, notes := text(in.Description), text(in.Notes)
	lc := ledger.Lifecycle{CreatedAt: now, ModifiedAt: now}
	lc.SetHidden(in.Hidden, now)

	account := ledger.Account{ID: id, Description: desc, Notes: notes, OnBudget: in.Type == AccountBudget, Lifecycle: lc}
	payee := ledger.Payee{ID: id, Description: desc, Notes: notes, Lifecycle: lc}
	debt := ledger.Envelope{
		ID:              id,
		Description:     desc,
		Notes:           notes,
		EnvelopeGroupID: ledger.DebtGroupID,
		IgnoreOverspend: true,
		Lifecycle:       lc,
	}
	opening := ledger.Transaction{
		ID:          a.env.newID(),
		Amount:      in.OpeningBalance,
		AccountID:   id,
		PayeeID:     ledger.StartingBalancePayeeID,
		EnvelopeID:  openingEnvelope(account, in.OpeningBalance),
		ServiceDate: ledger.Day(now),
		Posted:      true,
		Reconciled:  true,
		Lifecycle:   ledger.Lifecycle{CreatedAt: now, ModifiedAt: now},
	}

	s := a.env.store
	if err := s.Accounts().Create(ctx, account); err != nil {
		return "", ledger.Internal(err)
	}
	if err := s.Payees().Create(ctx, payee); err != nil {
		return "", ledger.Internal(err)
	}
	if err := s.Envelopes().Create(ctx, debt); err != nil {
		return "", ledger.Internal(err)
	}
	if err := s.Transactions().Create(ctx, opening); err != nil {
		return "", ledger.Internal(err)
	}
	return id, nil
}

// openingEnvelope picks where the starting balance is attributed:
// reporting accounts stay out of budget math, a positive budget balance is
// income, and a negative one becomes trackable debt.
func openingEnvelope(account ledger.Account, balance decimal.Decimal) ledger.ID {
	switch {
	case !account.OnBudget:
		return ledger.IgnoredEnvelopeID
	case balance.IsNegative():
		return account.ID
	default:
		return ledger.IncomeEnvelopeID
	}
}

func (a *Accounts) Read(ctx context.Context, id ledger.ID) (AccountView, error) {
	if err := requireID(id, "account"); err != nil {
		return AccountView{}, err
	}
	account, err := lookup(ctx, a.env.store.Accounts(), id, "account")
	if err != nil {
		return AccountView{}, err
	}
	views, err := a.enrich(ctx, []ledger.Account{account})
	if err != nil {
		return AccountView{}, err
	}
	return views[0], nil
}

// Search lists accounts passing f, with balances.
func (a *Accounts) Search(ctx context.Context, f ledger.Filter) ([]AccountView, error) {
	accounts, err := a.env.store.Accounts().Read(ctx, f.IDs)
	if err != nil {
		return nil, ledger.Internal(err)
	}
	return a.enrich(ctx, ledger.Apply(f, accounts))
}

func (a *Accounts) enrich(ctx context.Context, accounts []ledger.Account) ([]AccountView, error) {
	views := make([]AccountView, 0, len(accounts))
	if len(accounts) == 0 {
		return views, nil
	}

	s := a.env.store
	txs, err := liveTransactions(ctx, s)
	if err != nil {
		return nil, err
	}
	budgets, err := liveBudgets(ctx, s)
	if err != nil {
		return nil, err
	}
	periods, err := ledger.ReadAll(ctx, s.BudgetPeriods())
	if err != nil {
		return nil, ledger.Internal(err)
	}

	today := ledger.Day(a.env.stamp())
	for _, account := range accounts {
		views = append(views, accountView(account, txs, budgets, periods, today))
	}
	return views, nil
}

func accountView(account ledger.Account, txs []ledger.Transaction, budgets []ledger.Budget, periods []ledger.BudgetPeriod, today time.Time) AccountView {
	id := account.ID
	related := make([]ledger.Transaction, 0)
	for _, tx := range txs {
		if ledger.AccountSides.Involves(id, tx) {
			related = append(related, tx)
		}
	}

	view := AccountView{
		Account: account,
		Pending: ledger.Pending(id, related, ledger.AccountSides),
		Posted:  ledger.Posted(id, related, ledger.AccountSides),
		Payment: decimal.Zero,
	}
	view.Balance = view.Pending.Add(view.Posted)
	if account.OnBudget {
		view.Payment = ledger.DebtPayment(id, related, budgets, periods, today)
	}
	return view
}

// Update mirrors description, notes and hidden state onto the shadow
// payee and debt envelope.
func (a *Accounts) Update(ctx context.Context, id ledger.ID, in AccountUpdate) (ledger.Account, error) {
	if err := requireID(id, "account"); err != nil {
		return ledger.Account{}, err
	}
	if err := requireDescription(in.Description); err != nil {
		return ledger.Account{}, err
	}

	s := a.env.store
	account, err := lookup(ctx, s.Accounts(), id, "account")
	if err != nil {
		return ledger.Account{}, err
	}

	now := a.env.stamp()
	desc, notes := text(in.Description), text(in.Notes)
	account.Description, account.Notes = desc, notes
	account.SetHidden(in.Hidden, now)
	account.Touch(now)

	if err := s.Accounts().Update(ctx, account); err != nil {
		return ledger.Account{}, ledger.Internal(err)
	}
	if err := a.syncPayee(ctx, account); err != nil {
		return ledger.Account{}, err
	}
	if err := a.syncDebtEnvelope(ctx, account); err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

// syncPayee copies the account's descriptive and lifecycle fields onto its
// shadow payee, recreating the payee if it went missing.
func (a *Accounts) syncPayee(ctx context.Context, account ledger.Account) error {
	t := a.env.store.Payees()
	payee, ok, err := ledger.ReadOne(ctx, t, account.ID)
	if err != nil {
		return ledger.Internal(err)
	}
	payee.ID = account.ID
	payee.Description, payee.Notes = account.Description, account.Notes
	payee.Lifecycle = mirrorLifecycle(payee.Lifecycle, account.Lifecycle)
	if !ok {
		return ledger.Internal(t.Create(ctx, payee))
	}
	return ledger.Internal(t.Update(ctx, payee))
}

func (a *Accounts) syncDebtEnvelope(ctx context.Context, account ledger.Account) error {
	t := a.env.store.Envelopes()
	debt, ok, err := ledger.ReadOne(ctx, t, account.ID)
	if err != nil {
		return ledger.Internal(err)
	}
	debt.ID = account.ID
	debt.Description, debt.Notes = account.Description, account.Notes
	debt.EnvelopeGroupID = ledger.DebtGroupID
	debt.IgnoreOverspend = true
	debt.Lifecycle = mirrorLifecycle(debt.Lifecycle, account.Lifecycle)
	if !ok {
		return ledger.Internal(t.Create(ctx, debt))
	}
	return ledger.Internal(t.Update(ctx, debt))
}

// mirrorLifecycle keeps the shadow's CreatedAt and takes everything else
// from the account.
func mirrorLifecycle(shadow, account ledger.Lifecycle) ledger.Lifecycle {
	out := account
	if !shadow.CreatedAt.IsZero() {
		out.CreatedAt = shadow.CreatedAt
	}
	return out
}

// Delete soft-deletes the account, its shadow payee and debt envelope.
// The account must be hidden and nothing live may reference it.
func (a *Accounts) Delete(ctx context.Context, id ledger.ID) error {
	if err := requireID(id, "account"); err != nil {
		return err
	}

	s := a.env.store
	account, err := lookup(ctx, s.Accounts(), id, "account")
	if err != nil {
		return err
	}
	if !account.IsHidden() {
		return ledger.Conflict("account %s must be hidden before it is deleted", id)
	}

	txs, err := liveTransactions(ctx, s)
	if err != nil {
		return err
	}
	if referencedBy(txs, id) {
		return ledger.Conflict("account %s is referenced by transactions", id)
	}
	budgets, err := liveBudgets(ctx, s)
	if err != nil {
		return err
	}
	if nonZeroBudget(budgets, id) {
		return ledger.Conflict("account %s has budgeted debt payments", id)
	}

	account.MarkDeleted(a.env.stamp())
	if err := s.Accounts().Update(ctx, account); err != nil {
		return ledger.Internal(err)
	}
	if err := a.syncPayee(ctx, account); err != nil {
		return err
	}
	return a.syncDebtEnvelope(ctx, account)
}
