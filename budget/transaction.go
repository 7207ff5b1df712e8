package budget

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// TRANSACTION LOGIC
// =============================================================================

// Transactions records money moving between an account and a payee.
type Transactions struct {
	env *env
}

type TransactionInput struct {
	Amount      decimal.Decimal
	AccountID   ledger.ID
	PayeeID     ledger.ID
	EnvelopeID  ledger.ID
	ServiceDate time.Time
	Posted      bool
	Reconciled  bool
	Notes       string
	Hidden      bool
}

// TransactionFilter narrows Search. AccountID matches either side, so a
// transfer shows up under both accounts. From and To are inclusive days.
type TransactionFilter struct {
	ledger.Filter
	AccountID  ledger.ID
	EnvelopeID ledger.ID
	From       time.Time
	To         time.Time
}

func (f TransactionFilter) match(tx ledger.Transaction) bool {
	if f.AccountID != "" && !ledger.AccountSides.Involves(f.AccountID, tx) {
		return false
	}
	if f.EnvelopeID != "" && tx.EnvelopeID != f.EnvelopeID {
		return false
	}
	if !f.From.IsZero() && ledger.Day(tx.ServiceDate).Before(ledger.Day(f.From)) {
		return false
	}
	if !f.To.IsZero() && !ledger.OnOrBefore(tx.ServiceDate, f.To) {
		return false
	}
	return true
}

func (t *Transactions) Create(ctx context.Context, in TransactionInput) (ledger.Transaction, error) {
	if err := t.validate(ctx, in); err != nil {
		return ledger.Transaction{}, err
	}
	tx := t.build(in, "")
	if err := t.env.store.Transactions().Create(ctx, tx); err != nil {
		return ledger.Transaction{}, ledger.Internal(err)
	}
	return tx, nil
}

// CreateSplit writes several transactions that form one compound entry.
// Every entry is validated before the first write.
func (t *Transactions) CreateSplit(ctx context.Context, entries []TransactionInput) ([]ledger.Transaction, error) {
	if len(entries) < 2 {
		return nil, ledger.BadRequest("a split needs at least two entries")
	}
	for _, in := range entries {
		if err := t.validate(ctx, in); err != nil {
			return nil, err
		}
	}

	splitID := t.env.newID()
	out := make([]ledger.Transaction, 0, len(entries))
	for _, in := range entries {
		tx := t.build(in, splitID)
		if err := t.env.store.Transactions().Create(ctx, tx); err != nil {
			return out, ledger.Internal(err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func (t *Transactions) build(in TransactionInput, splitID ledger.ID) ledger.Transaction {
	now := t.env.stamp()
	tx := ledger.Transaction{
		ID:          t.env.newID(),
		Amount:      in.Amount,
		AccountID:   in.AccountID,
		PayeeID:     in.PayeeID,
		EnvelopeID:  in.EnvelopeID,
		ServiceDate: ledger.Day(in.ServiceDate),
		Posted:      in.Posted,
		Reconciled:  in.Reconciled,
		SplitID:     splitID,
		Notes:       text(in.Notes),
		Lifecycle:   ledger.Lifecycle{CreatedAt: now, ModifiedAt: now},
	}
	tx.SetHidden(in.Hidden, now)
	return tx
}

// validate checks input shape first, then that every referenced row is
// live.
func (t *Transactions) validate(ctx context.Context, in TransactionInput) error {
	if err := requireID(in.AccountID, "account"); err != nil {
		return err
	}
	if err := requireID(in.PayeeID, "payee"); err != nil {
		return err
	}
	if err := requireID(in.EnvelopeID, "envelope"); err != nil {
		return err
	}
	if in.ServiceDate.IsZero() {
		return ledger.BadRequest("service date is required")
	}
	if in.Reconciled && !in.Posted {
		return ledger.BadRequest("a reconciled transaction must be posted")
	}

	s := t.env.store
	if _, err := lookup(ctx, s.Accounts(), in.AccountID, "account"); err != nil {
		return err
	}
	if _, err := lookup(ctx, s.Payees(), in.PayeeID, "payee"); err != nil {
		return err
	}
	_, err := lookup(ctx, s.Envelopes(), in.EnvelopeID, "envelope")
	return err
}

func (t *Transactions) Read(ctx context.Context, id ledger.ID) (ledger.Transaction, error) {
	if err := requireID(id, "transaction"); err != nil {
		return ledger.Transaction{}, err
	}
	return lookup(ctx, t.env.store.Transactions(), id, "transaction")
}

// Search returns matching transactions ordered by service date.
func (t *Transactions) Search(ctx context.Context, f TransactionFilter) ([]ledger.Transaction, error) {
	txs, err := t.env.store.Transactions().Read(ctx, f.IDs)
	if err != nil {
		return nil, ledger.Internal(err)
	}
	out := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range ledger.Apply(f.Filter, txs) {
		if f.match(tx) {
			out = append(out, tx)
		}
	}
	sortByServiceDate(out)
	return out, nil
}

func (t *Transactions) Update(ctx context.Context, id ledger.ID, in TransactionInput) (ledger.Transaction, error) {
	if err := requireID(id, "transaction"); err != nil {
		return ledger.Transaction{}, err
	}
	if err := t.validate(ctx, in); err != nil {
		return ledger.Transaction{}, err
	}

	s := t.env.store
	tx, err := lookup(ctx, s.Transactions(), id, "transaction")
	if err != nil {
		return ledger.Transaction{}, err
	}
	if tx.Reconciled && reconciledFieldsChange(tx, in) {
		return ledger.Transaction{}, ledger.Conflict("transaction %s is reconciled; amount, account, payee, date and posted state are fixed", id)
	}

	now := t.env.stamp()
	tx.Amount = in.Amount
	tx.AccountID, tx.PayeeID, tx.EnvelopeID = in.AccountID, in.PayeeID, in.EnvelopeID
	tx.ServiceDate = ledger.Day(in.ServiceDate)
	tx.Posted, tx.Reconciled = in.Posted, in.Reconciled
	tx.Notes = text(in.Notes)
	tx.SetHidden(in.Hidden, now)
	tx.Touch(now)
	if err := s.Transactions().Update(ctx, tx); err != nil {
		return ledger.Transaction{}, ledger.Internal(err)
	}
	return tx, nil
}

// reconciledFieldsChange reports whether in would alter what a reconciled
// statement total was computed from. Clearing Reconciled counts too.
func reconciledFieldsChange(tx ledger.Transaction, in TransactionInput) bool {
	return !in.Reconciled || in.Posted != tx.Posted ||
		!tx.Amount.Equal(in.Amount) ||
		tx.AccountID != in.AccountID ||
		tx.PayeeID != in.PayeeID ||
		!ledger.Day(tx.ServiceDate).Equal(ledger.Day(in.ServiceDate))
}

// Delete soft-deletes a hidden transaction.
func (t *Transactions) Delete(ctx context.Context, id ledger.ID) error {
	if err := requireID(id, "transaction"); err != nil {
		return err
	}
	s := t.env.store
	tx, err := lookup(ctx, s.Transactions(), id, "transaction")
	if err != nil {
		return err
	}
	if !tx.IsHidden() {
		return ledger.Conflict("transaction %s must be hidden before it is deleted", id)
	}
	tx.MarkDeleted(t.env.stamp())
	return ledger.Internal(s.Transactions().Update(ctx, tx))
}

func sortByServiceDate(txs []ledger.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].ServiceDate.Before(txs[j].ServiceDate)
	})
}
