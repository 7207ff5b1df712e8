/*
Package budget implements the business rules of the envelope ledger.

PURPOSE:
  Turns the flat records held by a ledger.Store into consistent financial
  state, and enforces the invariants that keep the ledger coherent:
  shadow Payee/Envelope pairing for accounts, reserved system records,
  deletion safety against the rest of the ledger, and zero-sum allocation
  across budget periods.

CONTROL FLOW:
  1. Validate caller input (BadRequest), before any store access
  2. Read the rows the operation needs
  3. Check ledger safety (NotFound, Gone, Forbidden, Conflict)
  4. Issue the writes, in a fixed order
  5. Return the typed result

  There is no cached state. Every read re-derives balances from the store.

MULTI-WRITE OPERATIONS:
  Account Create/Update/Delete and Reconcile write several rows in
  sequence. If a later write fails the earlier ones stay committed and the
  caller gets InternalError; re-read before retrying. Budget Transfer is the
  exception: it runs inside TxStore.WithTx when the store supports it.

SEE ALSO:
  - ledger/: Record model, calculators, Store interface
  - account.go, payee.go, envelope.go, budget.go, period.go, transaction.go
*/
package budget

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine bundles the logic for every record family over one store.
type Engine struct {
	Accounts     *Accounts
	Payees       *Payees
	Envelopes    *Envelopes
	Periods      *Periods
	Budgets      *Budgets
	Transactions *Transactions

	env *env
}

// Option configures an Engine.
type Option func(*env)

// WithClock overrides the time source used for lifecycle stamps, opening
// transactions and "today" in debt math.
func WithClock(now func() time.Time) Option {
	return func(e *env) { e.now = now }
}

// WithIDs overrides identifier generation.
func WithIDs(next func() ledger.ID) Option {
	return func(e *env) { e.newID = next }
}

func New(store ledger.Store, opts ...Option) *Engine {
	e := &env{
		store: store,
		now:   time.Now,
		newID: func() ledger.ID { return ledger.ID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(e)
	}

	periods := &Periods{env: e}
	return &Engine{
		Accounts:     &Accounts{env: e},
		Payees:       &Payees{env: e},
		Envelopes:    &Envelopes{env: e},
		Periods:      periods,
		Budgets:      &Budgets{env: e, periods: periods},
		Transactions: &Transactions{env: e},
		env:          e,
	}
}

// Bootstrap creates any reserved record that does not exist yet. It is
// safe to call on every start.
func (en *Engine) Bootstrap(ctx context.Context) error {
	set := ledger.ReservedRecords(en.env.now().UTC())
	s := en.env.store

	for _, p := range set.Payees {
		if err := createMissing(ctx, s.Payees(), p); err != nil {
			return err
		}
	}
	for _, g := range set.Groups {
		if err := createMissing(ctx, s.EnvelopeGroups(), g); err != nil {
			return err
		}
	}
	for _, e := range set.Envelopes {
		if err := createMissing(ctx, s.Envelopes(), e); err != nil {
			return err
		}
	}
	return nil
}

func createMissing[T ledger.Record](ctx context.Context, t ledger.Table[T], rec T) error {
	_, ok, err := ledger.ReadOne(ctx, t, rec.RecordID())
	if err != nil {
		return ledger.Internal(err)
	}
	if ok {
		return nil
	}
	return ledger.Internal(t.Create(ctx, rec))
}

// =============================================================================
// SHARED ENVIRONMENT
// =============================================================================

type env struct {
	store ledger.Store
	now   func() time.Time
	newID func() ledger.ID
}

func (e *env) stamp() time.Time { return e.now().UTC() }

type lifecycled interface {
	ledger.Record
	ledger.Lifecycled
}

// lookup loads one row and classifies absence (NotFound) and soft
// deletion (Gone).
func lookup[T lifecycled](ctx context.Context, t ledger.Table[T], id ledger.ID, kind string) (T, error) {
	rec, ok, err := ledger.ReadOne(ctx, t, id)
	if err != nil {
		return rec, ledger.Internal(err)
	}
	if !ok {
		return rec, ledger.NotFound("%s %s not found", kind, id)
	}
	if rec.State() == ledger.StateDeleted {
		return rec, ledger.Gone("%s %s is deleted", kind, id)
	}
	return rec, nil
}

// exists reports whether a row with id is present in t, deleted or not.
func exists[T ledger.Record](ctx context.Context, t ledger.Table[T], id ledger.ID) (bool, error) {
	_, ok, err := ledger.ReadOne(ctx, t, id)
	if err != nil {
		return false, ledger.Internal(err)
	}
	return ok, nil
}

// liveTransactions returns every transaction that is not soft-deleted.
func liveTransactions(ctx context.Context, s ledger.Store) ([]ledger.Transaction, error) {
	txs, err := ledger.ReadAll(ctx, s.Transactions())
	if err != nil {
		return nil, ledger.Internal(err)
	}
	return ledger.NotDeleted(txs), nil
}

func liveBudgets(ctx context.Context, s ledger.Store) ([]ledger.Budget, error) {
	budgets, err := ledger.ReadAll(ctx, s.Budgets())
	if err != nil {
		return nil, ledger.Internal(err)
	}
	return ledger.NotDeleted(budgets), nil
}

// =============================================================================
// INPUT NORMALIZATION
// =============================================================================

// text trims s. Whitespace-only notes become empty (stored as NULL).
func text(s string) string { return strings.TrimSpace(s) }

func requireID(id ledger.ID, kind string) error {
	if text(string(id)) == "" {
		return ledger.BadRequest("%s id is required", kind)
	}
	return nil
}

func requireDescription(desc string) error {
	if text(desc) == "" {
		return ledger.BadRequest("description is required")
	}
	return nil
}

// referencedBy reports whether any live transaction names id in one of
// its account, payee or envelope fields.
func referencedBy(txs []ledger.Transaction, id ledger.ID) bool {
	for _, tx := range txs {
		if tx.AccountID == id || tx.PayeeID == id || tx.EnvelopeID == id {
			return true
		}
	}
	return false
}

// nonZeroBudget reports whether any live budget on envelopeID has a
// non-zero amount.
func nonZeroBudget(budgets []ledger.Budget, envelopeID ledger.ID) bool {
	for _, b := range budgets {
		if b.EnvelopeID == envelopeID && !b.Amount.IsZero() {
			return true
		}
	}
	return false
}
