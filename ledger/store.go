/*
store.go - Persistence interface for ledger records

PURPOSE:
  Defines the boundary between the budget engine and the storage engine.
  The storage engine is an external collaborator: it offers per-record
  Create/Update and read-by-id-set, nothing more. All filtering by
  lifecycle, date range or group happens in the engine after the fetch.

KEY INTERFACES:
  Table:   CRUD for one record kind (no physical delete)
  Store:   One Table per record kind
  TxStore: Store that can run several writes atomically

READ CONTRACT:
  Read(ctx, nil)           returns every row
  Read(ctx, []ID{})        returns no rows
  Read(ctx, []ID{a, b})    returns the rows whose ID is a or b

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - budget/: Logic layer reading and writing through Store
*/
package ledger

import "context"

// =============================================================================
// STORE - Interface for record persistence (no physical delete)
// =============================================================================

// Table persists one record kind.
type Table[T Record] interface {
	// Create inserts a new row.
	Create(ctx context.Context, rec T) error

	// Update replaces the row with rec's ID. Returns ErrRecordNotFound if
	// no such row exists.
	Update(ctx context.Context, rec T) error

	// Read returns the rows whose ID is in ids. A nil slice means no filter.
	Read(ctx context.Context, ids []ID) ([]T, error)
}

// Store exposes one Table per record kind.
type Store interface {
	Accounts() Table[Account]
	Payees() Table[Payee]
	EnvelopeGroups() Table[EnvelopeGroup]
	Envelopes() Table[Envelope]
	BudgetPeriods() Table[BudgetPeriod]
	Budgets() Table[Budget]
	Transactions() Table[Transaction]
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the Store passed to fn
	// is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// READ HELPERS
// =============================================================================

// ReadAll returns every row of t.
func ReadAll[T Record](ctx context.Context, t Table[T]) ([]T, error) {
	return t.Read(ctx, nil)
}

// ReadOne returns the row with id and whether it exists.
func ReadOne[T Record](ctx context.Context, t Table[T], id ID) (T, bool, error) {
	var zero T
	rows, err := t.Read(ctx, []ID{id})
	if err != nil {
		return zero, false, err
	}
	for _, r := range rows {
		if r.RecordID() == id {
			return r, true, nil
		}
	}
	return zero, false, nil
}

// =============================================================================
// FILTER - Lifecycle filtering applied after fetch
// =============================================================================

// Filter selects rows for Search operations. Deleted rows are always
// excluded.
//
//	Hidden == nil   active and hidden rows
//	Hidden == true  hidden rows only
//	Hidden == false active rows only
type Filter struct {
	IDs    []ID
	Hidden *bool
}

// Lifecycled is implemented by every record kind through embedded Lifecycle.
type Lifecycled interface {
	State() State
}

// Keep reports whether a row in state s passes the hidden filter.
func (f Filter) Keep(s State) bool {
	if s == StateDeleted {
		return false
	}
	if f.Hidden == nil {
		return true
	}
	return *f.Hidden == (s == StateHidden)
}

// Apply filters rows by lifecycle state.
func Apply[T Lifecycled](f Filter, rows []T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if f.Keep(r.State()) {
			out = append(out, r)
		}
	}
	return out
}

// NotDeleted drops soft-deleted rows.
func NotDeleted[T Lifecycled](rows []T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if r.State() != StateDeleted {
			out = append(out, r)
		}
	}
	return out
}

func Bool(b bool) *bool { return &b }
