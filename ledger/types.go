/*
Package ledger provides the core model of the envelope budgeting ledger.

PURPOSE:
  This package contains the persisted record kinds (accounts, payees,
  envelope groups, envelopes, budget periods, budgets, transactions), the
  reserved system identities, the Store interface the engine reads and
  writes through, and the pure calculators that turn transactions into
  balances. It has no knowledge of how records are persisted.

KEY CONCEPTS IN THIS FILE (types.go):
  - ID: Opaque record identifier (UUID strings in practice)
  - Lifecycle: Created/Modified/Hidden/Deleted timestamps shared by every record
  - State: Derived tri-state (Active, Hidden, Deleted)
  - Record kinds: Account, Payee, EnvelopeGroup, Envelope, BudgetPeriod, Budget, Transaction

DESIGN PRINCIPLES:
  1. Precision: Amounts use decimal.Decimal, never floats
  2. Soft delete: Records are never removed, only stamped DeletedAt
  3. Shadow pairing: An Account shares its ID with a Payee and a debt Envelope
  4. Derived state: Balances are computed, never stored

SEE ALSO:
  - reserved.go: Well-known system identities
  - balance.go: Pending/Posted/Balance/DebtPayment calculators
  - store.go: Persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ID string

func (id ID) String() string { return string(id) }
func (id ID) IsZero() bool   { return id == "" }

// Record is implemented by every persisted record kind.
type Record interface {
	RecordID() ID
}

// =============================================================================
// LIFECYCLE - Shared by every record
// =============================================================================

// State is the derived lifecycle state business logic branches on.
type State int

const (
	StateActive State = iota
	StateHidden
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateDeleted:
		return "deleted"
	default:
		return "active"
	}
}

// Lifecycle carries audit timestamps. HiddenAt and DeletedAt are nil
// unless the record was hidden or deleted.
type Lifecycle struct {
	CreatedAt  time.Time
	ModifiedAt time.Time
	HiddenAt   *time.Time
	DeletedAt  *time.Time
}

// State derives the tri-state. Deleted wins over hidden.
func (l Lifecycle) State() State {
	switch {
	case l.DeletedAt != nil:
		return StateDeleted
	case l.HiddenAt != nil:
		return StateHidden
	default:
		return StateActive
	}
}

func (l Lifecycle) IsActive() bool  { return l.State() == StateActive }
func (l Lifecycle) IsHidden() bool  { return l.State() == StateHidden }
func (l Lifecycle) IsDeleted() bool { return l.State() == StateDeleted }

// Touch stamps ModifiedAt (and CreatedAt on first write).
func (l *Lifecycle) Touch(now time.Time) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.ModifiedAt = now
}

// SetHidden hides or unhides the record. A hidden record keeps its
// original HiddenAt when hidden again.
func (l *Lifecycle) SetHidden(hidden bool, now time.Time) {
	switch {
	case hidden && l.HiddenAt == nil:
		t := now
		l.HiddenAt = &t
	case !hidden:
		l.HiddenAt = nil
	}
}

// MarkDeleted soft-deletes the record. Deletion clears hidden.
func (l *Lifecycle) MarkDeleted(now time.Time) {
	t := now
	l.DeletedAt = &t
	l.HiddenAt = nil
	l.ModifiedAt = now
}

// =============================================================================
// RECORD KINDS
// =============================================================================

// Account is a money-holding entity. OnBudget distinguishes Budget accounts
// from Reporting accounts.
type Account struct {
	ID          ID
	Description string
	Notes       string
	OnBudget    bool
	Lifecycle
}

// Payee is the counterparty of a transaction. Every Account has a shadow
// Payee with the same ID.
type Payee struct {
	ID          ID
	Description string
	Notes       string
	Lifecycle
}

type EnvelopeGroup struct {
	ID          ID
	Description string
	Notes       string
	Lifecycle
}

// Envelope is a budget category. Every Account has a shadow Envelope with
// the same ID, assigned to the Debt group.
type Envelope struct {
	ID              ID
	Description     string
	Notes           string
	EnvelopeGroupID ID
	IgnoreOverspend bool
	Lifecycle
}

// BudgetPeriod is a contiguous, inclusive date range.
type BudgetPeriod struct {
	ID        ID
	BeginDate time.Time
	EndDate   time.Time
	Lifecycle
}

// Contains reports whether date falls within [BeginDate, EndDate].
func (p BudgetPeriod) Contains(date time.Time) bool {
	d := Day(date)
	return !d.Before(Day(p.BeginDate)) && !d.After(Day(p.EndDate))
}

func (p BudgetPeriod) String() string {
	return "[" + FormatDay(p.BeginDate) + ", " + FormatDay(p.EndDate) + "]"
}

// Budget allocates Amount to one Envelope for one BudgetPeriod.
type Budget struct {
	ID             ID
	EnvelopeID     ID
	BudgetPeriodID ID
	Amount         decimal.Decimal
	Lifecycle
}

// Transaction is a signed movement between an Account and a Payee,
// attributed to an Envelope. Transactions sharing a SplitID form one
// compound entry.
type Transaction struct {
	ID          ID
	Amount      decimal.Decimal
	AccountID   ID
	PayeeID     ID
	EnvelopeID  ID
	ServiceDate time.Time
	Posted      bool
	Reconciled  bool
	SplitID     ID
	Notes       string
	Lifecycle
}

func (a Account) RecordID() ID       { return a.ID }
func (p Payee) RecordID() ID         { return p.ID }
func (g EnvelopeGroup) RecordID() ID { return g.ID }
func (e Envelope) RecordID() ID      { return e.ID }
func (p BudgetPeriod) RecordID() ID  { return p.ID }
func (b Budget) RecordID() ID        { return b.ID }
func (t Transaction) RecordID() ID   { return t.ID }

// Compile-time checks
var (
	_ Record = Account{}
	_ Record = Payee{}
	_ Record = EnvelopeGroup{}
	_ Record = Envelope{}
	_ Record = BudgetPeriod{}
	_ Record = Budget{}
	_ Record = Transaction{}
)
