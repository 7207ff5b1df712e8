/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Persists the seven ledger record kinds. The store offers exactly what the
  engine's collaborator contract asks for: per-row insert, per-row update,
  and read by id set. It does not filter by lifecycle, date or group; the
  engine does that after the fetch.

NO PHYSICAL DELETE:
  There are no DELETE statements. Soft delete is an UPDATE of deleted_at
  issued by the engine.

KEY TABLES:
  accounts, payees, envelope_groups, envelopes,
  budget_periods, budgets, transactions

  Every table carries created_at, modified_at, hidden_at, deleted_at.

ENCODING:
  Timestamps:  fixed-width UTC text, NULL for nil hidden_at/deleted_at
  Dates:       YYYY-MM-DD text (period bounds, service dates)
  Amounts:     decimal text
  Empty notes and split ids are stored as NULL

CONNECTIONS:
  The pool is capped at one connection so ":memory:" databases behave as a
  single database and WithTx cannot deadlock against itself.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := budget.New(store)

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	q  querier
}

var _ ledger.TxStore = (*Store)(nil)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		notes TEXT,
		on_budget BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		hidden_at TEXT,
		deleted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS payees (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		hidden_at TEXT,
		deleted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS envelope_groups (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		hidden_at TEXT,
		deleted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS envelopes (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		notes TEXT,
		envelope_group_id TEXT NOT NULL,
		ignore_overspend BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		hidden_at TEXT,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_envelopes_group
		ON envelopes(envelope_group_id);

	CREATE TABLE IF NOT EXISTS budget_periods (
		id TEXT PRIMARY KEY,
		begin_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		hidden_at TEXT,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_budget_periods_begin
		ON budget_periods(begin_date);

	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		envelope_id TEXT NOT NULL,
		budget_period_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		hidden_at TEXT,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_envelope_period
		ON budgets(envelope_id, budget_period_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		account_id TEXT NOT NULL,
		payee_id TEXT NOT NULL,
		envelope_id TEXT NOT NULL,
		service_date TEXT NOT NULL,
		posted BOOLEAN NOT NULL DEFAULT FALSE,
		reconciled BOOLEAN NOT NULL DEFAULT FALSE,
		split_id TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		hidden_at TEXT,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_account
		ON transactions(account_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_payee
		ON transactions(payee_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_envelope
		ON transactions(envelope_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_split
		ON transactions(split_id) WHERE split_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TABLES (ledger.Store interface)
// =============================================================================

func (s *Store) Accounts() ledger.Table[ledger.Account] {
	return &table[ledger.Account]{q: s.q, codec: accountCodec}
}

func (s *Store) Payees() ledger.Table[ledger.Payee] {
	return &table[ledger.Payee]{q: s.q, codec: payeeCodec}
}

func (s *Store) EnvelopeGroups() ledger.Table[ledger.EnvelopeGroup] {
	return &table[ledger.EnvelopeGroup]{q: s.q, codec: groupCodec}
}

func (s *Store) Envelopes() ledger.Table[ledger.Envelope] {
	return &table[ledger.Envelope]{q: s.q, codec: envelopeCodec}
}

func (s *Store) BudgetPeriods() ledger.Table[ledger.BudgetPeriod] {
	return &table[ledger.BudgetPeriod]{q: s.q, codec: periodCodec}
}

func (s *Store) Budgets() ledger.Table[ledger.Budget] {
	return &table[ledger.Budget]{q: s.q, codec: budgetCodec}
}

func (s *Store) Transactions() ledger.Table[ledger.Transaction] {
	return &table[ledger.Transaction]{q: s.q, codec: transactionCodec}
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store ledger.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Store{db: s.db, q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// GENERIC TABLE
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

// codec maps one record kind to its table. columns[0] must be "id".
type codec[T ledger.Record] struct {
	name    string
	columns []string
	values  func(T) []any
	scan    func(scanner) (T, error)
}

type table[T ledger.Record] struct {
	q     querier
	codec codec[T]
}

func (t *table[T]) Create(ctx context.Context, rec T) error {
	c := t.codec
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(c.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.name, strings.Join(c.columns, ", "), placeholders)

	if _, err := t.q.ExecContext(ctx, query, c.values(rec)...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return nil
}

func (t *table[T]) Update(ctx context.Context, rec T) error {
	c := t.codec
	sets := make([]string, 0, len(c.columns)-1)
	for _, col := range c.columns[1:] {
		sets = append(sets, col+" = ?")
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", c.name, strings.Join(sets, ", "))

	values := c.values(rec)
	args := append(values[1:], values[0])
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s %s: %w", c.name, rec.RecordID(), ledger.ErrRecordNotFound)
	}
	return nil
}

func (t *table[T]) Read(ctx context.Context, ids []ledger.ID) ([]T, error) {
	c := t.codec
	if ids != nil && len(ids) == 0 {
		return []T{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(c.columns, ", "), c.name)
	var args []any
	if ids != nil {
		query += " WHERE id IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")"
		for _, id := range ids {
			args = append(args, string(id))
		}
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		rec, err := c.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.name, err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// =============================================================================
// CODECS
// =============================================================================

var lifecycleColumns = []string{"created_at", "modified_at", "hidden_at", "deleted_at"}

func withLifecycle(cols ...string) []string {
	return append(cols, lifecycleColumns...)
}

func lifecycleValues(l ledger.Lifecycle) []any {
	return []any{formatTime(l.CreatedAt), formatTime(l.ModifiedAt), nullTime(l.HiddenAt), nullTime(l.DeletedAt)}
}

// lifecycleDest collects the raw lifecycle columns during a scan.
type lifecycleDest struct {
	created, modified string
	hidden, deleted   sql.NullString
}

func (d *lifecycleDest) targets() []any {
	return []any{&d.created, &d.modified, &d.hidden, &d.deleted}
}

func (d *lifecycleDest) lifecycle() ledger.Lifecycle {
	return ledger.Lifecycle{
		CreatedAt:  parseTime(d.created),
		ModifiedAt: parseTime(d.modified),
		HiddenAt:   parseNullTime(d.hidden),
		DeletedAt:  parseNullTime(d.deleted),
	}
}

var accountCodec = codec[ledger.Account]{
	name:    "accounts",
	columns: withLifecycle("id", "description", "notes", "on_budget"),
	values: func(a ledger.Account) []any {
		return append([]any{string(a.ID), a.Description, nullString(a.Notes), a.OnBudget}, lifecycleValues(a.Lifecycle)...)
	},
	scan: func(sc scanner) (ledger.Account, error) {
		var (
			a     ledger.Account
			notes sql.NullString
			lc    lifecycleDest
		)
		err := sc.Scan(append([]any{&a.ID, &a.Description, &notes, &a.OnBudget}, lc.targets()...)...)
		a.Notes = notes.String
		a.Lifecycle = lc.lifecycle()
		return a, err
	},
}

var payeeCodec = codec[ledger.Payee]{
	name:    "payees",
	columns: withLifecycle("id", "description", "notes"),
	values: func(p ledger.Payee) []any {
		return append([]any{string(p.ID), p.Description, nullString(p.Notes)}, lifecycleValues(p.Lifecycle)...)
	},
	scan: func(sc scanner) (ledger.Payee, error) {
		var (
			p     ledger.Payee
			notes sql.NullString
			lc    lifecycleDest
		)
		err := sc.Scan(append([]any{&p.ID, &p.Description, &notes}, lc.targets()...)...)
		p.Notes = notes.String
		p.Lifecycle = lc.lifecycle()
		return p, err
	},
}

var groupCodec = codec[ledger.EnvelopeGroup]{
	name:    "envelope_groups",
	columns: withLifecycle("id", "description", "notes"),
	values: func(g ledger.EnvelopeGroup) []any {
		return append([]any{string(g.ID), g.Description, nullString(g.Notes)}, lifecycleValues(g.Lifecycle)...)
	},
	scan: func(sc scanner) (ledger.EnvelopeGroup, error) {
		var (
			g     ledger.EnvelopeGroup
			notes sql.NullString
			lc    lifecycleDest
		)
		err := sc.Scan(append([]any{&g.ID, &g.Description, &notes}, lc.targets()...)...)
		g.Notes = notes.String
		g.Lifecycle = lc.lifecycle()
		return g, err
	},
}

var envelopeCodec = codec[ledger.Envelope]{
	name:    "envelopes",
	columns: withLifecycle("id", "description", "notes", "envelope_group_id", "ignore_overspend"),
	values: func(e ledger.Envelope) []any {
		return append([]any{string(e.ID), e.Description, nullString(e.Notes), string(e.EnvelopeGroupID), e.IgnoreOverspend},
			lifecycleValues(e.Lifecycle)...)
	},
	scan: func(sc scanner) (ledger.Envelope, error) {
		var (
			e     ledger.Envelope
			notes sql.NullString
			lc    lifecycleDest
		)
		err := sc.Scan(append([]any{&e.ID, &e.Description, &notes, &e.EnvelopeGroupID, &e.IgnoreOverspend}, lc.targets()...)...)
		e.Notes = notes.String
		e.Lifecycle = lc.lifecycle()
		return e, err
	},
}

var periodCodec = codec[ledger.BudgetPeriod]{
	name:    "budget_periods",
	columns: withLifecycle("id", "begin_date", "end_date"),
	values: func(p ledger.BudgetPeriod) []any {
		return append([]any{string(p.ID), ledger.FormatDay(p.BeginDate), ledger.FormatDay(p.EndDate)}, lifecycleValues(p.Lifecycle)...)
	},
	scan: func(sc scanner) (ledger.BudgetPeriod, error) {
		var (
			p          ledger.BudgetPeriod
			begin, end string
			lc         lifecycleDest
		)
		err := sc.Scan(append([]any{&p.ID, &begin, &end}, lc.targets()...)...)
		p.BeginDate = parseDay(begin)
		p.EndDate = parseDay(end)
		p.Lifecycle = lc.lifecycle()
		return p, err
	},
}

var budgetCodec = codec[ledger.Budget]{
	name:    "budgets",
	columns: withLifecycle("id", "envelope_id", "budget_period_id", "amount"),
	values: func(b ledger.Budget) []any {
		return append([]any{string(b.ID), string(b.EnvelopeID), string(b.BudgetPeriodID), b.Amount.String()}, lifecycleValues(b.Lifecycle)...)
	},
	scan: func(sc scanner) (ledger.Budget, error) {
		var (
			b      ledger.Budget
			amount string
			lc     lifecycleDest
		)
		if err := sc.Scan(append([]any{&b.ID, &b.EnvelopeID, &b.BudgetPeriodID, &amount}, lc.targets()...)...); err != nil {
			return b, err
		}
		var err error
		if b.Amount, err = parseAmount(amount); err != nil {
			return b, fmt.Errorf("budget %s: %w", b.ID, err)
		}
		b.Lifecycle = lc.lifecycle()
		return b, nil
	},
}

var transactionCodec = codec[ledger.Transaction]{
	name: "transactions",
	columns: withLifecycle("id", "amount", "account_id", "payee_id", "envelope_id",
		"service_date", "posted", "reconciled", "split_id", "notes"),
	values: func(t ledger.Transaction) []any {
		return append([]any{
			string(t.ID), t.Amount.String(), string(t.AccountID), string(t.PayeeID), string(t.EnvelopeID),
			ledger.FormatDay(t.ServiceDate), t.Posted, t.Reconciled, nullString(string(t.SplitID)), nullString(t.Notes),
		}, lifecycleValues(t.Lifecycle)...)
	},
	scan: func(sc scanner) (ledger.Transaction, error) {
		var (
			t              ledger.Transaction
			amount, served string
			split, notes   sql.NullString
			lc             lifecycleDest
		)
		if err := sc.Scan(append([]any{
			&t.ID, &amount, &t.AccountID, &t.PayeeID, &t.EnvelopeID,
			&served, &t.Posted, &t.Reconciled, &split, &notes,
		}, lc.targets()...)...); err != nil {
			return t, err
		}
		var err error
		if t.Amount, err = parseAmount(amount); err != nil {
			return t, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.ServiceDate = parseDay(served)
		t.SplitID = ledger.ID(split.String)
		t.Notes = notes.String
		t.Lifecycle = lc.lifecycle()
		return t, nil
	},
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func parseDay(s string) time.Time {
	t, _ := ledger.ParseDay(s)
	return t
}

// parseAmount fails on a malformed stored amount instead of reading zero.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return d, nil
}
