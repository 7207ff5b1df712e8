package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/ledger"
	"github.com/warp/envelope-ledger/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var stamp = time.Date(2025, time.May, 3, 14, 30, 15, 123456789, time.UTC)

func lifecycle() ledger.Lifecycle {
	return ledger.Lifecycle{CreatedAt: stamp, ModifiedAt: stamp}
}

func TestStore_TransactionRoundTrip(t *testing.T) {
	// GIVEN: A transaction using every column, including NULLable ones
	// WHEN: Writing and reading it back
	// THEN: Every field survives unchanged

	store := newTestStore(t)
	ctx := context.Background()

	hidden := stamp.Add(time.Minute)
	want := ledger.Transaction{
		ID:          "tx-1",
		Amount:      decimal.RequireFromString("-1234.56"),
		AccountID:   "acct",
		PayeeID:     "payee",
		EnvelopeID:  "env",
		ServiceDate: ledger.NewDay(2025, time.May, 2),
		Posted:      true,
		Reconciled:  true,
		SplitID:     "split-9",
		Notes:       "groceries",
		Lifecycle:   ledger.Lifecycle{CreatedAt: stamp, ModifiedAt: stamp, HiddenAt: &hidden},
	}
	require.NoError(t, store.Transactions().Create(ctx, want))

	got, ok, err := ledger.ReadOne(ctx, store.Transactions(), "tx-1")
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, want.Amount.Equal(got.Amount))
	assert.Equal(t, want.AccountID, got.AccountID)
	assert.Equal(t, want.PayeeID, got.PayeeID)
	assert.Equal(t, want.EnvelopeID, got.EnvelopeID)
	assert.Equal(t, want.ServiceDate, got.ServiceDate)
	assert.True(t, got.Posted)
	assert.True(t, got.Reconciled)
	assert.Equal(t, want.SplitID, got.SplitID)
	assert.Equal(t, want.Notes, got.Notes)
	assert.Equal(t, stamp, got.CreatedAt)
	require.NotNil(t, got.HiddenAt)
	assert.Equal(t, hidden, *got.HiddenAt)
	assert.Nil(t, got.DeletedAt)
	assert.Equal(t, ledger.StateHidden, got.State())
}

func TestStore_EmptyNotesStoredAsNull(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Accounts().Create(ctx, ledger.Account{ID: "a", Description: "Checking", OnBudget: true, Lifecycle: lifecycle()}))

	got, ok, err := ledger.ReadOne(ctx, store.Accounts(), "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got.Notes)
	assert.True(t, got.OnBudget)
}

func TestStore_ReadContract(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, id := range []ledger.ID{"g1", "g2", "g3"} {
		lc := lifecycle()
		lc.CreatedAt = lc.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.EnvelopeGroups().Create(ctx, ledger.EnvelopeGroup{ID: id, Description: string(id), Lifecycle: lc}))
	}

	all, err := store.EnvelopeGroups().Read(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ledger.ID("g1"), all[0].ID, "rows come back in creation order")

	none, err := store.EnvelopeGroups().Read(ctx, []ledger.ID{})
	require.NoError(t, err)
	assert.Empty(t, none)

	some, err := store.EnvelopeGroups().Read(ctx, []ledger.ID{"g3", "g1", "nope"})
	require.NoError(t, err)
	assert.Len(t, some, 2)
}

func TestStore_UpdateMissingRow(t *testing.T) {
	store := newTestStore(t)
	err := store.Payees().Update(context.Background(), ledger.Payee{ID: "ghost", Description: "x", Lifecycle: lifecycle()})
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
}

func TestStore_PeriodAndBudgetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	period := ledger.BudgetPeriod{
		ID:        "p1",
		BeginDate: ledger.NewDay(2025, time.June, 1),
		EndDate:   ledger.NewDay(2025, time.June, 30),
		Lifecycle: lifecycle(),
	}
	require.NoError(t, store.BudgetPeriods().Create(ctx, period))
	require.NoError(t, store.Budgets().Create(ctx, ledger.Budget{
		ID: "b1", EnvelopeID: "e1", BudgetPeriodID: "p1", Amount: decimal.RequireFromString("150.10"), Lifecycle: lifecycle(),
	}))

	gotPeriod, ok, err := ledger.ReadOne(ctx, store.BudgetPeriods(), "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, ledger.RangeOf(period).Matches(gotPeriod))

	gotBudget, ok, err := ledger.ReadOne(ctx, store.Budgets(), "b1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "150.1", gotBudget.Amount.String())
}

func TestStore_WithTxRollsBack(t *testing.T) {
	// GIVEN: An envelope row
	// WHEN: A transaction renames it and then fails
	// THEN: The rename is rolled back

	store := newTestStore(t)
	ctx := context.Background()
	envelope := ledger.Envelope{ID: "e1", Description: "Food", EnvelopeGroupID: "g", Lifecycle: lifecycle()}
	require.NoError(t, store.Envelopes().Create(ctx, envelope))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s ledger.Store) error {
		renamed := envelope
		renamed.Description = "Dining"
		if err := s.Envelopes().Update(ctx, renamed); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, _, err := ledger.ReadOne(ctx, store.Envelopes(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Description)
}

func TestStore_WithTxCommits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(s ledger.Store) error {
		return s.Payees().Create(ctx, ledger.Payee{ID: "p", Description: "Grocer", Lifecycle: lifecycle()})
	})
	require.NoError(t, err)

	_, ok, err := ledger.ReadOne(ctx, store.Payees(), "p")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_MalformedAmountIsAnError(t *testing.T) {
	// GIVEN: A stored transaction whose amount column was corrupted
	// WHEN: Reading it back
	// THEN: The read fails instead of reporting zero

	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Transactions().Create(ctx, ledger.Transaction{
		ID: "tx-1", Amount: decimal.RequireFromString("12.5"), AccountID: "acct", PayeeID: "payee",
		EnvelopeID: "env", ServiceDate: ledger.NewDay(2025, time.May, 2), Lifecycle: lifecycle(),
	}))
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE transactions SET amount = 'twelve' WHERE id = 'tx-1'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err = sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Transactions().Read(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid stored amount")
}
