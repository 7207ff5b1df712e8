package budget_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/budget"
	"github.com/warp/envelope-ledger/ledger"
)

func TestPayee_ReservedIsForbidden(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := engine.Payees.Update(ctx, ledger.StartingBalancePayeeID, budget.PayeeInput{Description: "Mine now"})
	assertStatus(t, ledger.StatusForbidden, err)
	assertStatus(t, ledger.StatusForbidden, engine.Payees.Delete(ctx, ledger.StartingBalancePayeeID))
}

func TestPayee_AccountPayeeIsConflict(t *testing.T) {
	// GIVEN: An account and its shadow payee
	// WHEN: Updating or deleting the payee directly
	// THEN: Conflict; the account owns it

	engine := newTestEngine(t, nil)
	ctx := context.Background()
	id := newAccount(t, engine, "Checking", "0")

	_, err := engine.Payees.Update(ctx, id, budget.PayeeInput{Description: "Renamed"})
	assertStatus(t, ledger.StatusConflict, err)
	assertStatus(t, ledger.StatusConflict, engine.Payees.Delete(ctx, id))
}

func TestPayee_DeleteRequiresHiddenAndUnreferenced(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()
	checking := newAccount(t, engine, "Checking", "100")
	grocer := newPayee(t, engine, "Grocer")
	idle := newPayee(t, engine, "Idle")

	// active
	assertStatus(t, ledger.StatusConflict, engine.Payees.Delete(ctx, idle))

	tx := spend(t, engine, checking, grocer, ledger.IgnoredEnvelopeID, "-5", day(3, 1))
	_, err := engine.Payees.Update(ctx, grocer, budget.PayeeInput{Description: "Grocer", Hidden: true})
	require.NoError(t, err)
	assertStatus(t, ledger.StatusConflict, engine.Payees.Delete(ctx, grocer))

	// a deleted transaction no longer pins the payee
	_, err = engine.Transactions.Update(ctx, tx.ID, budget.TransactionInput{
		Amount: tx.Amount, AccountID: checking, PayeeID: grocer, EnvelopeID: tx.EnvelopeID,
		ServiceDate: tx.ServiceDate, Posted: true, Hidden: true,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Transactions.Delete(ctx, tx.ID))
	require.NoError(t, engine.Payees.Delete(ctx, grocer))

	_, err = engine.Payees.Read(ctx, grocer)
	assertStatus(t, ledger.StatusGone, err)
}

func TestPayee_UpdateTrimsAndValidates(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()
	id := newPayee(t, engine, "Grocer")

	_, err := engine.Payees.Update(ctx, id, budget.PayeeInput{Description: ""})
	assertStatus(t, ledger.StatusBadRequest, err)

	updated, err := engine.Payees.Update(ctx, id, budget.PayeeInput{Description: "  Corner Shop ", Notes: " open late "})
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", updated.Description)
	assert.Equal(t, "open late", updated.Notes)

	_, err = engine.Payees.Update(ctx, "missing", budget.PayeeInput{Description: "x"})
	assertStatus(t, ledger.StatusNotFound, err)
}

func TestPayee_SearchMarksAccountPayees(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()
	account := newAccount(t, engine, "Checking", "0")
	grocer := newPayee(t, engine, "Grocer")

	views, err := engine.Payees.Search(ctx, ledger.Filter{IDs: []ledger.ID{account, grocer}})
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[ledger.ID]budget.PayeeView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.True(t, byID[account].IsAccount)
	assert.False(t, byID[grocer].IsAccount)
}
