package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/envelope-ledger/ledger"
)

func lifecycleRows() []ledger.Payee {
	now := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	active := ledger.Payee{ID: "active", Lifecycle: ledger.Lifecycle{CreatedAt: now, ModifiedAt: now}}
	hidden := ledger.Payee{ID: "hidden", Lifecycle: ledger.Lifecycle{CreatedAt: now, ModifiedAt: now}}
	hidden.SetHidden(true, now)
	deleted := ledger.Payee{ID: "deleted", Lifecycle: ledger.Lifecycle{CreatedAt: now, ModifiedAt: now}}
	deleted.SetHidden(true, now)
	deleted.MarkDeleted(now)
	return []ledger.Payee{active, hidden, deleted}
}

func ids(rows []ledger.Payee) []ledger.ID {
	out := make([]ledger.ID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter_HiddenTriState(t *testing.T) {
	// GIVEN: One active, one hidden and one deleted row
	// WHEN: Applying each hidden filter
	// THEN: Deleted never passes; nil keeps both others

	rows := lifecycleRows()

	assert.Equal(t, []ledger.ID{"active", "hidden"}, ids(ledger.Apply(ledger.Filter{}, rows)))
	assert.Equal(t, []ledger.ID{"hidden"}, ids(ledger.Apply(ledger.Filter{Hidden: ledger.Bool(true)}, rows)))
	assert.Equal(t, []ledger.ID{"active"}, ids(ledger.Apply(ledger.Filter{Hidden: ledger.Bool(false)}, rows)))
	assert.Equal(t, []ledger.ID{"active", "hidden"}, ids(ledger.NotDeleted(rows)))
}

func TestLifecycle_States(t *testing.T) {
	now := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	lc := ledger.Lifecycle{CreatedAt: now, ModifiedAt: now}
	assert.Equal(t, ledger.StateActive, lc.State())

	lc.SetHidden(true, now.Add(time.Hour))
	assert.Equal(t, ledger.StateHidden, lc.State())
	assert.Equal(t, now.Add(time.Hour), *lc.HiddenAt)

	lc.SetHidden(true, now.Add(3*time.Hour))
	assert.Equal(t, now.Add(time.Hour), *lc.HiddenAt, "re-hiding keeps the first stamp")

	lc.MarkDeleted(now.Add(2 * time.Hour))
	assert.Equal(t, ledger.StateDeleted, lc.State())
	assert.Nil(t, lc.HiddenAt)
	assert.Equal(t, now.Add(2*time.Hour), lc.ModifiedAt)
	assert.Equal(t, "deleted", lc.State().String())
}

func TestReserved(t *testing.T) {
	assert.True(t, ledger.IsReservedPayee(ledger.StartingBalancePayeeID))
	assert.True(t, ledger.IsReservedGroup(ledger.DebtGroupID))
	assert.True(t, ledger.IsReservedEnvelope(ledger.IgnoredEnvelopeID))
	assert.False(t, ledger.IsReserved("user-envelope"))

	set := ledger.ReservedRecords(time.Now())
	assert.Len(t, set.Payees, 1)
	assert.Len(t, set.Groups, 3)
	assert.Len(t, set.Envelopes, 2)
	for _, e := range set.Envelopes {
		assert.True(t, ledger.IsReservedGroup(e.EnvelopeGroupID), "envelope %s", e.ID)
	}
	desc, ok := ledger.ReservedDescription(ledger.IncomeEnvelopeID)
	assert.True(t, ok)
	assert.Equal(t, "Income", desc)
}
