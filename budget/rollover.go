/*
rollover.go - Period-by-period budget carry-forward

PURPOSE:
  Derives the per-period aggregates (Income, ToBudget, Overspend) and the
  per-envelope balances by replaying stored budget periods in date order.
  Nothing is stored; every call recomputes from source rows.

RULES:
  Window:    Period i covers transactions dated after period i-1's EndDate
             and on or before its own EndDate. The first period has no lower
             bound, so activity dated before any stored period counts there.
  Income:    Sum of amounts in the window attributed to the Income envelope.
  Envelope:  balance = carried + budgeted + activity (envelope side)
             A negative balance on an envelope with IgnoreOverspend=false is
             overspend: it is added to the period's Overspend and the
             envelope restarts the next period at zero. Other balances carry.
  ToBudget:  ToBudget(i) = ToBudget(i-1) + Income(i) - Budgeted(i) - Overspend(i-1)

  Reserved envelopes (Income, Ignored) are excluded from envelope rows and
  from Budgeted.

EDGE CASES:
  - First-ever period: previous ToBudget and Overspend are zero.
  - Period with no budgets: Budgeted is zero; balances still carry.
*/
package budget

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
)

// EnvelopeBalance is one envelope's state within a period.
type EnvelopeBalance struct {
	EnvelopeID ledger.ID
	Carried    decimal.Decimal
	Budgeted   decimal.Decimal
	Activity   decimal.Decimal
	Balance    decimal.Decimal
}

// PeriodState is the derived state of one period.
type PeriodState struct {
	Period    ledger.BudgetPeriod
	Income    decimal.Decimal
	Budgeted  decimal.Decimal
	ToBudget  decimal.Decimal
	Overspend decimal.Decimal
	Envelopes map[ledger.ID]EnvelopeBalance
}

type pairKey struct {
	envelope ledger.ID
	period   ledger.ID
}

// currentBudgets keeps one budget per (envelope, period) pair: the most
// recently modified one.
func currentBudgets(budgets []ledger.Budget) map[pairKey]ledger.Budget {
	index := make(map[pairKey]ledger.Budget, len(budgets))
	for _, b := range budgets {
		if b.IsDeleted() {
			continue
		}
		k := pairKey{envelope: b.EnvelopeID, period: b.BudgetPeriodID}
		if prev, ok := index[k]; ok && prev.ModifiedAt.After(b.ModifiedAt) {
			continue
		}
		index[k] = b
	}
	return index
}

// rollover replays periods (ordered, live) up to and including the one at
// index through, and returns a state per replayed period.
func rollover(
	periods []ledger.BudgetPeriod,
	through int,
	envelopes []ledger.Envelope,
	budgets []ledger.Budget,
	txs []ledger.Transaction,
) []PeriodState {
	index := currentBudgets(budgets)
	carry := make(map[ledger.ID]decimal.Decimal, len(envelopes))

	tracked := make([]ledger.Envelope, 0, len(envelopes))
	for _, e := range envelopes {
		if !ledger.IsReservedEnvelope(e.ID) {
			tracked = append(tracked, e)
		}
	}

	states := make([]PeriodState, 0, through+1)
	toBudget, overspendPrev := decimal.Zero, decimal.Zero
	var lower *time.Time

	for i := 0; i <= through && i < len(periods); i++ {
		period := periods[i]
		upper := ledger.Day(period.EndDate)
		inWindow := func(tx ledger.Transaction) bool {
			d := ledger.Day(tx.ServiceDate)
			return !d.After(upper) && (lower == nil || d.After(*lower))
		}

		// Income counts only the period's own dates. Income dated before the
		// first period or in a gap since the previous one still reaches
		// ToBudget through early.
		own := ledger.RangeOf(period)
		inPeriod := func(tx ledger.Transaction) bool { return inWindow(tx) && own.Contains(tx.ServiceDate) }
		early := ledger.EnvelopeSides.Net(ledger.IncomeEnvelopeID, txs, func(tx ledger.Transaction) bool {
			return inWindow(tx) && !own.Contains(tx.ServiceDate)
		})

		state := PeriodState{
			Period:    period,
			Income:    ledger.EnvelopeSides.Net(ledger.IncomeEnvelopeID, txs, inPeriod),
			Budgeted:  decimal.Zero,
			Overspend: decimal.Zero,
			Envelopes: make(map[ledger.ID]EnvelopeBalance, len(tracked)),
		}

		activity := make(map[ledger.ID]decimal.Decimal)
		for _, tx := range txs {
			if inWindow(tx) {
				activity[tx.EnvelopeID] = activity[tx.EnvelopeID].Add(tx.Amount)
			}
		}

		for _, e := range tracked {
			row := EnvelopeBalance{
				EnvelopeID: e.ID,
				Carried:    carry[e.ID],
				Budgeted:   decimal.Zero,
				Activity:   activity[e.ID],
			}
			if b, ok := index[pairKey{envelope: e.ID, period: period.ID}]; ok {
				row.Budgeted = b.Amount
			}
			row.Balance = row.Carried.Add(row.Budgeted).Add(row.Activity)
			state.Budgeted = state.Budgeted.Add(row.Budgeted)

			if row.Balance.IsNegative() && !e.IgnoreOverspend {
				state.Overspend = state.Overspend.Add(row.Balance.Neg())
				carry[e.ID] = decimal.Zero
			} else {
				carry[e.ID] = row.Balance
			}
			state.Envelopes[e.ID] = row
		}

		toBudget = toBudget.Add(early).Add(state.Income).Sub(state.Budgeted).Sub(overspendPrev)
		state.ToBudget = toBudget
		overspendPrev = state.Overspend

		states = append(states, state)
		lower = &upper
	}
	return states
}
