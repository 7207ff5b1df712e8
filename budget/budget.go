package budget

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// BUDGET LOGIC - Allocation, transfer, aggregates, suggestions
// =============================================================================

type Budgets struct {
	env     *env
	periods *Periods
}

// Summary is the aggregate of one period. None of it is stored.
type Summary struct {
	Period    ledger.BudgetPeriod
	Income    decimal.Decimal
	Budgeted  decimal.Decimal
	ToBudget  decimal.Decimal
	Overspend decimal.Decimal
}

// EnvelopeRow is one envelope's line in a period's budget view.
type EnvelopeRow struct {
	Envelope ledger.Envelope
	EnvelopeBalance
}

// Suggestion is a candidate amount for quick budgeting.
type Suggestion struct {
	Kind   SuggestionKind
	Amount decimal.Decimal
}

type SuggestionKind string

const (
	SuggestLastBudgeted SuggestionKind = "last_budgeted"
	SuggestLastSpent    SuggestionKind = "last_spent"
	SuggestAverageSpent SuggestionKind = "average_spent"
)

// suggestionHistory is how many previous periods feed the average.
const suggestionHistory = 3

// -----------------------------------------------------------------------------
// Save
// -----------------------------------------------------------------------------

// Save sets the budget of envelopeID in periodID to amount, creating the
// row if the pair has none.
func (b *Budgets) Save(ctx context.Context, envelopeID, periodID ledger.ID, amount decimal.Decimal) (ledger.Budget, error) {
	if err := requireID(envelopeID, "envelope"); err != nil {
		return ledger.Budget{}, err
	}
	if err := requireID(periodID, "budget period"); err != nil {
		return ledger.Budget{}, err
	}
	if ledger.IsReservedEnvelope(envelopeID) {
		return ledger.Budget{}, ledger.Forbidden("envelope %s is reserved", envelopeID)
	}

	s := b.env.store
	if _, err := lookup(ctx, s.Envelopes(), envelopeID, "envelope"); err != nil {
		return ledger.Budget{}, err
	}
	if _, err := lookup(ctx, s.BudgetPeriods(), periodID, "budget period"); err != nil {
		return ledger.Budget{}, err
	}

	budgets, err := liveBudgets(ctx, s)
	if err != nil {
		return ledger.Budget{}, err
	}
	existing, ok := currentBudgets(budgets)[pairKey{envelope: envelopeID, period: periodID}]
	return b.upsert(ctx, s, envelopeID, periodID, amount, existing, ok)
}

func (b *Budgets) upsert(
	ctx context.Context,
	s ledger.Store,
	envelopeID, periodID ledger.ID,
	amount decimal.Decimal,
	existing ledger.Budget,
	found bool,
) (ledger.Budget, error) {
	now := b.env.stamp()
	if found {
		existing.Amount = amount
		existing.Touch(now)
		if err := s.Budgets().Update(ctx, existing); err != nil {
			return ledger.Budget{}, ledger.Internal(err)
		}
		return existing, nil
	}

	created := ledger.Budget{
		ID:             b.env.newID(),
		EnvelopeID:     envelopeID,
		BudgetPeriodID: periodID,
		Amount:         amount,
		Lifecycle:      ledger.Lifecycle{CreatedAt: now, ModifiedAt: now},
	}
	if err := s.Budgets().Create(ctx, created); err != nil {
		return ledger.Budget{}, ledger.Internal(err)
	}
	return created, nil
}

// -----------------------------------------------------------------------------
// Transfer
// -----------------------------------------------------------------------------

// Transfer moves amount of budget from one envelope to another within
// periodID. Both budgets change or neither does.
func (b *Budgets) Transfer(ctx context.Context, periodID, fromID, toID ledger.ID, amount decimal.Decimal) error {
	for _, check := range []struct {
		id   ledger.ID
		kind string
	}{{periodID, "budget period"}, {fromID, "source envelope"}, {toID, "destination envelope"}} {
		if err := requireID(check.id, check.kind); err != nil {
			return err
		}
	}
	if fromID == toID {
		return ledger.BadRequest("source and destination envelope are the same")
	}
	if !amount.IsPositive() {
		return ledger.BadRequest("transfer amount must be positive")
	}
	if ledger.IsReservedEnvelope(fromID) || ledger.IsReservedEnvelope(toID) {
		return ledger.Forbidden("reserved envelopes cannot hold budget")
	}

	s := b.env.store
	from, err := lookup(ctx, s.Envelopes(), fromID, "envelope")
	if err != nil {
		return err
	}
	if _, err := lookup(ctx, s.Envelopes(), toID, "envelope"); err != nil {
		return err
	}
	if _, err := lookup(ctx, s.BudgetPeriods(), periodID, "budget period"); err != nil {
		return err
	}

	budgets, err := liveBudgets(ctx, s)
	if err != nil {
		return err
	}
	index := currentBudgets(budgets)
	fromBudget, fromFound := index[pairKey{envelope: fromID, period: periodID}]
	toBudget, toFound := index[pairKey{envelope: toID, period: periodID}]

	fromAmount := decimal.Zero
	if fromFound {
		fromAmount = fromBudget.Amount
	}
	toAmount := decimal.Zero
	if toFound {
		toAmount = toBudget.Amount
	}
	if remaining := fromAmount.Sub(amount); remaining.IsNegative() && !from.IgnoreOverspend {
		return ledger.Conflict("envelope %s has only %s budgeted", fromID, fromAmount)
	}

	write := func(st ledger.Store) error {
		if _, err := b.upsert(ctx, st, fromID, periodID, fromAmount.Sub(amount), fromBudget, fromFound); err != nil {
			return err
		}
		_, err := b.upsert(ctx, st, toID, periodID, toAmount.Add(amount), toBudget, toFound)
		return err
	}

	if tx, ok := s.(ledger.TxStore); ok {
		return ledger.Internal(tx.WithTx(ctx, write))
	}

	// No store transaction: write in order and undo the first write if the
	// second one fails.
	written, err := b.upsert(ctx, s, fromID, periodID, fromAmount.Sub(amount), fromBudget, fromFound)
	if err != nil {
		return err
	}
	if _, err := b.upsert(ctx, s, toID, periodID, toAmount.Add(amount), toBudget, toFound); err != nil {
		if _, undoErr := b.upsert(ctx, s, fromID, periodID, fromAmount, written, true); undoErr != nil {
			return ledger.Internal(errors.Join(err, fmt.Errorf("undo budget of envelope %s, ledger may be half-updated: %w", fromID, undoErr)))
		}
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// Aggregates
// -----------------------------------------------------------------------------

// replay loads everything the rollover needs and replays up to periodID.
func (b *Budgets) replay(ctx context.Context, periodID ledger.ID) ([]PeriodState, []ledger.Envelope, error) {
	if err := requireID(periodID, "budget period"); err != nil {
		return nil, nil, err
	}
	s := b.env.store
	if _, err := lookup(ctx, s.BudgetPeriods(), periodID, "budget period"); err != nil {
		return nil, nil, err
	}

	periods, err := b.periods.list(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	through := position(periods, periodID)

	envelopes, err := ledger.ReadAll(ctx, s.Envelopes())
	if err != nil {
		return nil, nil, ledger.Internal(err)
	}
	envelopes = ledger.NotDeleted(envelopes)
	budgets, err := liveBudgets(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	txs, err := liveTransactions(ctx, s)
	if err != nil {
		return nil, nil, err
	}

	return rollover(periods, through, envelopes, budgets, txs), envelopes, nil
}

// Summary computes Income, ToBudget and Overspend for periodID.
func (b *Budgets) Summary(ctx context.Context, periodID ledger.ID) (Summary, error) {
	states, _, err := b.replay(ctx, periodID)
	if err != nil {
		return Summary{}, err
	}
	last := states[len(states)-1]
	return Summary{
		Period:    last.Period,
		Income:    last.Income,
		Budgeted:  last.Budgeted,
		ToBudget:  last.ToBudget,
		Overspend: last.Overspend,
	}, nil
}

// Period returns per-envelope budget rows for periodID, ordered by
// envelope description. Hidden envelopes are included only when they
// carry a non-zero figure.
func (b *Budgets) Period(ctx context.Context, periodID ledger.ID) ([]EnvelopeRow, error) {
	states, envelopes, err := b.replay(ctx, periodID)
	if err != nil {
		return nil, err
	}
	last := states[len(states)-1]

	rows := make([]EnvelopeRow, 0, len(last.Envelopes))
	for _, e := range envelopes {
		bal, ok := last.Envelopes[e.ID]
		if !ok {
			continue
		}
		if e.IsHidden() && bal.Budgeted.IsZero() && bal.Activity.IsZero() && bal.Balance.IsZero() {
			continue
		}
		rows = append(rows, EnvelopeRow{Envelope: e, EnvelopeBalance: bal})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Envelope.Description < rows[j].Envelope.Description
	})
	return rows, nil
}

// -----------------------------------------------------------------------------
// Quick budget
// -----------------------------------------------------------------------------

// Suggest proposes amounts to budget for envelopeID in periodID based on
// the periods before it. NotFound means there is not enough history.
func (b *Budgets) Suggest(ctx context.Context, envelopeID, periodID ledger.ID) ([]Suggestion, error) {
	if err := requireID(envelopeID, "envelope"); err != nil {
		return nil, err
	}
	if ledger.IsReservedEnvelope(envelopeID) {
		return nil, ledger.Forbidden("envelope %s is reserved", envelopeID)
	}
	if _, err := lookup(ctx, b.env.store.Envelopes(), envelopeID, "envelope"); err != nil {
		return nil, err
	}

	states, _, err := b.replay(ctx, periodID)
	if err != nil {
		return nil, err
	}
	history := states[:len(states)-1]
	if len(history) == 0 {
		return nil, ledger.NotFound("no budget history before period %s", periodID)
	}
	if len(history) > suggestionHistory {
		history = history[len(history)-suggestionHistory:]
	}

	last := history[len(history)-1].Envelopes[envelopeID]
	spent := decimal.Zero
	for _, st := range history {
		spent = spent.Add(st.Envelopes[envelopeID].Activity.Neg())
	}
	average := spent.Div(decimal.NewFromInt(int64(len(history)))).Round(2)

	var out []Suggestion
	add := func(kind SuggestionKind, amount decimal.Decimal) {
		if !amount.IsPositive() {
			return
		}
		for _, s := range out {
			if s.Amount.Equal(amount) {
				return
			}
		}
		out = append(out, Suggestion{Kind: kind, Amount: amount})
	}
	add(SuggestLastBudgeted, last.Budgeted)
	add(SuggestLastSpent, last.Activity.Neg())
	add(SuggestAverageSpent, average)

	if len(out) == 0 {
		return nil, ledger.NotFound("no budget history for envelope %s", envelopeID)
	}
	return out, nil
}
