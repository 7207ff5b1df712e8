package budget

import (
	"context"
	"sort"
	"time"

	"github.com/warp/envelope-ledger/ledger"
)

// =============================================================================
// BUDGET PERIOD NAVIGATOR
// =============================================================================

// Periods finds and creates budget periods. Periods are generated on
// demand, one calendar month at a time, and never removed.
type Periods struct {
	env *env
}

func (p *Periods) Read(ctx context.Context, id ledger.ID) (ledger.BudgetPeriod, error) {
	if err := requireID(id, "budget period"); err != nil {
		return ledger.BudgetPeriod{}, err
	}
	return lookup(ctx, p.env.store.BudgetPeriods(), id, "budget period")
}

// List returns every live period ordered by BeginDate.
func (p *Periods) List(ctx context.Context) ([]ledger.BudgetPeriod, error) {
	return p.list(ctx, p.env.store)
}

func (p *Periods) list(ctx context.Context, s ledger.Store) ([]ledger.BudgetPeriod, error) {
	periods, err := ledger.ReadAll(ctx, s.BudgetPeriods())
	if err != nil {
		return nil, ledger.Internal(err)
	}
	periods = ledger.NotDeleted(periods)
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].BeginDate.Before(periods[j].BeginDate)
	})
	return periods, nil
}

// Current returns the period containing date, creating the calendar month
// around it if none exists.
func (p *Periods) Current(ctx context.Context, date time.Time) (ledger.BudgetPeriod, error) {
	if date.IsZero() {
		date = p.env.stamp()
	}
	periods, err := p.List(ctx)
	if err != nil {
		return ledger.BudgetPeriod{}, err
	}
	for _, period := range periods {
		if period.Contains(date) {
			return period, nil
		}
	}
	return p.create(ctx, ledger.MonthRange(date))
}

// Next returns the period starting the day after id ends.
func (p *Periods) Next(ctx context.Context, id ledger.ID) (ledger.BudgetPeriod, error) {
	return p.adjacent(ctx, id, func(r ledger.Range) ledger.Range { return r.Next() },
		func(candidate, want ledger.Range) bool { return candidate.Begin.Equal(want.Begin) })
}

// Previous returns the period ending the day before id begins.
func (p *Periods) Previous(ctx context.Context, id ledger.ID) (ledger.BudgetPeriod, error) {
	return p.adjacent(ctx, id, func(r ledger.Range) ledger.Range { return r.Previous() },
		func(candidate, want ledger.Range) bool { return candidate.End.Equal(want.End) })
}

func (p *Periods) adjacent(
	ctx context.Context,
	id ledger.ID,
	shift func(ledger.Range) ledger.Range,
	same func(candidate, want ledger.Range) bool,
) (ledger.BudgetPeriod, error) {
	period, err := p.Read(ctx, id)
	if err != nil {
		return ledger.BudgetPeriod{}, err
	}
	want := shift(ledger.RangeOf(period))

	periods, err := p.List(ctx)
	if err != nil {
		return ledger.BudgetPeriod{}, err
	}
	for _, candidate := range periods {
		if same(ledger.RangeOf(candidate), want) {
			return candidate, nil
		}
	}
	return p.create(ctx, want)
}

func (p *Periods) create(ctx context.Context, r ledger.Range) (ledger.BudgetPeriod, error) {
	now := p.env.stamp()
	period := ledger.BudgetPeriod{
		ID:        p.env.newID(),
		BeginDate: r.Begin,
		EndDate:   r.End,
		Lifecycle: ledger.Lifecycle{CreatedAt: now, ModifiedAt: now},
	}
	if err := p.env.store.BudgetPeriods().Create(ctx, period); err != nil {
		return ledger.BudgetPeriod{}, ledger.Internal(err)
	}
	return period, nil
}

// position returns the index of id in the ordered periods, or -1.
func position(periods []ledger.BudgetPeriod, id ledger.ID) int {
	for i, period := range periods {
		if period.ID == id {
			return i
		}
	}
	return -1
}
