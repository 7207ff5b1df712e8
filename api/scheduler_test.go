package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/api"
	"github.com/warp/envelope-ledger/budget"
	"github.com/warp/envelope-ledger/ledger"
	"github.com/warp/envelope-ledger/ledger/store"
)

func newSchedulerEngine(t *testing.T) *budget.Engine {
	t.Helper()
	engine := budget.New(store.NewMemory(), budget.WithClock(func() time.Time { return clock }))
	require.NoError(t, engine.Bootstrap(context.Background()))
	return engine
}

func TestPeriodScheduler_CreatesCurrentAndNext(t *testing.T) {
	// GIVEN: A ledger with no periods
	// WHEN: The scheduler starts and stops
	// THEN: The month containing today and the following month exist

	engine := newSchedulerEngine(t)
	s := api.NewPeriodScheduler(engine, time.Hour)
	s.Start()
	s.Stop()

	periods, err := engine.Periods.List(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, ledger.NewDay(2025, time.March, 1), periods[0].BeginDate)
	assert.Equal(t, ledger.NewDay(2025, time.April, 1), periods[1].BeginDate)

	// a second run reuses the stored rows
	s = api.NewPeriodScheduler(engine, time.Hour)
	s.Start()
	s.Stop()
	periods, err = engine.Periods.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestPeriodScheduler_Disabled(t *testing.T) {
	engine := newSchedulerEngine(t)
	s := api.NewPeriodScheduler(engine, 0)
	assert.False(t, s.Enabled)
	s.Start()
	s.Stop()

	periods, err := engine.Periods.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestPeriodScheduler_Restart(t *testing.T) {
	engine := newSchedulerEngine(t)
	s := api.NewPeriodScheduler(engine, time.Hour)

	assert.NotPanics(t, func() {
		s.Start()
		s.Stop()
		s.Start()
		s.Stop()
	})

	periods, err := engine.Periods.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}
