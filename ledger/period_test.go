package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/ledger"
)

func TestMonthRange(t *testing.T) {
	r := ledger.MonthRange(time.Date(2024, time.February, 17, 22, 30, 0, 0, time.UTC))
	assert.Equal(t, ledger.NewDay(2024, time.February, 1), r.Begin)
	assert.Equal(t, ledger.NewDay(2024, time.February, 29), r.End)
	assert.Equal(t, "[2024-02-01, 2024-02-29]", r.String())
}

func TestRange_NextAndPrevious(t *testing.T) {
	// GIVEN: March 2025
	// WHEN: Stepping forward and back
	// THEN: April and February, with no gap or overlap

	march := ledger.MonthRange(ledger.NewDay(2025, time.March, 10))

	next := march.Next()
	assert.Equal(t, ledger.NewDay(2025, time.April, 1), next.Begin)
	assert.Equal(t, ledger.NewDay(2025, time.April, 30), next.End)

	prev := march.Previous()
	assert.Equal(t, ledger.NewDay(2025, time.February, 1), prev.Begin)
	assert.Equal(t, ledger.NewDay(2025, time.February, 28), prev.End)

	assert.Equal(t, march, next.Previous())
}

func TestRange_ContainsIsInclusive(t *testing.T) {
	r := ledger.MonthRange(ledger.NewDay(2025, time.June, 1))
	assert.True(t, r.Contains(ledger.NewDay(2025, time.June, 1)))
	assert.True(t, r.Contains(time.Date(2025, time.June, 30, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(ledger.NewDay(2025, time.July, 1)))
	assert.False(t, r.Contains(ledger.NewDay(2025, time.May, 31)))
}

func TestRange_Matches(t *testing.T) {
	r := ledger.MonthRange(ledger.NewDay(2025, time.June, 1))
	p := ledger.BudgetPeriod{ID: "p", BeginDate: r.Begin, EndDate: r.End}
	assert.True(t, r.Matches(p))
	p.EndDate = p.EndDate.AddDate(0, 0, 1)
	assert.False(t, r.Matches(p))
}

func TestParseDay(t *testing.T) {
	d, err := ledger.ParseDay("2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, ledger.NewDay(2025, time.December, 31), d)
	assert.Equal(t, "2025-12-31", ledger.FormatDay(d))

	_, err = ledger.ParseDay("31/12/2025")
	assert.Error(t, err)
}

func TestOnOrBefore_DayGranularity(t *testing.T) {
	morning := time.Date(2025, time.May, 5, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, time.May, 5, 20, 0, 0, 0, time.UTC)
	assert.True(t, ledger.OnOrBefore(evening, morning))
	assert.False(t, ledger.OnOrBefore(evening.AddDate(0, 0, 1), morning))
}
