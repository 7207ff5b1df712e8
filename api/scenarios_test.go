/*
scenarios_test.go - Tests for demo scenarios

Tests that each scenario loads through the engine and leaves the ledger
in the expected state.
*/
package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/api"
)

func loadScenario(t *testing.T, h http.Handler, id string) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListScenarios(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ids := []string{}
	for _, s := range decode[[]api.ScenarioDTO](t, rec) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"first-account", "household"}, ids)
}

func TestScenario_FirstAccount(t *testing.T) {
	h := newTestRouter(t, nil)
	loadScenario(t, h, "first-account")

	rec := do(t, h, http.MethodGet, "/api/accounts", nil)
	accounts := decode[[]api.AccountDTO](t, rec)
	require.Len(t, accounts, 1)
	assert.Equal(t, "1500", accounts[0].Balance.Value)
}

func TestScenario_Household(t *testing.T) {
	// GIVEN: The household scenario
	// WHEN: Reading the current period's summary
	// THEN: Income is the checking opening balance and everything budgeted
	//       is accounted for

	h := newTestRouter(t, nil)
	loadScenario(t, h, "household")

	rec := do(t, h, http.MethodGet, "/api/accounts", nil)
	assert.Len(t, decode[[]api.AccountDTO](t, rec), 3)

	rec = do(t, h, http.MethodGet, "/api/periods/current", nil)
	period := decode[api.PeriodDTO](t, rec)

	rec = do(t, h, http.MethodGet, "/api/periods/"+period.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decode[api.SummaryDTO](t, rec)
	assert.Equal(t, "4200", sum.Income.Value, "savings is a reporting account")
	assert.Equal(t, "2630.15", sum.Budgeted.Value)
	assert.Equal(t, "1569.85", sum.ToBudget.Value)
	assert.Equal(t, "0", sum.Overspend.Value, "dining ignores overspend")
}

func TestLoadScenario_Unknown(t *testing.T) {
	h := newTestRouter(t, nil)
	assertError(t, do(t, h, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "lottery-win"}), http.StatusBadRequest, "")
	assertError(t, do(t, h, http.MethodPost, "/api/scenarios/load", "[]"), http.StatusBadRequest, "")
}
