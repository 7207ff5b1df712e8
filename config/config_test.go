package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/envelope-ledger/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "ledger.db", cfg.DBPath)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.PeriodCheck)
}

func TestLoad_EnvThenFlags(t *testing.T) {
	// GIVEN: Port and currency set in the environment
	// WHEN: A flag also sets the port
	// THEN: The flag wins; the environment fills the rest

	t.Setenv("ENVELOPE_LEDGER_PORT", "9000")
	t.Setenv("ENVELOPE_LEDGER_CURRENCY", "eur")
	t.Setenv("ENVELOPE_LEDGER_ALLOWED_ORIGINS", "https://budget.example.com")

	t.Setenv("ENVELOPE_LEDGER_PERIOD_CHECK", "15m")

	cfg, err := config.Load([]string{"-port", "9100", "-db", ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, []string{"https://budget.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.PeriodCheck)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := config.Load([]string{"-currency", "XYZ"})
	assert.Error(t, err)

	_, err = config.Load([]string{"-port", "70000"})
	assert.Error(t, err)

	_, err = config.Load([]string{"-db", " "})
	assert.Error(t, err)

	_, err = config.Load([]string{"-period-check", "-1m"})
	assert.Error(t, err)

	t.Setenv("ENVELOPE_LEDGER_PORT", "not-a-number")
	_, err = config.Load(nil)
	assert.Error(t, err)
}
