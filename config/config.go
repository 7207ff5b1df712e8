// Package config loads server settings from the environment and flags.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/caarlos0/env/v11"
)

// Config holds the server settings. Environment variables provide
// defaults; command-line flags override them.
type Config struct {
	Port           int           `env:"ENVELOPE_LEDGER_PORT"            envDefault:"8080"`
	DBPath         string        `env:"ENVELOPE_LEDGER_DB"              envDefault:"ledger.db"`
	Currency       string        `env:"ENVELOPE_LEDGER_CURRENCY"        envDefault:"USD"`
	AllowedOrigins []string      `env:"ENVELOPE_LEDGER_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	// PeriodCheck is how often the period scheduler runs. Zero disables it.
	PeriodCheck    time.Duration `env:"ENVELOPE_LEDGER_PERIOD_CHECK"    envDefault:"1h"`
}

// Load parses the environment, then args (usually os.Args[1:]).
func Load(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, `SQLite database path (":memory:" for in-memory)`)
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "ISO 4217 currency used to display amounts")
	fs.DurationVar(&cfg.PeriodCheck, "period-check", cfg.PeriodCheck, "period scheduler interval (0 disables)")
	origins := fs.String("origins", strings.Join(cfg.AllowedOrigins, ","), "comma-separated CORS origins")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.AllowedOrigins = splitList(*origins)
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("database path is required")
	}
	if c.PeriodCheck < 0 {
		return fmt.Errorf("period check interval %v is negative", c.PeriodCheck)
	}
	if money.GetCurrency(c.Currency) == nil {
		return fmt.Errorf("unknown currency %q", c.Currency)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
