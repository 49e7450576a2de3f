package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"loto-optimizer/internal/game"
)

// envConfig is read from the environment (and .env when present). Flags set
// on the command line win over these values.
type envConfig struct {
	// LogLevel is a logrus level name.
	LogLevel string `env:"LOTO_LOG_LEVEL,default=info"`
	// HistoryDSN is a Postgres DSN for the draws table.
	HistoryDSN string `env:"LOTO_HISTORY_DSN"`
	// MetricsFile receives a prometheus textfile after each CLI run.
	MetricsFile string `env:"LOTO_METRICS_FILE"`
	// Presets is a YAML file of game preset overrides.
	Presets string `env:"LOTO_PRESETS"`
}

// loadEnv loads .env (if any) and decodes the LOTO_* variables.
func loadEnv() (envConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return envConfig{}, fmt.Errorf("load .env: %w", err)
	}
	var c envConfig
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return envConfig{}, fmt.Errorf("decode env: %w", err)
	}
	return c, nil
}

// loadCatalog returns the builtin presets, merged with the override file when
// one is given.
func loadCatalog(presets string) (game.Catalog, error) {
	catalog := game.Builtin()
	if presets == "" {
		return catalog, nil
	}
	return catalog.LoadOverrides(presets)
}
