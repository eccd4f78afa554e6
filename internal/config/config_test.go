package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, DefaultProgramID, cfg.Program)
	require.Equal(t, uint64(1000), cfg.MinimumLiquidity)
	require.True(t, cfg.JournalEnabled)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "amm.yaml")
	require.NoError(t, os.WriteFile(file, []byte("ledger: from-file.json\nlog-level: warn\nminimum-liquidity: 10\n"), 0o644))

	t.Setenv("AMM_LOG_LEVEL", "debug")
	t.Setenv("AMM_JOURNAL_ENABLED", "false")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("ledger", "", "")
	flags.Uint64("minimum-liquidity", 1000, "")
	require.NoError(t, flags.Parse([]string{"--ledger", "from-flag.json"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)
	require.Equal(t, "from-flag.json", cfg.Ledger)
	require.Equal(t, "debug", cfg.LogLevel)
	require.False(t, cfg.JournalEnabled)
	// An unset flag does not override the file.
	require.Equal(t, uint64(10), cfg.MinimumLiquidity)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadDecode(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestLoadAggregate(t *testing.T) {
	t.Setenv("AMM_PG_DSN", "postgres://localhost/amm")

	cfg, err := LoadAggregate("", nil)
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/amm", cfg.PGDSN)
	require.Equal(t, "5m", cfg.Window)
	require.Equal(t, "aggregate", cfg.StateName)
	require.Equal(t, 1000, cfg.BatchSize)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp(" 1700000000 ")
	require.NoError(t, err)
	require.Equal(t, uint64(1700000000), ts)

	ts, err = ParseTimestamp("2024-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Equal(t, uint64(1704067200), ts)

	ts, err = ParseTimestamp("")
	require.NoError(t, err)
	require.Zero(t, ts)

	_, err = ParseTimestamp("yesterday")
	require.Error(t, err)
}
