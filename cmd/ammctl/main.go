package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ammctl",
		Short:        "Constant-product pool operations over a local ledger",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("ledger", "./data/ledger.json", "ledger snapshot path")
	pf.String("program", "", "program identity (base58)")
	pf.Uint64("minimum-liquidity", 1000, "shares locked on a pool's first deposit")
	pf.String("journal", "./data/journal.jsonl", "event journal JSONL path")
	pf.Bool("journal-enabled", true, "append committed events to the journal")
	pf.Bool("journal-sync", false, "fsync the journal after every event")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(),
		newDepositCmd(),
		newWithdrawCmd(),
		newSwapCmd(),
		newQuoteCmd(),
		newLockCmd(true),
		newLockCmd(false),
		newSetAuthorityCmd(),
		newPoolCmd(),
		newAssetCmd(),
		newDecodeCmd(),
		newAggregateCmd(),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Results go to stdout; keep logs off it.
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}
