package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammcore/internal/aggregate"
	"ammcore/internal/config"
	"ammcore/internal/ledger"
	"ammcore/internal/storage/postgres"
)

func newAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Fold typed events into per-pool window metrics in Postgres",
		RunE:  runAggregate,
	}
	cmd.Flags().String("in", "./data/typed_events.jsonl", "input typed events JSONL path")
	cmd.Flags().String("window", "5m", "window size (e.g. 5m, 1h)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Bool("ensure-schema", false, "create tables before aggregating")
	cmd.Flags().Int("batch-size", 1000, "upsert batch size")
	cmd.Flags().String("state-file", "", "local state file; the database keeps progress when empty")
	cmd.Flags().String("state-name", "aggregate", "progress key in aggregator_state")
	cmd.Flags().String("recompute-from", "", "recompute windows from a timestamp (unix seconds or RFC3339)")
	return cmd
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAggregate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	windowDuration, err := time.ParseDuration(cfg.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if windowDuration <= 0 {
		return fmt.Errorf("window must be positive")
	}
	windowSeconds := uint64(windowDuration.Seconds())
	if windowSeconds == 0 {
		return fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := config.ParseTimestamp(cfg.RecomputeFrom)
	if err != nil {
		return fmt.Errorf("parse recompute-from: %w", err)
	}

	program, err := programID(cfg.Program)
	if err != nil {
		return err
	}
	// Mint decimals for TVL and fee rates come from the ledger snapshot.
	mem, err := ledger.LoadMemory(cfg.Ledger, program)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if cfg.EnsureSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	var stateStore aggregate.StateStore
	if cfg.StateFile != "" {
		stateStore = &aggregate.FileStateStore{Path: cfg.StateFile, Input: cfg.Input}
	} else {
		stateStore = &aggregate.DBStateStore{Store: store, Name: fmt.Sprintf("%s:%d", cfg.StateName, windowSeconds)}
	}

	agg := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: recomputeFrom,
		StateStore:    stateStore,
	}, store, mem, logger)

	logger.Info("aggregate start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("recompute_from", recomputeFrom),
		zap.Bool("ensure_schema", cfg.EnsureSchema),
	)

	return agg.Run(ctx, cfg.Input)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
