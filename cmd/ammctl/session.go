package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammcore/internal/amm"
	"ammcore/internal/config"
	"ammcore/internal/events"
	"ammcore/internal/ledger"
	"ammcore/internal/storage"
)

// session is one command invocation against the ledger snapshot.
type session struct {
	ctx     context.Context
	stop    context.CancelFunc
	cfg     config.Config
	logger  *zap.Logger
	program solana.PublicKey
	ledger  *ledger.Memory
	journal *storage.JsonlStorage
	engine  *amm.Engine
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	program, err := programID(cfg.Program)
	if err != nil {
		return nil, err
	}
	if cfg.Ledger == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	mem, err := ledger.LoadMemory(cfg.Ledger, program)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, program: program, ledger: mem}

	var sink amm.EventSink
	if cfg.JournalEnabled && cfg.Journal != "" {
		encoder, err := events.NewEncoder(program)
		if err != nil {
			return nil, err
		}
		var opts []storage.JsonlOption
		if cfg.JournalSync {
			opts = append(opts, storage.WithSync())
		}
		s.journal = storage.NewJsonlStorage(cfg.Journal, opts...)
		sink = storage.NewJournalSink(encoder, s.journal)
	}

	s.engine = amm.NewEngine(amm.Config{
		ProgramID:        program,
		MinimumLiquidity: cfg.MinimumLiquidity,
	}, mem, sink, logger)
	s.ctx, s.stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	logger.Debug("session open",
		zap.String("ledger", cfg.Ledger),
		zap.Stringer("program", program),
		zap.Bool("journal", s.journal != nil),
	)
	return s, nil
}

// commit persists the ledger after a successful mutation.
func (s *session) commit() error {
	if err := s.ledger.Save(s.cfg.Ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (s *session) close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("close journal", zap.Error(err))
		}
	}
	s.stop()
	_ = s.logger.Sync()
}

// decimals returns a mint's decimals, or 0 when it is unknown.
func (s *session) decimals(mint solana.PublicKey) int32 {
	m, err := s.ledger.Mint(s.ctx, mint)
	if err != nil {
		return 0
	}
	return int32(m.Decimals)
}

// amount renders raw units of mint for display.
func (s *session) amount(raw uint64, mint solana.PublicKey) string {
	d := s.decimals(mint)
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -d).StringFixed(d)
}

func programID(value string) (solana.PublicKey, error) {
	if value == "" {
		value = config.DefaultProgramID
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id: %w", err)
	}
	return key, nil
}

func keyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return key, nil
}

func optionalKeyFlag(cmd *cobra.Command, name string) (*solana.PublicKey, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, nil
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return &key, nil
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
