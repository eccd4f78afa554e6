package amm

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammcore/internal/authority"
	"ammcore/internal/curve"
	"ammcore/internal/ledger"
	"ammcore/internal/pool"
)

// DefaultMinimumLiquidity is locked in the pool on its first deposit.
const DefaultMinimumLiquidity uint64 = 1000

// Config controls engine behavior.
type Config struct {
	ProgramID        solana.PublicKey
	MinimumLiquidity uint64
}

// EventSink receives an event after its transaction committed.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// Engine executes pool operations against a ledger.
type Engine struct {
	cfg     Config
	deriver authority.Deriver
	ledger  ledger.Ledger
	sink    EventSink
	logger  *zap.Logger
}

func NewEngine(cfg Config, l ledger.Ledger, sink EventSink, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		deriver: authority.NewDeriver(cfg.ProgramID),
		ledger:  l,
		sink:    sink,
		logger:  logger,
	}
}

// Deriver exposes key derivation for the engine's program.
func (e *Engine) Deriver() authority.Deriver {
	return e.deriver
}

// poolAccounts is a loaded and verified pool.
type poolAccounts struct {
	key      solana.PublicKey
	cfg      pool.Config
	vaultX   solana.PublicKey
	vaultY   solana.PublicKey
	lockedLP solana.PublicKey
	seeds    [][]byte
}

func (p poolAccounts) vault(side curve.Side) solana.PublicKey {
	if side == curve.SideY {
		return p.vaultY
	}
	return p.vaultX
}

func (e *Engine) loadPool(ctx context.Context, key solana.PublicKey) (poolAccounts, error) {
	cfg, err := e.ledger.LoadConfig(ctx, key)
	if err != nil {
		return poolAccounts{}, err
	}
	if err := e.deriver.VerifyConfig(cfg.Seed, cfg.ConfigBump, key); err != nil {
		return poolAccounts{}, err
	}
	if err := e.deriver.VerifyLPMint(key, cfg.LPBump, cfg.MintLP); err != nil {
		return poolAccounts{}, err
	}
	accounts, err := e.poolAccounts(key, cfg)
	if err != nil {
		return poolAccounts{}, err
	}
	return accounts, nil
}

func (e *Engine) poolAccounts(key solana.PublicKey, cfg pool.Config) (poolAccounts, error) {
	vaultX, err := e.deriver.Vault(key, cfg.MintX)
	if err != nil {
		return poolAccounts{}, err
	}
	vaultY, err := e.deriver.Vault(key, cfg.MintY)
	if err != nil {
		return poolAccounts{}, err
	}
	lockedLP, err := e.deriver.Vault(key, cfg.MintLP)
	if err != nil {
		return poolAccounts{}, err
	}
	return poolAccounts{
		key:      key,
		cfg:      cfg,
		vaultX:   vaultX,
		vaultY:   vaultY,
		lockedLP: lockedLP,
		seeds:    e.deriver.SignerSeeds(cfg.Seed, cfg.ConfigBump),
	}, nil
}

// reserves reads both vaults and the share supply fresh from the ledger.
func (e *Engine) reserves(ctx context.Context, p poolAccounts) (curve.Reserves, error) {
	x, err := e.ledger.Balance(ctx, p.vaultX)
	if err != nil {
		return curve.Reserves{}, fmt.Errorf("read vault x: %w", err)
	}
	y, err := e.ledger.Balance(ctx, p.vaultY)
	if err != nil {
		return curve.Reserves{}, fmt.Errorf("read vault y: %w", err)
	}
	supply, err := e.ledger.Supply(ctx, p.cfg.MintLP)
	if err != nil {
		return curve.Reserves{}, fmt.Errorf("read lp supply: %w", err)
	}
	return curve.Reserves{X: x, Y: y, Supply: supply}, nil
}

func (e *Engine) reject(op string, key solana.PublicKey, err error) error {
	err = classify(op, err)
	e.logger.Debug("operation rejected",
		zap.String("op", op),
		zap.Stringer("pool", key),
		zap.Error(err),
	)
	return err
}

func (e *Engine) publish(ctx context.Context, ev Event) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, ev); err != nil {
		e.logger.Warn("publish event",
			zap.String("event", string(ev.Kind)),
			zap.Stringer("pool", ev.Pool),
			zap.Uint64("sequence", ev.Receipt.Sequence),
			zap.Error(err),
		)
	}
}

func (e *Engine) holder(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	return authority.Holder(owner, mint)
}

func isNotFound(err error) bool {
	return errors.Is(err, ledger.ErrNotFound)
}
