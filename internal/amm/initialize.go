package amm

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammcore/internal/ledger"
	"ammcore/internal/pool"
)

// InitializeRequest creates a pool for a mint pair.
type InitializeRequest struct {
	Initializer solana.PublicKey
	MintX       solana.PublicKey
	MintY       solana.PublicKey
	Seed        uint64
	FeeBps      uint16
	Authority   *solana.PublicKey
}

// InitializeResult identifies the created pool.
type InitializeResult struct {
	Pool     solana.PublicKey
	Config   pool.Config
	VaultX   solana.PublicKey
	VaultY   solana.PublicKey
	LockedLP solana.PublicKey
	Receipt  ledger.Receipt
}

// Initialize writes a new pool config and opens its vaults and share mint.
func (e *Engine) Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	const op = "initialize"

	cfg := pool.Config{
		Seed:       req.Seed,
		MintX:      req.MintX,
		MintY:      req.MintY,
		FeeBps:     req.FeeBps,
		Authority:  req.Authority,
		LPDecimals: pool.LPDecimals,
	}
	if err := cfg.Validate(); err != nil {
		return InitializeResult{}, e.reject(op, solana.PublicKey{}, err)
	}

	key, configBump, err := e.deriver.FindConfig(req.Seed)
	if err != nil {
		return InitializeResult{}, e.reject(op, key, err)
	}
	mintLP, lpBump, err := e.deriver.FindLPMint(key)
	if err != nil {
		return InitializeResult{}, e.reject(op, key, err)
	}
	cfg.MintLP = mintLP
	cfg.ConfigBump = configBump
	cfg.LPBump = lpBump

	if _, err := e.ledger.LoadConfig(ctx, key); err == nil {
		return InitializeResult{}, e.reject(op, key, newError(op, KindState, ErrConfigExists))
	} else if !isNotFound(err) {
		return InitializeResult{}, e.reject(op, key, err)
	}

	accounts, err := e.poolAccounts(key, cfg)
	if err != nil {
		return InitializeResult{}, e.reject(op, key, err)
	}

	receipt, err := e.ledger.Execute(ctx, ledger.Tx{
		Signers: []solana.PublicKey{req.Initializer},
		Ops: []ledger.Op{
			ledger.CreateMint(mintLP, pool.LPDecimals, key),
			ledger.CreateAccount(accounts.vaultX, key, cfg.MintX),
			ledger.CreateAccount(accounts.vaultY, key, cfg.MintY),
			ledger.CreateAccount(accounts.lockedLP, key, mintLP),
			ledger.WriteConfig(key, cfg, true).SignedBy(accounts.seeds),
		},
	})
	if err != nil {
		return InitializeResult{}, e.reject(op, key, err)
	}

	e.logger.Info("pool initialized",
		zap.Stringer("pool", key),
		zap.Uint64("seed", cfg.Seed),
		zap.Stringer("mint_x", cfg.MintX),
		zap.Stringer("mint_y", cfg.MintY),
		zap.Stringer("mint_lp", mintLP),
		zap.Uint16("fee_bps", cfg.FeeBps),
		zap.Uint64("sequence", receipt.Sequence),
	)
	e.publish(ctx, Event{
		Kind:    EventPoolInitialized,
		Pool:    key,
		Actor:   req.Initializer,
		Receipt: receipt,
		Config:  cfg,
	})

	return InitializeResult{
		Pool:     key,
		Config:   cfg,
		VaultX:   accounts.vaultX,
		VaultY:   accounts.vaultY,
		LockedLP: accounts.lockedLP,
		Receipt:  receipt,
	}, nil
}
