package amm

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"ammcore/internal/curve"
	"ammcore/internal/pool"
)

// QuoteRequest prices a trade without executing it. With ExactIn unset,
// Amount is the desired output.
type QuoteRequest struct {
	Pool    solana.PublicKey
	SellX   bool
	Amount  uint64
	ExactIn bool
}

// PoolState is a read-only view of a pool.
type PoolState struct {
	Pool     solana.PublicKey
	Config   pool.Config
	VaultX   solana.PublicKey
	VaultY   solana.PublicKey
	LockedLP solana.PublicKey
	Reserves curve.Reserves
}

// Quote prices a swap against current reserves.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (curve.SwapResult, error) {
	const op = "quote"

	if req.Amount == 0 {
		return curve.SwapResult{}, e.reject(op, req.Pool, curve.ErrZeroAmount)
	}
	p, err := e.loadPool(ctx, req.Pool)
	if err != nil {
		return curve.SwapResult{}, e.reject(op, req.Pool, err)
	}
	r, err := e.reserves(ctx, p)
	if err != nil {
		return curve.SwapResult{}, e.reject(op, req.Pool, err)
	}
	if r.Empty() {
		return curve.SwapResult{}, e.reject(op, req.Pool, curve.ErrEmptyPool)
	}
	c, err := curve.New(r.X, r.Y, r.Supply, p.cfg.FeeBps)
	if err != nil {
		return curve.SwapResult{}, e.reject(op, req.Pool, err)
	}
	res, err := c.Swap(sideOf(req.SellX), req.Amount, req.ExactIn)
	if err != nil {
		return curve.SwapResult{}, e.reject(op, req.Pool, err)
	}
	return res, nil
}

// State loads a pool with its current reserves.
func (e *Engine) State(ctx context.Context, key solana.PublicKey) (PoolState, error) {
	p, err := e.loadPool(ctx, key)
	if err != nil {
		return PoolState{}, e.reject("state", key, err)
	}
	r, err := e.reserves(ctx, p)
	if err != nil {
		return PoolState{}, e.reject("state", key, err)
	}
	return PoolState{
		Pool:     key,
		Config:   p.cfg,
		VaultX:   p.vaultX,
		VaultY:   p.vaultY,
		LockedLP: p.lockedLP,
		Reserves: r,
	}, nil
}

// PoolKey derives the config key for seed.
func (e *Engine) PoolKey(seed uint64) (solana.PublicKey, error) {
	key, _, err := e.deriver.FindConfig(seed)
	return key, err
}
