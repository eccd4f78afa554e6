package amm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammcore/internal/curve"
	"ammcore/internal/ledger"
	"ammcore/internal/mathx"
)

// DepositRequest adds liquidity for Shares, paying at most MaxX and MaxY.
// On an empty pool the maxima are deposited as given.
type DepositRequest struct {
	Pool     solana.PublicKey
	Provider solana.PublicKey
	Shares   uint64
	MaxX     uint64
	MaxY     uint64
}

// DepositResult reports what was paid and minted.
type DepositResult struct {
	Amounts      curve.Amounts
	Shares       uint64
	LockedShares uint64
	Bootstrap    bool
	Reserves     curve.Reserves
	Receipt      ledger.Receipt
}

// Deposit transfers both assets into the vaults and mints shares to the provider.
func (e *Engine) Deposit(ctx context.Context, req DepositRequest) (DepositResult, error) {
	const op = "deposit"

	if req.Shares == 0 {
		return DepositResult{}, e.reject(op, req.Pool, curve.ErrZeroAmount)
	}

	p, err := e.loadPool(ctx, req.Pool)
	if err != nil {
		return DepositResult{}, e.reject(op, req.Pool, err)
	}
	if p.cfg.Locked {
		return DepositResult{}, e.reject(op, req.Pool, ErrPoolLocked)
	}

	before, err := e.reserves(ctx, p)
	if err != nil {
		return DepositResult{}, e.reject(op, req.Pool, err)
	}

	var (
		amounts   curve.Amounts
		minted    uint64
		locked    uint64
		bootstrap = before.Empty()
	)
	if bootstrap {
		if before.X != 0 || before.Y != 0 {
			return DepositResult{}, e.reject(op, req.Pool, fmt.Errorf("%w: x=%d y=%d",
				ErrUnbackedReserves, before.X, before.Y))
		}
		amounts = curve.Amounts{X: req.MaxX, Y: req.MaxY}
		total, err := curve.InitialShares(req.MaxX, req.MaxY, e.cfg.MinimumLiquidity)
		if err != nil {
			return DepositResult{}, e.reject(op, req.Pool, err)
		}
		locked = e.cfg.MinimumLiquidity
		minted = total - locked
	} else {
		amounts, err = curve.DepositAmounts(before, req.Shares)
		if err != nil {
			return DepositResult{}, e.reject(op, req.Pool, err)
		}
		if amounts.X > req.MaxX || amounts.Y > req.MaxY {
			return DepositResult{}, e.reject(op, req.Pool, fmt.Errorf("%w: needs x=%d y=%d, max x=%d y=%d",
				ErrSlippageExceeded, amounts.X, amounts.Y, req.MaxX, req.MaxY))
		}
		minted = req.Shares
	}

	after, err := addReserves(before, amounts, minted+locked)
	if err != nil {
		return DepositResult{}, e.reject(op, req.Pool, err)
	}

	providerX, err := e.holder(req.Provider, p.cfg.MintX)
	if err != nil {
		return DepositResult{}, e.reject(op, req.Pool, err)
	}
	providerY, err := e.holder(req.Provider, p.cfg.MintY)
	if err != nil {
		return DepositResult{}, e.reject(op, req.Pool, err)
	}
	providerLP, err := e.holder(req.Provider, p.cfg.MintLP)
	if err != nil {
		return DepositResult{}, e.reject(op, req.Pool, err)
	}

	ops := []ledger.Op{
		ledger.EnsureAccount(providerLP, req.Provider, p.cfg.MintLP),
		ledger.Transfer(providerX, p.vaultX, amounts.X, req.Provider),
		ledger.Transfer(providerY, p.vaultY, amounts.Y, req.Provider),
		ledger.MintTo(p.cfg.MintLP, providerLP, minted, p.key).SignedBy(p.seeds),
	}
	if locked > 0 {
		ops = append(ops, ledger.MintTo(p.cfg.MintLP, p.lockedLP, locked, p.key).SignedBy(p.seeds))
	}

	receipt, err := e.ledger.Execute(ctx, ledger.Tx{
		Signers: []solana.PublicKey{req.Provider},
		Ops:     ops,
	})
	if err != nil {
		return DepositResult{}, e.reject(op, req.Pool, err)
	}

	e.logger.Info("deposit",
		zap.Stringer("pool", req.Pool),
		zap.Stringer("provider", req.Provider),
		zap.Bool("bootstrap", bootstrap),
		zap.Uint64("amount_x", amounts.X),
		zap.Uint64("amount_y", amounts.Y),
		zap.Uint64("shares", minted),
		zap.Uint64("locked_shares", locked),
		zap.Uint64("sequence", receipt.Sequence),
	)
	e.publish(ctx, Event{
		Kind:         EventDeposit,
		Pool:         req.Pool,
		Actor:        req.Provider,
		Receipt:      receipt,
		Config:       p.cfg,
		Amounts:      amounts,
		Shares:       minted,
		LockedShares: locked,
		Reserves:     after,
	})

	return DepositResult{
		Amounts:      amounts,
		Shares:       minted,
		LockedShares: locked,
		Bootstrap:    bootstrap,
		Reserves:     after,
		Receipt:      receipt,
	}, nil
}

func addReserves(r curve.Reserves, amounts curve.Amounts, shares uint64) (curve.Reserves, error) {
	x, err := mathx.Add(r.X, amounts.X)
	if err != nil {
		return curve.Reserves{}, err
	}
	y, err := mathx.Add(r.Y, amounts.Y)
	if err != nil {
		return curve.Reserves{}, err
	}
	supply, err := mathx.Add(r.Supply, shares)
	if err != nil {
		return curve.Reserves{}, err
	}
	return curve.Reserves{X: x, Y: y, Supply: supply}, nil
}
