package amm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammcore/internal/curve"
	"ammcore/internal/ledger"
)

// SwapRequest sells AmountIn of one asset for at least MinOut of the other.
type SwapRequest struct {
	Pool     solana.PublicKey
	Trader   solana.PublicKey
	SellX    bool
	AmountIn uint64
	MinOut   uint64
}

// SwapResult reports the executed trade.
type SwapResult struct {
	curve.SwapResult
	Side     curve.Side
	Reserves curve.Reserves
	Receipt  ledger.Receipt
}

func sideOf(sellX bool) curve.Side {
	if sellX {
		return curve.SideX
	}
	return curve.SideY
}

// Swap executes an exact-input trade.
func (e *Engine) Swap(ctx context.Context, req SwapRequest) (SwapResult, error) {
	const op = "swap"

	if req.AmountIn == 0 {
		return SwapResult{}, e.reject(op, req.Pool, curve.ErrZeroAmount)
	}

	p, err := e.loadPool(ctx, req.Pool)
	if err != nil {
		return SwapResult{}, e.reject(op, req.Pool, err)
	}
	if p.cfg.Locked {
		return SwapResult{}, e.reject(op, req.Pool, ErrPoolLocked)
	}

	before, err := e.reserves(ctx, p)
	if err != nil {
		return SwapResult{}, e.reject(op, req.Pool, err)
	}
	if before.Empty() {
		return SwapResult{}, e.reject(op, req.Pool, curve.ErrEmptyPool)
	}

	c, err := curve.New(before.X, before.Y, before.Supply, p.cfg.FeeBps)
	if err != nil {
		return SwapResult{}, e.reject(op, req.Pool, err)
	}
	side := sideOf(req.SellX)
	res, err := c.SwapExactIn(side, req.AmountIn)
	if err != nil {
		return SwapResult{}, e.reject(op, req.Pool, err)
	}
	if res.Withdraw < req.MinOut {
		return SwapResult{}, e.reject(op, req.Pool, fmt.Errorf("%w: pays %d, min %d",
			ErrSlippageExceeded, res.Withdraw, req.MinOut))
	}

	after, err := applySwap(before, side, res)
	if err != nil {
		return SwapResult{}, e.reject(op, req.Pool, err)
	}

	mintIn, mintOut := p.cfg.Mint(side), p.cfg.Mint(side.Opposite())
	traderIn, err := e.holder(req.Trader, mintIn)
	if err != nil {
		return SwapResult{}, e.reject(op, req.Pool, err)
	}
	traderOut, err := e.holder(req.Trader, mintOut)
	if err != nil {
		return SwapResult{}, e.reject(op, req.Pool, err)
	}

	receipt, err := e.ledger.Execute(ctx, ledger.Tx{
		Signers: []solana.PublicKey{req.Trader},
		Ops: []ledger.Op{
			ledger.EnsureAccount(traderOut, req.Trader, mintOut),
			ledger.Transfer(traderIn, p.vault(side), res.Deposit, req.Trader),
			ledger.Transfer(p.vault(side.Opposite()), traderOut, res.Withdraw, p.key).SignedBy(p.seeds),
		},
	})
	if err != nil {
		return SwapResult{}, e.reject(op, req.Pool, err)
	}

	e.logger.Info("swap",
		zap.Stringer("pool", req.Pool),
		zap.Stringer("trader", req.Trader),
		zap.Stringer("sell", side),
		zap.Uint64("amount_in", res.Deposit),
		zap.Uint64("amount_out", res.Withdraw),
		zap.Uint64("fee", res.Fee),
		zap.Uint64("sequence", receipt.Sequence),
	)
	e.publish(ctx, Event{
		Kind:      EventSwap,
		Pool:      req.Pool,
		Actor:     req.Trader,
		Receipt:   receipt,
		Config:    p.cfg,
		Side:      side,
		AmountIn:  res.Deposit,
		AmountOut: res.Withdraw,
		Fee:       res.Fee,
		Reserves:  after,
	})

	return SwapResult{
		SwapResult: res,
		Side:       side,
		Reserves:   after,
		Receipt:    receipt,
	}, nil
}

func applySwap(r curve.Reserves, side curve.Side, res curve.SwapResult) (curve.Reserves, error) {
	in := curve.Amounts{}
	if side == curve.SideX {
		in.X = res.Deposit
	} else {
		in.Y = res.Deposit
	}
	next, err := addReserves(r, in, 0)
	if err != nil {
		return curve.Reserves{}, err
	}
	if side == curve.SideX {
		next.Y -= res.Withdraw
	} else {
		next.X -= res.Withdraw
	}
	return next, nil
}
