package amm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammcore/internal/curve"
	"ammcore/internal/ledger"
)

// WithdrawRequest burns Shares for at least MinX and MinY.
type WithdrawRequest struct {
	Pool     solana.PublicKey
	Provider solana.PublicKey
	Shares   uint64
	MinX     uint64
	MinY     uint64
}

// WithdrawResult reports what was paid out.
type WithdrawResult struct {
	Amounts  curve.Amounts
	Shares   uint64
	Reserves curve.Reserves
	Receipt  ledger.Receipt
}

// Withdraw burns the provider's shares and pays out both assets pro rata.
// A locked pool still accepts withdrawals so providers can always exit.
func (e *Engine) Withdraw(ctx context.Context, req WithdrawRequest) (WithdrawResult, error) {
	const op = "withdraw"

	if req.Shares == 0 {
		return WithdrawResult{}, e.reject(op, req.Pool, curve.ErrZeroAmount)
	}

	p, err := e.loadPool(ctx, req.Pool)
	if err != nil {
		return WithdrawResult{}, e.reject(op, req.Pool, err)
	}

	before, err := e.reserves(ctx, p)
	if err != nil {
		return WithdrawResult{}, e.reject(op, req.Pool, err)
	}

	amounts, err := curve.WithdrawAmounts(before, req.Shares)
	if err != nil {
		return WithdrawResult{}, e.reject(op, req.Pool, err)
	}
	if amounts.X == 0 && amounts.Y == 0 {
		return WithdrawResult{}, e.reject(op, req.Pool, fmt.Errorf("%w: %d shares redeem nothing",
			curve.ErrZeroOutput, req.Shares))
	}
	if amounts.X < req.MinX || amounts.Y < req.MinY {
		return WithdrawResult{}, e.reject(op, req.Pool, fmt.Errorf("%w: pays x=%d y=%d, min x=%d y=%d",
			ErrSlippageExceeded, amounts.X, amounts.Y, req.MinX, req.MinY))
	}

	after := curve.Reserves{
		X:      before.X - amounts.X,
		Y:      before.Y - amounts.Y,
		Supply: before.Supply - req.Shares,
	}

	providerX, err := e.holder(req.Provider, p.cfg.MintX)
	if err != nil {
		return WithdrawResult{}, e.reject(op, req.Pool, err)
	}
	providerY, err := e.holder(req.Provider, p.cfg.MintY)
	if err != nil {
		return WithdrawResult{}, e.reject(op, req.Pool, err)
	}
	providerLP, err := e.holder(req.Provider, p.cfg.MintLP)
	if err != nil {
		return WithdrawResult{}, e.reject(op, req.Pool, err)
	}

	receipt, err := e.ledger.Execute(ctx, ledger.Tx{
		Signers: []solana.PublicKey{req.Provider},
		Ops: []ledger.Op{
			ledger.EnsureAccount(providerX, req.Provider, p.cfg.MintX),
			ledger.EnsureAccount(providerY, req.Provider, p.cfg.MintY),
			ledger.Transfer(p.vaultX, providerX, amounts.X, p.key).SignedBy(p.seeds),
			ledger.Transfer(p.vaultY, providerY, amounts.Y, p.key).SignedBy(p.seeds),
			ledger.Burn(p.cfg.MintLP, providerLP, req.Shares, req.Provider),
		},
	})
	if err != nil {
		return WithdrawResult{}, e.reject(op, req.Pool, err)
	}

	e.logger.Info("withdraw",
		zap.Stringer("pool", req.Pool),
		zap.Stringer("provider", req.Provider),
		zap.Uint64("amount_x", amounts.X),
		zap.Uint64("amount_y", amounts.Y),
		zap.Uint64("shares", req.Shares),
		zap.Bool("locked", p.cfg.Locked),
		zap.Uint64("sequence", receipt.Sequence),
	)
	e.publish(ctx, Event{
		Kind:     EventWithdraw,
		Pool:     req.Pool,
		Actor:    req.Provider,
		Receipt:  receipt,
		Config:   p.cfg,
		Amounts:  amounts,
		Shares:   req.Shares,
		Reserves: after,
	})

	return WithdrawResult{
		Amounts:  amounts,
		Shares:   req.Shares,
		Reserves: after,
		Receipt:  receipt,
	}, nil
}
