package amm

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammcore/internal/ledger"
	"ammcore/internal/pool"
)

// AdminRequest is signed by the pool's administrative authority.
type AdminRequest struct {
	Pool   solana.PublicKey
	Signer solana.PublicKey
}

// SetAuthorityRequest hands administration to NewAuthority, or renounces it
// when NewAuthority is nil.
type SetAuthorityRequest struct {
	Pool         solana.PublicKey
	Signer       solana.PublicKey
	NewAuthority *solana.PublicKey
}

// Lock stops deposits and swaps.
func (e *Engine) Lock(ctx context.Context, req AdminRequest) (pool.Config, error) {
	return e.setLocked(ctx, "lock", req, true)
}

// Unlock resumes deposits and swaps.
func (e *Engine) Unlock(ctx context.Context, req AdminRequest) (pool.Config, error) {
	return e.setLocked(ctx, "unlock", req, false)
}

func (e *Engine) setLocked(ctx context.Context, op string, req AdminRequest, locked bool) (pool.Config, error) {
	p, err := e.loadPool(ctx, req.Pool)
	if err != nil {
		return pool.Config{}, e.reject(op, req.Pool, err)
	}
	next, err := p.cfg.WithLocked(req.Signer, locked)
	if err != nil {
		return pool.Config{}, e.reject(op, req.Pool, err)
	}

	receipt, err := e.writeConfig(ctx, p, req.Signer, next)
	if err != nil {
		return pool.Config{}, e.reject(op, req.Pool, err)
	}

	e.logger.Info("pool lock changed",
		zap.Stringer("pool", req.Pool),
		zap.Bool("locked", locked),
		zap.Uint64("sequence", receipt.Sequence),
	)
	e.publish(ctx, Event{
		Kind:    EventLockChanged,
		Pool:    req.Pool,
		Actor:   req.Signer,
		Receipt: receipt,
		Config:  next,
	})
	return next, nil
}

// SetAuthority replaces the administrative authority.
func (e *Engine) SetAuthority(ctx context.Context, req SetAuthorityRequest) (pool.Config, error) {
	const op = "set-authority"

	p, err := e.loadPool(ctx, req.Pool)
	if err != nil {
		return pool.Config{}, e.reject(op, req.Pool, err)
	}
	next, err := p.cfg.WithAuthority(req.Signer, req.NewAuthority)
	if err != nil {
		return pool.Config{}, e.reject(op, req.Pool, err)
	}

	receipt, err := e.writeConfig(ctx, p, req.Signer, next)
	if err != nil {
		return pool.Config{}, e.reject(op, req.Pool, err)
	}

	fields := []zap.Field{
		zap.Stringer("pool", req.Pool),
		zap.Uint64("sequence", receipt.Sequence),
	}
	if next.Authority != nil {
		fields = append(fields, zap.Stringer("authority", *next.Authority))
	} else {
		fields = append(fields, zap.Bool("renounced", true))
	}
	e.logger.Info("pool authority changed", fields...)
	e.publish(ctx, Event{
		Kind:    EventAuthorityChanged,
		Pool:    req.Pool,
		Actor:   req.Signer,
		Receipt: receipt,
		Config:  next,
	})
	return next, nil
}

func (e *Engine) writeConfig(ctx context.Context, p poolAccounts, signer solana.PublicKey, next pool.Config) (ledger.Receipt, error) {
	return e.ledger.Execute(ctx, ledger.Tx{
		Signers: []solana.PublicKey{signer},
		Ops:     []ledger.Op{ledger.WriteConfig(p.key, next, false).SignedBy(p.seeds)},
	})
}
