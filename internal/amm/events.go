package amm

import (
	"github.com/gagliardetto/solana-go"

	"ammcore/internal/curve"
	"ammcore/internal/ledger"
	"ammcore/internal/pool"
)

// EventKind names a committed pool operation.
type EventKind string

const (
	EventPoolInitialized  EventKind = "PoolInitialized"
	EventDeposit          EventKind = "Deposit"
	EventWithdraw         EventKind = "Withdraw"
	EventSwap             EventKind = "Swap"
	EventLockChanged      EventKind = "LockChanged"
	EventAuthorityChanged EventKind = "AuthorityChanged"
)

// Event describes one committed operation. Reserves hold the pool state
// after the transaction.
type Event struct {
	Kind    EventKind
	Pool    solana.PublicKey
	Actor   solana.PublicKey
	Receipt ledger.Receipt
	Config  pool.Config

	Amounts      curve.Amounts
	Shares       uint64
	LockedShares uint64

	Side      curve.Side
	AmountIn  uint64
	AmountOut uint64
	Fee       uint64

	Reserves curve.Reserves
}
