package amm

import (
	"errors"
	"fmt"

	"ammcore/internal/authority"
	"ammcore/internal/curve"
	"ammcore/internal/ledger"
	"ammcore/internal/mathx"
	"ammcore/internal/pool"
)

var (
	ErrPoolLocked       = errors.New("pool is locked")
	ErrSlippageExceeded = errors.New("slippage exceeded")
	ErrConfigExists     = errors.New("pool config already exists")
	ErrUnbackedReserves = errors.New("vaults hold funds but no shares are outstanding")
)

// Kind is the category of a rejected operation.
type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindState
	KindSlippage
	KindArithmetic
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindSlippage:
		return "slippage"
	case KindArithmetic:
		return "arithmetic"
	case KindAuthorization:
		return "authorization"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is returned by every handler. Err keeps the underlying cause for
// errors.Is.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the category of err if it came from a handler.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func newError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func classify(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(op, kindFor(err), err)
}

func kindFor(err error) Kind {
	switch {
	case errors.Is(err, mathx.ErrOverflow),
		errors.Is(err, mathx.ErrUnderflow),
		errors.Is(err, mathx.ErrDivisionByZero),
		errors.Is(err, curve.ErrInvariantViolated):
		return KindArithmetic

	case errors.Is(err, ErrSlippageExceeded):
		return KindSlippage

	case errors.Is(err, ledger.ErrUnauthorized),
		errors.Is(err, authority.ErrAuthorityMismatch),
		errors.Is(err, pool.ErrNoAuthority),
		errors.Is(err, pool.ErrUnauthorizedAdmin):
		return KindAuthorization

	case errors.Is(err, curve.ErrZeroAmount),
		errors.Is(err, curve.ErrZeroOutput),
		errors.Is(err, curve.ErrInvalidFee),
		errors.Is(err, curve.ErrInvalidSide),
		errors.Is(err, curve.ErrInsufficientInitialLiquidity),
		errors.Is(err, pool.ErrIdenticalMints),
		errors.Is(err, pool.ErrFeeOutOfRange):
		return KindValidation

	default:
		return KindState
	}
}
