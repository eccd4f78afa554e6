package curve

import (
	"ammcore/internal/mathx"
)

// Reserves is a snapshot of both vault balances and the share supply.
type Reserves struct {
	X      uint64 `json:"x"`
	Y      uint64 `json:"y"`
	Supply uint64 `json:"supply"`
}

// Empty reports whether no shares are outstanding.
func (r Reserves) Empty() bool {
	return r.Supply == 0
}

// Amounts is a pair of asset quantities.
type Amounts struct {
	X uint64 `json:"x"`
	Y uint64 `json:"y"`
}

// DepositAmounts prices shares against a non-empty pool, rounding up.
func DepositAmounts(r Reserves, shares uint64) (Amounts, error) {
	if shares == 0 {
		return Amounts{}, ErrZeroAmount
	}
	if r.Empty() {
		return Amounts{}, ErrEmptyPool
	}
	x, err := mathx.MulDiv(shares, r.X, r.Supply, mathx.RoundUp)
	if err != nil {
		return Amounts{}, err
	}
	y, err := mathx.MulDiv(shares, r.Y, r.Supply, mathx.RoundUp)
	if err != nil {
		return Amounts{}, err
	}
	return Amounts{X: x, Y: y}, nil
}

// WithdrawAmounts prices a burn of shares, rounding down.
func WithdrawAmounts(r Reserves, shares uint64) (Amounts, error) {
	if shares == 0 {
		return Amounts{}, ErrZeroAmount
	}
	if r.Empty() {
		return Amounts{}, ErrEmptyPool
	}
	if shares > r.Supply {
		return Amounts{}, ErrSharesExceedSupply
	}
	x, err := mathx.MulDiv(shares, r.X, r.Supply, mathx.RoundDown)
	if err != nil {
		return Amounts{}, err
	}
	y, err := mathx.MulDiv(shares, r.Y, r.Supply, mathx.RoundDown)
	if err != nil {
		return Amounts{}, err
	}
	return Amounts{X: x, Y: y}, nil
}

// InitialShares returns floor(sqrt(x*y)) for a bootstrap deposit. The result
// includes minimumLiquidity, which the caller is expected to lock.
func InitialShares(x, y, minimumLiquidity uint64) (uint64, error) {
	if x == 0 || y == 0 {
		return 0, ErrZeroAmount
	}
	liquidity := mathx.SqrtProduct(x, y)
	if liquidity <= minimumLiquidity {
		return 0, ErrInsufficientInitialLiquidity
	}
	return liquidity, nil
}
