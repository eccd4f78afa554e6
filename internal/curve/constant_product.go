package curve

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"ammcore/internal/mathx"
)

// BasisPoints is the fee denominator.
const BasisPoints = 10_000

// Side names the asset a trader sells into the pool.
type Side uint8

const (
	SideX Side = iota
	SideY
)

func (s Side) String() string {
	switch s {
	case SideX:
		return "x"
	case SideY:
		return "y"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Opposite returns the side paid out when s is sold.
func (s Side) Opposite() Side {
	if s == SideX {
		return SideY
	}
	return SideX
}

// ParseSide accepts "x" or "y" in any case.
func ParseSide(value string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "x":
		return SideX, nil
	case "y":
		return SideY, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, value)
	}
}

// SwapResult is the vault movement of one trade.
type SwapResult struct {
	// Deposit is paid into the input vault, fee included.
	Deposit uint64 `json:"deposit"`
	// Withdraw is paid out of the output vault.
	Withdraw uint64 `json:"withdraw"`
	// Fee is the part of Deposit that did not price the trade.
	Fee uint64 `json:"fee"`
}

// ConstantProduct prices trades on x*y=k with a basis-point input fee.
type ConstantProduct struct {
	Reserves
	FeeBps uint16
}

// New builds a curve over a reserve snapshot.
func New(x, y, supply uint64, feeBps uint16) (*ConstantProduct, error) {
	if feeBps >= BasisPoints {
		return nil, ErrInvalidFee
	}
	return &ConstantProduct{
		Reserves: Reserves{X: x, Y: y, Supply: supply},
		FeeBps:   feeBps,
	}, nil
}

// Swap dispatches to SwapExactIn or SwapExactOut.
func (c *ConstantProduct) Swap(side Side, amount uint64, exactIn bool) (SwapResult, error) {
	if exactIn {
		return c.SwapExactIn(side, amount)
	}
	return c.SwapExactOut(side, amount)
}

// SwapExactIn prices selling amountIn of side. The output is
// reserveOut - floor(reserveIn*reserveOut/(reserveIn+effective)) where
// effective = floor(amountIn*(10000-fee)/10000), capped at
// reserveOut - ceil(reserveIn*reserveOut/(reserveIn+amountIn)) so the
// post-trade product never falls below k.
func (c *ConstantProduct) SwapExactIn(side Side, amountIn uint64) (SwapResult, error) {
	if amountIn == 0 {
		return SwapResult{}, ErrZeroAmount
	}
	reserveIn, reserveOut, err := c.oriented(side)
	if err != nil {
		return SwapResult{}, err
	}

	effective, err := mathx.MulDiv(amountIn, uint64(BasisPoints-c.FeeBps), BasisPoints, mathx.RoundDown)
	if err != nil {
		return SwapResult{}, err
	}

	k := mathx.Product(reserveIn, reserveOut)
	denom, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(reserveIn), uint256.NewInt(effective))
	if overflow {
		return SwapResult{}, mathx.ErrOverflow
	}
	remaining, err := mathx.MulDivWide(k, uint256.NewInt(1), denom, mathx.RoundDown)
	if err != nil {
		return SwapResult{}, err
	}
	remainingOut, err := mathx.Narrow(remaining)
	if err != nil {
		return SwapResult{}, err
	}
	out, err := mathx.Sub(reserveOut, remainingOut)
	if err != nil {
		return SwapResult{}, err
	}
	if out >= reserveOut {
		return SwapResult{}, ErrReserveExhausted
	}
	limit, err := c.maxOut(reserveIn, reserveOut, amountIn)
	if err != nil {
		return SwapResult{}, err
	}
	if out > limit {
		out = limit
	}
	if out == 0 {
		return SwapResult{}, ErrZeroOutput
	}

	res := SwapResult{Deposit: amountIn, Withdraw: out, Fee: amountIn - effective}
	if err := c.checkInvariant(reserveIn, reserveOut, res); err != nil {
		return SwapResult{}, err
	}
	return res, nil
}

// SwapExactOut prices buying amountOut of the side opposite to side. The
// required input is rounded up at both steps.
func (c *ConstantProduct) SwapExactOut(side Side, amountOut uint64) (SwapResult, error) {
	if amountOut == 0 {
		return SwapResult{}, ErrZeroAmount
	}
	reserveIn, reserveOut, err := c.oriented(side)
	if err != nil {
		return SwapResult{}, err
	}
	if amountOut >= reserveOut {
		return SwapResult{}, ErrReserveExhausted
	}

	remainingOut := reserveOut - amountOut
	k := mathx.Product(reserveIn, reserveOut)
	requiredIn, err := mathx.MulDivWide(k, uint256.NewInt(1), uint256.NewInt(remainingOut), mathx.RoundUp)
	if err != nil {
		return SwapResult{}, err
	}
	newReserveIn, err := mathx.Narrow(requiredIn)
	if err != nil {
		return SwapResult{}, err
	}
	effective, err := mathx.Sub(newReserveIn, reserveIn)
	if err != nil {
		return SwapResult{}, err
	}
	amountIn, err := mathx.MulDiv(effective, BasisPoints, uint64(BasisPoints-c.FeeBps), mathx.RoundUp)
	if err != nil {
		return SwapResult{}, err
	}

	res := SwapResult{Deposit: amountIn, Withdraw: amountOut, Fee: amountIn - effective}
	if err := c.checkInvariant(reserveIn, reserveOut, res); err != nil {
		return SwapResult{}, err
	}
	return res, nil
}

func (c *ConstantProduct) oriented(side Side) (uint64, uint64, error) {
	if c.X == 0 || c.Y == 0 {
		return 0, 0, ErrEmptyPool
	}
	switch side {
	case SideX:
		return c.X, c.Y, nil
	case SideY:
		return c.Y, c.X, nil
	default:
		return 0, 0, ErrInvalidSide
	}
}

// maxOut is the largest output that keeps (reserveIn+amountIn)*(reserveOut-out)
// at or above reserveIn*reserveOut.
func (c *ConstantProduct) maxOut(reserveIn, reserveOut, amountIn uint64) (uint64, error) {
	grown := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(amountIn))
	least, err := mathx.MulDivWide(mathx.Product(reserveIn, reserveOut), uint256.NewInt(1), grown, mathx.RoundUp)
	if err != nil {
		return 0, err
	}
	remaining, err := mathx.Narrow(least)
	if err != nil {
		return 0, err
	}
	return mathx.Sub(reserveOut, remaining)
}

// checkInvariant rejects a trade that would shrink k. Pricing never
// produces one.
func (c *ConstantProduct) checkInvariant(reserveIn, reserveOut uint64, res SwapResult) error {
	if res.Withdraw > reserveOut {
		return ErrInvariantViolated
	}
	newIn := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(res.Deposit))
	after, overflow := new(uint256.Int).MulOverflow(newIn, uint256.NewInt(reserveOut-res.Withdraw))
	if overflow {
		return mathx.ErrOverflow
	}
	if after.Lt(mathx.Product(reserveIn, reserveOut)) {
		return ErrInvariantViolated
	}
	return nil
}
