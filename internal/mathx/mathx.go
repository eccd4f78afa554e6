package mathx

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrUnderflow      = errors.New("arithmetic underflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// Rounding selects the direction of an inexact division.
type Rounding uint8

const (
	// RoundDown truncates. Used for amounts the pool pays out.
	RoundDown Rounding = iota
	// RoundUp rounds away from zero. Used for amounts a user pays in.
	RoundUp
)

func (r Rounding) String() string {
	if r == RoundUp {
		return "up"
	}
	return "down"
}

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrUnderflow.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return diff, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// MulDiv computes a*b/d with a 256-bit intermediate product.
func MulDiv(a, b, d uint64, r Rounding) (uint64, error) {
	q, err := MulDivWide(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(d), r)
	if err != nil {
		return 0, err
	}
	return Narrow(q)
}

// MulDivWide computes a*b/d over 256-bit operands. Inputs are not modified.
func MulDivWide(a, b, d *uint256.Int, r Rounding) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	q := new(uint256.Int).Div(product, d)
	if r == RoundUp {
		rem := new(uint256.Int).Mod(product, d)
		if !rem.IsZero() {
			if _, overflow := q.AddOverflow(q, uint256.NewInt(1)); overflow {
				return nil, ErrOverflow
			}
		}
	}
	return q, nil
}

// Product returns a*b widened to 256 bits. It cannot overflow.
func Product(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
}

// Sqrt returns floor(sqrt(x)).
func Sqrt(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(x)
}

// SqrtProduct returns floor(sqrt(a*b)). The result always fits in 64 bits.
func SqrtProduct(a, b uint64) uint64 {
	return Sqrt(Product(a, b)).Uint64()
}

// Narrow converts x to uint64 or returns ErrOverflow.
func Narrow(x *uint256.Int) (uint64, error) {
	if x == nil || !x.IsUint64() {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}
