package mathx

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestCheckedOps(t *testing.T) {
	sum, err := Add(math.MaxUint64-1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), sum)

	_, err = Add(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Sub(1, 2)
	require.ErrorIs(t, err, ErrUnderflow)

	prod, err := Mul(1<<32, 1<<31)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<63), prod)

	_, err = Mul(1<<32, 1<<32)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestMulDivRounding(t *testing.T) {
	down, err := MulDiv(1000, 4000, 2000, RoundDown)
	require.NoError(t, err)
	require.Equal(t, uint64(2000), down)

	down, err = MulDiv(500, 3639, 2000, RoundDown)
	require.NoError(t, err)
	require.Equal(t, uint64(909), down)

	up, err := MulDiv(500, 3639, 2000, RoundUp)
	require.NoError(t, err)
	require.Equal(t, uint64(910), up)

	_, err = MulDiv(1, 1, 0, RoundDown)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMulDivWideIntermediate(t *testing.T) {
	// max*max/max needs 128 bits in the middle.
	q, err := MulDiv(math.MaxUint64, math.MaxUint64, math.MaxUint64, RoundDown)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), q)

	_, err = MulDiv(math.MaxUint64, math.MaxUint64, 1, RoundDown)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestMulDivWideOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	_, err := MulDivWide(max, uint256.NewInt(2), uint256.NewInt(1), RoundDown)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = MulDivWide(max, uint256.NewInt(1), uint256.NewInt(2), RoundUp)
	require.NoError(t, err)
}

func TestSqrtProduct(t *testing.T) {
	require.Equal(t, uint64(2000), SqrtProduct(1000, 4000))
	require.Equal(t, uint64(1), SqrtProduct(1, 3))
	require.Equal(t, uint64(0), SqrtProduct(0, 100))
	require.Equal(t, uint64(math.MaxUint64), SqrtProduct(math.MaxUint64, math.MaxUint64))

	for _, n := range []uint64{2, 10, 99, 1 << 40, math.MaxUint32} {
		root := SqrtProduct(n, n+1)
		require.LessOrEqual(t, Product(root, root).Cmp(Product(n, n+1)), 0)
		next := root + 1
		require.Equal(t, 1, Product(next, next).Cmp(Product(n, n+1)))
	}
}

func TestNarrow(t *testing.T) {
	v, err := Narrow(uint256.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	_, err = Narrow(Product(math.MaxUint64, 2))
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Narrow(nil)
	require.ErrorIs(t, err, ErrOverflow)
}
