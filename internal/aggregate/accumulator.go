package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"

	"ammcore/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	Program       string
	Pool          string
	PoolMeta      model.PoolMeta
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	VolumeX       *big.Int
	VolumeY       *big.Int
	FeeX          *big.Int
	FeeY          *big.Int
	// ReserveX and ReserveY are the reserves after the latest operation seen,
	// nil until an event carrying reserves arrives.
	ReserveX  *big.Int
	ReserveY  *big.Int
	ReserveAt uint64
	LastTS    uint64
	FirstSeq  uint64
}

func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		Program:     record.Program,
		Pool:        record.Pool,
		PoolMeta:    record.PoolMeta,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeX:     big.NewInt(0),
		VolumeY:     big.NewInt(0),
		FeeX:        big.NewInt(0),
		FeeY:        big.NewInt(0),
		LastTS:      record.Timestamp,
		FirstSeq:    record.Sequence,
	}
}

// AddEvent folds one typed event into the window.
func (a *Accumulator) AddEvent(record model.TypedEventRecord) error {
	if record.Timestamp > a.LastTS {
		a.LastTS = record.Timestamp
	}
	if a.FirstSeq == 0 || record.Sequence < a.FirstSeq {
		a.FirstSeq = record.Sequence
	}
	if record.PoolMeta.Complete() {
		a.PoolMeta = record.PoolMeta
	}

	switch record.EventName {
	case model.EventSwap:
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(record.Sequence, swap)
	case model.EventDeposit:
		var deposit model.DepositEventData
		if err := json.Unmarshal(record.Decoded, &deposit); err != nil {
			return fmt.Errorf("decode deposit: %w", err)
		}
		a.DepositCount++
		return a.observeReserves(record.Sequence, deposit.ReserveX, deposit.ReserveY)
	case model.EventWithdraw:
		var withdraw model.WithdrawEventData
		if err := json.Unmarshal(record.Decoded, &withdraw); err != nil {
			return fmt.Errorf("decode withdraw: %w", err)
		}
		a.WithdrawCount++
		return a.observeReserves(record.Sequence, withdraw.ReserveX, withdraw.ReserveY)
	case model.EventPoolInitialized:
		return a.observeReserves(record.Sequence, "0", "0")
	default:
		return nil
	}
}

func (a *Accumulator) applySwap(seq uint64, swap model.SwapEventData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}
	fee, err := parseBigInt(swap.Fee)
	if err != nil {
		return err
	}

	if swap.SellX {
		a.VolumeX.Add(a.VolumeX, amountIn)
		a.VolumeY.Add(a.VolumeY, amountOut)
		a.FeeX.Add(a.FeeX, fee)
	} else {
		a.VolumeY.Add(a.VolumeY, amountIn)
		a.VolumeX.Add(a.VolumeX, amountOut)
		a.FeeY.Add(a.FeeY, fee)
	}
	a.SwapCount++
	return a.observeReserves(seq, swap.ReserveX, swap.ReserveY)
}

// observeReserves keeps the reserves of the highest sequence seen so
// out-of-order input still reports the final state.
func (a *Accumulator) observeReserves(seq uint64, reserveX, reserveY string) error {
	if a.ReserveX != nil && seq < a.ReserveAt {
		return nil
	}
	x, err := parseBigInt(reserveX)
	if err != nil {
		return err
	}
	y, err := parseBigInt(reserveY)
	if err != nil {
		return err
	}
	a.ReserveX, a.ReserveY, a.ReserveAt = x, y, seq
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("negative amount: %s", value)
	}
	return parsed, nil
}
