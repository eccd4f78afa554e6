package events

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/blake3"

	"ammcore/internal/amm"
	"ammcore/internal/curve"
	"ammcore/internal/model"
)

// Encoder turns committed handler events into log records.
type Encoder struct {
	poolABI abi.ABI
	program solana.PublicKey
}

func NewEncoder(program solana.PublicKey) (*Encoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}
	return &Encoder{poolABI: poolABI, program: program}, nil
}

// Encode packs ev. IngestedAt is left for the writer to stamp.
func (e *Encoder) Encode(ev amm.Event) (model.LogRecord, error) {
	name := string(ev.Kind)
	event, ok := e.poolABI.Events[name]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("unsupported event kind: %s", name)
	}

	values, err := e.values(ev)
	if err != nil {
		return model.LogRecord{}, err
	}
	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", name, err)
	}

	topics := []string{
		event.ID.Hex(),
		keyTopic(ev.Pool).Hex(),
		keyTopic(ev.Actor).Hex(),
	}

	return model.LogRecord{
		Program:   e.program.String(),
		Sequence:  ev.Receipt.Sequence,
		OpID:      OperationID(ev.Pool, ev.Receipt.Sequence, name).Hex(),
		Pool:      ev.Pool.String(),
		Topics:    topics,
		Data:      hexutil.Encode(data),
		Timestamp: uint64(ev.Receipt.Timestamp.Unix()),
	}, nil
}

func (e *Encoder) values(ev amm.Event) ([]interface{}, error) {
	r := ev.Reserves
	switch ev.Kind {
	case amm.EventPoolInitialized:
		authority, has := optionalKey(ev.Config.Authority)
		return []interface{}{
			ev.Config.Seed,
			keyTopic(ev.Config.MintX),
			keyTopic(ev.Config.MintY),
			keyTopic(ev.Config.MintLP),
			ev.Config.FeeBps,
			authority,
			has,
		}, nil
	case amm.EventDeposit:
		return []interface{}{
			wide(ev.Amounts.X), wide(ev.Amounts.Y),
			wide(ev.Shares), wide(ev.LockedShares),
			wide(r.X), wide(r.Y), wide(r.Supply),
		}, nil
	case amm.EventWithdraw:
		return []interface{}{
			wide(ev.Amounts.X), wide(ev.Amounts.Y),
			wide(ev.Shares),
			wide(r.X), wide(r.Y), wide(r.Supply),
		}, nil
	case amm.EventSwap:
		return []interface{}{
			ev.Side == curve.SideX,
			wide(ev.AmountIn), wide(ev.AmountOut), wide(ev.Fee),
			wide(r.X), wide(r.Y), wide(r.Supply),
		}, nil
	case amm.EventLockChanged:
		return []interface{}{ev.Config.Locked}, nil
	case amm.EventAuthorityChanged:
		authority, has := optionalKey(ev.Config.Authority)
		return []interface{}{authority, has}, nil
	default:
		return nil, fmt.Errorf("unsupported event kind: %s", ev.Kind)
	}
}

// OperationID identifies one event of one committed transaction.
func OperationID(pool solana.PublicKey, sequence uint64, name string) common.Hash {
	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], sequence)

	h := blake3.New()
	h.Write(pool.Bytes())
	h.Write(seq[:])
	h.Write([]byte(name))
	var id common.Hash
	h.Digest().Read(id[:])
	return id
}

func keyTopic(key solana.PublicKey) common.Hash {
	return common.BytesToHash(key.Bytes())
}

func optionalKey(key *solana.PublicKey) (common.Hash, bool) {
	if key == nil {
		return common.Hash{}, false
	}
	return keyTopic(*key), true
}

func wide(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
