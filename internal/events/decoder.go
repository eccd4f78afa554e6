package events

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammcore/internal/model"
)

// DecodeContext provides shared dependencies for decoding.
type DecodeContext struct {
	Context       context.Context
	PoolMetaCache *PoolMetaCache
	Configs       ConfigSource
	Logger        *zap.Logger
}

// Decoder decodes journaled pool events.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}
	topicToName := make(map[string]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}
	return &Decoder{poolABI: poolABI, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	event := d.poolABI.Events[name]

	poolKey, actor, err := parseKeyTopics(event, log.Topics)
	if err != nil {
		return nil, err
	}
	if log.Pool != "" && log.Pool != poolKey.String() {
		return nil, fmt.Errorf("pool topic %s does not match record pool %s", poolKey, log.Pool)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case model.EventPoolInitialized:
		created, err := decodePoolInitialized(actor, values)
		if err != nil {
			return nil, err
		}
		if ctx.PoolMetaCache != nil {
			ctx.PoolMetaCache.Set(poolKey, model.PoolMeta{
				Seed:   created.Seed,
				MintX:  created.MintX,
				MintY:  created.MintY,
				MintLP: created.MintLP,
				FeeBps: created.FeeBps,
			})
		}
		decoded = created
	case model.EventDeposit:
		decoded, err = decodeDeposit(actor, values)
	case model.EventWithdraw:
		decoded, err = decodeWithdraw(actor, values)
	case model.EventSwap:
		decoded, err = decodeSwap(actor, values)
	case model.EventLockChanged:
		decoded, err = decodeLockChanged(actor, values)
	case model.EventAuthorityChanged:
		decoded, err = decodeAuthorityChanged(actor, values)
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, err
	}

	meta, err := getPoolMeta(ctx, poolKey)
	if err != nil {
		return nil, err
	}
	return buildTypedEvent(log, name, decoded, meta), nil
}

func getPoolMeta(ctx DecodeContext, key solana.PublicKey) (model.PoolMeta, error) {
	if ctx.PoolMetaCache != nil {
		if meta, ok := ctx.PoolMetaCache.Get(key); ok {
			return meta, nil
		}
	}

	callCtx := ctx.Context
	if callCtx == nil {
		callCtx = context.Background()
	}
	meta, err := FetchPoolMeta(callCtx, ctx.Configs, key)
	if err != nil {
		return model.PoolMeta{}, err
	}
	if ctx.PoolMetaCache != nil {
		ctx.PoolMetaCache.Set(key, meta)
	}
	if ctx.Logger != nil {
		ctx.Logger.Debug("pool meta loaded", zap.Stringer("pool", key))
	}
	return meta, nil
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}, meta model.PoolMeta) *model.TypedEvent {
	return &model.TypedEvent{
		Program:   log.Program,
		Sequence:  log.Sequence,
		OpID:      log.OpID,
		LogIndex:  log.LogIndex,
		Pool:      log.Pool,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		PoolMeta:  meta,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}
}

func decodePoolInitialized(actor solana.PublicKey, values []interface{}) (model.PoolInitializedEventData, error) {
	if len(values) != 7 {
		return model.PoolInitializedEventData{}, fmt.Errorf("unexpected pool initialized values: %d", len(values))
	}
	seed, ok := values[0].(uint64)
	if !ok {
		return model.PoolInitializedEventData{}, fmt.Errorf("unsupported seed type %T", values[0])
	}
	mintX, err := asKey(values[1])
	if err != nil {
		return model.PoolInitializedEventData{}, err
	}
	mintY, err := asKey(values[2])
	if err != nil {
		return model.PoolInitializedEventData{}, err
	}
	mintLP, err := asKey(values[3])
	if err != nil {
		return model.PoolInitializedEventData{}, err
	}
	fee, ok := values[4].(uint16)
	if !ok {
		return model.PoolInitializedEventData{}, fmt.Errorf("unsupported fee type %T", values[4])
	}
	authority, err := asOptionalKey(values[5], values[6])
	if err != nil {
		return model.PoolInitializedEventData{}, err
	}

	return model.PoolInitializedEventData{
		Initializer: actor.String(),
		Seed:        seed,
		MintX:       mintX.String(),
		MintY:       mintY.String(),
		MintLP:      mintLP.String(),
		FeeBps:      fee,
		Authority:   authority,
	}, nil
}

func decodeDeposit(actor solana.PublicKey, values []interface{}) (model.DepositEventData, error) {
	if len(values) != 7 {
		return model.DepositEventData{}, fmt.Errorf("unexpected deposit values: %d", len(values))
	}
	amounts, err := asAmounts(values)
	if err != nil {
		return model.DepositEventData{}, err
	}
	return model.DepositEventData{
		Provider:     actor.String(),
		AmountX:      amounts[0],
		AmountY:      amounts[1],
		Shares:       amounts[2],
		LockedShares: amounts[3],
		ReserveX:     amounts[4],
		ReserveY:     amounts[5],
		Supply:       amounts[6],
	}, nil
}

func decodeWithdraw(actor solana.PublicKey, values []interface{}) (model.WithdrawEventData, error) {
	if len(values) != 6 {
		return model.WithdrawEventData{}, fmt.Errorf("unexpected withdraw values: %d", len(values))
	}
	amounts, err := asAmounts(values)
	if err != nil {
		return model.WithdrawEventData{}, err
	}
	return model.WithdrawEventData{
		Provider: actor.String(),
		AmountX:  amounts[0],
		AmountY:  amounts[1],
		Shares:   amounts[2],
		ReserveX: amounts[3],
		ReserveY: amounts[4],
		Supply:   amounts[5],
	}, nil
}

func decodeSwap(actor solana.PublicKey, values []interface{}) (model.SwapEventData, error) {
	if len(values) != 7 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}
	sellX, ok := values[0].(bool)
	if !ok {
		return model.SwapEventData{}, fmt.Errorf("unsupported side type %T", values[0])
	}
	amounts, err := asAmounts(values[1:])
	if err != nil {
		return model.SwapEventData{}, err
	}
	return model.SwapEventData{
		Trader:    actor.String(),
		SellX:     sellX,
		AmountIn:  amounts[0],
		AmountOut: amounts[1],
		Fee:       amounts[2],
		ReserveX:  amounts[3],
		ReserveY:  amounts[4],
		Supply:    amounts[5],
	}, nil
}

func decodeLockChanged(actor solana.PublicKey, values []interface{}) (model.LockChangedEventData, error) {
	if len(values) != 1 {
		return model.LockChangedEventData{}, fmt.Errorf("unexpected lock values: %d", len(values))
	}
	locked, ok := values[0].(bool)
	if !ok {
		return model.LockChangedEventData{}, fmt.Errorf("unsupported locked type %T", values[0])
	}
	return model.LockChangedEventData{Signer: actor.String(), Locked: locked}, nil
}

func decodeAuthorityChanged(actor solana.PublicKey, values []interface{}) (model.AuthorityChangedEventData, error) {
	if len(values) != 2 {
		return model.AuthorityChangedEventData{}, fmt.Errorf("unexpected authority values: %d", len(values))
	}
	authority, err := asOptionalKey(values[0], values[1])
	if err != nil {
		return model.AuthorityChangedEventData{}, err
	}
	return model.AuthorityChangedEventData{Signer: actor.String(), Authority: authority}, nil
}

func parseKeyTopics(event abi.Event, topics []string) (solana.PublicKey, solana.PublicKey, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	hashes, err := parseTopicHashes(topics[1:])
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(hashes[0].Bytes()), solana.PublicKeyFromBytes(hashes[1].Bytes()), nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) != 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func asKey(value interface{}) (solana.PublicKey, error) {
	switch v := value.(type) {
	case [32]byte:
		return solana.PublicKeyFromBytes(v[:]), nil
	case common.Hash:
		return solana.PublicKeyFromBytes(v.Bytes()), nil
	default:
		return solana.PublicKey{}, fmt.Errorf("unsupported key type %T", value)
	}
}

func asOptionalKey(value, present interface{}) (string, error) {
	has, ok := present.(bool)
	if !ok {
		return "", fmt.Errorf("unsupported flag type %T", present)
	}
	if !has {
		return "", nil
	}
	key, err := asKey(value)
	if err != nil {
		return "", err
	}
	return key.String(), nil
}

// asAmounts renders uint256 values as base-10 strings.
func asAmounts(values []interface{}) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, value := range values {
		v, ok := value.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unsupported amount type %T", value)
		}
		out = append(out, v.String())
	}
	return out, nil
}
