package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"go.uber.org/zap"

	"ammcore/internal/model"
)

const (
	feeMethodExact    = "exact_from_event"
	tvlMethodReserves = "reserves_from_event"
	tvlMethodNone     = "unavailable"
)

// MetricsStore receives aggregated output.
type MetricsStore interface {
	UpsertPools(ctx context.Context, pools []model.Pool) error
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Aggregator folds typed events into per-pool window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	mints        MintSource
	logger       *zap.Logger
	decimals     *TokenDecimalsCache
	accumulators map[string]*Accumulator
	poolSeen     map[string]model.Pool
}

func NewAggregator(cfg Config, store MetricsStore, mints MintSource, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		cfg:          cfg,
		store:        store,
		mints:        mints,
		logger:       logger,
		decimals:     NewTokenDecimalsCache(),
		accumulators: make(map[string]*Accumulator),
		poolSeen:     make(map[string]model.Pool),
	}
}

// Run aggregates a typed events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	pools := make([]model.Pool, 0, 64)
	maxTs := startTs
	var total, windows, skipped, failed int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			continue
		}
		if record.Timestamp <= startTs {
			skipped++
			continue
		}

		start := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		acc := a.accumulators[record.Pool]
		if acc != nil && acc.WindowStart != start {
			metrics, pool := a.flushAccumulator(ctx, acc)
			if metrics != nil {
				batch = append(batch, *metrics)
				windows++
			}
			if pool != nil {
				pools = append(pools, *pool)
			}
			acc = nil
		}
		if acc == nil {
			acc = NewAccumulator(record, start, start+a.cfg.WindowSeconds)
			a.accumulators[record.Pool] = acc
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event",
				zap.Error(err),
				zap.String("pool", record.Pool),
				zap.String("event", record.EventName),
				zap.Uint64("sequence", record.Sequence),
			)
			continue
		}
		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatches(ctx, batch, pools); err != nil {
				return err
			}
			batch = batch[:0]
			pools = pools[:0]
			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	for _, acc := range a.accumulators {
		metrics, pool := a.flushAccumulator(ctx, acc)
		if metrics != nil {
			batch = append(batch, *metrics)
			windows++
		}
		if pool != nil {
			pools = append(pools, *pool)
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if err := a.flushBatches(ctx, batch, pools); err != nil {
		return err
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState records the last timestamp whose windows are all closed.
func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}
	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs--
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) flushBatches(ctx context.Context, batch []model.PoolWindowMetrics, pools []model.Pool) error {
	if len(pools) > 0 {
		if err := a.store.UpsertPools(ctx, pools); err != nil {
			return fmt.Errorf("upsert pools: %w", err)
		}
	}
	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return fmt.Errorf("upsert metrics: %w", err)
		}
	}
	return nil
}

func (a *Aggregator) flushAccumulator(ctx context.Context, acc *Accumulator) (*model.PoolWindowMetrics, *model.Pool) {
	if acc == nil {
		return nil, nil
	}
	meta := acc.PoolMeta
	if !meta.Complete() {
		a.logger.Warn("missing pool meta", zap.String("pool", acc.Pool))
		return nil, nil
	}

	poolRecord := a.registerPool(acc)

	decimalsX := a.tokenDecimals(ctx, meta.MintX)
	decimalsY := a.tokenDecimals(ctx, meta.MintY)

	var tvlX, tvlY *string
	var tvlXInt, tvlYInt *big.Int
	tvlMethod := tvlMethodNone
	if acc.ReserveX != nil && acc.ReserveY != nil {
		tvlXInt, tvlYInt = acc.ReserveX, acc.ReserveY
		x := formatTokenAmount(tvlXInt, decimalsX)
		y := formatTokenAmount(tvlYInt, decimalsY)
		tvlX, tvlY = &x, &y
		tvlMethod = tvlMethodReserves
	}

	rateX, rateY := computeFeeRates(acc.FeeX, acc.FeeY, tvlXInt, tvlYInt)

	return &model.PoolWindowMetrics{
		Program:        acc.Program,
		PoolAddress:    acc.Pool,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		DepositCount:   acc.DepositCount,
		WithdrawCount:  acc.WithdrawCount,
		VolumeX:        formatTokenAmount(acc.VolumeX, decimalsX),
		VolumeY:        formatTokenAmount(acc.VolumeY, decimalsY),
		FeeX:           formatTokenAmount(acc.FeeX, decimalsX),
		FeeY:           formatTokenAmount(acc.FeeY, decimalsY),
		FeeRateX:       rateX,
		FeeRateY:       rateY,
		TVLX:           tvlX,
		TVLY:           tvlY,
		APR:            computeAPR(rateX, rateY, a.cfg.WindowSeconds),
		FeeMethod:      feeMethodExact,
		TVLMethod:      tvlMethod,
	}, poolRecord
}

func (a *Aggregator) registerPool(acc *Accumulator) *model.Pool {
	pool := model.Pool{
		Program:      acc.Program,
		Address:      acc.Pool,
		Seed:         acc.PoolMeta.Seed,
		MintX:        acc.PoolMeta.MintX,
		MintY:        acc.PoolMeta.MintY,
		MintLP:       acc.PoolMeta.MintLP,
		FeeBps:       acc.PoolMeta.FeeBps,
		FirstSeenSeq: acc.FirstSeq,
	}
	if existing, ok := a.poolSeen[acc.Pool]; ok && existing.FirstSeenSeq <= pool.FirstSeenSeq {
		return nil
	}
	a.poolSeen[acc.Pool] = pool
	return &pool
}

// tokenDecimals falls back to raw units when the mint is unknown.
func (a *Aggregator) tokenDecimals(ctx context.Context, mint string) uint8 {
	if decimals, ok := a.decimals.Get(mint); ok {
		return decimals
	}
	decimals, err := FetchTokenDecimals(ctx, a.mints, mint)
	if err != nil {
		a.logger.Warn("mint decimals", zap.String("mint", mint), zap.Error(err))
		return 0
	}
	a.decimals.Set(mint, decimals)
	return decimals
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
