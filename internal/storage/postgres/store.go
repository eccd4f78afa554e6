package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammcore/internal/model"
)

// Store persists pools and window metrics in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

const (
	connectRetries = 4
	connectBackoff = 250 * time.Millisecond
)

// NewStore opens a pool and waits for the server to answer a ping.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := withRetry(ctx, connectRetries, connectBackoff, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool records.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				program, pool_address, seed, mint_x, mint_y, mint_lp, fee_bps, first_seen_seq, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (program, pool_address)
			DO UPDATE SET
				fee_bps = EXCLUDED.fee_bps,
				first_seen_seq = LEAST(pools.first_seen_seq, EXCLUDED.first_seen_seq),
				updated_at = now()
		`,
			p.Program,
			p.Address,
			fmt.Sprintf("%d", p.Seed),
			p.MintX,
			p.MintY,
			p.MintLP,
			int32(p.FeeBps),
			int64(p.FirstSeenSeq),
		)
	}
	return s.sendBatch(ctx, batch, len(pools))
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				program, pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, deposit_count, withdraw_count, volume_x, volume_y, fee_x, fee_y,
				fee_rate_x, fee_rate_y, tvl_x, tvl_y, apr, fee_method, tvl_method, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
			ON CONFLICT (program, pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume_x = EXCLUDED.volume_x,
				volume_y = EXCLUDED.volume_y,
				fee_x = EXCLUDED.fee_x,
				fee_y = EXCLUDED.fee_y,
				fee_rate_x = EXCLUDED.fee_rate_x,
				fee_rate_y = EXCLUDED.fee_rate_y,
				tvl_x = EXCLUDED.tvl_x,
				tvl_y = EXCLUDED.tvl_y,
				apr = EXCLUDED.apr,
				fee_method = EXCLUDED.fee_method,
				tvl_method = EXCLUDED.tvl_method,
				updated_at = now()
		`,
			m.Program,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawCount),
			m.VolumeX,
			m.VolumeY,
			m.FeeX,
			m.FeeY,
			m.FeeRateX,
			m.FeeRateY,
			m.TVLX,
			m.TVLY,
			m.APR,
			m.FeeMethod,
			m.TVLMethod,
		)
	}
	return s.sendBatch(ctx, batch, len(metrics))
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return nil
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM aggregator_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO aggregator_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}
