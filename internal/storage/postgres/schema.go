package postgres

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pools (
	program         TEXT        NOT NULL,
	pool_address    TEXT        NOT NULL,
	seed            NUMERIC(20) NOT NULL,
	mint_x          TEXT        NOT NULL,
	mint_y          TEXT        NOT NULL,
	mint_lp         TEXT        NOT NULL,
	fee_bps         INTEGER     NOT NULL,
	first_seen_seq  BIGINT      NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (program, pool_address)
);

CREATE TABLE IF NOT EXISTS pool_window_metrics (
	program              TEXT        NOT NULL,
	pool_address         TEXT        NOT NULL,
	window_size_seconds  BIGINT      NOT NULL,
	window_start_ts      TIMESTAMPTZ NOT NULL,
	window_end_ts        TIMESTAMPTZ NOT NULL,
	swap_count           BIGINT      NOT NULL,
	deposit_count        BIGINT      NOT NULL,
	withdraw_count       BIGINT      NOT NULL,
	volume_x             NUMERIC     NOT NULL,
	volume_y             NUMERIC     NOT NULL,
	fee_x                NUMERIC     NOT NULL,
	fee_y                NUMERIC     NOT NULL,
	fee_rate_x           NUMERIC,
	fee_rate_y           NUMERIC,
	tvl_x                NUMERIC,
	tvl_y                NUMERIC,
	apr                  NUMERIC,
	fee_method           TEXT        NOT NULL,
	tvl_method           TEXT        NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (program, pool_address, window_size_seconds, window_start_ts)
);

CREATE TABLE IF NOT EXISTS aggregator_state (
	name               TEXT        PRIMARY KEY,
	last_processed_ts  BIGINT      NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
