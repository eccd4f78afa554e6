package amm

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ammcore/internal/authority"
	"ammcore/internal/curve"
	"ammcore/internal/ledger"
	"ammcore/internal/pool"
)

var testProgram = solana.MustPublicKeyFromBase58("LbVRzDTvBDEcrthxfZ4RL6yiq3uZw8bS6MwtdY6UhFQ")

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	ledger *ledger.Memory
	engine *Engine
	sink   *recordingSink
	issuer solana.PublicKey
	admin  solana.PublicKey
	alice  solana.PublicKey
	bob    solana.PublicKey
	mintX  solana.PublicKey
	mintY  solana.PublicKey
}

func newHarness(t *testing.T, minimumLiquidity uint64) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		ctx:    context.Background(),
		ledger: ledger.NewMemory(testProgram),
		sink:   &recordingSink{},
		issuer: solana.NewWallet().PublicKey(),
		admin:  solana.NewWallet().PublicKey(),
		alice:  solana.NewWallet().PublicKey(),
		bob:    solana.NewWallet().PublicKey(),
		mintX:  solana.NewWallet().PublicKey(),
		mintY:  solana.NewWallet().PublicKey(),
	}
	h.engine = NewEngine(Config{ProgramID: testProgram, MinimumLiquidity: minimumLiquidity}, h.ledger, h.sink, zap.NewNop())

	ops := []ledger.Op{
		ledger.CreateMint(h.mintX, 6, h.issuer),
		ledger.CreateMint(h.mintY, 6, h.issuer),
	}
	for _, owner := range []solana.PublicKey{h.alice, h.bob} {
		for _, mint := range []solana.PublicKey{h.mintX, h.mintY} {
			acc := h.holder(owner, mint)
			ops = append(ops,
				ledger.CreateAccount(acc, owner, mint),
				ledger.MintTo(mint, acc, 1_000_000, h.issuer),
			)
		}
	}
	_, err := h.ledger.Execute(h.ctx, ledger.Tx{Signers: []solana.PublicKey{h.issuer}, Ops: ops})
	require.NoError(t, err)
	return h
}

func (h *harness) holder(owner, mint solana.PublicKey) solana.PublicKey {
	h.t.Helper()
	acc, err := authority.Holder(owner, mint)
	require.NoError(h.t, err)
	return acc
}

func (h *harness) balance(owner, mint solana.PublicKey) uint64 {
	h.t.Helper()
	bal, err := h.ledger.Balance(h.ctx, h.holder(owner, mint))
	require.NoError(h.t, err)
	return bal
}

func (h *harness) initialize(seed uint64, fee uint16) InitializeResult {
	h.t.Helper()
	admin := h.admin
	res, err := h.engine.Initialize(h.ctx, InitializeRequest{
		Initializer: h.alice,
		MintX:       h.mintX,
		MintY:       h.mintY,
		Seed:        seed,
		FeeBps:      fee,
		Authority:   &admin,
	})
	require.NoError(h.t, err)
	return res
}

func (h *harness) reserves(key solana.PublicKey) curve.Reserves {
	h.t.Helper()
	state, err := h.engine.State(h.ctx, key)
	require.NoError(h.t, err)
	return state.Reserves
}

func requireKind(t *testing.T, err error, kind Kind, target error) {
	t.Helper()
	require.Error(t, err)
	got, ok := KindOf(err)
	require.True(t, ok, "not a handler error: %v", err)
	require.Equal(t, kind, got, "error: %v", err)
	if target != nil {
		require.ErrorIs(t, err, target)
	}
}

func TestInitializeCreatesPool(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	res := h.initialize(1, 30)

	key, err := h.engine.PoolKey(1)
	require.NoError(t, err)
	require.Equal(t, key, res.Pool)

	cfg, err := h.ledger.LoadConfig(h.ctx, res.Pool)
	require.NoError(t, err)
	require.False(t, cfg.Locked)
	require.Equal(t, uint16(30), cfg.FeeBps)
	require.Equal(t, pool.LPDecimals, cfg.LPDecimals)
	require.Equal(t, h.admin, *cfg.Authority)

	mint, err := h.ledger.Mint(h.ctx, cfg.MintLP)
	require.NoError(t, err)
	require.Equal(t, res.Pool, mint.Authority)
	require.Equal(t, uint8(6), mint.Decimals)

	vault, err := h.ledger.Account(h.ctx, res.VaultX)
	require.NoError(t, err)
	require.Equal(t, res.Pool, vault.Owner)

	require.Equal(t, curve.Reserves{}, h.reserves(res.Pool))
	require.Len(t, h.sink.events, 1)
	require.Equal(t, EventPoolInitialized, h.sink.events[0].Kind)
}

func TestInitializeRejections(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	h.initialize(1, 30)

	_, err := h.engine.Initialize(h.ctx, InitializeRequest{Initializer: h.alice, MintX: h.mintX, MintY: h.mintY, Seed: 1, FeeBps: 30})
	requireKind(t, err, KindState, ErrConfigExists)

	_, err = h.engine.Initialize(h.ctx, InitializeRequest{Initializer: h.alice, MintX: h.mintX, MintY: h.mintX, Seed: 2, FeeBps: 30})
	requireKind(t, err, KindValidation, pool.ErrIdenticalMints)

	_, err = h.engine.Initialize(h.ctx, InitializeRequest{Initializer: h.alice, MintX: h.mintX, MintY: h.mintY, Seed: 3, FeeBps: 10_000})
	requireKind(t, err, KindValidation, pool.ErrFeeOutOfRange)

	unknown := solana.NewWallet().PublicKey()
	_, err = h.engine.Initialize(h.ctx, InitializeRequest{Initializer: h.alice, MintX: h.mintX, MintY: unknown, Seed: 4, FeeBps: 30})
	requireKind(t, err, KindState, ledger.ErrMintNotFound)

	// Nothing from the failed attempt is left behind.
	key, err := h.engine.PoolKey(4)
	require.NoError(t, err)
	_, err = h.ledger.LoadConfig(h.ctx, key)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestBootstrapSwapWithdrawScenario(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool

	dep, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	require.NoError(t, err)
	require.True(t, dep.Bootstrap)
	require.Equal(t, curve.Amounts{X: 1000, Y: 4000}, dep.Amounts)
	require.Equal(t, uint64(1000), dep.Shares)
	require.Equal(t, uint64(1000), dep.LockedShares)
	require.Equal(t, curve.Reserves{X: 1000, Y: 4000, Supply: 2000}, h.reserves(p))
	require.Equal(t, uint64(1_000_000-1000), h.balance(h.alice, h.mintX))

	_, err = h.engine.Swap(h.ctx, SwapRequest{Pool: p, Trader: h.bob, SellX: true, AmountIn: 100, MinOut: 362})
	requireKind(t, err, KindSlippage, ErrSlippageExceeded)

	swap, err := h.engine.Swap(h.ctx, SwapRequest{Pool: p, Trader: h.bob, SellX: true, AmountIn: 100, MinOut: 361})
	require.NoError(t, err)
	require.Equal(t, uint64(361), swap.Withdraw)
	require.Equal(t, uint64(1), swap.Fee)
	require.Equal(t, curve.Reserves{X: 1100, Y: 3639, Supply: 2000}, h.reserves(p))
	require.Equal(t, swap.Reserves, h.reserves(p))
	require.Equal(t, uint64(1_000_000+361), h.balance(h.bob, h.mintY))

	_, err = h.engine.Withdraw(h.ctx, WithdrawRequest{Pool: p, Provider: h.alice, Shares: 500, MinX: 276, MinY: 909})
	requireKind(t, err, KindSlippage, ErrSlippageExceeded)

	wd, err := h.engine.Withdraw(h.ctx, WithdrawRequest{Pool: p, Provider: h.alice, Shares: 500, MinX: 275, MinY: 909})
	require.NoError(t, err)
	require.Equal(t, curve.Amounts{X: 275, Y: 909}, wd.Amounts)
	require.Equal(t, curve.Reserves{X: 825, Y: 2730, Supply: 1500}, h.reserves(p))
	require.Equal(t, uint64(500), h.balance(h.alice, h.lpMint(p)))

	kinds := make([]EventKind, 0, len(h.sink.events))
	for _, ev := range h.sink.events {
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, []EventKind{EventPoolInitialized, EventDeposit, EventSwap, EventWithdraw}, kinds)
}

func (h *harness) lpMint(key solana.PublicKey) solana.PublicKey {
	h.t.Helper()
	cfg, err := h.ledger.LoadConfig(h.ctx, key)
	require.NoError(h.t, err)
	return cfg.MintLP
}

func TestBootstrapWithoutMinimumLiquidity(t *testing.T) {
	h := newHarness(t, 0)
	p := h.initialize(1, 30).Pool

	dep, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 5, MaxX: 1000, MaxY: 4000})
	require.NoError(t, err)
	require.Equal(t, uint64(2000), dep.Shares)
	require.Zero(t, dep.LockedShares)
}

func TestBootstrapTooSmall(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool

	_, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 10, MaxY: 10})
	requireKind(t, err, KindValidation, curve.ErrInsufficientInitialLiquidity)

	_, err = h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 0, MaxY: 10})
	requireKind(t, err, KindValidation, curve.ErrZeroAmount)
}

func TestProportionalDepositScenario(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool
	_, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	require.NoError(t, err)

	_, err = h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.bob, Shares: 1000, MaxX: 499, MaxY: 2000})
	requireKind(t, err, KindSlippage, ErrSlippageExceeded)
	_, err = h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.bob, Shares: 1000, MaxX: 500, MaxY: 1999})
	requireKind(t, err, KindSlippage, ErrSlippageExceeded)

	dep, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.bob, Shares: 1000, MaxX: 500, MaxY: 2000})
	require.NoError(t, err)
	require.False(t, dep.Bootstrap)
	require.Equal(t, curve.Amounts{X: 500, Y: 2000}, dep.Amounts)
	require.Equal(t, uint64(1000), dep.Shares)
	require.Equal(t, curve.Reserves{X: 1500, Y: 6000, Supply: 3000}, h.reserves(p))
}

func TestZeroAmountsRejectedBeforeReads(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	missing := solana.NewWallet().PublicKey()

	_, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: missing, Provider: h.alice})
	requireKind(t, err, KindValidation, curve.ErrZeroAmount)
	_, err = h.engine.Withdraw(h.ctx, WithdrawRequest{Pool: missing, Provider: h.alice})
	requireKind(t, err, KindValidation, curve.ErrZeroAmount)
	_, err = h.engine.Swap(h.ctx, SwapRequest{Pool: missing, Trader: h.bob})
	requireKind(t, err, KindValidation, curve.ErrZeroAmount)

	_, err = h.engine.Swap(h.ctx, SwapRequest{Pool: missing, Trader: h.bob, AmountIn: 1})
	requireKind(t, err, KindState, ledger.ErrNotFound)
}

func TestLockBlocksDepositAndSwapButNotWithdraw(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool
	_, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	require.NoError(t, err)

	_, err = h.engine.Lock(h.ctx, AdminRequest{Pool: p, Signer: h.bob})
	requireKind(t, err, KindAuthorization, pool.ErrUnauthorizedAdmin)

	cfg, err := h.engine.Lock(h.ctx, AdminRequest{Pool: p, Signer: h.admin})
	require.NoError(t, err)
	require.True(t, cfg.Locked)

	_, err = h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.bob, Shares: 10, MaxX: 100, MaxY: 100})
	requireKind(t, err, KindState, ErrPoolLocked)
	_, err = h.engine.Swap(h.ctx, SwapRequest{Pool: p, Trader: h.bob, SellX: true, AmountIn: 100})
	requireKind(t, err, KindState, ErrPoolLocked)

	_, err = h.engine.Withdraw(h.ctx, WithdrawRequest{Pool: p, Provider: h.alice, Shares: 100})
	require.NoError(t, err)

	cfg, err = h.engine.Unlock(h.ctx, AdminRequest{Pool: p, Signer: h.admin})
	require.NoError(t, err)
	require.False(t, cfg.Locked)
	_, err = h.engine.Swap(h.ctx, SwapRequest{Pool: p, Trader: h.bob, SellX: false, AmountIn: 100})
	require.NoError(t, err)
}

func TestSetAuthority(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool

	next := h.bob
	cfg, err := h.engine.SetAuthority(h.ctx, SetAuthorityRequest{Pool: p, Signer: h.admin, NewAuthority: &next})
	require.NoError(t, err)
	require.Equal(t, h.bob, *cfg.Authority)

	_, err = h.engine.Lock(h.ctx, AdminRequest{Pool: p, Signer: h.admin})
	requireKind(t, err, KindAuthorization, pool.ErrUnauthorizedAdmin)

	cfg, err = h.engine.SetAuthority(h.ctx, SetAuthorityRequest{Pool: p, Signer: h.bob})
	require.NoError(t, err)
	require.Nil(t, cfg.Authority)

	_, err = h.engine.Lock(h.ctx, AdminRequest{Pool: p, Signer: h.bob})
	requireKind(t, err, KindAuthorization, pool.ErrNoAuthority)
}

func TestFailedTransactionLeavesNoEffects(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool
	_, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	require.NoError(t, err)
	before := h.reserves(p)

	// Bob holds no shares: the burn fails after both vault transfers were queued.
	_, err = h.engine.Withdraw(h.ctx, WithdrawRequest{Pool: p, Provider: h.bob, Shares: 100})
	requireKind(t, err, KindState, ledger.ErrAccountNotFound)
	require.Equal(t, before, h.reserves(p))
	require.Equal(t, uint64(1_000_000), h.balance(h.bob, h.mintX))

	// Alice cannot afford this deposit.
	_, err = h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1_000_000, MaxX: 1 << 40, MaxY: 1 << 40})
	requireKind(t, err, KindState, ledger.ErrInsufficientFunds)
	require.Equal(t, before, h.reserves(p))
}

type tamperedLedger struct {
	*ledger.Memory
}

func (l tamperedLedger) LoadConfig(ctx context.Context, key solana.PublicKey) (pool.Config, error) {
	cfg, err := l.Memory.LoadConfig(ctx, key)
	cfg.ConfigBump++
	return cfg, err
}

func TestForgedBumpIsRejected(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool

	forged := NewEngine(Config{ProgramID: testProgram, MinimumLiquidity: DefaultMinimumLiquidity}, tamperedLedger{h.ledger}, nil, nil)
	_, err := forged.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	requireKind(t, err, KindAuthorization, authority.ErrAuthorityMismatch)
}

func TestSinkFailureDoesNotFailOperation(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	h.sink.err = errors.New("disk full")

	res := h.initialize(1, 30)
	require.NotEqual(t, solana.PublicKey{}, res.Pool)
	require.Len(t, h.sink.events, 1)
}

func TestQuoteMatchesSwap(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool
	_, err := h.engine.Quote(h.ctx, QuoteRequest{Pool: p, SellX: true, Amount: 100, ExactIn: true})
	requireKind(t, err, KindState, curve.ErrEmptyPool)

	_, err = h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	require.NoError(t, err)

	quote, err := h.engine.Quote(h.ctx, QuoteRequest{Pool: p, SellX: true, Amount: 100, ExactIn: true})
	require.NoError(t, err)
	require.Equal(t, uint64(361), quote.Withdraw)

	exactOut, err := h.engine.Quote(h.ctx, QuoteRequest{Pool: p, SellX: true, Amount: 361})
	require.NoError(t, err)
	require.Equal(t, uint64(101), exactOut.Deposit)

	swap, err := h.engine.Swap(h.ctx, SwapRequest{Pool: p, Trader: h.bob, SellX: true, AmountIn: 100})
	require.NoError(t, err)
	require.Equal(t, quote, swap.SwapResult)
}

func TestRepeatedTradingKeepsProductGrowing(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool
	_, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 100_000, MaxY: 400_000})
	require.NoError(t, err)

	prev := h.reserves(p)
	for i := 0; i < 50; i++ {
		amount := uint64(500 + i*37)
		_, err := h.engine.Swap(h.ctx, SwapRequest{Pool: p, Trader: h.bob, SellX: i%2 == 0, AmountIn: amount})
		require.NoError(t, err)

		cur := h.reserves(p)
		require.GreaterOrEqual(t, cur.X*cur.Y, prev.X*prev.Y)
		require.Equal(t, prev.Supply, cur.Supply)
		prev = cur
	}
}

func TestSmallFeeSwapIsPricedNotRejected(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool
	_, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	require.NoError(t, err)

	res, err := h.engine.Swap(h.ctx, SwapRequest{Pool: p, Trader: h.bob, SellX: false, AmountIn: 400, MinOut: 90})
	require.NoError(t, err)
	require.Equal(t, uint64(90), res.Withdraw)

	r := h.reserves(p)
	require.Equal(t, curve.Reserves{X: 910, Y: 4400, Supply: 2000}, r)
	require.GreaterOrEqual(t, r.X*r.Y, uint64(1000*4000))
}

func TestBootstrapRejectsUnbackedVaults(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	created := h.initialize(1, 30)

	// Funds sent straight to a vault before any shares exist.
	_, err := h.ledger.Execute(h.ctx, ledger.Tx{
		Signers: []solana.PublicKey{h.bob},
		Ops:     []ledger.Op{ledger.Transfer(h.holder(h.bob, h.mintX), created.VaultX, 500, h.bob)},
	})
	require.NoError(t, err)

	_, err = h.engine.Deposit(h.ctx, DepositRequest{Pool: created.Pool, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	requireKind(t, err, KindState, ErrUnbackedReserves)
	require.Equal(t, uint64(1_000_000), h.balance(h.alice, h.mintX))
	require.Equal(t, uint64(500), h.reserves(created.Pool).X)
}

type inflatedSupplyLedger struct {
	*ledger.Memory
	factor uint64
}

func (l inflatedSupplyLedger) Supply(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	supply, err := l.Memory.Supply(ctx, mint)
	return supply * l.factor, err
}

func TestWithdrawRedeemingNothingIsRejected(t *testing.T) {
	h := newHarness(t, DefaultMinimumLiquidity)
	p := h.initialize(1, 30).Pool
	_, err := h.engine.Deposit(h.ctx, DepositRequest{Pool: p, Provider: h.alice, Shares: 1, MaxX: 1000, MaxY: 4000})
	require.NoError(t, err)

	diluted := NewEngine(Config{ProgramID: testProgram, MinimumLiquidity: DefaultMinimumLiquidity},
		inflatedSupplyLedger{Memory: h.ledger, factor: 10_000}, nil, nil)
	_, err = diluted.Withdraw(h.ctx, WithdrawRequest{Pool: p, Provider: h.alice, Shares: 1})
	requireKind(t, err, KindValidation, curve.ErrZeroOutput)
	require.Equal(t, uint64(1000), h.balance(h.alice, h.lpMint(p)))
}
