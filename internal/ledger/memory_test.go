package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammcore/internal/authority"
	"ammcore/internal/pool"
)

var testProgram = solana.MustPublicKeyFromBase58("LbVRzDTvBDEcrthxfZ4RL6yiq3uZw8bS6MwtdY6UhFQ")

type fixture struct {
	ledger *Memory
	mint   solana.PublicKey
	issuer solana.PublicKey
	alice  solana.PublicKey
	bob    solana.PublicKey
	accA   solana.PublicKey
	accB   solana.PublicKey
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		ledger: NewMemory(testProgram, WithClock(func() time.Time { return time.Unix(1700000000, 0) })),
		mint:   solana.NewWallet().PublicKey(),
		issuer: solana.NewWallet().PublicKey(),
		alice:  solana.NewWallet().PublicKey(),
		bob:    solana.NewWallet().PublicKey(),
	}
	var err error
	f.accA, err = authority.Holder(f.alice, f.mint)
	require.NoError(t, err)
	f.accB, err = authority.Holder(f.bob, f.mint)
	require.NoError(t, err)

	_, err = f.ledger.Execute(context.Background(), Tx{
		Signers: []solana.PublicKey{f.issuer},
		Ops: []Op{
			CreateMint(f.mint, 9, f.issuer),
			CreateAccount(f.accA, f.alice, f.mint),
			CreateAccount(f.accB, f.bob, f.mint),
			MintTo(f.mint, f.accA, 1000, f.issuer),
		},
	})
	require.NoError(t, err)
	return f
}

func TestTransferRequiresOwnerSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.bob},
		Ops:     []Op{Transfer(f.accA, f.accB, 10, f.alice)},
	})
	require.ErrorIs(t, err, ErrUnauthorized)

	receipt, err := f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.alice},
		Ops:     []Op{Transfer(f.accA, f.accB, 10, f.alice)},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), receipt.Sequence)
	require.Equal(t, int64(1700000000), receipt.Timestamp.Unix())

	bal, err := f.ledger.Balance(ctx, f.accB)
	require.NoError(t, err)
	require.Equal(t, uint64(10), bal)
}

func TestExecuteIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.alice, f.bob},
		Ops: []Op{
			Transfer(f.accA, f.accB, 600, f.alice),
			Transfer(f.accB, f.accA, 5000, f.bob),
		},
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	balA, err := f.ledger.Balance(ctx, f.accA)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), balA)
	balB, err := f.ledger.Balance(ctx, f.accB)
	require.NoError(t, err)
	require.Zero(t, balB)
}

func TestMintAndBurn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.alice},
		Ops:     []Op{MintTo(f.mint, f.accA, 1, f.alice)},
	})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.alice},
		Ops:     []Op{Burn(f.mint, f.accA, 400, f.alice)},
	})
	require.NoError(t, err)

	supply, err := f.ledger.Supply(ctx, f.mint)
	require.NoError(t, err)
	require.Equal(t, uint64(600), supply)

	_, err = f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.alice},
		Ops:     []Op{Burn(f.mint, f.accA, 601, f.alice)},
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestProgramSeedsAuthorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := authority.NewDeriver(testProgram)

	config, bump, err := d.FindConfig(5)
	require.NoError(t, err)
	vault, err := d.Vault(config, f.mint)
	require.NoError(t, err)

	_, err = f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.alice},
		Ops: []Op{
			CreateAccount(vault, config, f.mint),
			Transfer(f.accA, vault, 100, f.alice),
		},
	})
	require.NoError(t, err)

	_, err = f.ledger.Execute(ctx, Tx{
		Ops: []Op{Transfer(vault, f.accB, 50, config)},
	})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.ledger.Execute(ctx, Tx{
		Ops: []Op{Transfer(vault, f.accB, 50, config).SignedBy(d.SignerSeeds(6, bump))},
	})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.ledger.Execute(ctx, Tx{
		Ops: []Op{Transfer(vault, f.accB, 50, config).SignedBy(d.SignerSeeds(5, bump))},
	})
	require.NoError(t, err)

	bal, err := f.ledger.Balance(ctx, vault)
	require.NoError(t, err)
	require.Equal(t, uint64(50), bal)
}

func TestEnsureAccountIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Execute(ctx, Tx{Ops: []Op{EnsureAccount(f.accA, f.alice, f.mint)}})
	require.NoError(t, err)

	_, err = f.ledger.Execute(ctx, Tx{Ops: []Op{CreateAccount(f.accA, f.alice, f.mint)}})
	require.ErrorIs(t, err, ErrAccountExists)

	_, err = f.ledger.Execute(ctx, Tx{Ops: []Op{EnsureAccount(f.accA, f.bob, f.mint)}})
	require.ErrorIs(t, err, ErrAccountExists)

	bal, err := f.ledger.Balance(ctx, f.accA)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), bal)
}

func TestWriteConfigRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := authority.NewDeriver(testProgram)

	key, bump, err := d.FindConfig(3)
	require.NoError(t, err)
	seeds := d.SignerSeeds(3, bump)

	cfg := pool.Config{Seed: 3, MintX: f.mint, MintY: f.issuer, FeeBps: 30, ConfigBump: bump}

	_, err = f.ledger.LoadConfig(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.ledger.Execute(ctx, Tx{Ops: []Op{WriteConfig(key, cfg, true)}})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.ledger.Execute(ctx, Tx{Ops: []Op{WriteConfig(key, cfg, true).SignedBy(seeds)}})
	require.NoError(t, err)

	_, err = f.ledger.Execute(ctx, Tx{Ops: []Op{WriteConfig(key, cfg, true).SignedBy(seeds)}})
	require.ErrorIs(t, err, ErrAccountExists)

	changed := cfg
	changed.FeeBps = 100
	_, err = f.ledger.Execute(ctx, Tx{Ops: []Op{WriteConfig(key, changed, false).SignedBy(seeds)}})
	require.ErrorIs(t, err, ErrImmutableConfig)

	locked := cfg
	locked.Locked = true
	_, err = f.ledger.Execute(ctx, Tx{Ops: []Op{WriteConfig(key, locked, false).SignedBy(seeds)}})
	require.NoError(t, err)

	loaded, err := f.ledger.LoadConfig(ctx, key)
	require.NoError(t, err)
	require.True(t, loaded.Locked)
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "ledger.json")

	admin := f.alice
	key := solana.NewWallet().PublicKey()
	_, err := f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{key},
		Ops:     []Op{WriteConfig(key, pool.Config{Seed: 1, MintX: f.mint, MintY: f.issuer, Authority: &admin}, true)},
	})
	require.NoError(t, err)
	require.NoError(t, f.ledger.Save(path))

	restored, err := LoadMemory(path, testProgram)
	require.NoError(t, err)

	acc, err := restored.Account(ctx, f.accA)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), acc.Balance)
	require.Equal(t, f.alice, acc.Owner)

	cfg, err := restored.LoadConfig(ctx, key)
	require.NoError(t, err)
	require.Equal(t, admin, *cfg.Authority)

	receipt, err := restored.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.alice},
		Ops:     []Op{Transfer(f.accA, f.accB, 1, f.alice)},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(3), receipt.Sequence)

	_, err = LoadMemory(path, solana.NewWallet().PublicKey())
	require.Error(t, err)

	empty, err := LoadMemory(filepath.Join(t.TempDir(), "missing.json"), testProgram)
	require.NoError(t, err)
	_, _, err = empty.Configs(ctx)
	require.NoError(t, err)
}

func TestExecuteHonorsCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ledger.Execute(ctx, Tx{
		Signers: []solana.PublicKey{f.alice},
		Ops:     []Op{Transfer(f.accA, f.accB, 1, f.alice)},
	})
	require.ErrorIs(t, err, context.Canceled)
}
