package pool

import (
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammcore/internal/curve"
)

func testConfig(admin *solana.PublicKey) Config {
	return Config{
		Seed:       1,
		MintX:      solana.NewWallet().PublicKey(),
		MintY:      solana.NewWallet().PublicKey(),
		MintLP:     solana.NewWallet().PublicKey(),
		FeeBps:     30,
		Authority:  admin,
		LPDecimals: LPDecimals,
	}
}

func TestValidate(t *testing.T) {
	cfg := testConfig(nil)
	require.NoError(t, cfg.Validate())

	same := cfg
	same.MintY = same.MintX
	require.ErrorIs(t, same.Validate(), ErrIdenticalMints)

	fee := cfg
	fee.FeeBps = 10_000
	require.ErrorIs(t, fee.Validate(), ErrFeeOutOfRange)

	fee.FeeBps = 9_999
	require.NoError(t, fee.Validate())
}

func TestSideLookup(t *testing.T) {
	cfg := testConfig(nil)

	side, err := cfg.Side(cfg.MintY)
	require.NoError(t, err)
	require.Equal(t, curve.SideY, side)
	require.Equal(t, cfg.MintY, cfg.Mint(side))

	_, err = cfg.Side(cfg.MintLP)
	require.ErrorIs(t, err, ErrMintMismatch)
}

func TestLockRequiresAuthority(t *testing.T) {
	admin := solana.NewWallet().PublicKey()
	cfg := testConfig(&admin)

	locked, err := cfg.WithLocked(admin, true)
	require.NoError(t, err)
	require.True(t, locked.Locked)
	require.False(t, cfg.Locked)
	require.True(t, cfg.Immutable(locked))

	_, err = cfg.WithLocked(solana.NewWallet().PublicKey(), true)
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)

	ownerless := testConfig(nil)
	_, err = ownerless.WithLocked(admin, true)
	require.ErrorIs(t, err, ErrNoAuthority)
}

func TestAuthorityHandover(t *testing.T) {
	admin := solana.NewWallet().PublicKey()
	next := solana.NewWallet().PublicKey()
	cfg := testConfig(&admin)

	moved, err := cfg.WithAuthority(admin, &next)
	require.NoError(t, err)
	require.Equal(t, next, *moved.Authority)

	_, err = moved.WithLocked(admin, true)
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)

	renounced, err := moved.WithAuthority(next, nil)
	require.NoError(t, err)
	require.Nil(t, renounced.Authority)
	_, err = renounced.WithLocked(next, false)
	require.ErrorIs(t, err, ErrNoAuthority)
}

func TestImmutableDetectsFeeChange(t *testing.T) {
	cfg := testConfig(nil)
	changed := cfg
	changed.FeeBps++
	require.False(t, cfg.Immutable(changed))
}

func TestConfigJSONUsesBase58Keys(t *testing.T) {
	admin := solana.NewWallet().PublicKey()
	cfg := testConfig(&admin)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, cfg.MintX.String(), raw["mint_x"])
	require.Equal(t, admin.String(), raw["authority"])

	var decoded Config
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, cfg, decoded)
}
