package authority

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

var testProgram = solana.MustPublicKeyFromBase58("LbVRzDTvBDEcrthxfZ4RL6yiq3uZw8bS6MwtdY6UhFQ")

func TestDeriveAndVerifyConfig(t *testing.T) {
	d := NewDeriver(testProgram)

	key, bump, err := d.FindConfig(42)
	require.NoError(t, err)
	require.NoError(t, d.VerifyConfig(42, bump, key))

	again, againBump, err := d.FindConfig(42)
	require.NoError(t, err)
	require.Equal(t, key, again)
	require.Equal(t, bump, againBump)

	other, _, err := d.FindConfig(43)
	require.NoError(t, err)
	require.NotEqual(t, key, other)

	err = d.VerifyConfig(43, bump, key)
	require.ErrorIs(t, err, ErrAuthorityMismatch)
}

func TestDeriveLPMint(t *testing.T) {
	d := NewDeriver(testProgram)
	config, _, err := d.FindConfig(7)
	require.NoError(t, err)

	lp, bump, err := d.FindLPMint(config)
	require.NoError(t, err)
	require.NoError(t, d.VerifyLPMint(config, bump, lp))
	require.ErrorIs(t, d.VerifyLPMint(config, bump, config), ErrAuthorityMismatch)
}

func TestSignerSeedsAuthorizeConfig(t *testing.T) {
	d := NewDeriver(testProgram)
	config, bump, err := d.FindConfig(9)
	require.NoError(t, err)

	require.True(t, ProgramSigner(testProgram, d.SignerSeeds(9, bump), config))
	require.False(t, ProgramSigner(testProgram, d.SignerSeeds(10, bump), config))
	require.False(t, ProgramSigner(testProgram, nil, config))

	otherProgram := solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")
	require.False(t, ProgramSigner(otherProgram, d.SignerSeeds(9, bump), config))
}

func TestVaultIsPerMint(t *testing.T) {
	d := NewDeriver(testProgram)
	config, _, err := d.FindConfig(1)
	require.NoError(t, err)

	mintX := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	mintY := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	vx, err := d.Vault(config, mintX)
	require.NoError(t, err)
	vy, err := d.Vault(config, mintY)
	require.NoError(t, err)
	require.NotEqual(t, vx, vy)

	again, err := Holder(config, mintX)
	require.NoError(t, err)
	require.Equal(t, vx, again)
}
